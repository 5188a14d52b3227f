package domain

import "errors"

var (
	// ErrAssessmentNotFound is returned when the referenced assessment does not exist.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrAttemptNotFound is returned when an attempt is missing or hidden from the caller.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrQuestionNotFound indicates the question does not belong to the attempt's assessment.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates the option does not belong to the question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrUserNotFound is returned when the user directory has no such user.
	ErrUserNotFound = errors.New("user not found")
	// ErrBadgeNotFound is returned when a badge code is absent from the catalog.
	ErrBadgeNotFound = errors.New("badge not found")
	// ErrChallengeNotFound is returned when no team challenge exists for the period.
	ErrChallengeNotFound = errors.New("team challenge not found")

	// ErrAssessmentNotOpen means the attempt was started before the open window.
	ErrAssessmentNotOpen = errors.New("assessment is not open yet")
	// ErrAssessmentClosed means the attempt was started after the close timestamp.
	ErrAssessmentClosed = errors.New("assessment is closed")
	// ErrAttemptCompleted means a mutation was applied to a finished attempt.
	ErrAttemptCompleted = errors.New("attempt is already completed")
	// ErrNoQuestions rejects attempts against assessments with an empty question set.
	ErrNoQuestions = errors.New("assessment has no questions")

	// ErrAttemptLimitExceeded means the assessment's max attempt count is spent.
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")

	// ErrPermissionDenied means the attempt belongs to a different user.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrLadderEmpty means the level ladder reference data has not been seeded.
	ErrLadderEmpty = errors.New("level ladder is empty")
)

// ErrorKind classifies errors for callers that translate them into transport
// status codes.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindInvalidState
	KindLimitExceeded
	KindPermissionDenied
	KindConfiguration
)

// Classify maps a domain error to its kind. Unknown errors (driver failures,
// context cancellation) classify as KindUnknown and should surface as internal.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrAssessmentNotFound),
		errors.Is(err, ErrAttemptNotFound),
		errors.Is(err, ErrQuestionNotFound),
		errors.Is(err, ErrOptionNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrChallengeNotFound):
		return KindNotFound
	case errors.Is(err, ErrAssessmentNotOpen),
		errors.Is(err, ErrAssessmentClosed),
		errors.Is(err, ErrAttemptCompleted),
		errors.Is(err, ErrNoQuestions):
		return KindInvalidState
	case errors.Is(err, ErrAttemptLimitExceeded):
		return KindLimitExceeded
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrBadgeNotFound), errors.Is(err, ErrLadderEmpty):
		return KindConfiguration
	default:
		return KindUnknown
	}
}
