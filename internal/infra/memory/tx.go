package memory

import (
	"context"
	"sort"
	"time"

	"certify-service/internal/app"
	"certify-service/internal/domain"
)

// memTx implements app.Tx directly against the store tables; the store
// mutex held by RunInTx serializes access.
type memTx struct {
	data *tables
}

func (t *memTx) Assessments() app.AssessmentRepository { return assessmentRepo{t.data} }
func (t *memTx) Attempts() app.AttemptRepository       { return attemptRepo{t.data} }
func (t *memTx) Users() app.UserRepository             { return userRepo{t.data} }
func (t *memTx) Stats() app.StatsRepository            { return statsRepo{t.data} }
func (t *memTx) Badges() app.BadgeRepository           { return badgeRepo{t.data} }
func (t *memTx) Levels() app.LevelRepository           { return levelRepo{t.data} }
func (t *memTx) PointEvents() app.PointEventRepository { return eventRepo{t.data} }
func (t *memTx) Challenges() app.ChallengeRepository   { return challengeRepo{t.data} }

type assessmentRepo struct{ data *tables }

func (r assessmentRepo) Get(_ context.Context, id int64) (domain.Assessment, error) {
	a, ok := r.data.assessments[id]
	if !ok {
		return domain.Assessment{}, domain.ErrAssessmentNotFound
	}
	return a, nil
}

func (r assessmentRepo) GetForUpdate(ctx context.Context, id int64) (domain.Assessment, error) {
	return r.Get(ctx, id)
}

func (r assessmentRepo) ListAssignedTo(_ context.Context, user domain.User) ([]domain.Assessment, error) {
	var out []domain.Assessment
	for _, a := range r.data.assessments {
		if a.AssignedTo(user) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type attemptRepo struct{ data *tables }

func (r attemptRepo) GetForUpdate(_ context.Context, id int64) (domain.Attempt, error) {
	a, ok := r.data.attempts[id]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return a, nil
}

func (r attemptRepo) FindInProgress(_ context.Context, assessmentID, userID int64) (domain.Attempt, bool, error) {
	for _, a := range r.data.attempts {
		if a.AssessmentID == assessmentID && a.UserID == userID && a.Status == domain.AttemptInProgress {
			return a, true, nil
		}
	}
	return domain.Attempt{}, false, nil
}

func (r attemptRepo) CountForUser(_ context.Context, assessmentID, userID int64) (int, error) {
	count := 0
	for _, a := range r.data.attempts {
		if a.AssessmentID == assessmentID && a.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r attemptRepo) Create(_ context.Context, attempt *domain.Attempt) error {
	attempt.ID = r.data.nextID("attempt")
	r.data.attempts[attempt.ID] = *attempt
	return nil
}

func (r attemptRepo) Update(_ context.Context, attempt *domain.Attempt) error {
	if _, ok := r.data.attempts[attempt.ID]; !ok {
		return domain.ErrAttemptNotFound
	}
	r.data.attempts[attempt.ID] = *attempt
	return nil
}

func (r attemptRepo) UpsertAnswer(_ context.Context, answer domain.Answer) error {
	r.data.answers[answerKey{answer.AttemptID, answer.QuestionID}] = answer
	return nil
}

func (r attemptRepo) CountCorrectAnswers(_ context.Context, attemptID int64) (int, error) {
	count := 0
	for k, a := range r.data.answers {
		if k.attemptID == attemptID && a.IsCorrect {
			count++
		}
	}
	return count, nil
}

func (r attemptRepo) BestScores(_ context.Context, userID int64) (map[int64]float64, error) {
	best := make(map[int64]float64)
	for _, a := range r.data.attempts {
		if a.UserID != userID || a.Status != domain.AttemptCompleted {
			continue
		}
		if cur, ok := best[a.AssessmentID]; !ok || a.ScorePercent > cur {
			best[a.AssessmentID] = a.ScorePercent
		}
	}
	return best, nil
}

type userRepo struct{ data *tables }

func (r userRepo) Get(_ context.Context, id int64) (domain.User, error) {
	u, ok := r.data.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (r userRepo) GetForUpdate(ctx context.Context, id int64) (domain.User, error) {
	return r.Get(ctx, id)
}

func (r userRepo) UpdateProgress(_ context.Context, id int64, points, level int) error {
	u, ok := r.data.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Points = points
	u.Level = level
	r.data.users[id] = u
	return nil
}

type statsRepo struct{ data *tables }

func (r statsRepo) GetOrCreateForUpdate(_ context.Context, userID int64) (domain.GamificationStats, error) {
	if st, ok := r.data.stats[userID]; ok {
		return st, nil
	}
	st := domain.GamificationStats{UserID: userID}
	r.data.stats[userID] = st
	return st, nil
}

func (r statsRepo) Update(_ context.Context, stats domain.GamificationStats) error {
	r.data.stats[stats.UserID] = stats
	return nil
}

type badgeRepo struct{ data *tables }

func (r badgeRepo) GetByCode(_ context.Context, code string) (domain.Badge, error) {
	for _, b := range r.data.badges {
		if b.Code == code {
			return b, nil
		}
	}
	return domain.Badge{}, domain.ErrBadgeNotFound
}

func (r badgeRepo) Award(_ context.Context, userID, badgeID int64, at time.Time) (bool, error) {
	key := userBadgeKey{userID, badgeID}
	if _, ok := r.data.userBadges[key]; ok {
		return false, nil
	}
	r.data.userBadges[key] = domain.UserBadge{UserID: userID, BadgeID: badgeID, AwardedAt: at}
	return true, nil
}

type levelRepo struct{ data *tables }

func (r levelRepo) List(_ context.Context) ([]domain.Level, error) {
	out := make([]domain.Level, len(r.data.levels))
	copy(out, r.data.levels)
	return out, nil
}

type eventRepo struct{ data *tables }

func (r eventRepo) Record(_ context.Context, event domain.PointEvent) error {
	event.ID = r.data.nextID("event")
	r.data.events = append(r.data.events, event)
	return nil
}

func (r eventRepo) MonthTotal(_ context.Context, userID int64, from, to time.Time) (int, error) {
	total := 0
	for _, e := range r.data.events {
		if e.UserID != userID {
			continue
		}
		if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		total += e.Delta
	}
	return total, nil
}

func (r eventRepo) ListForUser(_ context.Context, userID int64, limit int) ([]domain.PointEvent, error) {
	var out []domain.PointEvent
	for _, e := range r.data.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type challengeRepo struct{ data *tables }

func (r challengeRepo) GetOrCreate(_ context.Context, start, end time.Time) (domain.TeamChallenge, error) {
	for _, c := range r.data.challenges {
		if c.PeriodStart.Equal(start) {
			return c, nil
		}
	}
	c := domain.TeamChallenge{ID: r.data.nextID("challenge"), PeriodStart: start, PeriodEnd: end}
	r.data.challenges[c.ID] = c
	return c, nil
}

func (r challengeRepo) AddBranchPoints(_ context.Context, challengeID, branchID int64, delta int) error {
	if _, ok := r.data.challenges[challengeID]; !ok {
		return domain.ErrChallengeNotFound
	}
	r.data.branchScores[branchScoreKey{challengeID, branchID}] += delta
	return nil
}

func (r challengeRepo) Standings(_ context.Context, challengeID int64) ([]domain.ChallengeStanding, error) {
	var out []domain.ChallengeStanding
	for k, points := range r.data.branchScores {
		if k.challengeID == challengeID {
			out = append(out, domain.ChallengeStanding{BranchID: k.branchID, Points: points})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].BranchID < out[j].BranchID
	})
	return out, nil
}
