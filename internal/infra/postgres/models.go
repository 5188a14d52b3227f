// Package postgres implements the transactional store on bun/Postgres.
// Row locks use SELECT ... FOR UPDATE; rule condition/formula/scope columns
// are jsonb so the admin surface can evolve them without migrations.
package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"certify-service/internal/domain"
)

type assessmentModel struct {
	bun.BaseModel `bun:"table:assessments,alias:a"`

	ID                  int64     `bun:"id,pk,autoincrement"`
	Title               string    `bun:"title,notnull"`
	Description         string    `bun:"description"`
	OpenAt              time.Time `bun:"open_at,notnull"`
	CloseAt             time.Time `bun:"close_at,notnull"`
	TimeLimitMinutes    int       `bun:"time_limit_minutes,notnull,default:0"`
	PassScorePercent    float64   `bun:"pass_score_percent,notnull,default:0"`
	MaxAttempts         int       `bun:"max_attempts,notnull,default:0"`
	AssignedUserIDs     []int64   `bun:"assigned_user_ids,array"`
	AssignedPositionIDs []int64   `bun:"assigned_position_ids,array"`
	AssignedBranchIDs   []int64   `bun:"assigned_branch_ids,array"`
}

func (m assessmentModel) toDomain() domain.Assessment {
	return domain.Assessment{
		ID:                  m.ID,
		Title:               m.Title,
		Description:         m.Description,
		OpenAt:              m.OpenAt,
		CloseAt:             m.CloseAt,
		TimeLimitMinutes:    m.TimeLimitMinutes,
		PassScorePercent:    m.PassScorePercent,
		MaxAttempts:         m.MaxAttempts,
		AssignedUserIDs:     m.AssignedUserIDs,
		AssignedPositionIDs: m.AssignedPositionIDs,
		AssignedBranchIDs:   m.AssignedBranchIDs,
	}
}

type questionModel struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID           int64  `bun:"id,pk,autoincrement"`
	AssessmentID int64  `bun:"assessment_id,notnull"`
	Position     int    `bun:"position,notnull,default:0"`
	Text         string `bun:"text,notnull"`
}

type optionModel struct {
	bun.BaseModel `bun:"table:question_options,alias:o"`

	ID         int64  `bun:"id,pk,autoincrement"`
	QuestionID int64  `bun:"question_id,notnull"`
	Text       string `bun:"text,notnull"`
	IsCorrect  bool   `bun:"is_correct,notnull,default:false"`
}

type attemptModel struct {
	bun.BaseModel `bun:"table:attempts,alias:at"`

	ID               int64      `bun:"id,pk,autoincrement"`
	AssessmentID     int64      `bun:"assessment_id,notnull"`
	UserID           int64      `bun:"user_id,notnull"`
	AttemptNumber    int        `bun:"attempt_number,notnull"`
	Status           string     `bun:"status,notnull"`
	StartedAt        time.Time  `bun:"started_at,notnull"`
	CompletedAt      *time.Time `bun:"completed_at"`
	ScorePercent     float64    `bun:"score_percent,notnull,default:0"`
	CorrectAnswers   int        `bun:"correct_answers,notnull,default:0"`
	TotalQuestions   int        `bun:"total_questions,notnull,default:0"`
	TimeSpentSeconds int        `bun:"time_spent_seconds,notnull,default:0"`
}

func (m attemptModel) toDomain() domain.Attempt {
	return domain.Attempt{
		ID:               m.ID,
		AssessmentID:     m.AssessmentID,
		UserID:           m.UserID,
		AttemptNumber:    m.AttemptNumber,
		Status:           domain.AttemptStatus(m.Status),
		StartedAt:        m.StartedAt,
		CompletedAt:      m.CompletedAt,
		ScorePercent:     m.ScorePercent,
		CorrectAnswers:   m.CorrectAnswers,
		TotalQuestions:   m.TotalQuestions,
		TimeSpentSeconds: m.TimeSpentSeconds,
	}
}

func attemptToModel(a domain.Attempt) attemptModel {
	return attemptModel{
		ID:               a.ID,
		AssessmentID:     a.AssessmentID,
		UserID:           a.UserID,
		AttemptNumber:    a.AttemptNumber,
		Status:           string(a.Status),
		StartedAt:        a.StartedAt,
		CompletedAt:      a.CompletedAt,
		ScorePercent:     a.ScorePercent,
		CorrectAnswers:   a.CorrectAnswers,
		TotalQuestions:   a.TotalQuestions,
		TimeSpentSeconds: a.TimeSpentSeconds,
	}
}

type answerModel struct {
	bun.BaseModel `bun:"table:attempt_answers,alias:aa"`

	AttemptID  int64     `bun:"attempt_id,pk"`
	QuestionID int64     `bun:"question_id,pk"`
	OptionID   int64     `bun:"option_id,notnull"`
	IsCorrect  bool      `bun:"is_correct,notnull"`
	AnsweredAt time.Time `bun:"answered_at,notnull"`
}

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID         int64  `bun:"id,pk,autoincrement"`
	Role       string `bun:"role,notnull"`
	BranchID   int64  `bun:"branch_id,notnull,default:0"`
	PositionID int64  `bun:"position_id,notnull,default:0"`
	Points     int    `bun:"points,notnull,default:0"`
	Level      int    `bun:"level,notnull,default:1"`
}

func (m userModel) toDomain() domain.User {
	return domain.User{
		ID:         m.ID,
		Role:       m.Role,
		BranchID:   m.BranchID,
		PositionID: m.PositionID,
		Points:     m.Points,
		Level:      m.Level,
	}
}

type statsModel struct {
	bun.BaseModel `bun:"table:gamification_stats,alias:gs"`

	UserID          int64      `bun:"user_id,pk"`
	CurrentStreak   int        `bun:"current_streak,notnull,default:0"`
	LongestStreak   int        `bun:"longest_streak,notnull,default:0"`
	LastStreakAward int        `bun:"last_streak_award,notnull,default:0"`
	LastAttemptAt   *time.Time `bun:"last_attempt_at"`
	LastSuccessAt   *time.Time `bun:"last_success_at"`
}

func (m statsModel) toDomain() domain.GamificationStats {
	return domain.GamificationStats{
		UserID:          m.UserID,
		CurrentStreak:   m.CurrentStreak,
		LongestStreak:   m.LongestStreak,
		LastStreakAward: m.LastStreakAward,
		LastAttemptAt:   m.LastAttemptAt,
		LastSuccessAt:   m.LastSuccessAt,
	}
}

type badgeModel struct {
	bun.BaseModel `bun:"table:badges,alias:b"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Code        string `bun:"code,notnull,unique"`
	Name        string `bun:"name,notnull"`
	Description string `bun:"description"`
	Icon        string `bun:"icon"`
}

type userBadgeModel struct {
	bun.BaseModel `bun:"table:user_badges,alias:ub"`

	UserID    int64     `bun:"user_id,pk"`
	BadgeID   int64     `bun:"badge_id,pk"`
	AwardedAt time.Time `bun:"awarded_at,notnull"`
}

type levelModel struct {
	bun.BaseModel `bun:"table:levels,alias:l"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Number    int    `bun:"number,notnull,unique"`
	Name      string `bun:"name,notnull"`
	MinPoints int    `bun:"min_points,notnull"`
}

type pointEventModel struct {
	bun.BaseModel `bun:"table:point_events,alias:pe"`

	ID          int64     `bun:"id,pk,autoincrement"`
	UserID      int64     `bun:"user_id,notnull"`
	Type        string    `bun:"type,notnull"`
	Delta       int       `bun:"delta,notnull"`
	Description string    `bun:"description"`
	BranchID    int64     `bun:"branch_id,notnull,default:0"`
	PositionID  int64     `bun:"position_id,notnull,default:0"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

type challengeModel struct {
	bun.BaseModel `bun:"table:team_challenges,alias:tc"`

	ID          int64     `bun:"id,pk,autoincrement"`
	PeriodStart time.Time `bun:"period_start,notnull,unique"`
	PeriodEnd   time.Time `bun:"period_end,notnull"`
}

type challengeScoreModel struct {
	bun.BaseModel `bun:"table:challenge_scores,alias:cs"`

	ChallengeID int64 `bun:"challenge_id,pk"`
	BranchID    int64 `bun:"branch_id,pk"`
	Points      int   `bun:"points,notnull,default:0"`
}

type ruleModel struct {
	bun.BaseModel `bun:"table:gamification_rules,alias:gr"`

	ID         int64                `bun:"id,pk,autoincrement"`
	Code       string               `bun:"code,notnull,unique"`
	Name       string               `bun:"name,notnull"`
	Type       string               `bun:"type,notnull"`
	Condition  domain.RuleCondition `bun:"condition,type:jsonb"`
	Formula    domain.RuleFormula   `bun:"formula,type:jsonb"`
	Scope      domain.RuleScope     `bun:"scope,type:jsonb"`
	Priority   int                  `bun:"priority,notnull,default:0"`
	Active     bool                 `bun:"active,notnull,default:true"`
	ActiveFrom *time.Time           `bun:"active_from"`
	ActiveTo   *time.Time           `bun:"active_to"`
}

func (m ruleModel) toDomain() domain.GamificationRule {
	return domain.GamificationRule{
		ID:         m.ID,
		Code:       m.Code,
		Name:       m.Name,
		Type:       domain.RuleType(m.Type),
		Condition:  m.Condition,
		Formula:    m.Formula,
		Scope:      m.Scope,
		Priority:   m.Priority,
		Active:     m.Active,
		ActiveFrom: m.ActiveFrom,
		ActiveTo:   m.ActiveTo,
	}
}

func ruleToModel(r domain.GamificationRule) ruleModel {
	return ruleModel{
		ID:         r.ID,
		Code:       r.Code,
		Name:       r.Name,
		Type:       string(r.Type),
		Condition:  r.Condition,
		Formula:    r.Formula,
		Scope:      r.Scope,
		Priority:   r.Priority,
		Active:     r.Active,
		ActiveFrom: r.ActiveFrom,
		ActiveTo:   r.ActiveTo,
	}
}

type settingModel struct {
	bun.BaseModel `bun:"table:app_settings,alias:st"`

	Key   string `bun:"key,pk"`
	Value string `bun:"value,notnull"`
}
