package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"certify-service/internal/app"
	"certify-service/internal/domain"
)

// Store implements app.Store on a bun DB handle.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &pgTx{db: tx})
	})
}

type pgTx struct {
	db bun.Tx
}

func (t *pgTx) Assessments() app.AssessmentRepository { return &assessmentRepo{db: t.db} }
func (t *pgTx) Attempts() app.AttemptRepository       { return &attemptRepo{db: t.db} }
func (t *pgTx) Users() app.UserRepository             { return &userRepo{db: t.db} }
func (t *pgTx) Stats() app.StatsRepository            { return &statsRepo{db: t.db} }
func (t *pgTx) Badges() app.BadgeRepository           { return &badgeRepo{db: t.db} }
func (t *pgTx) Levels() app.LevelRepository           { return &levelRepo{db: t.db} }
func (t *pgTx) PointEvents() app.PointEventRepository { return &eventRepo{db: t.db} }
func (t *pgTx) Challenges() app.ChallengeRepository   { return &challengeRepo{db: t.db} }

type assessmentRepo struct {
	db bun.Tx
}

func (r *assessmentRepo) Get(ctx context.Context, id int64) (domain.Assessment, error) {
	return r.get(ctx, id, false)
}

func (r *assessmentRepo) GetForUpdate(ctx context.Context, id int64) (domain.Assessment, error) {
	return r.get(ctx, id, true)
}

func (r *assessmentRepo) get(ctx context.Context, id int64, lock bool) (domain.Assessment, error) {
	var m assessmentModel
	q := r.db.NewSelect().Model(&m).Where("a.id = ?", id)
	if lock {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Assessment{}, domain.ErrAssessmentNotFound
		}
		return domain.Assessment{}, err
	}

	assessment := m.toDomain()
	questions, err := r.loadQuestions(ctx, id)
	if err != nil {
		return domain.Assessment{}, err
	}
	assessment.Questions = questions
	return assessment, nil
}

func (r *assessmentRepo) loadQuestions(ctx context.Context, assessmentID int64) ([]domain.Question, error) {
	var qms []questionModel
	err := r.db.NewSelect().Model(&qms).
		Where("q.assessment_id = ?", assessmentID).
		Order("q.position ASC", "q.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(qms) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(qms))
	for i, qm := range qms {
		ids[i] = qm.ID
	}
	var oms []optionModel
	err = r.db.NewSelect().Model(&oms).
		Where("o.question_id IN (?)", bun.In(ids)).
		Order("o.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	byQuestion := make(map[int64][]domain.Option, len(qms))
	for _, om := range oms {
		byQuestion[om.QuestionID] = append(byQuestion[om.QuestionID], domain.Option{
			ID:         om.ID,
			QuestionID: om.QuestionID,
			Text:       om.Text,
			IsCorrect:  om.IsCorrect,
		})
	}

	questions := make([]domain.Question, len(qms))
	for i, qm := range qms {
		questions[i] = domain.Question{
			ID:           qm.ID,
			AssessmentID: qm.AssessmentID,
			Position:     qm.Position,
			Text:         qm.Text,
			Options:      byQuestion[qm.ID],
		}
	}
	return questions, nil
}

func (r *assessmentRepo) ListAssignedTo(ctx context.Context, user domain.User) ([]domain.Assessment, error) {
	var ms []assessmentModel
	q := r.db.NewSelect().Model(&ms).
		Where("? = ANY(a.assigned_user_ids)", user.ID)
	if user.PositionID != 0 {
		q = q.WhereOr("? = ANY(a.assigned_position_ids)", user.PositionID)
	}
	if user.BranchID != 0 {
		q = q.WhereOr("? = ANY(a.assigned_branch_ids)", user.BranchID)
	}
	if err := q.Order("a.id ASC").Scan(ctx); err != nil {
		return nil, err
	}

	assessments := make([]domain.Assessment, len(ms))
	for i, m := range ms {
		assessments[i] = m.toDomain()
	}
	return assessments, nil
}

type attemptRepo struct {
	db bun.Tx
}

func (r *attemptRepo) GetForUpdate(ctx context.Context, id int64) (domain.Attempt, error) {
	var m attemptModel
	err := r.db.NewSelect().Model(&m).Where("at.id = ?", id).For("UPDATE").Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Attempt{}, domain.ErrAttemptNotFound
		}
		return domain.Attempt{}, err
	}
	return m.toDomain(), nil
}

func (r *attemptRepo) FindInProgress(ctx context.Context, assessmentID, userID int64) (domain.Attempt, bool, error) {
	var m attemptModel
	err := r.db.NewSelect().Model(&m).
		Where("at.assessment_id = ?", assessmentID).
		Where("at.user_id = ?", userID).
		Where("at.status = ?", string(domain.AttemptInProgress)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Attempt{}, false, nil
		}
		return domain.Attempt{}, false, err
	}
	return m.toDomain(), true, nil
}

func (r *attemptRepo) CountForUser(ctx context.Context, assessmentID, userID int64) (int, error) {
	return r.db.NewSelect().Model((*attemptModel)(nil)).
		Where("at.assessment_id = ?", assessmentID).
		Where("at.user_id = ?", userID).
		Count(ctx)
}

func (r *attemptRepo) Create(ctx context.Context, attempt *domain.Attempt) error {
	m := attemptToModel(*attempt)
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return err
	}
	attempt.ID = m.ID
	return nil
}

func (r *attemptRepo) Update(ctx context.Context, attempt *domain.Attempt) error {
	m := attemptToModel(*attempt)
	_, err := r.db.NewUpdate().Model(&m).WherePK().Exec(ctx)
	return err
}

func (r *attemptRepo) UpsertAnswer(ctx context.Context, answer domain.Answer) error {
	m := answerModel{
		AttemptID:  answer.AttemptID,
		QuestionID: answer.QuestionID,
		OptionID:   answer.OptionID,
		IsCorrect:  answer.IsCorrect,
		AnsweredAt: answer.AnsweredAt,
	}
	_, err := r.db.NewInsert().Model(&m).
		On("CONFLICT (attempt_id, question_id) DO UPDATE").
		Set("option_id = EXCLUDED.option_id").
		Set("is_correct = EXCLUDED.is_correct").
		Set("answered_at = EXCLUDED.answered_at").
		Exec(ctx)
	return err
}

func (r *attemptRepo) CountCorrectAnswers(ctx context.Context, attemptID int64) (int, error) {
	return r.db.NewSelect().Model((*answerModel)(nil)).
		Where("aa.attempt_id = ?", attemptID).
		Where("aa.is_correct").
		Count(ctx)
}

func (r *attemptRepo) BestScores(ctx context.Context, userID int64) (map[int64]float64, error) {
	var rows []struct {
		AssessmentID int64   `bun:"assessment_id"`
		Best         float64 `bun:"best"`
	}
	err := r.db.NewSelect().Model((*attemptModel)(nil)).
		ColumnExpr("at.assessment_id").
		ColumnExpr("MAX(at.score_percent) AS best").
		Where("at.user_id = ?", userID).
		Where("at.status = ?", string(domain.AttemptCompleted)).
		Group("at.assessment_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	best := make(map[int64]float64, len(rows))
	for _, row := range rows {
		best[row.AssessmentID] = row.Best
	}
	return best, nil
}

type userRepo struct {
	db bun.Tx
}

func (r *userRepo) Get(ctx context.Context, id int64) (domain.User, error) {
	return r.get(ctx, id, false)
}

func (r *userRepo) GetForUpdate(ctx context.Context, id int64) (domain.User, error) {
	return r.get(ctx, id, true)
}

func (r *userRepo) get(ctx context.Context, id int64, lock bool) (domain.User, error) {
	var m userModel
	q := r.db.NewSelect().Model(&m).Where("u.id = ?", id)
	if lock {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, err
	}
	return m.toDomain(), nil
}

func (r *userRepo) UpdateProgress(ctx context.Context, id int64, points, level int) error {
	_, err := r.db.NewUpdate().Model((*userModel)(nil)).
		Set("points = ?", points).
		Set("level = ?", level).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

type statsRepo struct {
	db bun.Tx
}

func (r *statsRepo) GetOrCreateForUpdate(ctx context.Context, userID int64) (domain.GamificationStats, error) {
	seed := statsModel{UserID: userID}
	_, err := r.db.NewInsert().Model(&seed).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return domain.GamificationStats{}, err
	}

	var m statsModel
	err = r.db.NewSelect().Model(&m).Where("gs.user_id = ?", userID).For("UPDATE").Scan(ctx)
	if err != nil {
		return domain.GamificationStats{}, err
	}
	return m.toDomain(), nil
}

func (r *statsRepo) Update(ctx context.Context, stats domain.GamificationStats) error {
	m := statsModel{
		UserID:          stats.UserID,
		CurrentStreak:   stats.CurrentStreak,
		LongestStreak:   stats.LongestStreak,
		LastStreakAward: stats.LastStreakAward,
		LastAttemptAt:   stats.LastAttemptAt,
		LastSuccessAt:   stats.LastSuccessAt,
	}
	_, err := r.db.NewUpdate().Model(&m).WherePK().Exec(ctx)
	return err
}

type badgeRepo struct {
	db bun.Tx
}

func (r *badgeRepo) GetByCode(ctx context.Context, code string) (domain.Badge, error) {
	var m badgeModel
	err := r.db.NewSelect().Model(&m).Where("b.code = ?", code).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Badge{}, domain.ErrBadgeNotFound
		}
		return domain.Badge{}, err
	}
	return domain.Badge{
		ID:          m.ID,
		Code:        m.Code,
		Name:        m.Name,
		Description: m.Description,
		Icon:        m.Icon,
	}, nil
}

func (r *badgeRepo) Award(ctx context.Context, userID, badgeID int64, at time.Time) (bool, error) {
	m := userBadgeModel{UserID: userID, BadgeID: badgeID, AwardedAt: at}
	res, err := r.db.NewInsert().Model(&m).
		On("CONFLICT (user_id, badge_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

type levelRepo struct {
	db bun.Tx
}

func (r *levelRepo) List(ctx context.Context) ([]domain.Level, error) {
	var ms []levelModel
	err := r.db.NewSelect().Model(&ms).Order("min_points ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}

	levels := make([]domain.Level, len(ms))
	for i, m := range ms {
		levels[i] = domain.Level{
			ID:        m.ID,
			Number:    m.Number,
			Name:      m.Name,
			MinPoints: m.MinPoints,
		}
	}
	return levels, nil
}

type eventRepo struct {
	db bun.Tx
}

func (r *eventRepo) Record(ctx context.Context, event domain.PointEvent) error {
	m := pointEventModel{
		UserID:      event.UserID,
		Type:        event.Type,
		Delta:       event.Delta,
		Description: event.Description,
		BranchID:    event.BranchID,
		PositionID:  event.PositionID,
		CreatedAt:   event.CreatedAt,
	}
	_, err := r.db.NewInsert().Model(&m).Exec(ctx)
	return err
}

func (r *eventRepo) MonthTotal(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	var total int
	err := r.db.NewSelect().Model((*pointEventModel)(nil)).
		ColumnExpr("COALESCE(SUM(pe.delta), 0)").
		Where("pe.user_id = ?", userID).
		Where("pe.created_at >= ?", from).
		Where("pe.created_at < ?", to).
		Scan(ctx, &total)
	return total, err
}

func (r *eventRepo) ListForUser(ctx context.Context, userID int64, limit int) ([]domain.PointEvent, error) {
	var ms []pointEventModel
	q := r.db.NewSelect().Model(&ms).
		Where("pe.user_id = ?", userID).
		Order("pe.created_at DESC", "pe.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	events := make([]domain.PointEvent, len(ms))
	for i, m := range ms {
		events[i] = domain.PointEvent{
			ID:          m.ID,
			UserID:      m.UserID,
			Type:        m.Type,
			Delta:       m.Delta,
			Description: m.Description,
			BranchID:    m.BranchID,
			PositionID:  m.PositionID,
			CreatedAt:   m.CreatedAt,
		}
	}
	return events, nil
}

type challengeRepo struct {
	db bun.Tx
}

func (r *challengeRepo) GetOrCreate(ctx context.Context, start, end time.Time) (domain.TeamChallenge, error) {
	seed := challengeModel{PeriodStart: start, PeriodEnd: end}
	_, err := r.db.NewInsert().Model(&seed).
		On("CONFLICT (period_start) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return domain.TeamChallenge{}, err
	}

	var m challengeModel
	err = r.db.NewSelect().Model(&m).Where("tc.period_start = ?", start).Scan(ctx)
	if err != nil {
		return domain.TeamChallenge{}, err
	}
	return domain.TeamChallenge{
		ID:          m.ID,
		PeriodStart: m.PeriodStart,
		PeriodEnd:   m.PeriodEnd,
	}, nil
}

func (r *challengeRepo) AddBranchPoints(ctx context.Context, challengeID, branchID int64, delta int) error {
	m := challengeScoreModel{ChallengeID: challengeID, BranchID: branchID, Points: delta}
	_, err := r.db.NewInsert().Model(&m).
		On("CONFLICT (challenge_id, branch_id) DO UPDATE").
		Set("points = cs.points + EXCLUDED.points").
		Exec(ctx)
	return err
}

func (r *challengeRepo) Standings(ctx context.Context, challengeID int64) ([]domain.ChallengeStanding, error) {
	var ms []challengeScoreModel
	err := r.db.NewSelect().Model(&ms).
		Where("cs.challenge_id = ?", challengeID).
		Order("points DESC", "branch_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	standings := make([]domain.ChallengeStanding, len(ms))
	for i, m := range ms {
		standings[i] = domain.ChallengeStanding{BranchID: m.BranchID, Points: m.Points}
	}
	return standings, nil
}
