package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"certify-service/internal/domain"
)

// StandingsReader serves leaderboard reads off a pgx pool, outside the
// transactional store. These queries are hot on the mini-app home screen
// and never need row locks.
type StandingsReader struct {
	pool *pgxpool.Pool
}

func NewStandingsReader(pool *pgxpool.Pool) *StandingsReader {
	return &StandingsReader{pool: pool}
}

// CurrentStandings returns the branch leaderboard for the challenge covering
// now. An empty slice means no branch has scored this month yet.
func (r *StandingsReader) CurrentStandings(ctx context.Context, now time.Time) ([]domain.ChallengeStanding, error) {
	start, _ := domain.ChallengePeriod(now)
	rows, err := r.pool.Query(ctx, `
		SELECT cs.branch_id, cs.points
		FROM challenge_scores cs
		JOIN team_challenges tc ON tc.id = cs.challenge_id
		WHERE tc.period_start = $1
		ORDER BY cs.points DESC, cs.branch_id ASC`, start)
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer rows.Close()

	var standings []domain.ChallengeStanding
	for rows.Next() {
		var s domain.ChallengeStanding
		if err := rows.Scan(&s.BranchID, &s.Points); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}

// TopUsers returns the all-time points leaderboard for a branch, or for
// everyone when branchID is zero.
func (r *StandingsReader) TopUsers(ctx context.Context, branchID int64, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT id, role, branch_id, position_id, points, level
		FROM users
		WHERE role = $1
		ORDER BY points DESC, id ASC
		LIMIT $2`
	args := []interface{}{domain.RoleEmployee, limit}
	if branchID != 0 {
		query = `
		SELECT id, role, branch_id, position_id, points, level
		FROM users
		WHERE role = $1 AND branch_id = $3
		ORDER BY points DESC, id ASC
		LIMIT $2`
		args = append(args, branchID)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Role, &u.BranchID, &u.PositionID, &u.Points, &u.Level); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
