package domain

// Level is one rung of the admin-managed ladder mapping points to a level.
// Thresholds are globally unique.
type Level struct {
	ID        int64
	Number    int
	Name      string
	MinPoints int
}

// FindLevelForPoints returns the highest-threshold level whose MinPoints is
// at or below points. ok is false when the ladder is empty or the lowest
// rung is still above points.
func FindLevelForPoints(ladder []Level, points int) (Level, bool) {
	var best Level
	found := false
	for _, l := range ladder {
		if l.MinPoints > points {
			continue
		}
		if !found || l.MinPoints > best.MinPoints {
			best = l
			found = true
		}
	}
	return best, found
}

// FindNextLevel returns the lowest-threshold level whose MinPoints exceeds
// points; ok is false at max level.
func FindNextLevel(ladder []Level, points int) (Level, bool) {
	var next Level
	found := false
	for _, l := range ladder {
		if l.MinPoints <= points {
			continue
		}
		if !found || l.MinPoints < next.MinPoints {
			next = l
			found = true
		}
	}
	return next, found
}

// DefaultLadder is the reference ladder the seed command loads.
func DefaultLadder() []Level {
	return []Level{
		{Number: 1, Name: "Rookie", MinPoints: 0},
		{Number: 2, Name: "Specialist", MinPoints: 500},
		{Number: 3, Name: "Professional", MinPoints: 1500},
		{Number: 4, Name: "Expert", MinPoints: 3500},
		{Number: 5, Name: "Master", MinPoints: 7000},
	}
}

// DefaultBadges is the badge catalog the seed command loads.
func DefaultBadges() []Badge {
	return []Badge{
		{Code: BadgePerfectRun, Name: "Perfect Run", Description: "Finish an assessment with every answer correct", Icon: "🎯"},
		{Code: BadgeCompetence90, Name: "High Competence", Description: "Score 90% or above", Icon: "🏅"},
		{Code: BadgeSpeedster, Name: "Speedster", Description: "Pass in half the time limit or less", Icon: "⚡"},
		{Code: BadgeStreakMaster, Name: "Streak Master", Description: "Pass 5 assessments in a row", Icon: "🔥"},
		{Code: BadgeAllTestsCompleted, Name: "All Done", Description: "Pass every assigned assessment", Icon: "🏆"},
	}
}
