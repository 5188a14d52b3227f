package domain

import (
	"testing"
	"time"
)

func TestAssessmentStatusDerivation(t *testing.T) {
	open := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	a := Assessment{OpenAt: open, CloseAt: open.Add(48 * time.Hour)}

	if got := a.Status(open.Add(-time.Minute)); got != AssessmentPending {
		t.Fatalf("before open: expected pending, got %s", got)
	}
	if got := a.Status(open); got != AssessmentActive {
		t.Fatalf("at open: expected active, got %s", got)
	}
	if got := a.Status(open.Add(48 * time.Hour)); got != AssessmentActive {
		t.Fatalf("at close: expected active, got %s", got)
	}
	if got := a.Status(open.Add(49 * time.Hour)); got != AssessmentClosed {
		t.Fatalf("after close: expected closed, got %s", got)
	}
}

func TestScorePercent(t *testing.T) {
	cases := []struct {
		correct, total int
		want           float64
	}{
		{10, 10, 100},
		{5, 10, 50},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{0, 10, 0},
		{0, 0, 0},
	}
	for _, tc := range cases {
		if got := ScorePercent(tc.correct, tc.total); got != tc.want {
			t.Fatalf("%d/%d: expected %.2f, got %.2f", tc.correct, tc.total, tc.want, got)
		}
	}
}

func TestAssignedToUnionSemantics(t *testing.T) {
	a := Assessment{
		AssignedUserIDs:     []int64{7},
		AssignedPositionIDs: []int64{3},
		AssignedBranchIDs:   []int64{11},
	}

	if !a.AssignedTo(User{ID: 7}) {
		t.Fatalf("expected direct user assignment to match")
	}
	if !a.AssignedTo(User{ID: 1, PositionID: 3}) {
		t.Fatalf("expected position assignment to match")
	}
	if !a.AssignedTo(User{ID: 1, BranchID: 11}) {
		t.Fatalf("expected branch assignment to match")
	}
	if a.AssignedTo(User{ID: 2, PositionID: 4, BranchID: 12}) {
		t.Fatalf("expected no match outside all targets")
	}
}

func TestChallengePeriod(t *testing.T) {
	now := time.Date(2025, 2, 14, 18, 30, 0, 0, time.UTC)
	start, end := ChallengePeriod(now)
	if !start.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected period start %v", start)
	}
	if !end.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected period end %v", end)
	}
}
