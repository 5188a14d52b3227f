package domain

import "testing"

func testLadder() []Level {
	return []Level{
		{Number: 1, Name: "Rookie", MinPoints: 0},
		{Number: 2, Name: "Specialist", MinPoints: 500},
		{Number: 3, Name: "Expert", MinPoints: 1500},
	}
}

func TestFindLevelForPoints(t *testing.T) {
	ladder := testLadder()

	cases := []struct {
		points int
		want   int
	}{
		{0, 1},
		{499, 1},
		{500, 2},
		{1499, 2},
		{1500, 3},
		{99999, 3},
	}
	for _, tc := range cases {
		level, ok := FindLevelForPoints(ladder, tc.points)
		if !ok {
			t.Fatalf("points=%d: expected a level", tc.points)
		}
		if level.Number != tc.want {
			t.Fatalf("points=%d: expected level %d, got %d", tc.points, tc.want, level.Number)
		}
	}

	if _, ok := FindLevelForPoints(nil, 100); ok {
		t.Fatalf("empty ladder should not resolve a level")
	}
}

func TestFindNextLevel(t *testing.T) {
	ladder := testLadder()

	next, ok := FindNextLevel(ladder, 600)
	if !ok || next.Number != 3 {
		t.Fatalf("expected next level 3, got %+v ok=%v", next, ok)
	}

	if _, ok := FindNextLevel(ladder, 1500); ok {
		t.Fatalf("expected no next level at max")
	}
}
