package points

import (
	"errors"
	"testing"
)

func TestBasePointsPeerTrainingCapsCounters(t *testing.T) {
	cases := []struct {
		name     string
		counters TrainingCounters
		want     int
	}{
		{name: "both under cap", counters: TrainingCounters{PeersTrained: 10, StudentsTrained: 20}, want: 40},
		{name: "both over cap", counters: TrainingCounters{PeersTrained: 60, StudentsTrained: 250}, want: 300},
		{name: "exactly at cap", counters: TrainingCounters{PeersTrained: 50, StudentsTrained: 200}, want: 300},
		{name: "zero", counters: TrainingCounters{}, want: 0},
		{name: "negative clamps to zero", counters: TrainingCounters{PeersTrained: -3, StudentsTrained: -7}, want: 0},
	}

	for _, tc := range cases {
		got, err := BasePoints(ActivityPeerTraining, tc.counters)
		if err != nil {
			t.Fatalf("%s: BasePoints() error = %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: BasePoints() = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestBasePointsFixedActivities(t *testing.T) {
	cases := []struct {
		activity string
		want     int
	}{
		{activity: ActivityCourseCompletion, want: 10},
		{activity: ActivityLessonPlan, want: 15},
		{activity: ActivityCommunityEvent, want: 20},
		{activity: ActivityWorkshop, want: 25},
	}

	for _, tc := range cases {
		got, err := BasePoints(tc.activity, TrainingCounters{PeersTrained: 99, StudentsTrained: 99})
		if err != nil {
			t.Fatalf("BasePoints(%s) error = %v", tc.activity, err)
		}
		if got != tc.want {
			t.Fatalf("BasePoints(%s) = %d, want %d", tc.activity, got, tc.want)
		}
	}
}

func TestBasePointsUnknownActivity(t *testing.T) {
	_, err := BasePoints("karaoke_night", TrainingCounters{})
	if !errors.Is(err, ErrUnknownActivity) {
		t.Fatalf("BasePoints() error = %v, want ErrUnknownActivity", err)
	}
}

func TestAdjustmentBoundRoundsUp(t *testing.T) {
	cases := []struct {
		base int
		want int
	}{
		{base: 0, want: 0},
		{base: 1, want: 1},
		{base: 4, want: 1},
		{base: 5, want: 1},
		{base: 10, want: 2},
		{base: 14, want: 3},
		{base: 15, want: 3},
		{base: 40, want: 8},
		{base: 300, want: 60},
	}

	for _, tc := range cases {
		if got := AdjustmentBound(tc.base); got != tc.want {
			t.Fatalf("AdjustmentBound(%d) = %d, want %d", tc.base, got, tc.want)
		}
	}
}

func TestValidAdjustment(t *testing.T) {
	if !ValidAdjustment(40, 8) {
		t.Fatal("ValidAdjustment(40, 8) = false, want true")
	}
	if !ValidAdjustment(40, -8) {
		t.Fatal("ValidAdjustment(40, -8) = false, want true")
	}
	if ValidAdjustment(40, 9) {
		t.Fatal("ValidAdjustment(40, 9) = true, want false")
	}
	if ValidAdjustment(40, -9) {
		t.Fatal("ValidAdjustment(40, -9) = true, want false")
	}
	if !ValidAdjustment(0, 0) {
		t.Fatal("ValidAdjustment(0, 0) = false, want true")
	}
	if ValidAdjustment(0, 1) {
		t.Fatal("ValidAdjustment(0, 1) = true, want false")
	}
}
