package points

// Activity codes accepted by the submission review engine.
const (
	ActivityCourseCompletion = "course_completion"
	ActivityLessonPlan       = "lesson_plan"
	ActivityWorkshop         = "workshop"
	ActivityCommunityEvent   = "community_event"
	ActivityPeerTraining     = "peer_training"
)

// Peer-training counters are capped: reporting beyond realistic limits earns
// no extra credit.
const (
	PeersTrainedCap    = 50
	StudentsTrainedCap = 200

	peerWeight    = 2
	studentWeight = 1
)

var defaultActivityPoints = map[string]int{
	ActivityCourseCompletion: 10,
	ActivityLessonPlan:       15,
	ActivityCommunityEvent:   20,
	ActivityWorkshop:         25,
}

// TrainingCounters are the payload-supplied inputs of the peer-training
// formula.
type TrainingCounters struct {
	PeersTrained    int
	StudentsTrained int
}

// BasePoints computes the base award for an activity. Peer training is the
// one non-linear case; every other activity has a fixed default value.
func BasePoints(activityCode string, counters TrainingCounters) (int, error) {
	if activityCode == ActivityPeerTraining {
		peers := clamp(counters.PeersTrained, PeersTrainedCap)
		students := clamp(counters.StudentsTrained, StudentsTrainedCap)
		return peers*peerWeight + students*studentWeight, nil
	}

	base, ok := defaultActivityPoints[activityCode]
	if !ok {
		return 0, ErrUnknownActivity
	}
	return base, nil
}

// AdjustmentBound returns ceil(0.2 * base): the largest manual adjustment a
// reviewer may apply in either direction.
func AdjustmentBound(base int) int {
	if base <= 0 {
		return 0
	}
	return (base + 4) / 5
}

// ValidAdjustment reports whether adjustment stays within ±AdjustmentBound.
func ValidAdjustment(base int, adjustment int) bool {
	bound := AdjustmentBound(base)
	return adjustment >= -bound && adjustment <= bound
}

func clamp(value int, limit int) int {
	if value < 0 {
		return 0
	}
	if value > limit {
		return limit
	}
	return value
}
