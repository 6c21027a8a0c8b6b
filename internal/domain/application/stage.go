package application

type Stage string

const (
	StageDraft     Stage = "draft"
	StageAIReview  Stage = "ai_review"
	StageScreen    Stage = "screen"
	StageSubmitted Stage = "submitted"
	StageInterview Stage = "interview"
	StageOffer     Stage = "offer"
	StageHired     Stage = "hired"
	StageRejected  Stage = "rejected"
	StageWithdrawn Stage = "withdrawn"
)

// transitions is the only authority on stage reachability. Forward edges follow
// the pipeline; draft may skip ai_review when the job requires no review.
var transitions = map[Stage][]Stage{
	StageDraft:     {StageAIReview, StageScreen, StageWithdrawn},
	StageAIReview:  {StageScreen, StageRejected, StageWithdrawn},
	StageScreen:    {StageSubmitted, StageRejected, StageWithdrawn},
	StageSubmitted: {StageInterview, StageRejected, StageWithdrawn},
	StageInterview: {StageOffer, StageRejected, StageWithdrawn},
	StageOffer:     {StageHired, StageRejected, StageWithdrawn},
	StageHired:     nil,
	StageRejected:  nil,
	StageWithdrawn: nil,
}

func ParseStage(s string) (Stage, bool) {
	st := Stage(s)
	_, ok := transitions[st]
	return st, ok
}

func (s Stage) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transition may leave s.
func (s Stage) Terminal() bool {
	return s == StageHired || s == StageRejected || s == StageWithdrawn
}

func CanTransition(from, to Stage) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Stages lists every known stage in pipeline order, terminals last.
func Stages() []Stage {
	return []Stage{
		StageDraft, StageAIReview, StageScreen, StageSubmitted,
		StageInterview, StageOffer, StageHired, StageRejected, StageWithdrawn,
	}
}
