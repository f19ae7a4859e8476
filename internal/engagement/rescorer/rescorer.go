// Package rescorer implements the engagement score adjustment rules.
// Adjustments are additive, clamped to 100 and deduplicated by event
// type: a chatty prospect is not a more qualified prospect.
package rescorer

// EventType identifies an observed interaction.
type EventType string

const (
	EventReplied       EventType = "replied"
	EventFastResponse  EventType = "fast_response"
	EventMultiExchange EventType = "multi_exchange"
	EventMeetingBooked EventType = "meeting_booked"
)

// maxScore is the score ceiling shared with the scoring engine.
const maxScore = 100

var deltas = map[EventType]int{
	EventReplied:       10,
	EventFastResponse:  5,
	EventMultiExchange: 10,
	EventMeetingBooked: 15,
}

// Delta returns the score bump for an event type. Unknown types report
// ok=false and are ignored by callers.
func Delta(t EventType) (int, bool) {
	d, ok := deltas[t]
	return d, ok
}

// Applied is one event type that contributed to a rescore.
type Applied struct {
	Type  EventType
	Delta int
}

// Rescore computes the new score after the incoming events. Each type
// applies at most once: duplicates within the list and types present in
// alreadyApplied contribute nothing. The result never decreases and never
// exceeds 100.
func Rescore(currentScore int, alreadyApplied map[EventType]bool, incoming []EventType) (int, []Applied) {
	score := currentScore
	if score < 0 {
		score = 0
	}

	seen := make(map[EventType]bool, len(incoming))
	var applied []Applied

	for _, t := range incoming {
		delta, known := Delta(t)
		if !known || seen[t] || alreadyApplied[t] {
			continue
		}
		seen[t] = true
		score += delta
		applied = append(applied, Applied{Type: t, Delta: delta})
	}

	if score > maxScore {
		score = maxScore
	}
	return score, applied
}
