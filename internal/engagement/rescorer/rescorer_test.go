package rescorer

import "testing"

func TestRescoreDeduplicatesByType(t *testing.T) {
	incoming := []EventType{EventReplied, EventReplied, EventMeetingBooked}

	score, applied := Rescore(50, nil, incoming)

	if score != 75 {
		t.Errorf("score = %d, want 75: replied counted once (+10) plus meeting (+15)", score)
	}
	if len(applied) != 2 {
		t.Errorf("applied = %v, want two distinct types", applied)
	}
}

func TestRescoreSkipsAlreadyAppliedTypes(t *testing.T) {
	history := map[EventType]bool{EventReplied: true}

	score, applied := Rescore(60, history, []EventType{EventReplied, EventFastResponse})

	if score != 65 {
		t.Errorf("score = %d, want 65: only fast_response applies", score)
	}
	if len(applied) != 1 || applied[0].Type != EventFastResponse {
		t.Errorf("applied = %v, want only fast_response", applied)
	}
}

func TestRescoreNeverDecreases(t *testing.T) {
	for _, current := range []int{0, 20, 55, 99, 100} {
		score, _ := Rescore(current, nil, []EventType{EventReplied, EventMeetingBooked})
		if score < current {
			t.Errorf("Rescore(%d, ...) = %d, must never decrease", current, score)
		}
	}
}

func TestRescoreClampsAtHundred(t *testing.T) {
	score, _ := Rescore(95, nil, []EventType{
		EventReplied, EventFastResponse, EventMultiExchange, EventMeetingBooked,
	})

	if score != 100 {
		t.Errorf("score = %d, want clamp at 100", score)
	}
}

func TestRescoreIgnoresUnknownTypes(t *testing.T) {
	score, applied := Rescore(40, nil, []EventType{"opened_email", EventReplied})

	if score != 50 {
		t.Errorf("score = %d, want 50: unknown type contributes nothing", score)
	}
	if len(applied) != 1 {
		t.Errorf("applied = %v, want only replied", applied)
	}
}

func TestRescoreIdempotentAcrossRuns(t *testing.T) {
	history := make(map[EventType]bool)

	score, applied := Rescore(50, history, []EventType{EventMeetingBooked})
	for _, a := range applied {
		history[a.Type] = true
	}

	again, applied := Rescore(score, history, []EventType{EventMeetingBooked})
	if again != score {
		t.Errorf("second run changed score from %d to %d, want no change", score, again)
	}
	if len(applied) != 0 {
		t.Errorf("second run applied %v, want nothing", applied)
	}
}
