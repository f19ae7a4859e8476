// Package events defines the domain events exchanged between modules.
package events

import (
	"github.com/google/uuid"

	"leadgate_backend/platform/events"
)

// Event names.
const (
	ProspectScoredEvent     = "prospect.scored"
	ProspectUnlockedEvent   = "prospect.unlocked"
	EngagementRecordedEvent = "engagement.recorded"
	CreditsToppedUpEvent    = "credits.topped_up"
	CompensationIssuedEvent = "ledger.compensation_issued"
)

// ProspectScored is published after a prospect receives a quality score,
// either from the AI scorer or the deterministic fallback.
type ProspectScored struct {
	events.BaseEvent
	ProspectID   uuid.UUID
	Score        int
	Tier         string
	UsedFallback bool
}

// EventName returns the event identifier.
func (e *ProspectScored) EventName() string { return ProspectScoredEvent }

// NewProspectScored creates a ProspectScored event.
func NewProspectScored(prospectID uuid.UUID, score int, tier string, usedFallback bool) *ProspectScored {
	return &ProspectScored{
		BaseEvent:    events.NewBaseEvent(),
		ProspectID:   prospectID,
		Score:        score,
		Tier:         tier,
		UsedFallback: usedFallback,
	}
}

// ProspectUnlocked is published after a requester successfully pays for
// access to a prospect's full contact details.
type ProspectUnlocked struct {
	events.BaseEvent
	RequesterID uuid.UUID
	ProspectID  uuid.UUID
	Cost        int64
}

// EventName returns the event identifier.
func (e *ProspectUnlocked) EventName() string { return ProspectUnlockedEvent }

// NewProspectUnlocked creates a ProspectUnlocked event.
func NewProspectUnlocked(requesterID, prospectID uuid.UUID, cost int64) *ProspectUnlocked {
	return &ProspectUnlocked{
		BaseEvent:   events.NewBaseEvent(),
		RequesterID: requesterID,
		ProspectID:  prospectID,
		Cost:        cost,
	}
}

// EngagementRecorded carries interaction events for a prospect. It is the
// in-process delivery path when the background queue is not configured;
// with Redis available the same payload travels through asynq instead.
type EngagementRecorded struct {
	events.BaseEvent
	ProspectID uuid.UUID
	Events     []string
}

// EventName returns the event identifier.
func (e *EngagementRecorded) EventName() string { return EngagementRecordedEvent }

// NewEngagementRecorded creates an EngagementRecorded event.
func NewEngagementRecorded(prospectID uuid.UUID, eventTypes []string) *EngagementRecorded {
	return &EngagementRecorded{
		BaseEvent:  events.NewBaseEvent(),
		ProspectID: prospectID,
		Events:     eventTypes,
	}
}

// CreditsToppedUp is published after credits are added to a requester account.
type CreditsToppedUp struct {
	events.BaseEvent
	RequesterID uuid.UUID
	Amount      int64
	Balance     int64
}

// EventName returns the event identifier.
func (e *CreditsToppedUp) EventName() string { return CreditsToppedUpEvent }

// NewCreditsToppedUp creates a CreditsToppedUp event.
func NewCreditsToppedUp(requesterID uuid.UUID, amount, balance int64) *CreditsToppedUp {
	return &CreditsToppedUp{
		BaseEvent:   events.NewBaseEvent(),
		RequesterID: requesterID,
		Amount:      amount,
		Balance:     balance,
	}
}

// CompensationIssued is published when a debit had to be reversed because
// the entitlement write failed after payment.
type CompensationIssued struct {
	events.BaseEvent
	RequesterID    uuid.UUID
	ProspectID     uuid.UUID
	Amount         int64
	IdempotencyKey string
}

// EventName returns the event identifier.
func (e *CompensationIssued) EventName() string { return CompensationIssuedEvent }

// NewCompensationIssued creates a CompensationIssued event.
func NewCompensationIssued(requesterID, prospectID uuid.UUID, amount int64, key string) *CompensationIssued {
	return &CompensationIssued{
		BaseEvent:      events.NewBaseEvent(),
		RequesterID:    requesterID,
		ProspectID:     prospectID,
		Amount:         amount,
		IdempotencyKey: key,
	}
}
