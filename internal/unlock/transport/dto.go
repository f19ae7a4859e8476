// Package transport defines request/response DTOs for the unlock endpoint.
package transport

import (
	prospecttransport "leadgate_backend/internal/prospects/transport"
	"leadgate_backend/internal/unlock/service"
)

// UnlockRequest asks to unlock one or more prospects. A single-element
// list is a plain unlock; multiple elements follow bulk all-or-nothing
// semantics.
type UnlockRequest struct {
	ProspectIDs []string `json:"prospectIds" validate:"required,min=1,max=100,dive,uuid"`
}

// OutcomeResponse is the result for one prospect.
type OutcomeResponse struct {
	ProspectID string                         `json:"prospectId"`
	Status     string                         `json:"status"`
	Prospect   prospecttransport.ProspectView `json:"prospect"`
}

// FromOutcomes converts coordinator outcomes.
func FromOutcomes(outcomes []service.Outcome) []OutcomeResponse {
	out := make([]OutcomeResponse, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, OutcomeResponse{
			ProspectID: o.ProspectID.String(),
			Status:     string(o.Status),
			Prospect:   prospecttransport.FromView(o.View),
		})
	}
	return out
}
