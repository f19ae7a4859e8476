// Package transport defines request/response DTOs for the scoring endpoints.
package transport

import (
	"leadgate_backend/internal/scoring/engine"
	"leadgate_backend/platform/sanitize"
)

// FieldResponseRequest is one answered qualification field.
type FieldResponseRequest struct {
	Kind  string `json:"kind" validate:"required,oneof=timeline budget authority need company_size freeform"`
	Value string `json:"value" validate:"required,max=2000"`
}

// ScoreRequest carries the prospect fields to score. Email is not
// validated here on purpose: a malformed email is a scoring signal, not a
// request error.
type ScoreRequest struct {
	Company     string                 `json:"company" validate:"max=200"`
	Industry    string                 `json:"industry" validate:"max=100"`
	Location    string                 `json:"location" validate:"max=200"`
	CompanySize string                 `json:"companySize" validate:"max=50"`
	ContactName string                 `json:"contactName" validate:"max=200"`
	Email       string                 `json:"email" validate:"max=320"`
	Phone       string                 `json:"phone" validate:"max=32"`
	Responses   []FieldResponseRequest `json:"responses" validate:"max=50,dive"`
}

// ScoreBatchRequest scores several prospects in one call.
type ScoreBatchRequest struct {
	Prospects []ScoreRequest `json:"prospects" validate:"required,min=1,max=100,dive"`
}

// ScoreResponse mirrors engine.Result for the API boundary.
type ScoreResponse struct {
	Score        int      `json:"score"`
	Tier         string   `json:"tier"`
	Rationale    string   `json:"rationale"`
	Signals      []string `json:"signals"`
	RedFlags     []string `json:"redFlags"`
	UsedFallback bool     `json:"usedFallback"`
}

// ToProspect converts the request into a scoring input, stripping any
// markup from free-form values.
func (r ScoreRequest) ToProspect() engine.Prospect {
	responses := make([]engine.FieldResponse, 0, len(r.Responses))
	for _, resp := range r.Responses {
		responses = append(responses, engine.FieldResponse{
			Kind:  engine.FieldKind(resp.Kind),
			Value: sanitize.Text(resp.Value),
		})
	}

	return engine.Prospect{
		Company:     sanitize.Text(r.Company),
		Industry:    sanitize.Text(r.Industry),
		Location:    sanitize.Text(r.Location),
		CompanySize: sanitize.Text(r.CompanySize),
		ContactName: sanitize.Text(r.ContactName),
		Email:       r.Email,
		Phone:       r.Phone,
		Responses:   responses,
	}
}

// FromResult converts an engine result to the response DTO.
func FromResult(result engine.Result) ScoreResponse {
	return ScoreResponse{
		Score:        result.Score,
		Tier:         string(result.Tier),
		Rationale:    result.Rationale,
		Signals:      result.Signals,
		RedFlags:     result.RedFlags,
		UsedFallback: result.UsedFallback,
	}
}
