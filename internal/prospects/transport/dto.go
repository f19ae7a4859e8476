// Package transport defines request/response DTOs for the prospect endpoints.
package transport

import (
	"leadgate_backend/internal/prospects/service"
	"leadgate_backend/internal/scoring/engine"
	"leadgate_backend/platform/sanitize"
)

// FieldResponseRequest is one answered qualification field.
type FieldResponseRequest struct {
	Kind  string `json:"kind" validate:"required,oneof=timeline budget authority need company_size freeform"`
	Value string `json:"value" validate:"required,max=2000"`
}

// ImportRequest creates a prospect. Contact fields are optional: a
// prospect without contact details is importable, it just scores poorly.
type ImportRequest struct {
	Company     string                 `json:"company" validate:"required,max=200"`
	Industry    string                 `json:"industry" validate:"max=100"`
	Location    string                 `json:"location" validate:"max=200"`
	CompanySize string                 `json:"companySize" validate:"max=50"`
	ContactName string                 `json:"contactName" validate:"max=200"`
	Email       string                 `json:"email" validate:"max=320"`
	Phone       string                 `json:"phone" validate:"max=32"`
	Responses   []FieldResponseRequest `json:"responses" validate:"max=50,dive"`
}

// ToProspect converts the request into the scoring/storage shape.
func (r ImportRequest) ToProspect() engine.Prospect {
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

// ProspectView is the requester-facing prospect projection.
type ProspectView struct {
	ID             string `json:"id"`
	Company        string `json:"company"`
	Industry       string `json:"industry"`
	Location       string `json:"location"`
	CompanySize    string `json:"companySize"`
	ContactName    string `json:"contactName"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	QualityScore   *int   `json:"qualityScore"`
	Tier           string `json:"tier"`
	ScoreVersion   int    `json:"scoreVersion"`
	ScoreRationale string `json:"scoreRationale,omitempty"`
	UsedFallback   bool   `json:"usedFallback"`
	Revealed       bool   `json:"revealed"`
}

// FromView converts a service view.
func FromView(v service.View) ProspectView {
	return ProspectView{
		ID:             v.ID.String(),
		Company:        v.Company,
		Industry:       v.Industry,
		Location:       v.Location,
		CompanySize:    v.CompanySize,
		ContactName:    v.ContactName,
		Email:          v.Email,
		Phone:          v.Phone,
		QualityScore:   v.QualityScore,
		Tier:           v.Tier,
		ScoreVersion:   v.ScoreVersion,
		ScoreRationale: v.ScoreRationale,
		UsedFallback:   v.UsedFallback,
		Revealed:       v.Revealed,
	}
}

// FromViews converts a slice of service views.
func FromViews(views []service.View) []ProspectView {
	out := make([]ProspectView, 0, len(views))
	for _, v := range views {
		out = append(out, FromView(v))
	}
	return out
}
