// Package ai calls the Gemini API to assess prospect quality.
// The provider is treated as unreliable: any error, timeout, or malformed
// response makes the caller fall back to the deterministic rubric.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"leadgate_backend/internal/scoring/engine"
	"leadgate_backend/platform/config"
)

// Assessment is the structured verdict expected from the model.
type Assessment struct {
	QualityScore        int      `json:"quality_score"`
	QualificationReason string   `json:"qualification_reason"`
	AISummary           string   `json:"ai_summary"`
	BuyingIntent        string   `json:"buying_intent"`
	KeySignals          []string `json:"key_signals"`
	RedFlags            []string `json:"red_flags"`
	RecommendedAction   string   `json:"recommended_action"`
}

// Client wraps the Gemini SDK for prospect assessment.
type Client struct {
	client *genai.Client
	model  string
}

// New creates a Gemini-backed assessment client.
func New(ctx context.Context, cfg config.AIConfig) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{client: client, model: cfg.GetGeminiModel()}, nil
}

// Assess sends the prospect to the model and parses its JSON verdict.
// The returned assessment is validated against the rubric's bounds; an
// out-of-range score is treated as a malformed response.
func (c *Client) Assess(ctx context.Context, p engine.Prospect) (*Assessment, error) {
	prompt := buildPrompt(p)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.2),
	})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var assessment Assessment
	if err := json.Unmarshal([]byte(text), &assessment); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}
	if assessment.QualityScore < 0 || assessment.QualityScore > 100 {
		return nil, fmt.Errorf("model score %d out of range", assessment.QualityScore)
	}

	return &assessment, nil
}

func buildPrompt(p engine.Prospect) string {
	var b strings.Builder

	b.WriteString("You are a B2B lead qualification analyst. Assess the sales-readiness of the prospect below.\n\n")
	fmt.Fprintf(&b, "Company: %s\nIndustry: %s\nLocation: %s\nCompany size: %s\nContact: %s\nEmail provided: %t\nPhone provided: %t\n",
		p.Company, p.Industry, p.Location, p.CompanySize, p.ContactName, p.Email != "", p.Phone != "")

	if len(p.Responses) > 0 {
		b.WriteString("\nQualification responses:\n")
		for _, r := range p.Responses {
			fmt.Fprintf(&b, "- %s: %s\n", r.Kind, r.Value)
		}
	}

	b.WriteString(`
Respond with a single JSON object, no markdown fences:
{
  "quality_score": <integer 0-100>,
  "qualification_reason": "<one sentence>",
  "ai_summary": "<two sentences max>",
  "buying_intent": "<high|medium|low>",
  "key_signals": ["..."],
  "red_flags": ["..."],
  "recommended_action": "<one sentence>"
}

Scoring guidance: up to 20 points for reachable contact details, up to 45 for declared intent, budget and timeline, up to 30 for completeness of the responses, up to 15 for decision authority. Clamp the total to 100.`)

	return b.String()
}
