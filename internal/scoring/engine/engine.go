// Package engine implements the deterministic prospect scoring rubric.
// It is the fallback path behind the AI scorer and must stay pure: same
// input, same score, no I/O.
package engine

import (
	"fmt"
	"regexp"
	"strings"

	"leadgate_backend/platform/phone"
)

// FieldKind identifies a qualification-form field. Unknown shapes land in
// FieldFreeform instead of an untyped map so point assignment stays
// exhaustively checkable.
type FieldKind string

const (
	FieldTimeline    FieldKind = "timeline"
	FieldBudget      FieldKind = "budget"
	FieldAuthority   FieldKind = "authority"
	FieldNeed        FieldKind = "need"
	FieldCompanySize FieldKind = "company_size"
	FieldFreeform    FieldKind = "freeform"
)

// FieldResponse is a single answered qualification field.
type FieldResponse struct {
	Kind  FieldKind `json:"kind"`
	Value string    `json:"value"`
}

// Prospect is the scoring input. Contact fields are the full-fidelity
// values; masking happens elsewhere.
type Prospect struct {
	Company     string
	Industry    string
	Location    string
	CompanySize string
	ContactName string
	Email       string
	Phone       string
	Responses   []FieldResponse
}

// Tier is the qualitative bucket derived from a numeric score.
type Tier string

const (
	TierHot         Tier = "hot"
	TierWarm        Tier = "warm"
	TierQualified   Tier = "qualified"
	TierCold        Tier = "cold"
	TierUnqualified Tier = "unqualified"
)

// TierForScore maps a score to its tier. The mapping is fixed and shared
// by the AI and fallback paths.
func TierForScore(score int) Tier {
	switch {
	case score >= 80:
		return TierHot
	case score >= 60:
		return TierWarm
	case score >= 40:
		return TierQualified
	case score >= 20:
		return TierCold
	default:
		return TierUnqualified
	}
}

// Result is the scoring output, identical in shape for both paths.
type Result struct {
	Score        int      `json:"score"`
	Tier         Tier     `json:"tier"`
	Rationale    string   `json:"rationale"`
	Signals      []string `json:"signals"`
	RedFlags     []string `json:"redFlags"`
	UsedFallback bool     `json:"usedFallback"`
}

// Point budgets per rubric category. Seniority can push the raw sum past
// 100, so the total is clamped, never rejected.
const (
	maxContactPoints      = 20
	maxIntentPoints       = 45
	maxCompletenessPoints = 30
	maxSeniorityPoints    = 15

	emailPoints = 10
	phonePoints = 10

	timelineImmediatePoints = 30
	timelineShortPoints     = 15
	timelineVaguePoints     = 5
	budgetStatedPoints      = 10
	budgetAmountPoints      = 5
	intentKeywordPoints     = 8
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Markers that make an email look disposable or synthetic.
var throwawayMarkers = []string{
	"test", "example", "mailinator", "guerrillamail", "10minutemail",
	"fake", "noreply", "no-reply", "spam", "asdf", "qwerty",
}

var timelineImmediatePhrases = []string{
	"immediate", "immediately", "asap", "as soon as possible", "right away",
	"this week", "urgent", "today",
}

var timelineShortPhrases = []string{
	"this month", "within a month", "next month", "soon",
	"this quarter", "within weeks", "few weeks",
}

var timelineVaguePhrases = []string{
	"someday", "eventually", "exploring", "just looking",
	"orienting", "no rush", "later this year", "next year",
}

var intentKeywords = []string{
	"need", "looking for", "interested in", "ready to", "want to buy",
	"requesting a quote", "quote", "offerte",
}

var seniorityExecutiveTitles = []string{
	"owner", "founder", "ceo", "cfo", "cto", "coo", "director",
	"vp", "vice president", "head of", "partner", "eigenaar", "directeur",
}

var seniorityManagerTitles = []string{"manager", "lead", "teamlead"}

// industryIntentWeights scales the timeline contribution for industries
// where stated urgency is a stronger or weaker buy signal.
var industryIntentWeights = map[string]float64{
	"construction":  1.1,
	"installation":  1.1,
	"software":      1.0,
	"saas":          1.0,
	"finance":       1.0,
	"marketing":     0.95,
	"retail":        0.9,
	"hospitality":   0.9,
	"manufacturing": 1.05,
}

// Engine scores prospects with the deterministic rubric.
type Engine struct {
	region string
}

// New creates an Engine. region is the default phone numbering region used
// to recognize mobile numbers.
func New(region string) *Engine {
	return &Engine{region: region}
}

// Score applies the rubric. It never fails and never returns a score
// outside [0,100].
func (e *Engine) Score(p Prospect) Result {
	var signals, redFlags []string

	contact := e.contactPoints(p, &signals, &redFlags)
	intent := intentPoints(p, &signals)
	completeness := completenessPoints(p, &signals)
	seniority := seniorityPoints(p, &signals)

	total := clamp(contact+intent+completeness+seniority, 0, 100)

	rationale := fmt.Sprintf("rule-based assessment: %d/100", total)
	if len(signals) > 0 {
		rationale += " (" + strings.Join(signals, "; ") + ")"
	}

	return Result{
		Score:     total,
		Tier:      TierForScore(total),
		Rationale: rationale,
		Signals:   signals,
		RedFlags:  redFlags,
	}
}

func (e *Engine) contactPoints(p Prospect, signals, redFlags *[]string) int {
	email := strings.TrimSpace(strings.ToLower(p.Email))
	phoneRaw := strings.TrimSpace(p.Phone)

	if email == "" && phoneRaw == "" {
		*redFlags = append(*redFlags, "no contact method")
		return 0
	}

	points := 0
	if email != "" {
		if emailPattern.MatchString(email) && !containsAny(email, throwawayMarkers) {
			points += emailPoints
			*signals = append(*signals, "valid email address")
		} else {
			*redFlags = append(*redFlags, "suspicious email address")
		}
	}
	if phoneRaw != "" && phone.IsMobile(phoneRaw, e.region) {
		points += phonePoints
		*signals = append(*signals, "mobile phone number")
	}

	return min(points, maxContactPoints)
}

func intentPoints(p Prospect, signals *[]string) int {
	points := 0

	timeline := timelinePoints(p)
	if timeline > 0 {
		weight := industryWeight(p.Industry)
		weighted := int(float64(timeline)*weight + 0.5)
		points += weighted
		switch {
		case timeline >= timelineImmediatePoints:
			*signals = append(*signals, "immediate timeline")
		case timeline >= timelineShortPoints:
			*signals = append(*signals, "short-term timeline")
		default:
			*signals = append(*signals, "vague timeline")
		}
	}

	if budget, ok := responseValue(p, FieldBudget); ok {
		points += budgetStatedPoints
		*signals = append(*signals, "budget stated")
		if strings.ContainsAny(budget, "0123456789") {
			points += budgetAmountPoints
		}
	}

	if hasIntentKeyword(p) {
		points += intentKeywordPoints
		*signals = append(*signals, "explicit purchase intent")
	}

	return min(points, maxIntentPoints)
}

// timelinePoints returns the strongest timeline phrase class found across
// all responses. Immediate beats short beats vague.
func timelinePoints(p Prospect) int {
	best := 0
	for _, r := range p.Responses {
		value := strings.ToLower(r.Value)
		switch {
		case containsAny(value, timelineImmediatePhrases):
			return timelineImmediatePoints
		case containsAny(value, timelineShortPhrases):
			best = max(best, timelineShortPoints)
		case containsAny(value, timelineVaguePhrases):
			best = max(best, timelineVaguePoints)
		}
	}
	return best
}

// completenessPoints rewards answered fields with diminishing returns.
func completenessPoints(p Prospect, signals *[]string) int {
	answered := 0
	seen := make(map[FieldKind]bool)
	for _, r := range p.Responses {
		if strings.TrimSpace(r.Value) == "" {
			continue
		}
		if r.Kind != FieldFreeform && seen[r.Kind] {
			continue
		}
		seen[r.Kind] = true
		answered++
	}

	perAnswer := []int{12, 8, 6, 4}
	points := 0
	for i := 0; i < answered && i < len(perAnswer); i++ {
		points += perAnswer[i]
	}

	if answered >= len(perAnswer) {
		*signals = append(*signals, "complete qualification form")
	}

	return min(points, maxCompletenessPoints)
}

func seniorityPoints(p Prospect, signals *[]string) int {
	authority, ok := responseValue(p, FieldAuthority)
	if !ok {
		return 0
	}

	value := strings.ToLower(authority)
	points := 4
	switch {
	case containsAny(value, seniorityExecutiveTitles):
		points = maxSeniorityPoints
		*signals = append(*signals, "decision maker")
	case containsAny(value, seniorityManagerTitles):
		points = 10
		*signals = append(*signals, "management contact")
	case strings.Contains(value, "senior"):
		points = 6
	}

	return min(points, maxSeniorityPoints)
}

func industryWeight(industry string) float64 {
	if w, ok := industryIntentWeights[strings.ToLower(strings.TrimSpace(industry))]; ok {
		return w
	}
	return 1.0
}

func responseValue(p Prospect, kind FieldKind) (string, bool) {
	for _, r := range p.Responses {
		if r.Kind == kind && strings.TrimSpace(r.Value) != "" {
			return r.Value, true
		}
	}
	return "", false
}

func hasIntentKeyword(p Prospect) bool {
	for _, r := range p.Responses {
		if r.Kind != FieldFreeform && r.Kind != FieldNeed {
			continue
		}
		if containsAny(strings.ToLower(r.Value), intentKeywords) {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
