package model

import "strings"

// TriageLabel is the completeness verdict of a triage stage.
type TriageLabel string

const (
	TriageComplete   TriageLabel = "Complete"
	TriageIncomplete TriageLabel = "Incomplete"
)

// Action is one of the closed set of corrective actions for a complete
// aftersales issue.
type Action string

const (
	ActionRepair       Action = "Repair"
	ActionNewProduct   Action = "Send New Product"
	ActionNewPart      Action = "Send New Part of the Product"
	ActionSendEngineer Action = "Send Service Engineer"
)

// AllActions returns the closed corrective-action set.
func AllActions() []Action {
	return []Action{ActionRepair, ActionNewProduct, ActionNewPart, ActionSendEngineer}
}

// ParseAction resolves free-form text to a corrective action,
// case-insensitively. Returns false for anything outside the closed set.
func ParseAction(s string) (Action, bool) {
	for _, a := range AllActions() {
		if strings.EqualFold(string(a), strings.TrimSpace(s)) {
			return a, true
		}
	}
	return "", false
}

// ClassificationResult is the output of the classification stage.
type ClassificationResult struct {
	Label     Label  `json:"label"`
	Summary   string `json:"summary"`
	Reasoning string `json:"reasoning"`
}

// QuoteItem is a single requested product with its resolved quantity.
// Items are kept as an ordered slice (not a map) so consolidation preserves
// the extraction order.
type QuoteItem struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// QuoteTriageResult is the output of the quote triage stage.
//
// Invariants: Complete implies Items non-empty with positive quantities and
// unique products; Incomplete implies Items empty and Suggestion non-empty.
type QuoteTriageResult struct {
	Label      TriageLabel `json:"label"`
	Suggestion string      `json:"suggestion"`
	Reasoning  string      `json:"reasoning"`
	Items      []QuoteItem `json:"items"`
}

// AftersalesTriageResult is the output of the aftersales triage stage.
//
// ClientActionSuggested carries only what the customer literally asked for;
// remedy selection belongs to the corrective-action stage. Invariants:
// Complete implies an identifier was found in the source text and
// IssueDescription is non-empty; Incomplete implies Suggestion non-empty.
type AftersalesTriageResult struct {
	Label                 TriageLabel `json:"label"`
	ClientActionSuggested string      `json:"client_action_suggested"`
	IssueDescription      string      `json:"issue_description"`
	Suggestion            string      `json:"suggestion"`
	Reasoning             string      `json:"reasoning"`
}

// ActionDecision is the output of the corrective-action inference stage.
// When NeedsMoreInfo is set, Action is not authoritative and must not be
// forwarded to the consolidated result; Ask carries the follow-up question.
type ActionDecision struct {
	Action        Action `json:"action"`
	Reasoning     string `json:"reasoning"`
	NeedsMoreInfo bool   `json:"needs_more_info"`
	Ask           string `json:"ask"`
}

// ConsolidatedItem is one line of a consolidated quote, with the exact
// field names the downstream automation expects.
type ConsolidatedItem struct {
	Item     string `json:"Item"`
	Quantity int    `json:"Quantity"`
}

// ConsolidatedAftersales is the aftersales half of the consolidated record.
// All fields default to empty strings rather than nulls.
type ConsolidatedAftersales struct {
	OrderNumber      string `json:"OrderNumber"`
	Claim            string `json:"Claim"`
	CorrectiveAction string `json:"CorrectiveAction"`
}

// ConsolidatedQuote is the quote half of the consolidated record.
type ConsolidatedQuote struct {
	Items []ConsolidatedItem `json:"Items"`
}

// ConsolidatedResult is the single, schema-exact output record for
// downstream automation. Exactly one of Aftersales/Quote is non-nil when
// the classification label falls into a branch set; both are nil otherwise.
type ConsolidatedResult struct {
	ClassificationLabel string                  `json:"ClassificationLabel"`
	Aftersales          *ConsolidatedAftersales `json:"Aftersales"`
	Quote               *ConsolidatedQuote      `json:"Quote"`
}
