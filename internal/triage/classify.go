package triage

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/hd-crm/support-triage/internal/model"
)

// classifySystemPrompt is assembled from the taxonomy so the allowed label
// list in the prompt can never drift from the closed set the parser accepts.
var classifySystemPrompt = buildClassifySystemPrompt()

func buildClassifySystemPrompt() string {
	var b strings.Builder
	b.WriteString(`You are an assistant trained to classify email messages from a CRM platform.
These messages are exchanges between internal staff from brands such as Hunter Douglas, Sunway, Luxaflex, and related companies, and their end-customers.
Your task: assign exactly ONE general, single label (from the allowed list) to the message or thread.

Use ONE of the following SINGLE labels (do not invent new ones):
`)
	for _, l := range model.AllLabels() {
		b.WriteString("- ")
		b.WriteString(string(l))
		b.WriteString("\n")
	}
	b.WriteString(`
STRICT RULES
- Choose exactly one label from the list above. YOU MUST NOT OUTPUT LABELS OUTSIDE THIS LIST.
- Consider the entire thread; use the most recent, most actionable customer need.
- If multiple topics are present, pick the dominant action that determines the next operational step using this priority:
  1) Claims
  2) Technical Support
  3) Pricing & Quotes
  4) Order Placement
  5) Order Changes
  6) Order Status & Logistics
  7) Other labels in any order

OUTPUT FORMAT (MANDATORY)
Respond only with a valid JSON object in exactly this shape:
{"label": "<one of the allowed labels>", "summary": "<very short English summary of the message>", "reasoning": "<one short English sentence explaining why this label fits best>"}

Do not include any explanation or extra text outside the JSON object.`)
	return b.String()
}

// Classify assigns exactly one taxonomy label to the raw message text.
// An empty model response is an error here: every later stage depends on
// the label, so there is no sensible default.
func (p *Pipeline) Classify(ctx context.Context, text string) (*model.ClassificationResult, error) {
	raw, err := p.complete(ctx, "classify", classifySystemPrompt, text)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, eris.Wrap(ErrEmptyResponse, "triage: classify")
	}
	return parseClassification(raw)
}

// parseClassification validates the response against the closed taxonomy.
// A label outside the set is a schema violation, never coerced.
func parseClassification(text string) (*model.ClassificationResult, error) {
	var raw struct {
		Label     string `json:"label"`
		Summary   string `json:"summary"`
		Reasoning string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, schemaErr("classify", "response is not a JSON object: %v", err)
	}

	label, ok := model.ParseLabel(raw.Label)
	if !ok {
		return nil, schemaErr("classify", "label %q is outside the taxonomy", raw.Label)
	}

	return &model.ClassificationResult{
		Label:     label,
		Summary:   strings.TrimSpace(raw.Summary),
		Reasoning: strings.TrimSpace(raw.Reasoning),
	}, nil
}
