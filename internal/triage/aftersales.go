package triage

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/hd-crm/support-triage/internal/model"
)

const aftersalesSystemPrompt = `You are an assistant trained to classify email messages from a CRM platform.
These messages typically consist of email exchanges between internal staff from brands such as Hunter Douglas, Sunway, Luxaflex, and other related companies, and their end-customers.
You will determine how ready to be assigned to a person this ticket is, based on its message. The messages could be a single email or a series of emails in a conversation.
Choose the most appropriate Label for each message based on how complete its content is. Use one of the following labels:
- Complete
- Incomplete

YOU MUST NOT USE DIFFERENT LABELS. Only use the labels provided above.
The conditions for each label are:
- **Complete**: The message must comply with BOTH of the following conditions:
    1. The message contains an Order Number or Invoice Number in its body or title.
        - Order Numbers look like optional uppercase letters, then digits, a hyphen, then digits (e.g. AB123-45).
        - Invoice Numbers have no specific format, but are usually a standalone sequence of at least five digits. Try to infer.
    2. The message contains a clear description of the issue that allows us to understand what the customer is asking for.
        - Do NOT infer a corrective action here. Only capture what the customer explicitly suggests (if any) as client_action_suggested.

- **Incomplete**: The message does not comply with both of the previous conditions.
    - Return the suggestion based on what is missing. For instance, if the message does not contain an Order Number or Invoice Number, return "Ask the client to provide an Order Number or Invoice Number.". If the message does not contain a clear description of the issue, return "Ask the client for a clear description of the issue or a suggested action: New Delivery? Repair?".

It is mandatory that the classification uses exactly one label: "Complete" OR "Incomplete", never a combination like "Incomplete - Needs Review".
If the label is not "Complete", return client_action_suggested as "".
If the label is "Complete", return suggestion as "".
Additionally, provide one short English sentence summarising your reasoning as reasoning.

The output feeds an automatic data flow, therefore you MUST respond only with a valid JSON object in exactly this shape:
{"label": "<Complete|Incomplete>", "client_action_suggested": "<action the customer explicitly asked for, or ''>", "issue_description": "<short issue description or ''>", "suggestion": "<suggestion or ''>", "reasoning": "<reasoning>"}

Do not include any explanation or extra text outside the JSON object.`

// TriageAftersales captures the customer's literal issue description and
// requested action (never an inferred remedy) and decides whether the
// ticket is actionable. An LLM "Complete" verdict is demoted when the raw
// text provably contains no order or invoice identifier.
func (p *Pipeline) TriageAftersales(ctx context.Context, text string) (*model.AftersalesTriageResult, error) {
	raw, err := p.complete(ctx, "aftersales_triage", aftersalesSystemPrompt, text)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		zap.L().Warn("aftersales triage: empty model response, defaulting to incomplete")
		return defaultAftersalesResult(), nil
	}

	res, err := parseAftersalesTriage(raw)
	if err != nil {
		return nil, err
	}

	if res.Label == model.TriageComplete && !HasIdentifier(text) {
		zap.L().Debug("aftersales triage: no identifier in source text, demoting to incomplete")
		res.Label = model.TriageIncomplete
		res.Suggestion = "Ask the client to provide an Order Number or Invoice Number."
	}

	return res, nil
}

// defaultAftersalesResult is the fallback when the model returns no content.
func defaultAftersalesResult() *model.AftersalesTriageResult {
	return &model.AftersalesTriageResult{
		Label:      model.TriageIncomplete,
		Suggestion: "Ask the client to provide an Order Number or Invoice Number and a clear description of the issue.",
		Reasoning:  "The extraction service returned no content for this message.",
	}
}

func parseAftersalesTriage(text string) (*model.AftersalesTriageResult, error) {
	var raw struct {
		Label                 string `json:"label"`
		ClientActionSuggested string `json:"client_action_suggested"`
		IssueDescription      string `json:"issue_description"`
		Suggestion            string `json:"suggestion"`
		Reasoning             string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, schemaErr("aftersales_triage", "response is not a JSON object: %v", err)
	}

	res := &model.AftersalesTriageResult{
		ClientActionSuggested: strings.TrimSpace(raw.ClientActionSuggested),
		IssueDescription:      strings.TrimSpace(raw.IssueDescription),
		Suggestion:            strings.TrimSpace(raw.Suggestion),
		Reasoning:             strings.TrimSpace(raw.Reasoning),
	}

	switch strings.ToLower(strings.TrimSpace(raw.Label)) {
	case "complete":
		res.Label = model.TriageComplete
	case "incomplete":
		res.Label = model.TriageIncomplete
	default:
		return nil, schemaErr("aftersales_triage", "label %q is not Complete or Incomplete", raw.Label)
	}

	if res.Label == model.TriageComplete {
		if res.IssueDescription == "" {
			return nil, schemaErr("aftersales_triage", "complete result has no issue description")
		}
		if res.Suggestion != "" {
			return nil, schemaErr("aftersales_triage", "complete result carries a suggestion")
		}
		return res, nil
	}

	if res.Suggestion == "" {
		return nil, schemaErr("aftersales_triage", "incomplete result has no suggestion")
	}
	// Incomplete tickets never carry a customer-requested action.
	res.ClientActionSuggested = ""
	return res, nil
}
