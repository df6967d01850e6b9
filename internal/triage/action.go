package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hd-crm/support-triage/internal/model"
)

const actionSystemPrompt = `You are a support triage expert.
Given a product context (if known) and a clear issue description, infer the single best corrective action from the allowed list.

Allowed actions:
- Repair
- Send New Product
- Send New Part of the Product
- Send Service Engineer

Instructions
- Choose exactly one action that best addresses the described problem. Pay attention to the details in the issue description. Try to identify if the product is beyond repair, if parts are missing, or if an on-site visit is needed.
- If the issue description is unclear or missing, set needs_more_info = true and craft ask with a concise question to clarify the issue.

Output format (MANDATORY)
Respond only with a valid JSON object exactly like:
{"action": "<one of the allowed actions>", "reasoning": "<very short justification>", "needs_more_info": <true|false>, "ask": "<if needs_more_info is true, a short clarification question; else ''>"}

Do not include any explanation or extra text outside the JSON object.`

// InferAction selects exactly one corrective action for a complete
// aftersales issue, or flags that more information is required. When
// NeedsMoreInfo is set the returned action is not authoritative.
func (p *Pipeline) InferAction(ctx context.Context, issue, product string) (*model.ActionDecision, error) {
	if product == "" {
		product = "unknown"
	}
	user := fmt.Sprintf("Product/context (if known): %s\nIssue: %s", product, issue)

	raw, err := p.complete(ctx, "action_inference", actionSystemPrompt, user)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		zap.L().Warn("action inference: empty model response, asking for clarification")
		return &model.ActionDecision{
			NeedsMoreInfo: true,
			Ask:           "Please describe what is wrong with the product and when the problem occurs.",
			Reasoning:     "The inference service returned no content for this issue.",
		}, nil
	}
	return parseActionDecision(raw)
}

func parseActionDecision(text string) (*model.ActionDecision, error) {
	var raw struct {
		Action        string `json:"action"`
		Reasoning     string `json:"reasoning"`
		NeedsMoreInfo bool   `json:"needs_more_info"`
		Ask           string `json:"ask"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, schemaErr("action_inference", "response is not a JSON object: %v", err)
	}

	res := &model.ActionDecision{
		Reasoning:     strings.TrimSpace(raw.Reasoning),
		NeedsMoreInfo: raw.NeedsMoreInfo,
		Ask:           strings.TrimSpace(raw.Ask),
	}

	if res.NeedsMoreInfo {
		if res.Ask == "" {
			return nil, schemaErr("action_inference", "needs_more_info set without a clarifying question")
		}
		// The action field is ignored in this case; keep it only if valid.
		if a, ok := model.ParseAction(raw.Action); ok {
			res.Action = a
		}
		return res, nil
	}

	a, ok := model.ParseAction(raw.Action)
	if !ok {
		return nil, schemaErr("action_inference", "action %q is outside the allowed set", raw.Action)
	}
	res.Action = a
	return res, nil
}
