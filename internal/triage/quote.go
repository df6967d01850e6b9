package triage

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hd-crm/support-triage/internal/model"
)

const quoteSystemPrompt = `You are an assistant trained to classify CRM email messages that request PRICE QUOTES.
These emails are exchanges between internal staff from brands such as Hunter Douglas, Luxaflex, Sunway, and related companies, and their end-customers.
Messages may be a single email or a thread. Your job is to determine whether the request is READY for quoting based solely on the message text.

You MUST choose exactly one Label from:
- Complete
- Incomplete
YOU MUST NOT USE DIFFERENT LABELS.

## Goal
For PRICE QUOTE triage, consider a ticket **Complete** ONLY when the message clearly specifies:
1) The product(s) requested (Hunter Douglas shades/blinds family names or obvious synonyms), AND
2) A numeric quantity for each requested product.

If ANY requested product lacks a numeric quantity, or the product itself is ambiguous, the ticket is **Incomplete**.

### Hunter Douglas product families to recognize (normalize to Title Case):
- Duette Shade (honeycomb/cellular; synonyms: "duette", "cellular", "honeycomb")
- Silhouette Shade ("silhouette", "silhouettes")
- Pirouette Shade ("pirouette", "pirouettes")
- Roller Blind ("roller", "roller blind(s)")
- Roman Blind ("roman", "roman blind(s)")
- Venetian Blind ("venetian", "aluminium venetian", "metal venetian")
- Wood Blind ("wood", "wooden blind(s)", "timber venetian")
- Vertical Blind ("vertical", "vertical blind(s)")
- Plissé Shade ("plissé", "plisse", "pleated")
- Other obvious HD shades/blinds if explicitly named (normalize to a sensible Title Case product).

Do not require options like fabric, colour, dimensions, cassette type, or control system for completeness. Those are helpful but NOT required here.

### Quantity detection
Accept numeric digits (e.g., "2", "x3", "qty: 4") and common number words in English ("one", "two", ... "twelve").
Treat vague terms like "a couple", "a few", or "some" as missing quantities.
If quantities are given per-room/window and imply totals (e.g., "2 Duette for kitchen + 1 Duette for study"), compute the per-product totals.

### Multiple emails in a thread
Consider the whole thread; if later messages correct earlier ones, use the latest explicit quantities (replace, do not add). Ignore references like "same as last time" without explicit numbers: these are Incomplete.

## Label rules
- **Complete**:
  - At least one recognized product is explicitly specified, AND
  - Each listed product has an explicit numeric quantity (after summing any per-room mentions).
  - When Complete, return items with one entry per product and the final integer quantity for that product. Set suggestion to "" (empty).

- **Incomplete**:
  - Product names missing or ambiguous (e.g., "blinds" without type), OR
  - Any product lacks a numeric quantity, OR
  - Only relative references (e.g., "same as before") without explicit numbers.
  - When Incomplete, return items as an empty array [] and provide a concrete suggestion telling exactly what to ask for to make it Complete (e.g., "Ask the client to list each product type (e.g., Duette Shade, Roller Blind) and give a numeric quantity for each.").

## Normalization
Normalize product names to the canonical forms above (Title Case). Keep quantities as integers. If a product appears multiple times, sum its quantities.

## Output format (MANDATORY)
Respond only with a valid JSON object in exactly this shape:
{"label": "<Complete|Incomplete>", "suggestion": "<empty if Complete, otherwise what to ask for>", "reasoning": "<one short English sentence>", "items": [{"product": "<Product A>", "quantity": <int>}, ...]}

Rules:
- If label is "Complete": suggestion == "" and items contains one or more entries.
- If label is "Incomplete": items == [].
- Do not include any explanation or extra text outside the JSON object.`

// TriageQuote decides whether a price-quote request is ready for quoting
// and extracts the per-product quantities when it is.
func (p *Pipeline) TriageQuote(ctx context.Context, text string) (*model.QuoteTriageResult, error) {
	raw, err := p.complete(ctx, "quote_triage", quoteSystemPrompt, text)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		zap.L().Warn("quote triage: empty model response, defaulting to incomplete")
		return defaultQuoteResult(), nil
	}
	return parseQuoteTriage(raw)
}

// defaultQuoteResult is the fallback when the model returns no content.
// Incomplete results always carry a concrete follow-up question.
func defaultQuoteResult() *model.QuoteTriageResult {
	return &model.QuoteTriageResult{
		Label:      model.TriageIncomplete,
		Suggestion: "Ask the client to list each product type (e.g., Duette Shade, Roller Blind) and give a numeric quantity for each.",
		Reasoning:  "The extraction service returned no content for this message.",
		Items:      []model.QuoteItem{},
	}
}

func parseQuoteTriage(text string) (*model.QuoteTriageResult, error) {
	var raw struct {
		Label      string `json:"label"`
		Suggestion string `json:"suggestion"`
		Reasoning  string `json:"reasoning"`
		Items      []struct {
			Product  string `json:"product"`
			Quantity int    `json:"quantity"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, schemaErr("quote_triage", "response is not a JSON object: %v", err)
	}

	res := &model.QuoteTriageResult{
		Suggestion: strings.TrimSpace(raw.Suggestion),
		Reasoning:  strings.TrimSpace(raw.Reasoning),
		Items:      []model.QuoteItem{},
	}

	switch strings.ToLower(strings.TrimSpace(raw.Label)) {
	case "complete":
		res.Label = model.TriageComplete
	case "incomplete":
		res.Label = model.TriageIncomplete
	default:
		return nil, schemaErr("quote_triage", "label %q is not Complete or Incomplete", raw.Label)
	}

	if res.Label == model.TriageIncomplete {
		if len(raw.Items) != 0 {
			return nil, schemaErr("quote_triage", "incomplete result carries %d items", len(raw.Items))
		}
		if res.Suggestion == "" {
			return nil, schemaErr("quote_triage", "incomplete result has no suggestion")
		}
		return res, nil
	}

	// Complete: items required, suggestion forbidden.
	if len(raw.Items) == 0 {
		return nil, schemaErr("quote_triage", "complete result has no items")
	}
	if res.Suggestion != "" {
		return nil, schemaErr("quote_triage", "complete result carries a suggestion")
	}

	for _, it := range raw.Items {
		name := canonicalProduct(it.Product)
		if name == "" {
			return nil, schemaErr("quote_triage", "item with empty product name")
		}
		if it.Quantity <= 0 {
			return nil, schemaErr("quote_triage", "item %q has non-positive quantity %d", name, it.Quantity)
		}
		res.Items = addItem(res.Items, name, it.Quantity)
	}

	return res, nil
}

// canonicalProduct folds a product name to Title Case so "duette shade" and
// "Duette shade" collapse to the same key.
func canonicalProduct(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ToLower(name))
}

// addItem merges a quantity into the item list, summing duplicate products
// while preserving first-mention order.
func addItem(items []model.QuoteItem, product string, qty int) []model.QuoteItem {
	for i := range items {
		if items[i].Product == product {
			items[i].Quantity += qty
			return items
		}
	}
	return append(items, model.QuoteItem{Product: product, Quantity: qty})
}
