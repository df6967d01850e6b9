package triage

import "regexp"

// Identifier extraction is the only non-LLM extraction in the pipeline:
// plain pattern matching over the raw message text.

// orderNumberRE matches order numbers: optional uppercase letters, digits,
// a hyphen, digits (e.g. AB123-45).
var orderNumberRE = regexp.MustCompile(`\b[A-Z]*\d+-\d+\b`)

// invoiceNumberRE approximates invoice numbers, which have no fixed format:
// a standalone run of five or more digits.
var invoiceNumberRE = regexp.MustCompile(`\b\d{5,}\b`)

// ExtractOrderNumber returns the first order number in text, or "" if none.
func ExtractOrderNumber(text string) string {
	return orderNumberRE.FindString(text)
}

// HasIdentifier reports whether text contains an order number or anything
// that plausibly looks like an invoice number. Used to keep aftersales
// completeness independent of model judgement.
func HasIdentifier(text string) bool {
	if orderNumberRE.MatchString(text) {
		return true
	}
	return invoiceNumberRE.MatchString(text)
}
