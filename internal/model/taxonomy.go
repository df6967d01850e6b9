package model

import (
	"fmt"
	"strings"
)

// Label is one of the fixed top-level topic categories assignable to an
// inbound support message. The set is closed: classification must never
// emit a label outside it.
type Label string

const (
	LabelPricingQuotes      Label = "Pricing & Quotes"
	LabelMeasurements       Label = "Measurements & Installation Questions"
	LabelProductGuidance    Label = "Product Guidance"
	LabelSamples            Label = "Samples"
	LabelWebPlatformSupport Label = "Web Platform Support (Dealer Connect)"
	LabelPromotions         Label = "Promotions & Dealer Discounts"
	LabelOrderPlacement     Label = "Order Placement"
	LabelOrderChanges       Label = "Order Changes"
	LabelOrderConfirmation  Label = "Order Confirmation & Acknowledgements"
	LabelOrderStatus        Label = "Order Status & Logistics"
	LabelTechnicalSupport   Label = "Technical Support"
	LabelClaims             Label = "Claims"
	LabelPartsRequest       Label = "Parts Request"
	LabelFieldService       Label = "Field Service / Installation"
	LabelCredits            Label = "Credits & Credit Notes"
	LabelInvoicesPayments   Label = "Invoices & Payments"
	LabelDealerEnablement   Label = "Dealer Enablement (Training/Showroom/Loyalty)"
	LabelInternalComm       Label = "Internal Communication"
	LabelGeneralInquiry     Label = "General Inquiry"
	LabelOther              Label = "Other"
)

// Branch identifies which specialized extraction branch a label routes to.
type Branch string

const (
	BranchAftersales Branch = "aftersales"
	BranchQuote      Branch = "quote"
	BranchNone       Branch = "none"
)

// branchByLabel is the exhaustive routing table. Every taxonomy label
// appears exactly once, so routing is a total function over the closed set
// and no label can belong to both branch sets.
var branchByLabel = map[Label]Branch{
	LabelPricingQuotes:      BranchQuote,
	LabelMeasurements:       BranchNone,
	LabelProductGuidance:    BranchNone,
	LabelSamples:            BranchNone,
	LabelWebPlatformSupport: BranchNone,
	LabelPromotions:         BranchNone,
	LabelOrderPlacement:     BranchNone,
	LabelOrderChanges:       BranchNone,
	LabelOrderConfirmation:  BranchNone,
	LabelOrderStatus:        BranchNone,
	LabelTechnicalSupport:   BranchAftersales,
	LabelClaims:             BranchAftersales,
	LabelPartsRequest:       BranchAftersales,
	LabelFieldService:       BranchAftersales,
	LabelCredits:            BranchNone,
	LabelInvoicesPayments:   BranchNone,
	LabelDealerEnablement:   BranchNone,
	LabelInternalComm:       BranchNone,
	LabelGeneralInquiry:     BranchNone,
	LabelOther:              BranchNone,
}

// labelAliases maps lowercase synonyms the model occasionally produces to
// their canonical taxonomy label.
var labelAliases = map[string]Label{
	"quotes":                       LabelPricingQuotes,
	"pricing":                      LabelPricingQuotes,
	"field service":                LabelFieldService,
	"installation":                 LabelFieldService,
	"field service/installation":   LabelFieldService,
	"field service / installation": LabelFieldService,
}

func init() {
	if err := validateTaxonomy(); err != nil {
		panic(err)
	}
}

// validateTaxonomy checks that the routing table covers the full taxonomy.
// The map structure already makes a double branch assignment impossible;
// this verifies coverage and alias sanity.
func validateTaxonomy() error {
	if got, want := len(branchByLabel), len(AllLabels()); got != want {
		return fmt.Errorf("model: routing table has %d labels, taxonomy has %d", got, want)
	}
	for _, l := range AllLabels() {
		if _, ok := branchByLabel[l]; !ok {
			return fmt.Errorf("model: label %q missing from routing table", l)
		}
	}
	for alias, l := range labelAliases {
		if _, ok := branchByLabel[l]; !ok {
			return fmt.Errorf("model: alias %q targets unknown label %q", alias, l)
		}
	}
	return nil
}

// AllLabels returns the full taxonomy in its canonical order.
func AllLabels() []Label {
	return []Label{
		LabelPricingQuotes,
		LabelMeasurements,
		LabelProductGuidance,
		LabelSamples,
		LabelWebPlatformSupport,
		LabelPromotions,
		LabelOrderPlacement,
		LabelOrderChanges,
		LabelOrderConfirmation,
		LabelOrderStatus,
		LabelTechnicalSupport,
		LabelClaims,
		LabelPartsRequest,
		LabelFieldService,
		LabelCredits,
		LabelInvoicesPayments,
		LabelDealerEnablement,
		LabelInternalComm,
		LabelGeneralInquiry,
		LabelOther,
	}
}

// ParseLabel resolves free-form text to a taxonomy label, case-insensitively.
// Known synonyms fold to their canonical label. Returns false when the text
// matches nothing in the taxonomy.
func ParseLabel(s string) (Label, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for l := range branchByLabel {
		if strings.ToLower(string(l)) == norm {
			return l, true
		}
	}
	if l, ok := labelAliases[norm]; ok {
		return l, true
	}
	return "", false
}

// Branch returns the extraction branch for the label. Unknown labels route
// to BranchNone; ParseLabel should have rejected them already.
func (l Label) Branch() Branch {
	if b, ok := branchByLabel[l]; ok {
		return b
	}
	return BranchNone
}
