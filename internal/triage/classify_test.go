package triage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/hd-crm/support-triage/internal/model"
)

func TestClassify_ValidLabel(t *testing.T) {
	ctx := context.Background()
	aiClient := &mockAnthropicClient{}

	aiClient.On("CreateMessage", ctx, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(textResponse(`{"label": "Claims", "summary": "Damaged blind on delivery", "reasoning": "The customer reports delivery damage."}`), nil).Once()

	p := newTestPipeline(aiClient)
	res, err := p.Classify(ctx, "My blind arrived damaged, order AB123-45")

	assert.NoError(t, err)
	assert.Equal(t, model.LabelClaims, res.Label)
	assert.Equal(t, model.BranchAftersales, res.Label.Branch())
	assert.Equal(t, "Damaged blind on delivery", res.Summary)
	aiClient.AssertExpectations(t)
}

func TestClassify_LabelOutsideTaxonomy(t *testing.T) {
	ctx := context.Background()
	aiClient := &mockAnthropicClient{}

	aiClient.On("CreateMessage", ctx, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(textResponse(`{"label": "Incomplete - Needs Review", "summary": "s", "reasoning": "r"}`), nil).Once()

	p := newTestPipeline(aiClient)
	_, err := p.Classify(ctx, "hello")

	var schemaErr *SchemaValidationError
	assert.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "classify", schemaErr.Stage)
}

func TestClassify_EmptyResponse(t *testing.T) {
	ctx := context.Background()
	aiClient := &mockAnthropicClient{}

	aiClient.On("CreateMessage", ctx, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(textResponse(""), nil).Once()

	p := newTestPipeline(aiClient)
	_, err := p.Classify(ctx, "hello")

	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestClassify_APIError(t *testing.T) {
	ctx := context.Background()
	aiClient := &mockAnthropicClient{}

	aiClient.On("CreateMessage", ctx, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(nil, errors.New("api unavailable")).Once()

	p := newTestPipeline(aiClient)
	_, err := p.Classify(ctx, "hello")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "classify")
}

func TestParseClassification_MarkdownFence(t *testing.T) {
	text := "```json\n{\"label\": \"Pricing & Quotes\", \"summary\": \"Quote request\", \"reasoning\": \"Asks for prices.\"}\n```"
	res, err := parseClassification(text)

	assert.NoError(t, err)
	assert.Equal(t, model.LabelPricingQuotes, res.Label)
	assert.Equal(t, model.BranchQuote, res.Label.Branch())
}

func TestParseClassification_CaseInsensitive(t *testing.T) {
	res, err := parseClassification(`{"label": "technical support", "summary": "s", "reasoning": "r"}`)

	assert.NoError(t, err)
	assert.Equal(t, model.LabelTechnicalSupport, res.Label)
}

func TestParseClassification_NotJSON(t *testing.T) {
	_, err := parseClassification("the label is Claims")

	var schemaErr *SchemaValidationError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestClassifySystemPrompt_ListsFullTaxonomy(t *testing.T) {
	for _, l := range model.AllLabels() {
		assert.True(t, strings.Contains(classifySystemPrompt, "- "+string(l)),
			"prompt missing label %q", l)
	}
}
