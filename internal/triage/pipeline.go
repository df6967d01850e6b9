package triage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hd-crm/support-triage/internal/config"
	"github.com/hd-crm/support-triage/internal/model"
	"github.com/hd-crm/support-triage/internal/resilience"
	"github.com/hd-crm/support-triage/pkg/anthropic"
)

// Pipeline runs the triage stages against the Anthropic API. It holds no
// per-request state: every run builds its own entities, so one Pipeline can
// serve concurrent requests.
type Pipeline struct {
	ai    anthropic.Client
	aiCfg config.AnthropicConfig
	retry resilience.RetryConfig
}

// New builds a Pipeline from the loaded configuration.
func New(ai anthropic.Client, cfg *config.Config) *Pipeline {
	return &Pipeline{
		ai:    ai,
		aiCfg: cfg.Anthropic,
		retry: retryFromConfig(cfg.Retry),
	}
}

func retryFromConfig(rc config.RetryConfig) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    rc.MaxAttempts,
		InitialBackoff: time.Duration(rc.InitialBackoffMs) * time.Millisecond,
		MaxBackoff:     time.Duration(rc.MaxBackoffMs) * time.Millisecond,
		Multiplier:     rc.Multiplier,
		JitterFraction: rc.JitterFraction,
	}
}

// buildRequest assembles a single-turn message request with the stage's
// fixed system prompt as a cached block.
func (p *Pipeline) buildRequest(system, user string) anthropic.MessageRequest {
	return anthropic.MessageRequest{
		Model:     p.aiCfg.Model,
		MaxTokens: p.aiCfg.MaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(system),
		Messages: []anthropic.Message{
			{Role: "user", Content: user},
		},
	}
}

// complete sends one message for a stage, retrying transient failures, and
// returns the concatenated response text.
func (p *Pipeline) complete(ctx context.Context, stage, system, user string) (string, error) {
	req := p.buildRequest(system, user)

	retryCfg := p.retry
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", stage)

	resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return p.ai.CreateMessage(ctx, req)
	})
	if err != nil {
		return "", eris.Wrap(err, "triage: "+stage)
	}

	resp.Usage.LogCost(p.aiCfg.Model, stage)
	return extractText(resp), nil
}

// Consolidate runs the full pipeline for one message: classification,
// branch routing, branch-specific extraction, and the final merge into the
// schema-exact output record.
func (p *Pipeline) Consolidate(ctx context.Context, text string) (*model.ConsolidatedResult, error) {
	runID := uuid.NewString()
	log := zap.L().With(zap.String("run_id", runID))

	cls, err := p.Classify(ctx, text)
	if err != nil {
		return nil, err
	}
	log.Info("message classified",
		zap.String("label", string(cls.Label)),
		zap.String("branch", string(cls.Label.Branch())),
	)

	out, err := p.consolidateClassified(ctx, text, cls)
	if err != nil {
		return nil, err
	}

	log.Info("triage consolidated",
		zap.String("label", out.ClassificationLabel),
		zap.Bool("aftersales", out.Aftersales != nil),
		zap.Bool("quote", out.Quote != nil),
	)
	return out, nil
}

// consolidateClassified runs the branch stages for an already-classified
// message and merges their outputs. Exactly one of Aftersales/Quote is
// populated when the label belongs to a branch set; neither otherwise.
func (p *Pipeline) consolidateClassified(ctx context.Context, text string, cls *model.ClassificationResult) (*model.ConsolidatedResult, error) {
	out := &model.ConsolidatedResult{
		ClassificationLabel: string(cls.Label),
	}

	switch cls.Label.Branch() {
	case model.BranchQuote:
		qt, err := p.TriageQuote(ctx, text)
		if err != nil {
			return nil, err
		}
		items := make([]model.ConsolidatedItem, 0, len(qt.Items))
		for _, it := range qt.Items {
			items = append(items, model.ConsolidatedItem{
				Item:     it.Product,
				Quantity: it.Quantity,
			})
		}
		out.Quote = &model.ConsolidatedQuote{Items: items}

	case model.BranchAftersales:
		at, err := p.TriageAftersales(ctx, text)
		if err != nil {
			return nil, err
		}
		aft := &model.ConsolidatedAftersales{
			OrderNumber: ExtractOrderNumber(text),
			Claim:       at.IssueDescription,
		}
		// Remedy selection only makes sense once the triage is complete and
		// there is an issue to reason about.
		if at.Label == model.TriageComplete && at.IssueDescription != "" {
			dec, err := p.InferAction(ctx, at.IssueDescription, "")
			if err != nil {
				return nil, err
			}
			if !dec.NeedsMoreInfo {
				aft.CorrectiveAction = string(dec.Action)
			}
		}
		out.Aftersales = aft
	}

	return out, nil
}
