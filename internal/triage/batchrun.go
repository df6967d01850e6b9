package triage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hd-crm/support-triage/internal/config"
	"github.com/hd-crm/support-triage/internal/model"
	"github.com/hd-crm/support-triage/pkg/anthropic"
)

const (
	defaultSmallBatchThreshold = 8
	defaultMaxConcurrent       = 10
)

// BatchOutcome is the per-message result of a multi-message run. A failed
// message carries its error without aborting the rest of the batch.
type BatchOutcome struct {
	Index  int
	Result *model.ConsolidatedResult
	Err    error
}

// ConsolidateAll triages many messages. Above the small-batch threshold the
// classification stage goes through the Batch API (one request per message,
// one poll cycle overall); branch stages always run as direct calls because
// each depends on its message's classification. Below the threshold, or in
// no-batch mode, every message runs the direct pipeline concurrently.
func (p *Pipeline) ConsolidateAll(ctx context.Context, texts []string, bcfg config.BatchConfig) ([]BatchOutcome, error) {
	outcomes := make([]BatchOutcome, len(texts))
	for i := range outcomes {
		outcomes[i].Index = i
	}
	if len(texts) == 0 {
		return outcomes, nil
	}

	threshold := p.aiCfg.SmallBatchThreshold
	if threshold <= 0 {
		threshold = defaultSmallBatchThreshold
	}

	if p.aiCfg.NoBatch || len(texts) <= threshold {
		p.runDirect(ctx, texts, bcfg, outcomes)
		return outcomes, nil
	}

	if err := p.runBatched(ctx, texts, bcfg, outcomes); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// runDirect consolidates every message through the single-message pipeline,
// bounded by the concurrency limit and the client-side rate limiter.
func (p *Pipeline) runDirect(ctx context.Context, texts []string, bcfg config.BatchConfig, outcomes []BatchOutcome) {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent(bcfg))

	limiter := newLimiter(bcfg)

	for i, text := range texts {
		g.Go(func() error {
			if err := limiter.Wait(gCtx); err != nil {
				outcomes[i].Err = err
				return nil
			}
			res, err := p.Consolidate(gCtx, text)
			if err != nil {
				zap.L().Warn("batch: message failed",
					zap.Int("index", i),
					zap.Error(err),
				)
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Result = res
			return nil
		})
	}

	_ = g.Wait()
}

// runBatched classifies all messages through the Batch API, then runs the
// branch stages directly per message.
func (p *Pipeline) runBatched(ctx context.Context, texts []string, bcfg config.BatchConfig, outcomes []BatchOutcome) error {
	items := make([]anthropic.BatchRequestItem, len(texts))
	for i, text := range texts {
		items[i] = anthropic.BatchRequestItem{
			CustomID: fmt.Sprintf("classify-%d", i),
			Params:   p.buildRequest(classifySystemPrompt, text),
		}
	}

	batch, err := p.ai.CreateBatch(ctx, anthropic.BatchRequest{Requests: items})
	if err != nil {
		return eris.Wrap(err, "batch: create")
	}

	var pollOpts []anthropic.PollOption
	if bcfg.PollTimeoutMin > 0 {
		pollOpts = append(pollOpts, anthropic.WithPollTimeout(time.Duration(bcfg.PollTimeoutMin)*time.Minute))
	}
	batch, err = anthropic.PollBatch(ctx, p.ai, batch.ID, pollOpts...)
	if err != nil {
		return eris.Wrap(err, "batch: poll")
	}

	iter, err := p.ai.GetBatchResults(ctx, batch.ID)
	if err != nil {
		return eris.Wrap(err, "batch: get results")
	}
	results, err := anthropic.CollectBatchResults(iter)
	if err != nil {
		return eris.Wrap(err, "batch: collect results")
	}

	// Map classifications back to messages; failed or missing items stay
	// errored without blocking the rest.
	classified := make([]*model.ClassificationResult, len(texts))
	for i := range texts {
		resp, ok := results[fmt.Sprintf("classify-%d", i)]
		if !ok || resp == nil {
			outcomes[i].Err = eris.Wrap(ErrEmptyResponse, "batch: classify")
			continue
		}
		resp.Usage.LogCost(p.aiCfg.Model, "classify")

		text := extractText(resp)
		if strings.TrimSpace(text) == "" {
			outcomes[i].Err = eris.Wrap(ErrEmptyResponse, "batch: classify")
			continue
		}
		cls, err := parseClassification(text)
		if err != nil {
			outcomes[i].Err = err
			continue
		}
		classified[i] = cls
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent(bcfg))

	limiter := newLimiter(bcfg)

	for i, text := range texts {
		cls := classified[i]
		if cls == nil {
			continue
		}
		g.Go(func() error {
			if err := limiter.Wait(gCtx); err != nil {
				outcomes[i].Err = err
				return nil
			}
			res, err := p.consolidateClassified(gCtx, text, cls)
			if err != nil {
				zap.L().Warn("batch: branch stage failed",
					zap.Int("index", i),
					zap.String("label", string(cls.Label)),
					zap.Error(err),
				)
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Result = res
			return nil
		})
	}

	_ = g.Wait()
	return nil
}

func maxConcurrent(bcfg config.BatchConfig) int {
	if bcfg.MaxConcurrent > 0 {
		return bcfg.MaxConcurrent
	}
	return defaultMaxConcurrent
}

// newLimiter builds the client-side rate limiter for direct calls; an
// unset rate means no limiting.
func newLimiter(bcfg config.BatchConfig) *rate.Limiter {
	if bcfg.RatePerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(bcfg.RatePerSecond), 1)
}
