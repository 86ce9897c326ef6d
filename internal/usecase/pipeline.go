package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ResearchDigest/internal/domain"
	"ResearchDigest/internal/ports"
)

// ProgressEvent is an observational side channel emitted at fixed
// checkpoints while a run advances. It never affects control flow.
type ProgressEvent struct {
	Step    int
	Status  string
	Percent int
}

// ProgressFunc receives progress events. Panics inside the observer are
// swallowed by the pipeline.
type ProgressFunc func(ProgressEvent)

// RunParams are the caller-supplied knobs for one pipeline run.
type RunParams struct {
	LookbackDays int
	Topic        string
	// PersistFeatured enables the dedup filter during selection and
	// records the selected papers as featured after a successful format.
	PersistFeatured bool
	Observer        ProgressFunc
}

// PipelineDeps wires the stages and stores into the orchestrator.
type PipelineDeps struct {
	News        *NewsStage
	Papers      ports.PaperSource
	Selector    *SelectionEngine
	Formatter   DigestFormatter
	Featured    ports.FeaturedStore
	Runs        ports.RunStore
	SelectCount int
	Logger      *slog.Logger
}

// Pipeline runs the four digest stages in fixed order, isolating
// failures per stage. At most one run may be active per instance.
type Pipeline struct {
	news        *NewsStage
	papers      ports.PaperSource
	selector    *SelectionEngine
	formatter   DigestFormatter
	featured    ports.FeaturedStore
	runs        ports.RunStore
	selectCount int
	logger      *slog.Logger
	busy        atomic.Bool
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	selectCount := deps.SelectCount
	if selectCount <= 0 {
		selectCount = 10
	}

	return &Pipeline{
		news:        deps.News,
		papers:      deps.Papers,
		selector:    deps.Selector,
		formatter:   deps.Formatter,
		featured:    deps.Featured,
		runs:        deps.Runs,
		selectCount: selectCount,
		logger:      deps.Logger,
	}
}

// Run executes one pipeline attempt. Stage failures degrade the run and
// are collected in the returned PipelineRun's error list; the returned
// error is non-nil only for pre-flight validation and busy rejection.
func (p *Pipeline) Run(ctx context.Context, params RunParams) (domain.PipelineRun, error) {
	if params.LookbackDays < 1 {
		return domain.PipelineRun{}, domain.NewInvalidArgument("lookback days must be at least 1")
	}

	if !p.busy.CompareAndSwap(false, true) {
		return domain.PipelineRun{}, domain.ErrBusy
	}
	defer p.busy.Store(false)

	start := time.Now()
	run := domain.PipelineRun{
		ID:        uuid.NewString(),
		StartedAt: start,
	}

	p.info("starting research workflow", "run_id", run.ID, "lookback_days", params.LookbackDays, "topic", params.Topic)

	// Stage 1: news.
	p.notify(params.Observer, ProgressEvent{Step: 1, Status: "Fetching AI news...", Percent: 20})

	newsOK := false
	newsResult, err := p.news.Execute(ctx, params.LookbackDays)
	if err != nil {
		p.warn("news stage failed", "error", err)
		run.Errors = append(run.Errors, fmt.Sprintf("news research failed: %v", err))
	} else {
		newsOK = true
		run.News = newsResult.Items
		run.NewsOverview = newsResult.Overview
		run.NewsCount = len(newsResult.Items)
	}

	// Stage 2: paper discovery.
	p.notify(params.Observer, ProgressEvent{
		Step:    2,
		Status:  fmt.Sprintf("Discovering papers... (found %d news)", run.NewsCount),
		Percent: 40,
	})

	papers, err := p.papers.FetchPapers(ctx, params.LookbackDays, params.Topic)
	if err != nil {
		p.warn("discovery stage failed", "error", err)
		run.Errors = append(run.Errors, fmt.Sprintf("paper discovery failed: %v", err))
		papers = nil
	}

	// Stage 3: selection. Skipped outright when discovery found nothing;
	// no ranking call is made for an empty pool.
	p.notify(params.Observer, ProgressEvent{
		Step:    3,
		Status:  fmt.Sprintf("Analyzing papers... (found %d papers)", len(papers)),
		Percent: 60,
	})

	selection := domain.SelectionResult{Method: domain.MethodNone}
	if len(papers) > 0 {
		selection, err = p.selector.Select(ctx, papers, p.selectCount, params.PersistFeatured)
		if err != nil {
			p.warn("selection stage failed", "error", err)
			run.Errors = append(run.Errors, fmt.Sprintf("paper selection failed: %v", err))
			selection = domain.SelectionResult{Method: domain.MethodNone}
		}
	} else {
		p.warn("no papers to select from")
	}
	run.Papers = selection
	run.PapersSelectedCount = len(selection.Selected)

	// Stage 4: format. The only stage whose failure fails the run: with
	// no deliverable document the run produced nothing of value.
	p.notify(params.Observer, ProgressEvent{
		Step:    4,
		Status:  fmt.Sprintf("Formatting results... (selected %d papers)", run.PapersSelectedCount),
		Percent: 85,
	})

	document, err := p.formatter.Format(ctx, run)
	if err != nil {
		p.warn("format stage failed", "error", err)
		run.Errors = append(run.Errors, domain.NewFormatError(err).Error())
		run.Success = false
	} else {
		run.Document = document
		// A run counts as successful when news or selection produced
		// usable output, even if the resulting digest is empty.
		run.Success = newsOK || selection.OK()

		if params.PersistFeatured {
			p.persistFeatured(ctx, selection.Selected)
		}
	}

	p.notify(params.Observer, ProgressEvent{Step: 4, Status: "Completed!", Percent: 100})

	run.ExecutionTimeSeconds = time.Since(start).Seconds()
	p.saveRun(ctx, run)

	p.info("workflow completed",
		"run_id", run.ID,
		"success", run.Success,
		"news", run.NewsCount,
		"papers_selected", run.PapersSelectedCount,
		"elapsed_seconds", run.ExecutionTimeSeconds,
		"errors", len(run.Errors))

	return run, nil
}

// notify delivers a progress event to the observer, swallowing any panic
// so a misbehaving observer cannot disturb the run.
func (p *Pipeline) notify(observer ProgressFunc, event ProgressEvent) {
	if observer == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.warn("progress observer panicked", "panic", r)
		}
	}()

	observer(event)
}

// persistFeatured records every selected paper. A failure on one item is
// logged and skipped; it never fails the others or the run.
func (p *Pipeline) persistFeatured(ctx context.Context, selected []domain.CandidateItem) {
	if p.featured == nil {
		return
	}

	for _, item := range selected {
		if _, err := p.featured.RecordFeatured(ctx, item); err != nil {
			p.warn("failed to record featured paper", "id", item.ID, "error", err)
		}
	}
}

func (p *Pipeline) saveRun(ctx context.Context, run domain.PipelineRun) {
	if p.runs == nil {
		return
	}

	if err := p.runs.SaveRun(ctx, run); err != nil {
		p.warn("failed to persist run record", "run_id", run.ID, "error", err)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
