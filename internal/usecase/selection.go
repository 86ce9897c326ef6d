package usecase

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"ResearchDigest/internal/domain"
	"ResearchDigest/internal/ports"
)

// rankingPoolCap bounds how many papers are submitted to the text
// service in one ranking call.
const rankingPoolCap = 30

// SelectionEngine picks the top papers from a candidate pool, via the
// text service when possible and a uniform random sample otherwise.
type SelectionEngine struct {
	texts  ports.TextService
	store  ports.FeaturedStore
	rng    *rand.Rand
	logger *slog.Logger
}

// NewSelectionEngine wires the text service and the optional dedup store.
func NewSelectionEngine(texts ports.TextService, store ports.FeaturedStore, logger *slog.Logger) *SelectionEngine {
	return &SelectionEngine{
		texts:  texts,
		store:  store,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger,
	}
}

// Select produces at most count papers from pool. Ranking and
// classification failures never surface to the caller; they degrade to
// the fallback paths recorded in the result's Method. The only rejected
// input is a non-positive count.
func (e *SelectionEngine) Select(ctx context.Context, pool []domain.CandidateItem, count int, filterFeatured bool) (domain.SelectionResult, error) {
	if count <= 0 {
		return domain.SelectionResult{}, domain.NewInvalidArgument("selection count must be positive")
	}

	if filterFeatured && e.store != nil {
		pool = e.dropFeatured(ctx, pool)
	}

	if len(pool) == 0 {
		e.warn("no papers to select from (all may have been featured)")
		return domain.SelectionResult{Method: domain.MethodNone}, nil
	}

	if len(pool) <= count {
		selected := make([]domain.CandidateItem, len(pool))
		copy(selected, pool)
		e.categorize(ctx, selected)
		return domain.SelectionResult{
			Selected:      selected,
			Method:        domain.MethodAllAvailable,
			TotalAnalyzed: len(pool),
		}, nil
	}

	selected, err := e.rankWithModel(ctx, pool, count)

	var method domain.SelectionMethod
	switch {
	case err != nil:
		e.warn("model ranking errored, using random selection", "error", err)
		selected = e.randomSample(pool, count)
		method = domain.MethodRandomErrorFallback
	case len(selected) == 0:
		e.warn("model ranking returned nothing usable, using random selection")
		selected = e.randomSample(pool, count)
		method = domain.MethodRandomFallback
	default:
		method = domain.MethodAIRanked
	}

	e.categorize(ctx, selected)

	return domain.SelectionResult{
		Selected:      selected,
		Method:        method,
		TotalAnalyzed: len(pool),
	}, nil
}

// dropFeatured removes pool items featured within the dedup window. A
// store error counts the item as not featured so a dedup outage degrades
// deduplication instead of aborting the run.
func (e *SelectionEngine) dropFeatured(ctx context.Context, pool []domain.CandidateItem) []domain.CandidateItem {
	kept := make([]domain.CandidateItem, 0, len(pool))
	for _, item := range pool {
		featured, err := e.store.WasFeatured(ctx, item.ID, domain.FeaturedWindowDays)
		if err != nil {
			e.warn("featured lookup failed, keeping item", "id", item.ID, "error", err)
			featured = false
		}
		if !featured {
			kept = append(kept, item)
		}
	}

	if dropped := len(pool) - len(kept); dropped > 0 {
		e.debug("filtered already featured papers", "dropped", dropped)
	}

	return kept
}

// rankWithModel submits the head of the pool to the text service and
// resolves the returned rankings against the submitted subset. Malformed
// or out-of-range entries are dropped silently. An empty result means
// the response carried nothing usable; the error is non-nil only when
// the service call itself failed.
func (e *SelectionEngine) rankWithModel(ctx context.Context, pool []domain.CandidateItem, count int) ([]domain.CandidateItem, error) {
	subset := pool
	if len(subset) > rankingPoolCap {
		subset = subset[:rankingPoolCap]
	}

	response, err := e.texts.RankPapers(ctx, subset, count)
	if err != nil {
		return nil, domain.NewCollaboratorError("ranking service", err)
	}

	selected := make([]domain.CandidateItem, 0, count)
	for _, entry := range parseRankings(response) {
		if len(selected) >= count {
			break
		}

		idx := entry.PaperIndex - 1
		if idx < 0 || idx >= len(subset) {
			continue
		}

		item := subset[idx]
		item.Rank = entry.Rank
		item.SelectionReason = entry.Reason
		if item.SelectionReason == "" {
			item.SelectionReason = "Selected by AI"
		}
		selected = append(selected, item)
	}

	return selected, nil
}

// randomSample picks n items uniformly without replacement from the full
// pool, ranked by sample order.
func (e *SelectionEngine) randomSample(pool []domain.CandidateItem, n int) []domain.CandidateItem {
	if n > len(pool) {
		n = len(pool)
	}

	selected := make([]domain.CandidateItem, 0, n)
	for i, idx := range e.rng.Perm(len(pool))[:n] {
		item := pool[idx]
		item.Rank = i + 1
		item.SelectionReason = "Randomly selected"
		selected = append(selected, item)
	}

	return selected
}

// categorize attaches a topic label to each selected item. Failures are
// per-item and default the label to "Other".
func (e *SelectionEngine) categorize(ctx context.Context, selected []domain.CandidateItem) {
	for i := range selected {
		label, err := e.texts.Categorize(ctx, selected[i].Title, selected[i].Body)
		label = strings.TrimSpace(label)
		if err != nil || label == "" {
			if err != nil {
				e.debug("categorize failed", "id", selected[i].ID, "error", err)
			}
			label = "Other"
		}
		selected[i].Category = label
	}
}

func (e *SelectionEngine) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

func (e *SelectionEngine) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
