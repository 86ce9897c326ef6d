package usecase

import (
	"context"
	"sync"

	"ResearchDigest/internal/domain"
)

// fakeTextService implements ports.TextService with per-method hooks.
// Nil hooks return an empty string, which callers treat as unusable output.
type fakeTextService struct {
	generateFn   func(prompt string, temperature float32) (string, error)
	summarizeFn  func(text string, maxSentences int) (string, error)
	rankFn       func(papers []domain.CandidateItem, count int) (string, error)
	categorizeFn func(title, body string) (string, error)
	introFn      func(date string) (string, error)

	mu        sync.Mutex
	rankCalls int
}

func (f *fakeTextService) Generate(_ context.Context, prompt string, temperature float32) (string, error) {
	if f.generateFn == nil {
		return "", nil
	}
	return f.generateFn(prompt, temperature)
}

func (f *fakeTextService) Summarize(_ context.Context, text string, maxSentences int) (string, error) {
	if f.summarizeFn == nil {
		return "", nil
	}
	return f.summarizeFn(text, maxSentences)
}

func (f *fakeTextService) RankPapers(_ context.Context, papers []domain.CandidateItem, count int) (string, error) {
	f.mu.Lock()
	f.rankCalls++
	f.mu.Unlock()

	if f.rankFn == nil {
		return "", nil
	}
	return f.rankFn(papers, count)
}

func (f *fakeTextService) Categorize(_ context.Context, title, body string) (string, error) {
	if f.categorizeFn == nil {
		return "", nil
	}
	return f.categorizeFn(title, body)
}

func (f *fakeTextService) IntroMessage(_ context.Context, date string) (string, error) {
	if f.introFn == nil {
		return "", nil
	}
	return f.introFn(date)
}

func (f *fakeTextService) rankCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rankCalls
}

// fakeFeaturedStore keeps feature records in memory.
type fakeFeaturedStore struct {
	featured  map[string]bool
	lookupErr error
	recordErr error

	mu       sync.Mutex
	recorded []domain.CandidateItem
}

func (f *fakeFeaturedStore) WasFeatured(_ context.Context, itemID string, _ int) (bool, error) {
	if f.lookupErr != nil {
		return false, f.lookupErr
	}
	return f.featured[itemID], nil
}

func (f *fakeFeaturedStore) RecordFeatured(_ context.Context, item domain.CandidateItem) (domain.FeaturedRecord, error) {
	if f.recordErr != nil {
		return domain.FeaturedRecord{}, f.recordErr
	}
	f.mu.Lock()
	f.recorded = append(f.recorded, item)
	f.mu.Unlock()
	return domain.FeaturedRecord{ItemID: item.ID}, nil
}

func (f *fakeFeaturedStore) Statistics(_ context.Context) (domain.Statistics, error) {
	return domain.Statistics{}, nil
}

func (f *fakeFeaturedStore) recordedItems() []domain.CandidateItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CandidateItem(nil), f.recorded...)
}

// fakeNewsSource returns a fixed article batch or error.
type fakeNewsSource struct {
	items []domain.CandidateItem
	err   error
}

func (f *fakeNewsSource) FetchNews(context.Context, int) ([]domain.CandidateItem, error) {
	return f.items, f.err
}

// fakePaperSource returns a fixed paper batch or error. The optional
// block channel holds FetchPapers until it is closed; entered is closed
// on the first call so tests can wait for a run to reach this stage.
type fakePaperSource struct {
	items   []domain.CandidateItem
	err     error
	block   chan struct{}
	entered chan struct{}

	enterOnce sync.Once
}

func (f *fakePaperSource) FetchPapers(ctx context.Context, _ int, _ string) ([]domain.CandidateItem, error) {
	if f.entered != nil {
		f.enterOnce.Do(func() { close(f.entered) })
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.items, f.err
}

// fakeRunStore records saved runs.
type fakeRunStore struct {
	mu   sync.Mutex
	runs []domain.PipelineRun
}

func (f *fakeRunStore) SaveRun(_ context.Context, run domain.PipelineRun) error {
	f.mu.Lock()
	f.runs = append(f.runs, run)
	f.mu.Unlock()
	return nil
}

func (f *fakeRunStore) savedRuns() []domain.PipelineRun {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.PipelineRun(nil), f.runs...)
}

// staticFormatter returns a fixed document or error.
type staticFormatter struct {
	document string
	err      error
}

func (f *staticFormatter) Format(context.Context, domain.PipelineRun) (string, error) {
	return f.document, f.err
}

func makePapers(n int) []domain.CandidateItem {
	papers := make([]domain.CandidateItem, 0, n)
	for i := 0; i < n; i++ {
		papers = append(papers, domain.CandidateItem{
			ID:    string(rune('a' + i)),
			Title: "Paper " + string(rune('A'+i)),
			Body:  "Abstract for paper " + string(rune('A'+i)),
		})
	}
	return papers
}
