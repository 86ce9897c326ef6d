package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"ResearchDigest/internal/domain"
)

func newTestPipeline(deps PipelineDeps) *Pipeline {
	if deps.News == nil {
		deps.News = NewNewsStage(&fakeNewsSource{err: errors.New("unused")}, &fakeTextService{}, nil)
	}
	if deps.Papers == nil {
		deps.Papers = &fakePaperSource{}
	}
	if deps.Selector == nil {
		deps.Selector = NewSelectionEngine(&fakeTextService{}, nil, nil)
	}
	if deps.Formatter == nil {
		deps.Formatter = NewFormatter(&fakeTextService{}, nil)
	}
	return NewPipeline(deps)
}

func TestRunRejectsInvalidLookback(t *testing.T) {
	t.Parallel()

	pipeline := newTestPipeline(PipelineDeps{})

	for _, days := range []int{0, -3} {
		_, err := pipeline.Run(context.Background(), RunParams{LookbackDays: days})
		if !domain.IsInvalidArgument(err) {
			t.Fatalf("lookback=%d: want invalid argument, got %v", days, err)
		}
	}
}

func TestRunSurvivesNewsFailure(t *testing.T) {
	t.Parallel()

	pipeline := newTestPipeline(PipelineDeps{
		News:        NewNewsStage(&fakeNewsSource{err: errors.New("feeds unreachable")}, &fakeTextService{}, nil),
		Papers:      &fakePaperSource{items: makePapers(5)},
		SelectCount: 10,
	})

	run, err := pipeline.Run(context.Background(), RunParams{LookbackDays: 7})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !run.Success {
		t.Fatalf("run failed despite usable papers: errors=%v", run.Errors)
	}
	if len(run.Errors) != 1 || !strings.Contains(run.Errors[0], "news research failed") {
		t.Fatalf("errors = %v, want single news failure", run.Errors)
	}
	if run.Papers.Method != domain.MethodAllAvailable {
		t.Fatalf("selection method = %s, want %s", run.Papers.Method, domain.MethodAllAvailable)
	}
	if run.PapersSelectedCount != 5 {
		t.Fatalf("papers selected = %d, want 5", run.PapersSelectedCount)
	}
	if !strings.Contains(run.Document, NoNewsPlaceholder) {
		t.Fatalf("document missing news placeholder:\n%s", run.Document)
	}
}

func TestRunFailsWhenEverythingFails(t *testing.T) {
	t.Parallel()

	pipeline := newTestPipeline(PipelineDeps{
		News:   NewNewsStage(&fakeNewsSource{err: errors.New("down")}, &fakeTextService{}, nil),
		Papers: &fakePaperSource{err: errors.New("also down")},
	})

	run, err := pipeline.Run(context.Background(), RunParams{LookbackDays: 7})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.Success {
		t.Fatal("run succeeded with no stage output")
	}
	if len(run.Errors) != 2 {
		t.Fatalf("errors = %v, want news and discovery failures", run.Errors)
	}
	if run.Document == "" {
		t.Fatal("document should still be produced for a failed run")
	}
}

func TestRunFormatFailureFailsRun(t *testing.T) {
	t.Parallel()

	store := &fakeFeaturedStore{}
	pipeline := newTestPipeline(PipelineDeps{
		Papers:    &fakePaperSource{items: makePapers(3)},
		Selector:  NewSelectionEngine(&fakeTextService{}, store, nil),
		Formatter: &staticFormatter{err: errors.New("template broken")},
		Featured:  store,
	})

	run, err := pipeline.Run(context.Background(), RunParams{LookbackDays: 7, PersistFeatured: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.Success {
		t.Fatal("run succeeded without a document")
	}
	found := false
	for _, msg := range run.Errors {
		if strings.Contains(msg, "format digest") {
			found = true
		}
	}
	if !found {
		t.Fatalf("errors = %v, want format failure recorded", run.Errors)
	}
	if len(store.recordedItems()) != 0 {
		t.Fatal("featured papers recorded despite format failure")
	}
}

func TestRunPersistsFeaturedAfterSuccess(t *testing.T) {
	t.Parallel()

	store := &fakeFeaturedStore{}
	pipeline := newTestPipeline(PipelineDeps{
		Papers:   &fakePaperSource{items: makePapers(3)},
		Selector: NewSelectionEngine(&fakeTextService{}, store, nil),
		Featured: store,
	})

	run, err := pipeline.Run(context.Background(), RunParams{LookbackDays: 7, PersistFeatured: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !run.Success {
		t.Fatalf("run failed: %v", run.Errors)
	}

	if got := len(store.recordedItems()); got != 3 {
		t.Fatalf("recorded %d featured papers, want 3", got)
	}
}

func TestRunSkipsPersistWhenDisabled(t *testing.T) {
	t.Parallel()

	store := &fakeFeaturedStore{}
	pipeline := newTestPipeline(PipelineDeps{
		Papers:   &fakePaperSource{items: makePapers(2)},
		Selector: NewSelectionEngine(&fakeTextService{}, store, nil),
		Featured: store,
	})

	if _, err := pipeline.Run(context.Background(), RunParams{LookbackDays: 7}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := len(store.recordedItems()); got != 0 {
		t.Fatalf("recorded %d featured papers with persistence disabled", got)
	}
}

func TestRunRejectsConcurrentRuns(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	entered := make(chan struct{})
	pipeline := newTestPipeline(PipelineDeps{
		Papers: &fakePaperSource{items: makePapers(2), block: block, entered: entered},
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := pipeline.Run(context.Background(), RunParams{LookbackDays: 7}); err != nil {
			t.Errorf("first run: %v", err)
		}
	}()

	// Wait until the first run holds the slot, then expect rejection.
	<-entered
	_, busyErr := pipeline.Run(context.Background(), RunParams{LookbackDays: 7})

	close(block)
	wg.Wait()

	if !errors.Is(busyErr, domain.ErrBusy) {
		t.Fatalf("concurrent run returned %v, want ErrBusy", busyErr)
	}

	// The slot is released once the first run finishes.
	if _, err := pipeline.Run(context.Background(), RunParams{LookbackDays: 7}); err != nil {
		t.Fatalf("run after completion: %v", err)
	}
}

func TestRunProgressCheckpoints(t *testing.T) {
	t.Parallel()

	pipeline := newTestPipeline(PipelineDeps{
		Papers: &fakePaperSource{items: makePapers(2)},
	})

	var percents []int
	_, err := pipeline.Run(context.Background(), RunParams{
		LookbackDays: 7,
		Observer: func(event ProgressEvent) {
			percents = append(percents, event.Percent)
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []int{20, 40, 60, 85, 100}
	if len(percents) != len(want) {
		t.Fatalf("observed %v, want %v", percents, want)
	}
	for i := range want {
		if percents[i] != want[i] {
			t.Fatalf("observed %v, want %v", percents, want)
		}
	}
}

func TestRunObserverPanicRecovered(t *testing.T) {
	t.Parallel()

	pipeline := newTestPipeline(PipelineDeps{
		Papers: &fakePaperSource{items: makePapers(2)},
	})

	run, err := pipeline.Run(context.Background(), RunParams{
		LookbackDays: 7,
		Observer: func(ProgressEvent) {
			panic("observer bug")
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !run.Success {
		t.Fatalf("observer panic failed the run: %v", run.Errors)
	}
}

func TestRunSkipsSelectionWithoutPapers(t *testing.T) {
	t.Parallel()

	texts := &fakeTextService{}
	pipeline := newTestPipeline(PipelineDeps{
		News:     NewNewsStage(&fakeNewsSource{items: makePapers(2)}, texts, nil),
		Papers:   &fakePaperSource{},
		Selector: NewSelectionEngine(texts, nil, nil),
	})

	run, err := pipeline.Run(context.Background(), RunParams{LookbackDays: 7})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.Papers.Method != domain.MethodNone {
		t.Fatalf("selection method = %s, want %s", run.Papers.Method, domain.MethodNone)
	}
	if texts.rankCallCount() != 0 {
		t.Fatal("ranking called with no papers discovered")
	}
	if !run.Success {
		t.Fatalf("run with news but no papers should succeed: %v", run.Errors)
	}
	if !strings.Contains(run.Document, NoPapersPlaceholder) {
		t.Fatalf("document missing papers placeholder:\n%s", run.Document)
	}
}

func TestRunPersistsRunRecord(t *testing.T) {
	t.Parallel()

	runs := &fakeRunStore{}
	pipeline := newTestPipeline(PipelineDeps{
		Papers: &fakePaperSource{items: makePapers(2)},
		Runs:   runs,
	})

	run, err := pipeline.Run(context.Background(), RunParams{LookbackDays: 7})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	saved := runs.savedRuns()
	if len(saved) != 1 {
		t.Fatalf("saved %d run records, want 1", len(saved))
	}
	if saved[0].ID != run.ID {
		t.Fatalf("saved run id = %s, want %s", saved[0].ID, run.ID)
	}
}
