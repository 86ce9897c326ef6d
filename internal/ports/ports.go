package ports

import (
	"context"
	"time"

	"ResearchDigest/internal/domain"
)

// NewsSource pulls candidate news articles for a lookback window.
type NewsSource interface {
	FetchNews(ctx context.Context, lookbackDays int) ([]domain.CandidateItem, error)
}

// PaperSource discovers candidate research papers. topic is optional and
// narrows the search when non-empty.
type PaperSource interface {
	FetchPapers(ctx context.Context, lookbackDays int, topic string) ([]domain.CandidateItem, error)
}

// TextService is the generative-text collaborator. Every method may
// return an empty string, which callers treat as "no usable output"
// rather than a failure.
type TextService interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
	Summarize(ctx context.Context, text string, maxSentences int) (string, error)
	RankPapers(ctx context.Context, papers []domain.CandidateItem, count int) (string, error)
	Categorize(ctx context.Context, title, body string) (string, error)
	IntroMessage(ctx context.Context, date string) (string, error)
}

// FeaturedStore answers "was item X featured recently" and records new
// feature events. Errors are domain.StorageError and never abort a run.
type FeaturedStore interface {
	WasFeatured(ctx context.Context, itemID string, windowDays int) (bool, error)
	RecordFeatured(ctx context.Context, item domain.CandidateItem) (domain.FeaturedRecord, error)
	Statistics(ctx context.Context) (domain.Statistics, error)
}

// RunStore persists one record per pipeline run for audit and statistics.
type RunStore interface {
	SaveRun(ctx context.Context, run domain.PipelineRun) error
}

// Sink delivers a finished digest document to its destination.
type Sink interface {
	Deliver(ctx context.Context, document string) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
