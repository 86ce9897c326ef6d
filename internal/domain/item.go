package domain

import "time"

// FeaturedWindowDays is the canonical recency window for deduplication.
// Reads and writes share this single constant; the boundary is inclusive,
// so an item featured exactly this many days ago still counts as featured.
const FeaturedWindowDays = 30

// CandidateItem is a news article or research paper considered for a digest.
// Identity is source-scoped: an accession number for papers, the canonical
// URL for news. Rank, Category and SelectionReason are empty until the
// selection engine annotates a chosen item.
type CandidateItem struct {
	ID           string
	Title        string
	Body         string
	Authors      []string
	PublishedAt  time.Time
	SourceName   string
	CategoryHint string
	Link         string

	Rank            int
	Category        string
	SelectionReason string
}

// SelectionMethod records how a batch of items was chosen.
type SelectionMethod string

const (
	MethodAllAvailable        SelectionMethod = "all_available"
	MethodAIRanked            SelectionMethod = "ai_ranked"
	MethodRandomFallback      SelectionMethod = "random_fallback"
	MethodRandomErrorFallback SelectionMethod = "random_error_fallback"
	MethodNone                SelectionMethod = "none"
)

// SelectionResult is the outcome of running the selection engine on a pool.
type SelectionResult struct {
	Selected      []CandidateItem
	Method        SelectionMethod
	TotalAnalyzed int
}

// OK reports whether the selection produced usable output.
func (r SelectionResult) OK() bool {
	return r.Method != MethodNone && len(r.Selected) > 0
}

// NewsItem is a news article after the news stage summarized it.
type NewsItem struct {
	Title       string
	Link        string
	Source      string
	PublishedAt time.Time
	Summary     string
}

// FeaturedRecord is the persisted fact that an item appeared in a digest.
// At most one record exists per ItemID; re-featuring refreshes FeaturedAt.
type FeaturedRecord struct {
	ItemID      string
	Title       string
	Authors     string
	PublishedAt time.Time
	Category    string
	SourceLink  string
	FeaturedAt  time.Time
}

// Statistics aggregates store counters for observability.
type Statistics struct {
	TotalRuns      int
	SuccessfulRuns int
	TotalItems     int
	TotalFeatured  int
}

// PipelineRun is one execution of the four-stage pipeline. It owns its
// stage results for the run's duration and is persisted once at the end.
type PipelineRun struct {
	ID                   string
	StartedAt            time.Time
	Success              bool
	News                 []NewsItem
	NewsOverview         string
	Papers               SelectionResult
	Document             string
	NewsCount            int
	PapersSelectedCount  int
	ExecutionTimeSeconds float64
	Errors               []string
}
