package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ResearchDigest/internal/domain"
	"ResearchDigest/internal/ports"
)

// NoNewsPlaceholder appears in the news section of a digest whose news
// stage produced nothing.
const NoNewsPlaceholder = "No news articles available today."

// NoPapersPlaceholder appears when no papers were selected.
const NoPapersPlaceholder = "No papers selected today."

const sectionRule = "──────────────────────────────────────────────────"
const headerRule = "══════════════════════════════════════════════════"

// DigestFormatter assembles a run's stage outputs into one document.
type DigestFormatter interface {
	Format(ctx context.Context, run domain.PipelineRun) (string, error)
}

// Formatter renders the digest document: header, introduction, news,
// papers and a statistics footer.
type Formatter struct {
	texts  ports.TextService
	logger *slog.Logger
	now    func() time.Time
}

var _ DigestFormatter = (*Formatter)(nil)

// NewFormatter wires the text service used for the introduction.
func NewFormatter(texts ports.TextService, logger *slog.Logger) *Formatter {
	return &Formatter{texts: texts, logger: logger, now: time.Now}
}

// Format builds the complete digest document for the run.
func (f *Formatter) Format(ctx context.Context, run domain.PipelineRun) (string, error) {
	date := f.now().Format("January 2, 2006")

	var doc strings.Builder

	doc.WriteString(headerRule + "\n")
	doc.WriteString("🤖 AI RESEARCH DAILY DIGEST\n")
	doc.WriteString("📅 " + date + "\n")
	doc.WriteString(headerRule + "\n\n")

	doc.WriteString(f.introduction(ctx, date) + "\n\n")
	doc.WriteString(sectionRule + "\n\n")

	f.writeNewsSection(&doc, run)
	doc.WriteString(sectionRule + "\n\n")

	f.writePapersSection(&doc, run.Papers)
	doc.WriteString(sectionRule + "\n\n")

	f.writeStatistics(&doc, run)

	return doc.String(), nil
}

// introduction asks the text service for an opening paragraph, with a
// static fallback when nothing usable comes back.
func (f *Formatter) introduction(ctx context.Context, date string) string {
	intro, err := f.texts.IntroMessage(ctx, date)
	intro = strings.TrimSpace(intro)
	if err != nil || intro == "" {
		if err != nil && f.logger != nil {
			f.logger.Debug("intro generation failed", "error", err)
		}
		return fmt.Sprintf("🤖 Good morning! Here's your daily AI research digest for %s.", date)
	}
	return intro
}

func (f *Formatter) writeNewsSection(doc *strings.Builder, run domain.PipelineRun) {
	doc.WriteString("📰 AI NEWS TODAY\n\n")

	if len(run.News) == 0 {
		doc.WriteString(NoNewsPlaceholder + "\n\n")
		return
	}

	if run.NewsOverview != "" {
		fmt.Fprintf(doc, "Overview: %s\n\n", run.NewsOverview)
	}

	fmt.Fprintf(doc, "Top %d Stories:\n\n", len(run.News))

	for i, item := range run.News {
		fmt.Fprintf(doc, "Story #%d: %s\n", i+1, item.Title)
		fmt.Fprintf(doc, "%s\n", item.Summary)
		fmt.Fprintf(doc, "🔗 %s (%s)\n", item.Link, item.Source)
		if !item.PublishedAt.IsZero() {
			fmt.Fprintf(doc, "📅 %s\n", item.PublishedAt.Format("2006-01-02"))
		}
		doc.WriteString("\n")
	}
}

func (f *Formatter) writePapersSection(doc *strings.Builder, papers domain.SelectionResult) {
	doc.WriteString("📚 TOP AI RESEARCH PAPERS\n\n")

	if len(papers.Selected) == 0 {
		doc.WriteString(NoPapersPlaceholder + "\n\n")
		return
	}

	fmt.Fprintf(doc, "Selected from %d recent papers\n\n", papers.TotalAnalyzed)

	for _, paper := range papers.Selected {
		category := paper.Category
		if category == "" {
			category = "AI"
		}

		fmt.Fprintf(doc, "#%d | %s\n", paper.Rank, category)
		fmt.Fprintf(doc, "📄 %s\n", paper.Title)
		fmt.Fprintf(doc, "✍️ %s\n", FormatAuthors(paper.Authors))
		fmt.Fprintf(doc, "%s\n", snippet(paper.Body, 280))
		if paper.SelectionReason != "" {
			fmt.Fprintf(doc, "💡 Why selected: %s\n", paper.SelectionReason)
		}
		fmt.Fprintf(doc, "🔗 %s", paper.Link)
		if !paper.PublishedAt.IsZero() {
			fmt.Fprintf(doc, " | 📅 %s", paper.PublishedAt.Format("2006-01-02"))
		}
		doc.WriteString("\n\n")
	}
}

func (f *Formatter) writeStatistics(doc *strings.Builder, run domain.PipelineRun) {
	doc.WriteString("📊 TODAY'S STATISTICS\n")
	fmt.Fprintf(doc, "News Articles: %d\n", len(run.News))
	fmt.Fprintf(doc, "Papers Analyzed: %d\n", run.Papers.TotalAnalyzed)
	fmt.Fprintf(doc, "Papers Selected: %d\n", len(run.Papers.Selected))
}

// FormatAuthors renders an author list for display.
func FormatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return "Unknown authors"
	case 1:
		return authors[0]
	case 2:
		return authors[0] + " and " + authors[1]
	default:
		return authors[0] + " et al."
	}
}
