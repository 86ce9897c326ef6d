package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"ResearchDigest/internal/domain"
	"ResearchDigest/internal/ports"
)

const newsOverviewFallback = "Multiple AI developments and news today."

// NewsResult is the output of the news stage: summarized articles plus
// one aggregate overview of the day.
type NewsResult struct {
	Items    []domain.NewsItem
	Overview string
}

// NewsStage fetches candidate articles and condenses each through the
// text service.
type NewsStage struct {
	source ports.NewsSource
	texts  ports.TextService
	logger *slog.Logger
}

// NewNewsStage wires the news source and text service.
func NewNewsStage(source ports.NewsSource, texts ports.TextService, logger *slog.Logger) *NewsStage {
	return &NewsStage{source: source, texts: texts, logger: logger}
}

// Execute gathers articles for the lookback window. Summarization
// failures fall back to the article's own snippet; only a source failure
// or an empty fetch fails the stage.
func (n *NewsStage) Execute(ctx context.Context, lookbackDays int) (NewsResult, error) {
	articles, err := n.source.FetchNews(ctx, lookbackDays)
	if err != nil {
		return NewsResult{}, domain.NewCollaboratorError("news source", err)
	}
	if len(articles) == 0 {
		return NewsResult{}, fmt.Errorf("no recent news articles found")
	}

	items := make([]domain.NewsItem, 0, len(articles))
	for _, article := range articles {
		summary, err := n.texts.Summarize(ctx, fmt.Sprintf("Title: %s\n\n%s", article.Title, article.Body), 2)
		if err != nil || strings.TrimSpace(summary) == "" {
			if err != nil {
				n.debug("article summarization failed", "link", article.Link, "error", err)
			}
			summary = snippet(article.Body, 150)
		}

		items = append(items, domain.NewsItem{
			Title:       article.Title,
			Link:        article.Link,
			Source:      article.SourceName,
			PublishedAt: article.PublishedAt,
			Summary:     summary,
		})
	}

	return NewsResult{Items: items, Overview: n.overview(ctx, items)}, nil
}

// overview asks the text service for a trend summary across the day's
// headlines; any failure yields a static fallback.
func (n *NewsStage) overview(ctx context.Context, items []domain.NewsItem) string {
	var titles strings.Builder
	for i, item := range items {
		fmt.Fprintf(&titles, "%d. %s\n", i+1, item.Title)
	}

	prompt := fmt.Sprintf(`Based on these AI news headlines from today, write a brief overview (2-3 sentences) of the main trends and topics:

%s
Overview:`, titles.String())

	overview, err := n.texts.Generate(ctx, prompt, 0.7)
	overview = strings.TrimSpace(overview)
	if err != nil || overview == "" {
		if err != nil {
			n.debug("overview generation failed", "error", err)
		}
		return newsOverviewFallback
	}

	return overview
}

// snippet truncates text to at most limit bytes, backing up to a rune
// boundary so multi-byte characters are never cut in half.
func snippet(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit] + "..."
}

func (n *NewsStage) debug(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Debug(msg, args...)
	}
}
