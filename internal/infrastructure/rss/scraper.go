package rss

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ResearchDigest/internal/domain"
	"ResearchDigest/internal/ports"
)

// feed is the RSS 2.0 document structure.
type feed struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Title string     `xml:"title"`
		Items []feedItem `xml:"item"`
	} `xml:"channel"`
}

type feedItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// atomFeed is the Atom document structure used by some sources.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string   `xml:"title"`
	Link      atomLink `xml:"link"`
	Summary   string   `xml:"summary"`
	Content   string   `xml:"content"`
	Published string   `xml:"published"`
	Updated   string   `xml:"updated"`
	ID        string   `xml:"id"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02T15:04:05Z",
}

// Scraper fetches candidate news articles from configured RSS/Atom feeds.
type Scraper struct {
	sources     []string
	maxArticles int
	client      *http.Client
	logger      *slog.Logger
}

var _ ports.NewsSource = (*Scraper)(nil)

// NewScraper wires feed URLs; maxArticles caps the combined result.
func NewScraper(sources []string, maxArticles int, client *http.Client, logger *slog.Logger) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if maxArticles <= 0 {
		maxArticles = 10
	}
	return &Scraper{
		sources:     sources,
		maxArticles: maxArticles,
		client:      client,
		logger:      logger,
	}
}

// FetchNews pulls every configured feed and returns articles published
// within the lookback window, newest first, capped at maxArticles.
// Individual feed failures are logged and skipped; an error is returned
// only when no feed produced anything usable.
func (s *Scraper) FetchNews(ctx context.Context, lookbackDays int) ([]domain.CandidateItem, error) {
	if len(s.sources) == 0 {
		return nil, fmt.Errorf("no news sources configured")
	}

	cutoff := time.Now().Add(-time.Duration(lookbackDays) * 24 * time.Hour)

	var (
		articles []domain.CandidateItem
		firstErr error
	)

	for _, source := range s.sources {
		items, err := s.fetchFeed(ctx, source, cutoff)
		if err != nil {
			s.debug("feed fetch failed", "url", source, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		articles = append(articles, items...)
	}

	if len(articles) == 0 && firstErr != nil {
		return nil, fmt.Errorf("fetch feeds: %w", firstErr)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})

	if len(articles) > s.maxArticles {
		articles = articles[:s.maxArticles]
	}

	s.debug("news fetch done", "articles", len(articles))
	return articles, nil
}

func (s *Scraper) fetchFeed(ctx context.Context, url string, cutoff time.Time) ([]domain.CandidateItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "ResearchDigest/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	var raw bytes.Buffer
	if _, err := raw.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	items, err := parseFeed(raw.String(), url)
	if err != nil {
		return nil, err
	}

	fresh := items[:0]
	for _, item := range items {
		if !item.PublishedAt.IsZero() && item.PublishedAt.Before(cutoff) {
			continue
		}
		fresh = append(fresh, item)
	}

	return fresh, nil
}

func parseFeed(body, url string) ([]domain.CandidateItem, error) {
	var rssDoc feed
	if err := xml.Unmarshal([]byte(body), &rssDoc); err == nil && len(rssDoc.Channel.Items) > 0 {
		return fromRSS(rssDoc, url), nil
	}

	var atomDoc atomFeed
	if err := xml.Unmarshal([]byte(body), &atomDoc); err == nil && len(atomDoc.Entries) > 0 {
		return fromAtom(atomDoc, url), nil
	}

	return nil, fmt.Errorf("unrecognized feed format: %s", url)
}

func fromRSS(doc feed, url string) []domain.CandidateItem {
	source := doc.Channel.Title
	if source == "" {
		source = url
	}

	items := make([]domain.CandidateItem, 0, len(doc.Channel.Items))
	for _, entry := range doc.Channel.Items {
		id := entry.Link
		if id == "" {
			id = entry.GUID
		}
		items = append(items, domain.CandidateItem{
			ID:          id,
			Title:       strings.TrimSpace(entry.Title),
			Body:        stripHTML(entry.Description),
			PublishedAt: parsePubDate(entry.PubDate),
			SourceName:  source,
			Link:        entry.Link,
		})
	}
	return items
}

func fromAtom(doc atomFeed, url string) []domain.CandidateItem {
	source := doc.Title
	if source == "" {
		source = url
	}

	items := make([]domain.CandidateItem, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		published := entry.Published
		if published == "" {
			published = entry.Updated
		}
		body := entry.Summary
		if body == "" {
			body = entry.Content
		}
		items = append(items, domain.CandidateItem{
			ID:          entry.ID,
			Title:       strings.TrimSpace(entry.Title),
			Body:        stripHTML(body),
			PublishedAt: parsePubDate(published),
			SourceName:  source,
			Link:        entry.Link.Href,
		})
	}
	return items
}

func parsePubDate(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range pubDateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// stripHTML reduces a feed summary to plain text.
func stripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}

func (s *Scraper) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
