package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ResearchDigest/internal/domain"
	"ResearchDigest/internal/ports"
)

var defaultCategories = []string{"cs.AI", "cs.LG", "cs.CL", "cs.CV", "cs.NE", "stat.ML"}

// topicCategories narrows the search when the caller supplies a topic.
var topicCategories = map[string][]string{
	"nlp":                    {"cs.CL"},
	"llm":                    {"cs.CL", "cs.AI"},
	"cv":                     {"cs.CV"},
	"computer vision":        {"cs.CV"},
	"graph":                  {"cs.LG", "cs.AI"},
	"gnn":                    {"cs.LG"},
	"rl":                     {"cs.LG", "cs.AI"},
	"reinforcement learning": {"cs.LG", "cs.AI"},
}

// apiFeed is the Atom response of the arXiv query API.
type apiFeed struct {
	XMLName xml.Name   `xml:"feed"`
	Entries []apiEntry `xml:"entry"`
}

type apiEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	PrimaryCategory struct {
		Term string `xml:"term,attr"`
	} `xml:"primary_category"`
	Links []struct {
		Href  string `xml:"href,attr"`
		Title string `xml:"title,attr"`
	} `xml:"link"`
}

// Client fetches recent papers from the arXiv query API.
type Client struct {
	baseURL    string
	maxResults int
	client     *http.Client
	logger     *slog.Logger
}

var _ ports.PaperSource = (*Client)(nil)

// NewClient wires the API endpoint; maxResults defaults to 100.
func NewClient(baseURL string, maxResults int, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxResults <= 0 {
		maxResults = 100
	}
	return &Client{
		baseURL:    baseURL,
		maxResults: maxResults,
		client:     client,
		logger:     logger,
	}
}

// FetchPapers returns papers submitted within the lookback window across
// the AI/ML categories, or the topic's categories when topic is non-empty.
// Results are deduplicated by accession id within the batch.
func (c *Client) FetchPapers(ctx context.Context, lookbackDays int, topic string) ([]domain.CandidateItem, error) {
	categories := categoriesFor(topic)
	start := time.Now().UTC().Add(-time.Duration(lookbackDays) * 24 * time.Hour)

	queryURL, err := c.buildQueryURL(categories)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "ResearchDigest/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request papers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	var feed apiFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	seen := map[string]struct{}{}
	papers := make([]domain.CandidateItem, 0, len(feed.Entries))

	for _, entry := range feed.Entries {
		published, _ := time.Parse(time.RFC3339, entry.Published)
		if !published.IsZero() && published.Before(start) {
			continue
		}

		id := accessionID(entry.ID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		authors := make([]string, 0, len(entry.Authors))
		for _, author := range entry.Authors {
			authors = append(authors, author.Name)
		}

		papers = append(papers, domain.CandidateItem{
			ID:           id,
			Title:        collapseWhitespace(entry.Title),
			Body:         collapseWhitespace(entry.Summary),
			Authors:      authors,
			PublishedAt:  published,
			SourceName:   "arxiv",
			CategoryHint: entry.PrimaryCategory.Term,
			Link:         paperLink(entry),
		})
	}

	c.debug("paper discovery done", "categories", len(categories), "papers", len(papers))
	return papers, nil
}

func (c *Client) buildQueryURL(categories []string) (string, error) {
	parsed, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid arxiv base url %s: %w", c.baseURL, err)
	}

	terms := make([]string, 0, len(categories))
	for _, cat := range categories {
		terms = append(terms, "cat:"+cat)
	}

	query := parsed.Query()
	query.Set("search_query", strings.Join(terms, " OR "))
	query.Set("sortBy", "submittedDate")
	query.Set("sortOrder", "descending")
	query.Set("max_results", strconv.Itoa(c.maxResults))
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

func categoriesFor(topic string) []string {
	if topic == "" {
		return defaultCategories
	}
	if cats, ok := topicCategories[strings.ToLower(strings.TrimSpace(topic))]; ok {
		return cats
	}
	return []string{"cs.AI", "cs.LG"}
}

// accessionID extracts the arXiv id from an entry URL such as
// http://arxiv.org/abs/2501.00001v1.
func accessionID(entryID string) string {
	idx := strings.LastIndex(entryID, "/")
	if idx < 0 {
		return entryID
	}
	return entryID[idx+1:]
}

func paperLink(entry apiEntry) string {
	for _, link := range entry.Links {
		if link.Title == "pdf" {
			return link.Href
		}
	}
	return entry.ID
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
