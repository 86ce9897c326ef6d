package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ResearchDigest/internal/domain"
)

func TestFormatPlaceholders(t *testing.T) {
	t.Parallel()

	formatter := NewFormatter(&fakeTextService{}, nil)

	doc, err := formatter.Format(context.Background(), domain.PipelineRun{})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	if !strings.Contains(doc, NoNewsPlaceholder) {
		t.Fatal("empty run missing news placeholder")
	}
	if !strings.Contains(doc, NoPapersPlaceholder) {
		t.Fatal("empty run missing papers placeholder")
	}
	if !strings.Contains(doc, "TODAY'S STATISTICS") {
		t.Fatal("missing statistics footer")
	}
}

func TestFormatIntroFallback(t *testing.T) {
	t.Parallel()

	formatter := NewFormatter(&fakeTextService{
		introFn: func(string) (string, error) { return "", errors.New("unavailable") },
	}, nil)
	formatter.now = func() time.Time {
		return time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)
	}

	doc, err := formatter.Format(context.Background(), domain.PipelineRun{})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	if !strings.Contains(doc, "Good morning! Here's your daily AI research digest for March 14, 2025.") {
		t.Fatalf("intro fallback missing:\n%s", doc)
	}
}

func TestFormatSections(t *testing.T) {
	t.Parallel()

	formatter := NewFormatter(&fakeTextService{
		introFn: func(string) (string, error) { return "Custom intro.", nil },
	}, nil)

	run := domain.PipelineRun{
		News: []domain.NewsItem{
			{Title: "Model released", Link: "https://example.com/a", Source: "Example", Summary: "A short summary."},
			{Title: "Benchmark broken", Link: "https://example.com/b", Source: "Example", Summary: "Another summary."},
		},
		NewsOverview: "Releases dominate today.",
		Papers: domain.SelectionResult{
			Selected: []domain.CandidateItem{
				{
					ID:              "2501.00001v1",
					Title:           "A Paper",
					Body:            "Abstract text.",
					Authors:         []string{"Ada Lovelace", "Alan Turing", "Grace Hopper"},
					Link:            "https://arxiv.org/abs/2501.00001",
					Rank:            1,
					Category:        "NLP",
					SelectionReason: "Novel method",
				},
			},
			Method:        domain.MethodAIRanked,
			TotalAnalyzed: 42,
		},
	}

	doc, err := formatter.Format(context.Background(), run)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	for _, want := range []string{
		"Custom intro.",
		"Overview: Releases dominate today.",
		"Story #1: Model released",
		"Story #2: Benchmark broken",
		"#1 | NLP",
		"A Paper",
		"Ada Lovelace et al.",
		"Why selected: Novel method",
		"Selected from 42 recent papers",
		"News Articles: 2",
		"Papers Selected: 1",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("document missing %q:\n%s", want, doc)
		}
	}
}

func TestFormatAuthors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		authors []string
		want    string
	}{
		{nil, "Unknown authors"},
		{[]string{"Solo"}, "Solo"},
		{[]string{"First", "Second"}, "First and Second"},
		{[]string{"First", "Second", "Third"}, "First et al."},
	}

	for _, tc := range tests {
		if got := FormatAuthors(tc.authors); got != tc.want {
			t.Fatalf("FormatAuthors(%v) = %q, want %q", tc.authors, got, tc.want)
		}
	}
}
