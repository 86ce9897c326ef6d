package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"

	"ResearchDigest/internal/config"
	"ResearchDigest/internal/domain"
	"ResearchDigest/internal/ports"
)

const rankPapersPromptHeader = `You are an AI research expert. Analyze these recent AI papers and rank the top %d most important, novel, and impactful ones.

Consider:
1. Novelty and innovation
2. Potential impact on the field
3. Practical applications
4. Research quality

Papers:
%s

Return ONLY a JSON array with the indices (1-based) of the top %d papers in ranked order, along with a brief reason (max 20 words) for each.
Format: [{"rank": 1, "paper_index": X, "reason": "..."}, ...]

JSON:`

const categorizePrompt = `Categorize this AI paper into ONE primary category:
- LLM (Large Language Models)
- Computer Vision
- NLP (Natural Language Processing)
- Reinforcement Learning
- ML Theory
- AI Safety
- Robotics
- Other

Title: %s
Abstract: %s

Return ONLY the category name, nothing else.`

// OpenAIService implements ports.TextService on the OpenAI chat API.
type OpenAIService struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *slog.Logger
}

var _ ports.TextService = (*OpenAIService)(nil)

// NewOpenAIService builds a text service from configuration.
func NewOpenAIService(cfg config.OpenAIConfig, logger *slog.Logger) *OpenAIService {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIService{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// Generate runs a single free-form completion. An empty response is
// returned as an empty string, not an error.
func (s *OpenAIService) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		s.debug("empty completion", "prompt_len", len(prompt))
		return "", nil
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Summarize condenses text to at most maxSentences sentences.
func (s *OpenAIService) Summarize(ctx context.Context, text string, maxSentences int) (string, error) {
	prompt := fmt.Sprintf(`Summarize the following text in %d sentences or less.
Be concise and focus on the main points:

%s

Summary:`, maxSentences, text)

	return s.Generate(ctx, prompt, 0.3)
}

// RankPapers asks the model to rank the submitted papers and returns the
// raw response text. The caller extracts and validates the JSON payload.
func (s *OpenAIService) RankPapers(ctx context.Context, papers []domain.CandidateItem, count int) (string, error) {
	var sb strings.Builder
	for i, paper := range papers {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Paper %d:\nTitle: %s\nAbstract: %s", i+1, paper.Title, truncate(paper.Body, 500))
	}

	prompt := fmt.Sprintf(rankPapersPromptHeader, count, sb.String(), count)
	return s.Generate(ctx, prompt, 0.5)
}

// Categorize assigns a single topic label to a paper.
func (s *OpenAIService) Categorize(ctx context.Context, title, body string) (string, error) {
	prompt := fmt.Sprintf(categorizePrompt, title, truncate(body, 300))
	return s.Generate(ctx, prompt, 0.1)
}

// IntroMessage produces the digest introduction for the given date.
func (s *OpenAIService) IntroMessage(ctx context.Context, date string) (string, error) {
	prompt := fmt.Sprintf(`Write a brief, engaging introduction (2-3 sentences) for a daily AI research digest for %s.
Make it enthusiastic and highlight the excitement of staying updated with AI developments.
Keep it professional but friendly.`, date)

	return s.Generate(ctx, prompt, 0.8)
}

func (s *OpenAIService) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// truncate caps text at limit bytes without splitting a multi-byte rune.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit] + "..."
}
