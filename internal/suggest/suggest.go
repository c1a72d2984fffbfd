// Package suggest asks a language model to propose an alternative time
// when the requested slot is taken.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"barberbook/internal/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

var ErrEmptyResponse = errors.New("model returned no suggestion")

// Generator turns a prompt into model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Suggester struct {
	gen     Generator
	limiter *rate.Limiter
	timeout time.Duration
	logger  *zerolog.Logger
}

func New(gen Generator, rps float64, timeout time.Duration, logger *zerolog.Logger) *Suggester {
	if rps <= 0 {
		rps = 1
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Suggester{
		gen:     gen,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		timeout: timeout,
		logger:  logger,
	}
}

// Suggest picks one of the candidates for the customer's free text.
func (s *Suggester) Suggest(ctx context.Context, freeText string, candidates []models.AvailabilitySlot) (*models.Suggestion, error) {
	if len(candidates) == 0 {
		return nil, ErrEmptyResponse
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("suggestion rate limit: %w", err)
	}

	start := time.Now()
	text, err := s.gen.Generate(ctx, Prompt(freeText, candidates))
	if err != nil {
		return nil, fmt.Errorf("generate suggestion: %w", err)
	}
	s.logger.Debug().Dur("took", time.Since(start)).Msg("suggestion generated")

	return ParseResponse(text)
}

// Prompt lists the free times and asks for a JSON answer.
func Prompt(freeText string, candidates []models.AvailabilitySlot) string {
	var b strings.Builder
	b.WriteString("A barbershop customer asked for an appointment that is not available.\n")
	fmt.Fprintf(&b, "Customer request: %q\n", freeText)
	b.WriteString("Available times:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s %s\n", c.Date, c.Time)
	}
	b.WriteString("Pick the single available time closest to what the customer wants. ")
	b.WriteString(`Answer only with JSON: {"suggested_time": "<time exactly as listed>", "explanation": "<one short sentence>"}`)
	return b.String()
}

// ParseResponse reads the model's JSON answer, with or without a code fence.
func ParseResponse(text string) (*models.Suggestion, error) {
	body := strings.TrimSpace(text)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)

	if i, j := strings.Index(body, "{"), strings.LastIndex(body, "}"); i >= 0 && j > i {
		body = body[i : j+1]
	}

	var sugg models.Suggestion
	if err := json.Unmarshal([]byte(body), &sugg); err != nil {
		return nil, fmt.Errorf("decode suggestion: %w", err)
	}
	sugg.Time = strings.TrimSpace(sugg.Time)
	if sugg.Time == "" {
		return nil, ErrEmptyResponse
	}
	sugg.Explanation = strings.TrimSpace(sugg.Explanation)
	return &sugg, nil
}

// Gemini generates text with a Google generative model.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	m := client.GenerativeModel(model)
	m.ResponseMIMEType = "application/json"
	return &Gemini{client: client, model: m}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return sb.String(), nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}
