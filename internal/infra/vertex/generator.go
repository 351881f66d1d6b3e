package vertex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"doc-reader-api/internal/domain"

	"cloud.google.com/go/vertexai/genai"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

var errEmptyResponse = errors.New("empty response from model")

// Generator implements domain.TextGenerator on Vertex AI Gemini.
type Generator struct {
	client *genai.Client
	model  string
	logger domain.Logger
}

// NewGenerator creates a Vertex AI client using application default credentials.
func NewGenerator(ctx context.Context, projectID, location, model string, logger domain.Logger) (*Generator, error) {
	creds, err := google.FindDefaultCredentials(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("failed to get default credentials: %w", err)
	}
	client, err := genai.NewClient(ctx, projectID, location, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex ai client: %w", err)
	}
	return &Generator{client: client, model: model, logger: logger}, nil
}

// Generate sends a single-turn prompt and returns the concatenated text parts.
func (g *Generator) Generate(ctx context.Context, prompt string) (*domain.GeneratedText, error) {
	model := g.client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini call failed: %w", err)
	}
	out, err := toGeneratedText(resp)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("Gemini generation finished", "model", g.model, "prompt_tokens", out.PromptTokens, "output_tokens", out.OutputTokens)
	return out, nil
}

// Close releases the underlying gRPC connection.
func (g *Generator) Close() error {
	return g.client.Close()
}

func toGeneratedText(resp *genai.GenerateContentResponse) (*domain.GeneratedText, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}

	out := &domain.GeneratedText{Text: sb.String()}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}
