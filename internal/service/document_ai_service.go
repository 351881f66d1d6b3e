package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"doc-reader-api/internal/domain"
)

// maxContextRunes bounds how much document text is sent to the model.
const maxContextRunes = 30000

type documentAIService struct {
	gate      domain.EntitlementService
	generator domain.TextGenerator
	logger    domain.Logger
	now       func() time.Time
}

// NewDocumentAIService creates the gated AI text service. generator may be nil
// when Vertex AI is not configured; calls then fail with ErrGeneratorDisabled.
func NewDocumentAIService(gate domain.EntitlementService, generator domain.TextGenerator, logger domain.Logger) *documentAIService {
	return &documentAIService{
		gate:      gate,
		generator: generator,
		logger:    logger,
		now:       time.Now,
	}
}

// RunAction summarizes, translates or extracts action points from text, one
// unit of the matching feature per call.
func (s *documentAIService) RunAction(ctx context.Context, account *domain.Account, action domain.DocumentAction, req domain.DocumentActionRequest) (*domain.AIResult, error) {
	feature, ok := action.Feature()
	if !ok {
		return nil, &domain.ValidationError{Field: "action", Message: "action must be summarize, translate or action-points"}
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, &domain.ValidationError{Field: "text", Message: "text is required"}
	}
	if action == domain.ActionTranslate && strings.TrimSpace(req.TargetLanguage) == "" {
		return nil, &domain.ValidationError{Field: "target_language", Message: "target language is required for translations"}
	}
	return s.generate(ctx, account, feature, actionPrompt(action, req))
}

// Ask answers a question about document text, one chatbot_questions unit per call.
func (s *documentAIService) Ask(ctx context.Context, account *domain.Account, req domain.ChatRequest) (*domain.AIResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, &domain.ValidationError{Field: "prompt", Message: "prompt is required"}
	}
	return s.generate(ctx, account, domain.FeatureChatbotQuestions, chatPrompt(req))
}

func (s *documentAIService) generate(ctx context.Context, account *domain.Account, feature domain.FeatureKey, prompt string) (*domain.AIResult, error) {
	if s.generator == nil {
		return nil, domain.ErrGeneratorDisabled
	}

	now := s.now()
	dec, err := s.gate.CheckAndReserve(ctx, account, feature, 1, now)
	if err != nil {
		return nil, err
	}
	if !dec.Approved {
		return &domain.AIResult{Decision: dec}, nil
	}

	// No transaction is held while the model runs.
	out, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", feature, err)
	}

	// The answer is already produced; a failed commit is logged by the gate
	// and not surfaced.
	if err := s.gate.Commit(ctx, account.ID, feature, 1, now); err != nil {
		s.logger.Warn("Usage not recorded for delivered AI result", "user_id", account.ID, "feature", feature)
	}
	return &domain.AIResult{Output: out, Decision: dec}, nil
}

func actionPrompt(action domain.DocumentAction, req domain.DocumentActionRequest) string {
	text := truncateRunes(strings.TrimSpace(req.Text), maxContextRunes)
	switch action {
	case domain.ActionTranslate:
		return fmt.Sprintf("Translate the following text into %s. Return only the translation.\n\n%s",
			strings.TrimSpace(req.TargetLanguage), text)
	case domain.ActionActionPoints:
		return "Extract the concrete action points from the following text as a short bulleted list. " +
			"If there are none, say so.\n\n" + text
	default:
		return "Summarize the following text in a few concise paragraphs, in the same language as the text.\n\n" + text
	}
}

func chatPrompt(req domain.ChatRequest) string {
	var sb strings.Builder
	sb.WriteString("You are a reading assistant. Answer the question using only the document below. ")
	sb.WriteString("If the answer is not in the document, say you could not find it.\n\n")
	if doc := strings.TrimSpace(req.DocumentText); doc != "" {
		sb.WriteString("Document:\n")
		sb.WriteString(truncateRunes(doc, maxContextRunes))
		sb.WriteString("\n\n")
	}
	sb.WriteString("Question: ")
	sb.WriteString(strings.TrimSpace(req.Prompt))
	return sb.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
