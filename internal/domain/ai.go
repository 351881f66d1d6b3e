package domain

import (
	"context"
	"io"
)

// DocumentAction is an AI text operation applied to document text.
type DocumentAction string

const (
	ActionSummarize    DocumentAction = "summarize"
	ActionTranslate    DocumentAction = "translate"
	ActionActionPoints DocumentAction = "action-points"
)

// Feature returns the metered feature an action consumes.
func (a DocumentAction) Feature() (FeatureKey, bool) {
	switch a {
	case ActionSummarize:
		return FeatureSummaries, true
	case ActionTranslate:
		return FeatureTranslations, true
	case ActionActionPoints:
		return FeatureActionPoints, true
	}
	return "", false
}

// TextGenerator is the external AI text-generation collaborator.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (*GeneratedText, error)
}

// GeneratedText is a model answer plus its token accounting.
type GeneratedText struct {
	Text         string `json:"text"`
	PromptTokens int    `json:"prompt_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// DocumentActionRequest is the body of POST /ai/{action}.
type DocumentActionRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language,omitempty"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	DocumentText string `json:"document_text"`
	Prompt       string `json:"prompt"`
}

// AIResult is returned by gated AI operations. Decision is set when the
// gate denied the request and no generation happened.
type AIResult struct {
	Output   *GeneratedText `json:"output,omitempty"`
	Decision *Decision      `json:"decision"`
}

// DocumentAIService runs gated AI operations on document text.
type DocumentAIService interface {
	RunAction(ctx context.Context, account *Account, action DocumentAction, req DocumentActionRequest) (*AIResult, error)
	Ask(ctx context.Context, account *Account, req ChatRequest) (*AIResult, error)
}

// OCRPage is the extracted text of one page (1-based).
type OCRPage struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// OCRResult is returned by the gated page extraction.
type OCRResult struct {
	PageCount int       `json:"page_count"`
	Pages     []OCRPage `json:"pages,omitempty"`
	Decision  *Decision `json:"decision"`
}

// PageExtractor is the external page-count and text-extraction collaborator.
type PageExtractor interface {
	CountPages(data []byte) (int, error)
	ExtractPages(data []byte) ([]OCRPage, error)
}

// OCRService extracts text from uploaded documents, metered by pages.
type OCRService interface {
	Extract(ctx context.Context, account *Account, file io.Reader) (*OCRResult, error)
}
