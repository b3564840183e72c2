package extraction

import (
	"context"
	"fmt"

	"supplier-service/internal/ai/gemini"
)

// GeminiExtractor performs OCR through the Gemini vision models with
// failover across the configured API keys.
type GeminiExtractor struct {
	selector *gemini.GeminiClientSelector
}

func NewGeminiExtractor(selector *gemini.GeminiClientSelector) *GeminiExtractor {
	return &GeminiExtractor{selector: selector}
}

func (e *GeminiExtractor) ExtractText(ctx context.Context, contentType string, data []byte) (string, error) {
	text, err := gemini.ExtractDocumentTextWithRetry(ctx, contentType, data, e.selector)
	if err != nil {
		return "", fmt.Errorf("gemini OCR failed: %w", err)
	}
	return text, nil
}
