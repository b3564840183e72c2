package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	Client     *genai.Client
	FlashModel *genai.GenerativeModel
	ProModel   *genai.GenerativeModel
}

func NewGenAIClient(apiKey, flashModelName, proModelName string) (*GeminiClient, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai client init failed: %w", err)
	}

	return &GeminiClient{
		Client:     client,
		FlashModel: client.GenerativeModel(flashModelName),
		ProModel:   client.GenerativeModel(proModelName),
	}, nil
}

// ExtractDocumentText runs OCR over a single document (image or PDF) and
// returns the transcribed plain text. The flash model handles transcription;
// it is fast and cheap enough to run on every upload. Low-contrast scans that
// come back empty get one retry on the pro model.
func (g *GeminiClient) ExtractDocumentText(ctx context.Context, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("document data is empty")
	}

	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = detectDocumentMIMEType(data)
	}

	slog.Info("Sending OCR request",
		"mime_type", mimeType,
		"size_bytes", len(data))

	text, err := transcribe(ctx, g.FlashModel, mimeType, data)
	if err != nil {
		return "", err
	}

	if text == "" {
		slog.Info("Empty transcription from flash model, retrying with pro model")
		return transcribe(ctx, g.ProModel, mimeType, data)
	}

	return text, nil
}

func transcribe(ctx context.Context, model *genai.GenerativeModel, mimeType string, data []byte) (string, error) {
	resp, err := model.GenerateContent(ctx,
		genai.Text(OCRPrompt),
		genai.Blob{
			MIMEType: mimeType,
			Data:     data,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate OCR content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no content returned from AI")
	}

	textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("response part is not text, received %T", resp.Candidates[0].Content.Parts[0])
	}

	text := string(textPart)

	// Clean up markdown fences if the model wraps its transcription
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```text\n")
		text = strings.TrimPrefix(text, "```\n")
		text = strings.TrimSuffix(text, "\n```")
	}

	return strings.TrimSpace(text), nil
}

// ExtractDocumentTextWithRetry attempts OCR with automatic failover across
// the configured clients.
func ExtractDocumentTextWithRetry(ctx context.Context, mimeType string, data []byte, selector *GeminiClientSelector) (string, error) {
	var result string

	err := selector.TryAllClients(func(client *GeminiClient, clientIdx int) error {
		text, err := client.ExtractDocumentText(ctx, mimeType, data)
		if err != nil {
			return err
		}
		result = text
		return nil
	})
	if err != nil {
		return "", err
	}

	return result, nil
}

// detectDocumentMIMEType detects the MIME type of a document based on magic bytes
func detectDocumentMIMEType(data []byte) string {
	if len(data) < 8 {
		return "image/jpeg" // default fallback
	}

	// PDF: 25 50 44 46 ("%PDF")
	if data[0] == 0x25 && data[1] == 0x50 && data[2] == 0x44 && data[3] == 0x46 {
		return "application/pdf"
	}

	// PNG: 89 50 4E 47
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}

	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}

	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}

	// WebP: 52 49 46 46 ... 57 45 42 50
	if data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 {
		if len(data) > 11 && data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
			return "image/webp"
		}
	}

	// BMP: 42 4D
	if data[0] == 0x42 && data[1] == 0x4D {
		return "image/bmp"
	}

	// Default to JPEG as it's most common
	return "image/jpeg"
}
