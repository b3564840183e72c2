package extraction

import "context"

// TextExtractor turns raw document bytes into plain text. Implementations may
// call external OCR services; callers treat the output as opaque text.
type TextExtractor interface {
	ExtractText(ctx context.Context, contentType string, data []byte) (string, error)
}

// StaticExtractor returns canned text. Test double and offline stub.
type StaticExtractor struct {
	Text string
	Err  error
}

func (s *StaticExtractor) ExtractText(ctx context.Context, contentType string, data []byte) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.Text, nil
}
