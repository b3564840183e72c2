package extraction

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// InspectPDF checks that data is a well-formed PDF and returns its page
// count. Scanned certificates are frequently re-saved by phone apps that
// produce lenient but readable files, so validation runs relaxed.
func InspectPDF(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	rs := bytes.NewReader(data)
	if err := api.Validate(rs, conf); err != nil {
		return 0, fmt.Errorf("PDF validation failed: %w", err)
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("PDF reader rewind failed: %w", err)
	}

	count, err := api.PageCount(rs, conf)
	if err != nil {
		return 0, fmt.Errorf("PDF page count failed: %w", err)
	}

	return count, nil
}
