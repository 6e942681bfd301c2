package loader

import (
	"bytes"
	"context"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/studykit/corpus/schema"
)

const (
	// scannedSamplePages is how many leading pages the scanned-vs-text
	// heuristic inspects.
	scannedSamplePages = 3
	// scannedTextThreshold is the minimum extractable text per sampled page
	// for a PDF to count as text-based.
	scannedTextThreshold = 100
)

func (l *Loader) loadPDF(ctx context.Context, path string) (*Result, error) {
	data, err := l.download(ctx, path)
	if err != nil {
		return nil, err
	}
	if l.isScannedPDF(data) {
		l.warnf("detected scanned PDF %s, running OCR per page", path)
		return l.loadScannedPDF(ctx, path, data)
	}
	return l.loadTextPDF(path, data)
}

// isScannedPDF samples the first few pages; when none yields substantial
// extractable text, the PDF is treated as scanned. An unreadable PDF is
// also treated as scanned, the OCR path is the only remaining option.
func (l *Loader) isScannedPDF(data []byte) bool {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		l.warnf("could not determine PDF type: %v, assuming scanned", err)
		return true
	}
	sample := l.scanSample
	if reader.NumPage() < sample {
		sample = reader.NumPage()
	}
	for i := 1; i <= sample; i++ {
		if len(strings.TrimSpace(pdfPageText(reader, i))) > l.scanThreshold {
			return false
		}
	}
	return true
}

func (l *Loader) loadTextPDF(path string, data []byte) (*Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	result := &Result{FileType: schema.FileTypePDFText, PagesTotal: reader.NumPage()}
	for i := 1; i <= reader.NumPage(); i++ {
		text := pdfPageText(reader, i)
		if strings.TrimSpace(text) == "" {
			continue
		}
		result.Pages = append(result.Pages, RawPage{Text: text, Page: i, Source: path})
	}
	return result, nil
}

func pdfPageText(reader *pdf.Reader, pageNum int) string {
	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}
