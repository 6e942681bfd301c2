package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/studykit/corpus/schema"
)

// loadImage OCRs a single image as a one-page document.
func (l *Loader) loadImage(ctx context.Context, path string) (*Result, error) {
	if l.ocr == nil {
		return nil, fmt.Errorf("image %s: no OCR engine configured", path)
	}
	data, err := l.download(ctx, path)
	if err != nil {
		return nil, err
	}
	tempDir, err := os.MkdirTemp("", "corpus-image-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tempDir)
	localPath := filepath.Join(tempDir, filepath.Base(path))
	if err := os.WriteFile(localPath, data, 0o600); err != nil {
		return nil, err
	}

	text, err := l.ocr.Recognize(ctx, localPath)
	if err != nil {
		return nil, fmt.Errorf("OCR %s: %w", path, err)
	}
	result := &Result{FileType: schema.FileTypeImage, PagesTotal: 1}
	if text != "" {
		result.Pages = append(result.Pages, RawPage{Text: text, Page: 1, Source: path})
	}
	return result, nil
}
