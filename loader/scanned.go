package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/studykit/corpus/schema"
)

// loadScannedPDF rasterizes the document to one image per page and runs OCR
// on the pages concurrently, bounded by the configured parallelism. A single
// page's OCR failure is logged and skipped, it never aborts the document.
func (l *Loader) loadScannedPDF(ctx context.Context, path string, data []byte) (*Result, error) {
	if l.ocr == nil {
		return nil, fmt.Errorf("scanned PDF %s: no OCR engine configured", path)
	}
	tempDir, err := os.MkdirTemp("", "corpus-scan-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tempDir)

	localPath := filepath.Join(tempDir, "source.pdf")
	if err := os.WriteFile(localPath, data, 0o600); err != nil {
		return nil, err
	}
	images, err := l.rasterizer.Rasterize(ctx, localPath, tempDir)
	if err != nil {
		return nil, fmt.Errorf("rasterize %s: %w", path, err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("rasterize %s: no pages produced", path)
	}

	type pageResult struct {
		page int
		text string
		err  error
	}
	limiter := make(chan struct{}, l.ocrParallelism)
	var wg sync.WaitGroup
	results := make([]pageResult, len(images))

	for i, image := range images {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		wg.Add(1)
		limiter <- struct{}{}
		go func(index int, imagePath string) {
			defer wg.Done()
			defer func() { <-limiter }()
			text, err := l.ocr.Recognize(ctx, imagePath)
			results[index] = pageResult{page: index + 1, text: text, err: err}
		}(i, image)
	}
	wg.Wait()

	result := &Result{FileType: schema.FileTypePDFScanned, PagesTotal: len(images)}
	for _, page := range results {
		if page.err != nil {
			warning := fmt.Sprintf("page %d: OCR failed: %v", page.page, page.err)
			l.warnf("%s: %s", path, warning)
			result.Warnings = append(result.Warnings, warning)
			result.PagesSkipped++
			continue
		}
		if strings.TrimSpace(page.text) == "" {
			continue
		}
		result.Pages = append(result.Pages, RawPage{Text: page.text, Page: page.page, Source: path})
	}
	sort.Slice(result.Pages, func(i, j int) bool { return result.Pages[i].Page < result.Pages[j].Page })
	return result, nil
}
