package loader

import (
	"context"

	"github.com/studykit/corpus/schema"
)

// loadText loads a plain-text or markdown file as a one-page document.
func (l *Loader) loadText(ctx context.Context, path string) (*Result, error) {
	data, err := l.download(ctx, path)
	if err != nil {
		return nil, err
	}
	result := &Result{FileType: schema.FileTypeText, PagesTotal: 1}
	if len(data) > 0 {
		result.Pages = append(result.Pages, RawPage{Text: string(data), Page: 1, Source: path})
	}
	return result, nil
}
