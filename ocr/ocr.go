// Package ocr converts page images to text.
package ocr

import "context"

// Engine extracts text from a single page image. Implementations must be
// safe for concurrent use; scanned pages are recognized in parallel.
type Engine interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}
