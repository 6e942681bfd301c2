package service

import "fmt"

// IngestRequest identifies a source file and its retrieval scope.
type IngestRequest struct {
	Path    string
	OwnerID string
	Subject string
	Chapter string
}

// IngestSummary reports the outcome of one document ingestion.
type IngestSummary struct {
	Source         string
	PagesProcessed int
	PagesSkipped   int
	UniqueChunks   int
	Duplicates     int
	// Unchanged is set when the source bytes match the previously ingested
	// fingerprint and the whole pipeline was skipped.
	Unchanged bool
	Warnings  []string
}

// String renders the caller-facing summary line.
func (s *IngestSummary) String() string {
	if s.Unchanged {
		return fmt.Sprintf("%s unchanged, 0 new chunks", s.Source)
	}
	if s.UniqueChunks == 0 && len(s.Warnings) > 0 {
		return fmt.Sprintf("no content ingested from %s (%d warnings)", s.Source, len(s.Warnings))
	}
	msg := fmt.Sprintf("ingested %d new chunks from %s", s.UniqueChunks, s.Source)
	if s.Duplicates > 0 {
		msg += fmt.Sprintf(" (%d duplicates skipped)", s.Duplicates)
	}
	if s.PagesSkipped > 0 {
		msg += fmt.Sprintf(", %d of %d pages skipped", s.PagesSkipped, s.PagesProcessed+s.PagesSkipped)
	}
	return msg
}

// QueryRequest scopes a similarity query. OwnerID is mandatory; Subject and
// Chapter narrow the scope when set. K defaults to 3 and is capped at 10.
// Neighbor-page expansion is on by default; DisableNeighbors turns it off.
type QueryRequest struct {
	Question         string
	OwnerID          string
	K                int
	Subject          string
	Chapter          string
	DisableNeighbors bool
}
