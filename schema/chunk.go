package schema

// FileType identifies the source format a chunk was extracted from.
type FileType string

const (
	FileTypeDOCX        FileType = "docx"
	FileTypePDFText     FileType = "pdf_text"
	FileTypePDFScanned  FileType = "pdf_scanned"
	FileTypeImage       FileType = "image"
	FileTypeText        FileType = "text"
	FileTypeSpreadsheet FileType = "spreadsheet"
)

// ChunkMetadata carries the typed provenance and scoping tags of a chunk.
// OwnerID, Subject and Chapter form the retrieval scope; Source and Page
// locate the chunk within its original document.
type ChunkMetadata struct {
	Source   string   `json:"source" yaml:"source"`
	Page     int      `json:"page" yaml:"page"`
	FileType FileType `json:"file_type" yaml:"fileType"`
	Subject  string   `json:"subject,omitempty" yaml:"subject,omitempty"`
	Chapter  string   `json:"chapter,omitempty" yaml:"chapter,omitempty"`
	OwnerID  string   `json:"owner_id" yaml:"ownerID"`
	ChunkID  string   `json:"chunk_id" yaml:"chunkID"`
}

// Chunk is a bounded span of cleaned document text, the unit of embedding
// and retrieval. Content never exceeds the chunker's configured maximum.
type Chunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// QueryResult is a retrieval match with a normalized confidence score.
// Neighbor results are adjacent-page chunks pulled in for context and are
// flagged accordingly.
type QueryResult struct {
	Content    string        `json:"content"`
	Metadata   ChunkMetadata `json:"metadata"`
	Confidence float64       `json:"confidence"`
	ChunkID    string        `json:"chunk_id"`
	IsNeighbor bool          `json:"is_neighbor,omitempty"`
}
