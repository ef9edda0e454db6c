package domain

type ChunkType string

const (
	ChunkPrimaryIdentifier ChunkType = "primary_identifier"
	ChunkCodeOnly          ChunkType = "code_only"
	ChunkTechnical         ChunkType = "technical"
	ChunkCommercial        ChunkType = "commercial"
	ChunkDescriptive       ChunkType = "descriptive"
	ChunkCombinedContext   ChunkType = "combined_context"
	ChunkLocalized         ChunkType = "localized"
)

// Chunk is a derived text unit generated from exactly one CatalogRecord.
type Chunk struct {
	ID             string    `json:"id"`
	SourceRecordID string    `json:"source_record_id"`
	ChunkType      ChunkType `json:"chunk_type"`
	Ordinal        int       `json:"ordinal"`
	Language       string    `json:"language,omitempty"`
	Text           string    `json:"text"`
	PriorityWeight float64   `json:"priority_weight"`
	Code           string    `json:"code,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
}

// VectorPoint is one embedded chunk ready for the vector index.
type VectorPoint struct {
	Chunk  Chunk
	Vector []float32
}

// VectorMatch is one scored hit returned by the vector index.
type VectorMatch struct {
	PointID        string
	RecordID       string
	ChunkType      ChunkType
	PriorityWeight float64
	Score          float64
}

// MetadataFilter matches points whose code is in Codes or whose tags intersect Tags.
type MetadataFilter struct {
	Codes []string
	Tags  []string
}

func (f MetadataFilter) IsEmpty() bool {
	return len(f.Codes) == 0 && len(f.Tags) == 0
}
