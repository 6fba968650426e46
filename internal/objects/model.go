package objects

import "time"

// Object is the metadata of one stored file. Content lives in the chunk backend
// as ChunkCount segments of ChunkSize bytes, the last one possibly shorter.
type Object struct {
	ID         string
	Owner      string
	Name       string
	MimeType   string
	SizeBytes  int64
	ChunkSize  int
	ChunkCount int
	CreatedAt  time.Time
}

// PurgeResult reports the outcome of deleting every object of an owner.
type PurgeResult struct {
	Owner   string
	Deleted int
	Failed  []string
}
