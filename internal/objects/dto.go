package objects

import "time"

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"sizeBytes"`
}

// FileResponse is the outward-facing representation of an object.
type FileResponse struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// ListResponse wraps the caller's files.
type ListResponse struct {
	Files []FileResponse `json:"files"`
}

func toResponse(obj Object) FileResponse {
	return FileResponse{
		ID:         obj.ID,
		Filename:   obj.Name,
		MimeType:   obj.MimeType,
		SizeBytes:  obj.SizeBytes,
		UploadedAt: obj.CreatedAt,
	}
}

func toListResponse(objs []Object) ListResponse {
	files := make([]FileResponse, 0, len(objs))
	for _, obj := range objs {
		files = append(files, toResponse(obj))
	}
	return ListResponse{Files: files}
}
