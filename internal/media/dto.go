package media

import (
	"time"

	"github.com/poiquest/poiquest-backend/pkg/db/models"
)

// ImageDTO is the API shape of one attached image. URL is filled in
// best-effort by presigning and may be empty when signing fails.
type ImageDTO struct {
	ID        int64  `json:"id"`
	Bucket    string `json:"bucket"`
	FileKey   string `json:"file_key"`
	SortOrder int    `json:"sort_order"`
	IsPrimary bool   `json:"is_primary"`
	URL       string `json:"url,omitempty"`
}

// ImageFromModel maps a persisted image row to its DTO, without a URL.
func ImageFromModel(img models.Image) ImageDTO {
	return ImageDTO{
		ID:        img.ID,
		Bucket:    img.Bucket,
		FileKey:   img.FileKey,
		SortOrder: img.SortOrder,
		IsPrimary: img.IsPrimary,
	}
}

// ImagesFromModels maps a slice of rows preserving order.
func ImagesFromModels(imgs []models.Image) []ImageDTO {
	out := make([]ImageDTO, 0, len(imgs))
	for _, img := range imgs {
		out = append(out, ImageFromModel(img))
	}
	return out
}

// PresignUploadInput models the payload required to request an upload URL.
type PresignUploadInput struct {
	Bucket      string `json:"bucket" validate:"required"`
	FileName    string `json:"file_name" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
}

// PresignUploadOutput contains the locator and signed PUT URL handed back to
// the client.
type PresignUploadOutput struct {
	Bucket       string    `json:"bucket"`
	FileKey      string    `json:"file_key"`
	SignedPUTURL string    `json:"signed_put_url"`
	ContentType  string    `json:"content_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// PresignDownloadOutput contains a signed GET URL for an existing object.
type PresignDownloadOutput struct {
	Bucket       string    `json:"bucket"`
	FileKey      string    `json:"file_key"`
	SignedGETURL string    `json:"signed_get_url"`
	ExpiresAt    time.Time `json:"expires_at"`
}
