package model

// ImageMetadata describes a picked image. Only metadata is stored; the bytes
// live wherever URI points.
type ImageMetadata struct {
	URI      string  `json:"uri" validate:"required"`
	AssetID  string  `json:"assetId,omitempty"`
	Width    int     `json:"width" validate:"gte=0"`
	Height   int     `json:"height" validate:"gte=0"`
	Type     string  `json:"type,omitempty" validate:"omitempty,oneof=image video livePhoto pairedVideo"`
	FileName string  `json:"fileName,omitempty"`
	FileSize int64   `json:"fileSize,omitempty" validate:"gte=0"`
	MimeType string  `json:"mimeType,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}
