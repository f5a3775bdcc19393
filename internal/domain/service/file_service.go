package service

import (
	"context"
	"io"
)

// FileUploadService stores user uploads and hands back a public URL.
type FileUploadService interface {
	UploadFile(ctx context.Context, file io.Reader, contentType, folder string) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
	Close() error
}

// AllowedImageTypes maps accepted upload content types to file extensions.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func IsAllowedImageType(contentType string) bool {
	_, ok := AllowedImageTypes[contentType]
	return ok
}
