package usecase

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"lapakda/internal/domain/service"
	"lapakda/internal/infrastructure/ratelimit"
	"lapakda/pkg/errors"
	"lapakda/pkg/logger"
)

const defaultUploadFolder = "uploads"

var folderPattern = regexp.MustCompile(`[^a-zA-Z0-9/_-]`)

// Upload is one file taken from a multipart request.
type Upload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

type FileUseCase struct {
	files       service.FileUploadService
	rateLimiter *ratelimit.RateLimiter
	maxBytes    int64
}

func NewFileUseCase(files service.FileUploadService, rateLimiter *ratelimit.RateLimiter, maxBytes int64) *FileUseCase {
	return &FileUseCase{
		files:       files,
		rateLimiter: rateLimiter,
		maxBytes:    maxBytes,
	}
}

func sanitizeFolderName(folder string) string {
	folder = folderPattern.ReplaceAllString(strings.TrimSpace(folder), "")
	folder = strings.Trim(folder, "/")
	for strings.Contains(folder, "//") {
		folder = strings.ReplaceAll(folder, "//", "/")
	}
	if folder == "" {
		return defaultUploadFolder
	}
	return folder
}

func (uc *FileUseCase) check(f Upload) error {
	if f.Reader == nil {
		return errors.BadRequest("Missing file", nil)
	}
	if uc.maxBytes > 0 && f.Size > uc.maxBytes {
		return errors.BadRequest(fmt.Sprintf("File size exceeds maximum allowed (%dMB)", uc.maxBytes/(1024*1024)), nil)
	}
	if !service.IsAllowedImageType(f.ContentType) {
		return errors.BadRequest("File type not supported", nil)
	}
	return nil
}

// Upload stores one image under folder and returns its public URL.
func (uc *FileUseCase) Upload(ctx context.Context, userID, folder string, f Upload) (string, error) {
	if err := uc.check(f); err != nil {
		return "", err
	}
	if uc.rateLimiter != nil {
		if ok, wait := uc.rateLimiter.Allow(userID, ratelimit.ActionUpload); !ok {
			return "", errors.TooManyRequests("Terlalu banyak unggahan. Silakan tunggu sebentar.", int(wait.Seconds())+1)
		}
	}

	folder = sanitizeFolderName(folder)
	url, err := uc.files.UploadFile(ctx, f.Reader, f.ContentType, folder)
	if err != nil {
		logger.Op("FileUseCase.Upload", err, map[string]string{"user": userID, "folder": folder})
		return "", errors.Internal("Failed to upload file", err)
	}
	return url, nil
}

// UploadMany validates every file before storing any of them. When a later
// upload fails the ones already stored are removed again.
func (uc *FileUseCase) UploadMany(ctx context.Context, userID, folder string, files []Upload) ([]string, error) {
	for _, f := range files {
		if err := uc.check(f); err != nil {
			return nil, err
		}
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := uc.Upload(ctx, userID, folder, f)
		if err != nil {
			for _, stored := range urls {
				if derr := uc.files.DeleteFile(ctx, stored); derr != nil {
					logger.Op("FileUseCase.UploadMany", derr, map[string]string{"user": userID, "url": stored})
				}
			}
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}
