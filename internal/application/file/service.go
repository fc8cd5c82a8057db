package file

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/go-auth-api/internal/domain"
	"github.com/go-auth-api/internal/pkg/id"
)

// presignTTL bounds how long a generated download link stays valid.
const presignTTL = 15 * time.Minute

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
	IsPrivate   bool
	UploaderID  string
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*domain.File, error)
	UploadBase64(ctx context.Context, filename, base64Data, uploaderID string) (*domain.File, error)
	Download(ctx context.Context, fileID, requesterID string, isAdmin bool) (io.ReadCloser, *domain.File, error)
	DownloadURL(ctx context.Context, fileID, requesterID string, isAdmin bool) (*domain.File, error)
	Delete(ctx context.Context, fileID, requesterID string, isAdmin bool) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type fileStore interface {
	Put(ctx context.Context, f *domain.File) error
	Get(ctx context.Context, fileID string) (*domain.File, error)
	SoftDelete(ctx context.Context, fileID string) error
}

type service struct {
	objects objectStore
	files   fileStore
}

type ServiceDeps struct {
	ObjectStore objectStore
	FileRepo    fileStore
}

func NewService(deps ServiceDeps) Service {
	return &service{objects: deps.ObjectStore, files: deps.FileRepo}
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.File, error) {
	fileID := id.New()
	safeName := sanitizeFilename(input.Filename)
	key := fmt.Sprintf("files/%s/%s_%s", input.UploaderID, fileID, safeName)
	if _, err := s.objects.Upload(ctx, key, input.Reader, input.ContentType); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	f := &domain.File{
		FileID:           fileID,
		Object:           key,
		Size:             input.Size,
		Type:             input.ContentType,
		Name:             safeName,
		IsPrivate:        input.IsPrivate,
		UploadedByUserID: input.UploaderID,
		Enable:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.files.Put(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *service) UploadBase64(ctx context.Context, filename, base64Data, uploaderID string) (*domain.File, error) {
	decoded, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", domain.ErrBadRequest)
	}
	safeName := sanitizeFilename(filename)
	return s.Upload(ctx, UploadInput{
		Reader:      bytes.NewReader(decoded),
		Filename:    safeName,
		ContentType: contentTypeFromName(safeName),
		Size:        int64(len(decoded)),
		UploaderID:  uploaderID,
	})
}

func (s *service) Download(ctx context.Context, fileID, requesterID string, isAdmin bool) (io.ReadCloser, *domain.File, error) {
	f, err := s.authorize(ctx, fileID, requesterID, isAdmin)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.objects.Download(ctx, f.Object)
	if err != nil {
		return nil, nil, err
	}
	return rc, f, nil
}

// DownloadURL returns the file record with its URL field set to a time-limited
// presigned link.
func (s *service) DownloadURL(ctx context.Context, fileID, requesterID string, isAdmin bool) (*domain.File, error) {
	f, err := s.authorize(ctx, fileID, requesterID, isAdmin)
	if err != nil {
		return nil, err
	}
	url, err := s.objects.PresignedURL(ctx, f.Object, presignTTL)
	if err != nil {
		return nil, err
	}
	f.URL = &url
	return f, nil
}

func (s *service) Delete(ctx context.Context, fileID, requesterID string, isAdmin bool) error {
	f, err := s.authorize(ctx, fileID, requesterID, isAdmin)
	if err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, f.Object); err != nil {
		return err
	}
	return s.files.SoftDelete(ctx, fileID)
}

func (s *service) authorize(ctx context.Context, fileID, requesterID string, isAdmin bool) (*domain.File, error) {
	f, err := s.files.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !f.Enable {
		return nil, fmt.Errorf("file not found: %w", domain.ErrNotFound)
	}
	if f.IsPrivate && f.UploadedByUserID != requesterID && !isAdmin {
		return nil, fmt.Errorf("access denied: %w", domain.ErrForbidden)
	}
	return f, nil
}

func contentTypeFromName(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".pdf"):
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." {
		return result
	}
	return "_"
}
