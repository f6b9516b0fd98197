package uploads

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shopmandi/shopmandi-backend/pkg/config"
	pkgerrors "github.com/shopmandi/shopmandi-backend/pkg/errors"
	"github.com/shopmandi/shopmandi-backend/pkg/logger"
)

// allowedContentTypes limits uploads to web-servable image formats.
var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// remoteStore is the object-store dependency. Satisfied by the GCS client.
type remoteStore interface {
	UploadObject(ctx context.Context, object, contentType string, body io.Reader) (string, error)
	DeleteObject(ctx context.Context, object string) error
}

// UploadResult reports where the image ended up.
type UploadResult struct {
	URL    string `json:"url"`
	Remote bool   `json:"remote"`
}

// Service stores product images remotely when an object store is configured
// and falls back to the local uploads directory otherwise.
type Service struct {
	remote remoteStore
	cfg    config.UploadsConfig
	logg   *logger.Logger
	nowFn  func() time.Time
}

// NewService builds an uploads service. Remote may be nil, in which case
// every upload lands on local disk.
func NewService(remote remoteStore, cfg config.UploadsConfig, logg *logger.Logger) *Service {
	return &Service{
		remote: remote,
		cfg:    cfg,
		logg:   logg,
		nowFn:  time.Now,
	}
}

// Store persists the image and returns its public URL.
func (s *Service) Store(ctx context.Context, filename, contentType string, body io.Reader) (*UploadResult, error) {
	ext, err := resolveExtension(filename, contentType)
	if err != nil {
		return nil, err
	}

	object := fmt.Sprintf("products/%s/%s%s", s.nowFn().UTC().Format("2006/01"), uuid.NewString(), ext)

	if s.remote != nil {
		url, err := s.remote.UploadObject(ctx, object, contentType, body)
		if err == nil {
			return &UploadResult{URL: url, Remote: true}, nil
		}
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{"object": object})
			s.logg.Warn(logCtx, "uploads.remote_failed_falling_back_to_disk")
		}
		// The reader may be partially consumed after a failed remote
		// attempt; callers buffer the body, so rewind when possible.
		if seeker, ok := body.(io.Seeker); ok {
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rewind upload body")
			}
		} else {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remote upload")
		}
	}

	url, err := s.storeLocal(object, body)
	if err != nil {
		return nil, err
	}
	return &UploadResult{URL: url, Remote: false}, nil
}

// Delete removes a previously uploaded object. Local files are matched by
// their public path prefix.
func (s *Service) Delete(ctx context.Context, url string) error {
	publicPrefix := strings.TrimSuffix(s.cfg.PublicPath, "/") + "/"
	if idx := strings.Index(url, publicPrefix); idx >= 0 {
		rel := url[idx+len(publicPrefix):]
		target := filepath.Join(s.cfg.LocalDir, filepath.FromSlash(rel))
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete local upload")
		}
		return nil
	}

	if s.remote == nil {
		return nil
	}
	object := objectFromURL(url)
	if object == "" {
		return nil
	}
	if err := s.remote.DeleteObject(ctx, object); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete remote upload")
	}
	return nil
}

func (s *Service) storeLocal(object string, body io.Reader) (string, error) {
	target := filepath.Join(s.cfg.LocalDir, filepath.FromSlash(object))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create uploads dir")
	}

	out, err := os.Create(target)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create upload file")
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, body); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write upload file")
	}

	return path.Join(s.cfg.PublicPath, object), nil
}

func resolveExtension(filename, contentType string) (string, error) {
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	ext, ok := allowedContentTypes[strings.ToLower(mediaType)]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unsupported image type")
	}

	if fromName := strings.ToLower(filepath.Ext(filename)); fromName == ".jpeg" && ext == ".jpg" {
		return ".jpeg", nil
	}
	return ext, nil
}

// objectFromURL strips the public GCS host prefix, leaving the object key.
func objectFromURL(url string) string {
	const host = "storage.googleapis.com/"
	idx := strings.Index(url, host)
	if idx < 0 {
		return ""
	}
	rest := url[idx+len(host):]
	// Drop the leading bucket segment.
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}
