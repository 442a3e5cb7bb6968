// Package images turns product image descriptors into inline base64 payloads.
package images

import (
	"context"
	"encoding/base64"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/davidbz/shopscribe/internal/domain"
	"github.com/davidbz/shopscribe/internal/observability"
)

// DefaultMaxBytes is the per-file ceiling when none is configured.
const DefaultMaxBytes = 4 << 20

// Config contains image loading settings.
type Config struct {
	MaxBytes int64 `env:"IMAGE_MAX_BYTES" envDefault:"4194304"`
}

// Loader reads image files from a filesystem.
type Loader struct {
	fs       afero.Fs
	maxBytes int64
}

// NewLoader creates a loader over fs.
func NewLoader(fs afero.Fs, cfg Config) *Loader {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Loader{
		fs:       fs,
		maxBytes: maxBytes,
	}
}

// Load returns up to limit payloads. Missing, oversized and non-image files are skipped.
func (l *Loader) Load(ctx context.Context, descriptors []domain.ImageDescriptor, limit int) []domain.ImagePayload {
	logger := observability.FromContext(ctx)
	payloads := make([]domain.ImagePayload, 0, len(descriptors))

	for _, desc := range descriptors {
		if limit > 0 && len(payloads) == limit {
			break
		}
		if ctx.Err() != nil {
			break
		}

		payload, err := l.read(desc)
		if err != nil {
			logger.Debug("skipping image",
				observability.String("path", desc.FilePath),
				observability.Error(err))
			continue
		}
		payloads = append(payloads, payload)
	}

	return payloads
}

func (l *Loader) read(desc domain.ImageDescriptor) (domain.ImagePayload, error) {
	path := strings.TrimSpace(desc.FilePath)
	if path == "" {
		return domain.ImagePayload{}, errNoPath
	}

	info, err := l.fs.Stat(path)
	if err != nil {
		return domain.ImagePayload{}, err
	}
	if info.IsDir() || info.Size() > l.maxBytes {
		return domain.ImagePayload{}, errTooLarge
	}

	f, err := l.fs.Open(path)
	if err != nil {
		return domain.ImagePayload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, l.maxBytes+1))
	if err != nil {
		return domain.ImagePayload{}, err
	}
	if int64(len(data)) > l.maxBytes || len(data) == 0 {
		return domain.ImagePayload{}, errTooLarge
	}

	mime := desc.MimeType
	if !strings.HasPrefix(mime, "image/") {
		mime = mimetype.Detect(data).String()
	}
	if !strings.HasPrefix(mime, "image/") {
		return domain.ImagePayload{}, errNotImage
	}

	return domain.ImagePayload{
		Label:    desc.Label,
		MimeType: mime,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}
