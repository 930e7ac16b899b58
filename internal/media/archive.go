// Package media archives raw voice notes and receipt photos to object
// storage. Archival is best-effort: a failed upload is logged and the
// message keeps flowing.
package media

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Kind names the media type in the object path.
type Kind string

const (
	KindPhoto Kind = "photo"
	KindVoice Kind = "voice"
)

// Archiver stores a raw media blob and returns its storage URI.
type Archiver interface {
	Archive(ctx context.Context, userID int64, kind Kind, data []byte, mimeType string) (string, error)
}

// GCSArchiver writes media to a Google Cloud Storage bucket. It assumes
// Application Default Credentials are configured.
type GCSArchiver struct {
	client *storage.Client
	bucket string
	log    zerolog.Logger
}

// NewGCSArchiver creates an archiver for the given bucket.
func NewGCSArchiver(ctx context.Context, bucket string, log zerolog.Logger) (*GCSArchiver, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSArchiver: create storage client: %w", err)
	}
	return &GCSArchiver{client: client, bucket: bucket, log: log}, nil
}

// Archive uploads the blob under media/<user>/<kind>/<uuid>.<ext> and
// returns the gs:// URI.
func (a *GCSArchiver) Archive(ctx context.Context, userID int64, kind Kind, data []byte, mimeType string) (string, error) {
	objectName := fmt.Sprintf("media/%d/%s/%s%s", userID, kind, uuid.New().String(), extFor(mimeType))

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = mimeType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Archive: writing object %q: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Archive: closing writer for %q: %w", objectName, err)
	}

	uri := fmt.Sprintf("gs://%s/%s", a.bucket, objectName)
	a.log.Debug().Str("uri", uri).Int("bytes", len(data)).Msg("Media archived")
	return uri, nil
}

// Close releases the underlying storage client.
func (a *GCSArchiver) Close() error {
	return a.client.Close()
}

// NoopArchiver is used when no bucket is configured.
type NoopArchiver struct{}

func (NoopArchiver) Archive(ctx context.Context, userID int64, kind Kind, data []byte, mimeType string) (string, error) {
	return "", nil
}

func extFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav":
		return ".wav"
	default:
		return ""
	}
}
