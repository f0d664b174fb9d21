// Package archive keeps copies of downloaded voice notes in Cloud Storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/dvloznov/ledger-bot/internal/bot"
)

const defaultUploadTimeout = 2 * time.Minute

// GCSArchive uploads voice notes to a bucket. It assumes Application Default
// Credentials are configured.
type GCSArchive struct {
	client  *storage.Client
	bucket  string
	prefix  string
	timeout time.Duration
}

// NewGCSArchive creates an archive with its own storage client.
func NewGCSArchive(ctx context.Context, bucket, prefix string) (*GCSArchive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSArchive: create storage client: %w", err)
	}
	return &GCSArchive{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		timeout: defaultUploadTimeout,
	}, nil
}

// Close closes the storage client.
func (a *GCSArchive) Close() error {
	return a.client.Close()
}

// StoreVoice uploads one voice note and returns its gs:// URI.
func (a *GCSArchive) StoreVoice(ctx context.Context, v bot.ArchivedVoice) (string, error) {
	objectName := ObjectName(a.prefix, v, uuid.NewString())

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType(v.MIMEType)
	w.Metadata = map[string]string{
		"author_id":  v.AuthorID,
		"message_id": v.MessageID,
	}

	if _, err := io.Copy(w, bytes.NewReader(v.Data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("StoreVoice: copy to GCS writer: %w", err)
	}
	// Close finalizes the upload
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("StoreVoice: finalize upload: %w", err)
	}

	return "gs://" + a.bucket + "/" + objectName, nil
}

// ObjectName lays voice notes out by receive date:
// <prefix>/YYYY/MM/DD/<author>-<message>-<id>.<ext>.
func ObjectName(prefix string, v bot.ArchivedVoice, id string) string {
	name := fmt.Sprintf("%s-%s-%s.%s", safe(v.AuthorID), safe(v.MessageID), id, extension(v.MIMEType))
	return path.Join(prefix, v.ReceivedAt.Format("2006/01/02"), name)
}

func extension(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "audio/ogg", "audio/opus", "":
		return "ogg"
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return "m4a"
	case "audio/wav", "audio/x-wav":
		return "wav"
	}
	return "bin"
}

func contentType(mimeType string) string {
	if mimeType == "" {
		return "audio/ogg"
	}
	return mimeType
}

// safe keeps object names free of path separators.
func safe(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(s)
}

var _ bot.VoiceArchive = (*GCSArchive)(nil)
