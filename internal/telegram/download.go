package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dvloznov/ledger-bot/internal/bot"
)

// maxVoiceBytes caps a downloaded voice note; the Bot API serves at most 20MB.
const maxVoiceBytes = 20 << 20

// FileURLer resolves a file id into a download URL.
type FileURLer interface {
	GetFileDirectURL(fileID string) (string, error)
}

// Downloader fetches files from the Bot API file endpoint.
type Downloader struct {
	files  FileURLer
	client *http.Client
}

// NewDownloader creates a downloader. A nil client means http.DefaultClient.
func NewDownloader(files FileURLer, client *http.Client) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{files: files, client: client}
}

// Download implements bot.Downloader. The deadline comes from ctx.
func (d *Downloader) Download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := d.files.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("Download: resolving file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("Download: building request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Download: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxVoiceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("Download: reading body: %w", err)
	}
	if len(data) > maxVoiceBytes {
		return nil, fmt.Errorf("Download: file exceeds %d bytes", maxVoiceBytes)
	}
	return data, nil
}

var _ bot.Downloader = (*Downloader)(nil)
