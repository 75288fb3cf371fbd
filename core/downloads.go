package core

import (
	"context"

	"pkt.systems/tabcap/schema"
)

// DownloadRequest describes an artifact save.
type DownloadRequest struct {
	Filename string
	Data     []byte
	// PromptForPath asks the store to let the user choose the destination,
	// where supported.
	PromptForPath bool
}

// DownloadStore initiates artifact downloads for exported session logs.
type DownloadStore interface {
	Download(ctx context.Context, req DownloadRequest) (schema.DownloadID, error)
}
