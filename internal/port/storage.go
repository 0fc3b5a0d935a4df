package port

import (
	"context"
)

// SaveInput is an already-rendered file handed over for download.
type SaveInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// SaveOutput tells the caller where the file ended up.
type SaveOutput struct {
	Location string `json:"location"`
}

// DownloadSink receives export bodies exactly as the service produced them.
type DownloadSink interface {
	Save(ctx context.Context, input SaveInput) (*SaveOutput, error)
}
