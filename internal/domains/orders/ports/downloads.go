package ports

import (
	"context"
	"time"
)

// DownloadRequest identifies the purchased digital asset to expose.
type DownloadRequest struct {
	UserID    string
	OrderID   string
	ItemID    string
	ProductID string
}

// DownloadReference is a time-limited pointer into the object store.
type DownloadReference struct {
	URL       string
	ExpiresAt time.Time
}

// DownloadLinker issues time-limited download references.
type DownloadLinker interface {
	Link(ctx context.Context, req DownloadRequest) (*DownloadReference, error)
}
