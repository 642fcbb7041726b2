package api

import (
	"context"
	"time"

	"github.com/TheGoldLab/mxgram/pkg/gram"
	"github.com/TheGoldLab/mxgram/pkg/storage"
	"github.com/segmentio/ksuid"
)

// APIResponse represents a standard API response. Code carries the negative
// gram status code when a codec operation failed.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    int         `json:"code,omitempty"`
}

// GramSummary describes one archived gram
type GramSummary struct {
	ID       string    `json:"id"`
	Received time.Time `json:"received"`
	Size     int       `json:"size"`
	Kind     string    `json:"kind"`
}

// InspectResponse is the result of walking a gram buffer
type InspectResponse struct {
	Size  int      `json:"size"`
	Lines []string `json:"lines"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string
}

// GramArchive is the archive the grams endpoints read from
type GramArchive interface {
	Get(id ksuid.KSUID) ([]byte, error)
	Delete(id ksuid.KSUID) error
	List(limit int) ([]storage.Entry, error)
}

// Sender delivers values to the configured transport
type Sender interface {
	Send(ctx context.Context, v gram.Value) error
}
