package export

import (
	"fmt"
	"io"
	"time"

	"github.com/youruser/aerochat/internal/chat"
)

// Conversation is the exportable snapshot of a chat transcript.
type Conversation struct {
	SessionID  string          `json:"session_id" yaml:"session_id"`
	ExportedAt time.Time       `json:"exported_at" yaml:"exported_at"`
	Messages   []chat.Message  `json:"messages" yaml:"messages"`
	Usage      chat.TokenUsage `json:"token_usage" yaml:"token_usage"`
}

// Snapshot captures the current transcript state for export.
func Snapshot(store *chat.Store) *Conversation {
	return &Conversation{
		SessionID:  store.SessionID(),
		ExportedAt: time.Now().UTC(),
		Messages:   store.Messages(),
		Usage:      store.Usage(),
	}
}

// Exporter writes a conversation in a specific format.
type Exporter interface {
	Export(c *Conversation, w io.Writer) error
	Extension() string
}

// NewExporter returns the exporter for a format name.
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "json":
		return &JSONExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "markdown", "md":
		return &MarkdownExporter{}, nil
	default:
		return nil, fmt.Errorf("unknown export format: %s", format)
	}
}
