package export

import (
	"encoding/json"
	"io"
)

// JSONExporter writes the conversation as indented JSON.
type JSONExporter struct{}

func (e *JSONExporter) Export(c *Conversation, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

func (e *JSONExporter) Extension() string { return "json" }
