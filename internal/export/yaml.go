package export

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLExporter writes the conversation as YAML.
type YAMLExporter struct{}

func (e *YAMLExporter) Export(c *Conversation, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(c)
}

func (e *YAMLExporter) Extension() string { return "yaml" }
