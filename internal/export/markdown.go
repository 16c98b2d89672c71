package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/youruser/aerochat/internal/chat"
	"github.com/youruser/aerochat/internal/pricing"
)

// MarkdownExporter writes the conversation as a readable document.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(c *Conversation, w io.Writer) error {
	var b strings.Builder

	b.WriteString("# Conversation\n\n")
	if c.SessionID != "" {
		fmt.Fprintf(&b, "**Session:** %s\n\n", c.SessionID)
	}
	fmt.Fprintf(&b, "**Exported:** %s\n\n", c.ExportedAt.Format("2006-01-02 15:04:05 UTC"))

	for _, msg := range c.Messages {
		switch msg.Role {
		case chat.RoleUser:
			b.WriteString("## You\n\n")
		case chat.RoleAssistant:
			b.WriteString("## Assistant\n\n")
		default:
			fmt.Fprintf(&b, "## %s\n\n", msg.Role)
		}
		b.WriteString(msg.Content)
		b.WriteString("\n\n")

		if len(msg.ContributingAgents) > 0 {
			fmt.Fprintf(&b, "*Agents: %s*\n\n", strings.Join(msg.ContributingAgents, ", "))
		}
		if len(msg.ContributingModels) > 0 {
			fmt.Fprintf(&b, "*Models: %s*\n\n", strings.Join(msg.ContributingModels, ", "))
		}
	}

	if !c.Usage.IsZero() {
		b.WriteString("---\n\n")
		fmt.Fprintf(&b, "**Tokens:** %s in / %s out\n\n",
			pricing.FormatTokens(c.Usage.InputTokens),
			pricing.FormatTokens(c.Usage.OutputTokens))
		cost := pricing.Total(c.Usage.InputTokens, c.Usage.OutputTokens, pricing.InputPer1K, pricing.OutputPer1K)
		fmt.Fprintf(&b, "**Estimated cost:** %s\n", pricing.FormatCost(cost))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (e *MarkdownExporter) Extension() string { return "md" }
