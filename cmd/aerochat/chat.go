package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/youruser/aerochat/internal/chat"
	"github.com/youruser/aerochat/internal/pricing"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd.Context())
		},
	}
}

// runChat drives the interactive read-send-print loop.
func (a *app) runChat(ctx context.Context) error {
	fmt.Println(headerStyle.Render("Aerofiltri Support Assistant"))
	fmt.Println(faintStyle.Render("Type a message, or /help for commands."))
	fmt.Println()

	a.printHistory()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := a.handleCommand(ctx, line); quit {
				return nil
			}
			continue
		}

		if est := pricing.EstimateTokensSimple(line); est > 0 {
			fmt.Println(faintStyle.Render(fmt.Sprintf("~%s tokens", pricing.FormatTokens(est))))
		}

		// Frames carry the full accumulated text; print only the suffix
		// past what is already on screen.
		printed := 0
		a.orch.OnStreamUpdate = func(content string) {
			if len(content) > printed {
				fmt.Print(assistantStyle.Render(content[printed:]))
				printed = len(content)
			}
		}

		a.orch.SendMessage(ctx, line)
		a.orch.OnStreamUpdate = nil

		if printed == 0 {
			// Nothing streamed; show whatever ended up in the transcript
			// (typically the error reply).
			if msgs := a.transcript.Messages(); len(msgs) > 0 {
				last := msgs[len(msgs)-1]
				if last.Role == chat.RoleAssistant && last.Content != "" {
					fmt.Print(errorStyle.Render(last.Content))
				}
			}
		}
		fmt.Println()
		fmt.Println()
	}
}

// handleCommand processes a slash command and reports whether to quit.
func (a *app) handleCommand(ctx context.Context, line string) bool {
	switch strings.Fields(line)[0] {
	case "/quit", "/exit":
		return true
	case "/reset":
		a.orch.ResetChat()
		fmt.Println(faintStyle.Render("Conversation cleared."))
	case "/usage":
		a.printUsage()
	case "/new":
		s := a.registry.Create()
		a.transcript.Clear()
		a.transcript.SetSessionID(s.SessionID)
		fmt.Println(faintStyle.Render("New session: " + s.SessionID))
	case "/session":
		if id := a.transcript.SessionID(); id != "" {
			fmt.Println(faintStyle.Render("Session: " + id))
		} else {
			fmt.Println(faintStyle.Render("No active session."))
		}
	case "/help":
		fmt.Println(faintStyle.Render("/new /reset /usage /session /quit"))
	default:
		fmt.Println(warnStyle.Render("Unknown command: " + line))
	}
	return false
}

func (a *app) printHistory() {
	for _, msg := range a.transcript.Messages() {
		switch msg.Role {
		case chat.RoleUser:
			fmt.Println(promptStyle.Render("you> ") + msg.Content)
		case chat.RoleAssistant:
			fmt.Println(assistantStyle.Render(msg.Content))
		}
		fmt.Println()
	}
}

func (a *app) printUsage() {
	usage := a.transcript.Usage()
	if usage.IsZero() {
		fmt.Println(faintStyle.Render("No token usage recorded yet."))
		return
	}
	cost := pricing.Total(usage.InputTokens, usage.OutputTokens,
		a.cfg.Pricing.InputPer1K, a.cfg.Pricing.OutputPer1K)
	fmt.Printf("Input tokens:  %s\n", pricing.FormatTokens(usage.InputTokens))
	fmt.Printf("Output tokens: %s\n", pricing.FormatTokens(usage.OutputTokens))
	fmt.Printf("Estimated cost: %s\n", pricing.FormatCost(cost))
}
