// Package cmd implements the CLI commands for the ChatGPT application.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/elk-language/go-prompt"
	istrings "github.com/elk-language/go-prompt/strings"
	"github.com/google/uuid"

	"github.com/rodja/ChatGPT/internal/chatgpt"
	"github.com/rodja/ChatGPT/internal/display"
)

// ReplSession holds the state for an interactive chat session.
type ReplSession struct {
	app         *App
	client      *chatgpt.Client
	exitFlag    bool
	inputBuffer []string
}

// completer provides auto-completion suggestions for ! commands.
func (s *ReplSession) completer(d prompt.Document) ([]prompt.Suggest, istrings.RuneNumber, istrings.RuneNumber) {
	text := d.TextBeforeCursor()
	endIndex := d.CurrentRuneIndex()
	w := d.GetWordBeforeCursor()
	startIndex := endIndex - istrings.RuneCountInString(w)

	// Commands only apply to the first line of a message.
	if len(s.inputBuffer) > 0 || !strings.HasPrefix(text, "!") {
		return []prompt.Suggest{}, startIndex, endIndex
	}

	suggestions := []prompt.Suggest{
		{Text: "!help", Description: "Show command help"},
		{Text: "!reset", Description: "Start a new conversation"},
		{Text: "!config", Description: "Show the active configuration"},
		{Text: "!rollback", Description: "Roll back the last message(s)"},
		{Text: "!setconversation", Description: "Switch to a conversation by id"},
		{Text: "!exit", Description: "Exit"},
	}

	return prompt.FilterHasPrefix(suggestions, w, true), startIndex, endIndex
}

// runInteractive starts the interactive chat mode with a REPL
// interface. Messages span multiple lines and are submitted with a
// blank line.
func (app *App) runInteractive() {
	fmt.Println("ChatGPT - Interactive Mode")
	if app.cfg.Paid {
		fmt.Println("Model: paid tier")
	}
	fmt.Println("Type !help for commands, Ctrl+C or Ctrl+D to quit")
	fmt.Println("Press Enter on an empty line to send your message")
	fmt.Println()

	session := &ReplSession{
		app:    app,
		client: app.client,
	}

	p := prompt.New(
		session.executor,
		prompt.WithCompleter(session.completer),
		prompt.WithPrefix("You: "),
		prompt.WithTitle("ChatGPT"),
		prompt.WithPrefixTextColor(prompt.Green),
		prompt.WithSuggestionBGColor(prompt.DarkBlue),
		prompt.WithSuggestionTextColor(prompt.White),
		prompt.WithSelectedSuggestionBGColor(prompt.Cyan),
		prompt.WithSelectedSuggestionTextColor(prompt.Black),
		prompt.WithExitChecker(func(in string, breakline bool) bool {
			return session.exitFlag
		}),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlC,
			Fn: func(p *prompt.Prompt) bool {
				fmt.Println("\nGoodbye!")
				session.exitFlag = true
				return false
			},
		}),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlD,
			Fn: func(p *prompt.Prompt) bool {
				if p.Buffer().Text() == "" {
					fmt.Println("Goodbye!")
					session.exitFlag = true
				}
				return false
			},
		}),
	)

	p.Run()
}

// executor handles each input line of the REPL. Lines accumulate until
// a blank line submits them as one message; ! commands act immediately
// when typed as the first line.
func (s *ReplSession) executor(input string) {
	if s.exitFlag {
		return
	}

	if len(s.inputBuffer) == 0 && strings.HasPrefix(input, "!") {
		if s.handleCommand(input) {
			s.exitFlag = true
		}
		return
	}

	if input != "" {
		s.inputBuffer = append(s.inputBuffer, input)
		fmt.Print("... ")
		return
	}

	if len(s.inputBuffer) == 0 {
		return
	}

	message := strings.Join(s.inputBuffer, "\n")
	s.inputBuffer = nil

	if strings.TrimSpace(message) == "" {
		return
	}

	s.sendMessage(message)
}

// sendMessage streams one exchange to the terminal.
func (s *ReplSession) sendMessage(message string) {
	fmt.Println("Chatbot:")

	sp := display.NewSpinner("Thinking...")
	sp.Start()

	var full string
	var printed string
	first := true

	for event := range s.client.AskAsync(context.Background(), message, chatgpt.AskOptions{}) {
		if event.Err != nil {
			sp.Stop()
			display.ShowError(event.Err.Error())
			return
		}
		if first {
			first = false
			if s.app.render {
				sp.UpdateMessage("Receiving...")
			} else {
				sp.Stop()
			}
		}
		full = event.Delta.Text
		if !s.app.render {
			printed = printDelta(printed, event.Delta.Text)
		}
	}

	sp.Stop()

	if s.app.render {
		display.ShowContentRendered(full)
	} else {
		fmt.Println()
	}
	fmt.Println()
}

// handleCommand processes ! commands. Returns true when the session
// should exit.
func (s *ReplSession) handleCommand(input string) bool {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "!exit":
		fmt.Println("Goodbye!")
		return true

	case "!help":
		fmt.Println("\nCommands:")
		fmt.Printf("  %-24s %s\n", "!help", "Show this help")
		fmt.Printf("  %-24s %s\n", "!reset", "Forget the current conversation")
		fmt.Printf("  %-24s %s\n", "!config", "Show the active configuration")
		fmt.Printf("  %-24s %s\n", "!rollback [n]", "Roll back the last n messages (default 1)")
		fmt.Printf("  %-24s %s\n", "!setconversation <id>", "Switch to a conversation by id")
		fmt.Printf("  %-24s %s\n", "!exit", "Exit interactive mode")
		fmt.Println()

	case "!reset":
		s.client.Reset()
		fmt.Println("Conversation reset.")

	case "!config":
		redacted := s.app.cfg.Redacted()
		out, err := json.MarshalIndent(redacted, "", "  ")
		if err != nil {
			display.ShowError(err.Error())
			return false
		}
		fmt.Println(string(out))

	case "!rollback":
		n := 1
		if len(parts) > 1 {
			parsed, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Printf("Invalid rollback count: %s\n", parts[1])
				return false
			}
			n = parsed
		}
		if err := s.client.Rollback(n); err != nil {
			display.ShowError(err.Error())
			return false
		}
		fmt.Printf("Rolled back %d message(s).\n", n)

	case "!setconversation":
		if len(parts) < 2 {
			fmt.Println("Usage: !setconversation <conversation-id>")
			return false
		}
		if _, err := uuid.Parse(parts[1]); err != nil {
			fmt.Printf("Invalid conversation id: %s\n", parts[1])
			return false
		}
		s.client.SetConversationID(parts[1])
		fmt.Printf("Switched to conversation %s\n", parts[1])

	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		fmt.Println("Type !help for available commands")
	}

	return false
}
