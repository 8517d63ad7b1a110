package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rodja/ChatGPT/internal/chatgpt"
	"github.com/rodja/ChatGPT/internal/config"
	"github.com/rodja/ChatGPT/internal/display"
	"github.com/rodja/ChatGPT/internal/logging"
)

// App holds the application state
type App struct {
	cfg        *config.Config
	client     *chatgpt.Client
	configPath string
	verbose    bool
	render     bool
}

// NewApp creates a new App instance with default configuration
func NewApp() *App {
	return &App{
		cfg: config.NewConfig(),
	}
}

// Execute runs the root command
func Execute() {
	app := NewApp()

	rootCmd := &cobra.Command{
		Use:   "chatgpt [prompt]",
		Short: "A CLI client for the ChatGPT web API",
		Long: `ChatGPT CLI talks to the unofficial browser-session ChatGPT API,
streaming answers as they are generated and keeping track of the
conversation so follow-up prompts continue where you left off.

Examples:
  chatgpt "What is Kubernetes?"
  chatgpt -r "Explain Docker"              # render markdown
  chatgpt --conversation <uuid> "And why?" # continue a conversation
  chatgpt                                  # interactive mode`,
		Args: cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			app.run(cmd, args)
		},
	}

	rootCmd.Flags().StringVar(&app.configPath, "config", "", "Path to a config file (default: auto-discover)")
	rootCmd.Flags().BoolVarP(&app.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().BoolVarP(&app.render, "render", "r", false, "Render markdown with colors and formatting")
	rootCmd.Flags().String("conversation", "", "Conversation id to continue")
	rootCmd.Flags().String("parent", "", "Parent message id to branch from")
	rootCmd.Flags().Bool("paid", false, "Use the paid-tier model")
	rootCmd.Flags().String("proxy", "", "HTTP proxy URL")
	rootCmd.Flags().Int("timeout", 0, "Request timeout in seconds")

	rootCmd.AddCommand(NewLoginCmd())
	rootCmd.AddCommand(NewLogoutCmd())
	rootCmd.AddCommand(NewStatusCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (app *App) run(cmd *cobra.Command, args []string) {
	if app.verbose {
		logging.SetLevel(logging.LevelDebug)
	}

	if err := app.loadConfig(cmd); err != nil {
		display.ShowError(err.Error())
		os.Exit(1)
	}

	if app.render {
		if err := display.InitRenderer(); err != nil {
			logging.Warn("failed to initialize renderer", logging.Fields{"error": err.Error()})
		}
	}

	client, err := chatgpt.New(app.cfg)
	if err != nil {
		display.ShowError(err.Error())
		os.Exit(1)
	}
	app.client = client

	// No prompt on the command line means interactive mode.
	if len(args) == 0 {
		app.runInteractive()
		return
	}

	prompt := strings.Join(args, " ")
	if err := app.askOnce(prompt); err != nil {
		display.ShowError(err.Error())
		os.Exit(1)
	}
}

// loadConfig reads the config file (explicit path or auto-discovered)
// and layers the command-line flags on top. Flags only override fields
// the user actually set.
func (app *App) loadConfig(cmd *cobra.Command) error {
	var cfg *config.Config
	var err error

	if app.configPath != "" {
		cfg, err = config.LoadPath(app.configPath)
	} else {
		cfg, err = config.Load()
		if errors.Is(err, config.ErrNoConfigFile) {
			cfg, err = config.NewConfig(), nil
		}
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("conversation") {
		cfg.ConversationID, _ = flags.GetString("conversation")
	}
	if flags.Changed("parent") {
		cfg.ParentID, _ = flags.GetString("parent")
	}
	if flags.Changed("paid") {
		cfg.Paid, _ = flags.GetBool("paid")
	}
	if flags.Changed("proxy") {
		cfg.Proxy, _ = flags.GetString("proxy")
	}
	if flags.Changed("timeout") {
		cfg.TimeoutSeconds, _ = flags.GetInt("timeout")
	}

	app.cfg = cfg
	return nil
}

// askOnce sends a single prompt, streaming the answer to stdout.
func (app *App) askOnce(prompt string) error {
	sp := display.NewSpinner("Thinking...")
	sp.Start()

	var full string
	var printed string
	first := true

	err := app.client.Ask(context.Background(), prompt, chatgpt.AskOptions{}, func(delta *chatgpt.MessageDelta) {
		if first {
			first = false
			if app.render {
				sp.UpdateMessage("Receiving...")
			} else {
				sp.Stop()
			}
		}
		full = delta.Text
		if !app.render {
			printed = printDelta(printed, delta.Text)
		}
	})

	sp.Stop()

	if err != nil {
		return err
	}

	if app.render {
		display.ShowContentRendered(full)
	} else {
		fmt.Println()
	}
	return nil
}

// printDelta writes the unseen tail of the cumulative answer text and
// returns the new printed state. When the update is not an extension of
// what was already printed, the whole answer is reprinted.
func printDelta(printed, text string) string {
	if strings.HasPrefix(text, printed) {
		fmt.Print(text[len(printed):])
		return text
	}
	fmt.Print("\n" + text)
	return text
}
