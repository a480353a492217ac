package cmd

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/abhisek/calctutor/internal/app"
	"github.com/abhisek/calctutor/internal/chatclient"
	"github.com/abhisek/calctutor/internal/config"
	"github.com/abhisek/calctutor/internal/llm"
	"github.com/abhisek/calctutor/internal/logging"
	"github.com/abhisek/calctutor/internal/questiongen"
	"github.com/abhisek/calctutor/internal/toolcall"
	"github.com/abhisek/calctutor/internal/tools"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the tutor in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		return runChat(cmd, name)
	},
}

func init() {
	chatCmd.Flags().String("name", "", "Prefill the student name")
}

// runChat launches the full-screen client against the API.
func runChat(cmd *cobra.Command, name string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Log lines would corrupt the screen.
	if cfg.Log.File == "" {
		cfg.Log.File = "-"
	}
	if err := logging.Init(cfg.Log, nil); err != nil {
		return err
	}
	defer logging.Close()

	d, closeDispatcher := newDispatcher(ctx, cfg)
	defer closeDispatcher()

	return app.Run(ctx, app.Options{
		Client:     newChatClient(cfg),
		Dispatcher: d,
		Name:       name,
	})
}

func newChatClient(cfg config.Config) *chatclient.Client {
	return chatclient.New(cfg.Server.URL, &http.Client{}, logging.NewModuleLogger("chatclient", "http"))
}

// newDispatcher registers the tutor's tools. Question generation needs an
// LLM provider; without one the tool reports an error to the assistant.
// The returned func releases the event store used for LLM telemetry.
func newDispatcher(ctx context.Context, cfg config.Config) (*toolcall.Dispatcher, func()) {
	logger := logging.NewModuleLogger("cmd", "tools")
	d := toolcall.New(logging.NewModuleLogger("toolcall", "dispatcher"))

	llmCfg, ok := cfg.LLM.Discover()
	if !ok {
		logger.Warn("no LLM provider configured, question generation unavailable")
		tools.Register(d, nil)
		return d, func() {}
	}

	st, err := openStore(cfg)
	if err != nil {
		logger.Warn("question generation unavailable", "error", err)
		tools.Register(d, nil)
		return d, func() {}
	}
	provider, err := llm.NewProvider(ctx, llmCfg, st.Events(), logging.NewModuleLogger("llm", llmCfg.Provider))
	if err != nil {
		st.Close()
		logger.Warn("question generation unavailable", "provider", llmCfg.Provider, "error", err)
		tools.Register(d, nil)
		return d, func() {}
	}

	tools.Register(d, questiongen.New(provider, questiongen.DefaultConfig()))
	return d, func() { st.Close() }
}
