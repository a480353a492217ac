package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/calctutor/internal/assistant"
	"github.com/abhisek/calctutor/internal/logging"
)

var assistantCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Manage the tutor assistant",
}

var assistantCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new tutor assistant and make it the default",
	Long: "Creates the calculus tutor assistant with its instructions and tools,\n" +
		"records it, and prints its id. `serve` uses the newest recorded assistant\n" +
		"unless CALCTUTOR_OPENAI_ASSISTANT_ID is set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if model, _ := cmd.Flags().GetString("model"); model != "" {
			cfg.OpenAI.Model = model
		}
		if err := logging.Init(cfg.Log, os.Stderr); err != nil {
			return err
		}
		defer logging.Close()

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		client, err := assistant.NewClient(cfg.OpenAI, st.Events(), logging.NewModuleLogger("assistant", "client"))
		if err != nil {
			return fmt.Errorf("assistants client: %w", err)
		}
		id, err := assistant.NewBootstrapper(client, st.Assistants(), cfg.OpenAI, logging.NewModuleLogger("assistant", "bootstrap")).
			Create(cmd.Context())
		if err != nil {
			return fmt.Errorf("create assistant: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

func init() {
	assistantCreateCmd.Flags().String("model", "", "Model for the assistant (overrides CALCTUTOR_OPENAI_MODEL)")
	assistantCmd.AddCommand(assistantCreateCmd)
}
