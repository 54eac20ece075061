package main

import (
	"fmt"
	"os"

	"bigsis-chat/internal/config"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	brainURL string
	logFile  string
	strict   bool
	debug    bool

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bigsis",
	Short: "BigSis - cosmetic diagnostic chat",
	Long: `BigSis lets you describe a cosmetic concern and receive, inline in the
conversation, a structured diagnostic streamed by the BigSis brain.

Run without arguments to start the interactive chat.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()

		// Flags override the environment
		if cmd.Flags().Changed("api") {
			cfg.Brain.BaseURL = brainURL
		}
		if cmd.Flags().Changed("log-file") {
			cfg.App.LogFilePath = logFile
		}
		if cmd.Flags().Changed("strict") {
			cfg.App.Strict = strict
		}
		if cmd.Flags().Changed("debug") {
			cfg.App.Debug = debug
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch interactive chat
		return runChat(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&brainURL, "api", "", "Brain API base URL (overrides BRAIN_API_URL)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (overrides LOG_FILE_PATH)")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Fail on logic errors that are otherwise only logged")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level")

	rootCmd.AddCommand(chatCmd, stubCmd, logsCmd, eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
