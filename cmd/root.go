package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alantheprice/ori/pkg/assistant"
	"github.com/alantheprice/ori/pkg/configuration"
	"github.com/alantheprice/ori/pkg/model"
	"github.com/alantheprice/ori/pkg/utils"
)

var (
	autoConfirm bool
	noBanner    bool
	noClear     bool
	debug       bool
	modelName   string
	provider    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ori [prompt...]",
	Short: "Terminal assistant that runs commands and edits files for you",
	Long: `Ori is a terminal assistant backed by a language model. Replies may ask
to run shell commands, edit files or write new ones; Ori performs them after
asking for confirmation.

With no arguments an interactive session starts. Arguments are joined into a
single prompt, answered once:

  ori -y 'install nmap for me'
  ori print current active username`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runAssistant,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.Flags().BoolVarP(&autoConfirm, "yes", "y", false, "Auto-confirm any command execution prompts")
	rootCmd.Flags().BoolVar(&noBanner, "no-banner", false, "Start without the ASCII banner")
	rootCmd.Flags().BoolVar(&noClear, "no-clear", false, "Start without clearing the terminal")
	rootCmd.Flags().StringVarP(&modelName, "model", "m", "", "AI model to use (overrides config)")
	rootCmd.Flags().StringVar(&provider, "provider", "", "Model provider: openrouter or ollama (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Echo debug logging to stderr")

	rootCmd.AddCommand(newConfigCmd())
}

func runAssistant(cmd *cobra.Command, args []string) error {
	if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
		printVersionInfo(cmd.OutOrStdout())
		return nil
	}

	logger := utils.GetLogger(autoConfirm)
	logger.SetDebug(debug || os.Getenv("ORI_DEBUG") == "1")

	cfg, err := configuration.Load()
	if err != nil {
		logger.LogError(err)
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	logger.LogProcessStep(fmt.Sprintf("provider %s, model %s", cfg.Provider, cfg.Model))

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	a := assistant.New(cfg, client, os.Stdin, cmd.OutOrStdout(), assistant.WithLogger(logger))
	if len(args) > 0 {
		return a.RunOnce(cmd.Context(), strings.Join(args, " "))
	}
	return a.Run(cmd.Context())
}

// applyFlags overrides cfg with the flags given on the command line. The
// overrides are not saved.
func applyFlags(cmd *cobra.Command, cfg *configuration.Config) error {
	flags := cmd.Flags()
	if flags.Changed("yes") {
		cfg.AutoConfirm = autoConfirm
	}
	if flags.Changed("no-banner") {
		cfg.NoBanner = noBanner
	}
	if flags.Changed("no-clear") {
		cfg.NoClear = noClear
	}
	if flags.Changed("model") {
		if err := cfg.Set("model", modelName); err != nil {
			return err
		}
	}
	if flags.Changed("provider") {
		if err := cfg.Set("provider", provider); err != nil {
			return err
		}
	}
	cfg.Debug = debug
	return nil
}

func newClient(cfg *configuration.Config, logger *utils.Logger) (model.Client, error) {
	var apiKey string
	if cfg.Provider != configuration.ProviderOllama {
		key, err := configuration.ResolveAPIKey(os.Stdin, os.Stdout)
		if err != nil {
			if errors.Is(err, configuration.ErrNoAPIKey) {
				return nil, fmt.Errorf("failed to load API key: %w", err)
			}
			return nil, err
		}
		apiKey = key
	}
	return model.New(cfg, apiKey, model.WithLogger(logger))
}
