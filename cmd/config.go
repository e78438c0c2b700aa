package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alantheprice/ori/pkg/configuration"
	"github.com/alantheprice/ori/pkg/prompts"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "Read and change the settings stored in ~/.config/ori/config.json.",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:               "cat <key|all>",
		Short:             "Print a configuration value or all values",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKeys("all"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configuration.Load()
			if err != nil {
				return err
			}
			if args[0] == "all" {
				all, err := cfg.All()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), all)
				return nil
			}
			value, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:               "set <key> <value>",
		Short:             "Set a configuration value",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configuration.Load()
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			return printSaved(cmd)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "load <path>",
		Short: "Load a configuration from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := configuration.LoadExternal(args[0]); err != nil {
				return err
			}
			return printSaved(cmd)
		},
	})

	return configCmd
}

// completeKeys offers the config keys, plus extra, for the first argument.
func completeKeys(extra ...string) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		keys := append(configuration.NewConfig().Keys(), extra...)
		return keys, cobra.ShellCompDirectiveNoFileComp
	}
}

func printSaved(cmd *cobra.Command) error {
	path, err := configuration.GetConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), prompts.ConfigSaved(path))
	return nil
}
