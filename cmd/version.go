package cmd

import (
	"fmt"
	"io"
	"runtime"
	runtimedebug "runtime/debug"

	"github.com/spf13/cobra"

	"github.com/alantheprice/ori/pkg/assistant"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersionInfo(cmd.OutOrStdout())
	},
}

// These variables are set at build time using -ldflags
var (
	version   = ""        // Semantic version (e.g., "v1.0.0"); defaults to assistant.Version
	buildDate = "unknown" // Build timestamp
	gitCommit = ""        // Git commit hash
	goVersion = runtime.Version()
)

func init() {
	rootCmd.AddCommand(versionCmd)

	rootCmd.Flags().BoolP("version", "v", false, "Print version information and exit")
}

func currentVersion() string {
	if version != "" {
		return version
	}
	return assistant.Version
}

// printVersionInfo prints comprehensive version information
func printVersionInfo(w io.Writer) {
	fmt.Fprintf(w, "ori version %s\n", currentVersion())

	if buildDate != "unknown" {
		fmt.Fprintf(w, "Build date: %s\n", buildDate)
	}
	if gitCommit != "" {
		fmt.Fprintf(w, "Git commit: %s\n", gitCommit)
	}

	fmt.Fprintf(w, "Go version: %s\n", goVersion)

	if info, ok := runtimedebug.ReadBuildInfo(); ok {
		fmt.Fprintf(w, "Module: %s\n", info.Main.Path)
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			fmt.Fprintf(w, "Module version: %s\n", info.Main.Version)
		}
	}

	fmt.Fprintf(w, "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
