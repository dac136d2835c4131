// Package cli assembles the mcpadre command tree, grounded on the cobra
// root/subcommand split in majorcontext-moat's cmd/agent/cli package: package
// vars for persistent flags, one file per subcommand, init() wires each into
// rootCmd.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	logLevel string
	userMode bool
	userDir  string
)

var rootCmd = &cobra.Command{
	Use:   "mcpadre",
	Short: "Dependency-and-configuration broker for Model-Context-Protocol servers",
	Long: `mcpadre reads a single declarative configuration, materializes a pinned,
reproducible execution environment for a named MCP server, launches it under
OS-level sandboxing, and proxies JSON-RPC traffic between the client and the
server over stdio.`,
}

// Execute runs the root command and maps the returned error to a process
// exit code via mcpadreerr.ExitCode.
func Execute() int {
	err := rootCmd.Execute()

	return exitCodeFor(err)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "one of error, warn, info, debug, trace")
	rootCmd.PersistentFlags().BoolVar(&userMode, "user", false, "operate on the user scope instead of the project scope")
	rootCmd.PersistentFlags().StringVar(&userDir, "user-dir", "", "override the user scope directory (defaults to $MCPADRE_USER_DIR or $HOME/.mcpadre)")
}
