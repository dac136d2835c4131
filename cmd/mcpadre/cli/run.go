package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcpadre/mcpadre/internal/logging"
	"github.com/mcpadre/mcpadre/internal/mcpadreerr"
	"github.com/mcpadre/mcpadre/internal/runner"
	"github.com/mcpadre/mcpadre/internal/settings"
)

var runCmd = &cobra.Command{
	Use:   "run <serverName>",
	Short: "Materialize and launch one configured MCP server",
	Args:  cobra.ExactArgs(1),
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	serverName := args[0]

	env := environMap(os.Environ())

	workspaceDir, err := resolveWorkspaceDir(env)
	if err != nil {
		return &mcpadreerr.ConfigInvalid{Detail: err.Error()}
	}

	wc, err := settings.LoadWorkspaceContext(workspaceDir, env)
	if err != nil {
		return &mcpadreerr.ConfigInvalid{Detail: err.Error()}
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:  logLevel,
		LogDir: wc.Dirs.Log,
	})
	if err != nil {
		return fmt.Errorf("run: building logger: %w", err)
	}

	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	exitCode, runErr := runner.Run(ctx, wc, runner.Options{
		ServerName: serverName,
		ParentEnv:  env,
		Stdin:      cmd.InOrStdin(),
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
		Logger:     logger,
	})

	if runErr != nil {
		if ctx.Err() != nil {
			return &mcpadreerr.UserCancelled{}
		}

		return runErr
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}

	return nil
}

// resolveWorkspaceDir picks the workspace root: the current directory for
// project scope, or the resolved user-scope directory for --user.
func resolveWorkspaceDir(env map[string]string) (string, error) {
	if !userMode {
		return os.Getwd()
	}

	if userDir != "" {
		return userDir, nil
	}

	if v := env["MCPADRE_USER_DIR"]; v != "" {
		return v, nil
	}

	home := env["HOME"]
	if home == "" {
		var err error

		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
	}

	return filepath.Join(home, ".mcpadre"), nil
}

// environMap converts os.Environ()'s KEY=VALUE slice into a map, the shape
// every template.Context and dirs.Resolver in this codebase expects.
func environMap(entries []string) map[string]string {
	out := make(map[string]string, len(entries))

	for _, entry := range entries {
		for i := 0; i < len(entry); i++ {
			if entry[i] == '=' {
				out[entry[:i]] = entry[i+1:]

				break
			}
		}
	}

	return out
}
