package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"filexfer/client"
	"filexfer/config"
	"filexfer/logger"
	"filexfer/protocol"
	"filexfer/terminal"
)

// errNotFound marks the failure message coming back from the server
var errNotFound = errors.New(protocol.FileNotFoundMessage)

type clientFlags struct {
	addr     string
	output   string
	stdout   bool
	timeout  time.Duration
	retries  int
	logLevel string
	noColor  bool
	theme    string
	quiet    bool
}

func newRootCmd() *cobra.Command {
	flags := &clientFlags{}
	defaults := config.DefaultClientConfig()

	cmd := &cobra.Command{
		Use:           "fileclient [filename]",
		Short:         "fileclient requests one file from a fileserver and saves it.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(flags.logLevel)
			terminal.DisableColor(flags.noColor)
			if err := terminal.SetTheme(flags.theme); err != nil {
				return err
			}

			filename := ""
			if len(args) == 1 {
				filename = args[0]
			} else if terminal.IsInteractive() {
				cwd, _ := os.Getwd()
				filename = terminal.PromptFilename(terminal.NewFilenameCompleter(nil, cwd))
			}
			if filename == "" {
				return fmt.Errorf("a filename is required")
			}

			cfg := &config.ClientConfig{Address: flags.addr, Timeout: flags.timeout, Retries: flags.retries}
			return fetch(cmd.Context(), cmd, cfg, flags, filename)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.addr, "addr", "a", defaults.Address, "server address host:port")
	f.StringVarP(&flags.output, "output", "o", "", "where to save the file (default: base name of the request)")
	f.BoolVar(&flags.stdout, "stdout", false, "write the file to stdout instead of saving it")
	f.DurationVar(&flags.timeout, "timeout", defaults.Timeout, "overall deadline, 0 disables it")
	f.IntVar(&flags.retries, "retries", defaults.Retries, "dial attempts")
	f.StringVar(&flags.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	f.BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	f.StringVar(&flags.theme, "theme", "dark", "color theme: dark or light")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "do not print the transfer summary")
	return cmd
}

func fetch(ctx context.Context, cmd *cobra.Command, cfg *config.ClientConfig, flags *clientFlags, filename string) error {
	resp, err := client.Fetch(ctx, cfg, filename)
	if err != nil {
		return err
	}

	summary := terminal.TransferSummary{
		Address:  cfg.Address,
		FileName: filename,
		Bytes:    resp.Bytes,
		Elapsed:  resp.Elapsed,
		Speed:    resp.Speed,
		Status:   "received",
	}

	if resp.NotFound {
		terminal.PrintError(cmd.ErrOrStderr(), "%s", errNotFound)
		return errNotFound
	}

	if flags.stdout {
		_, err := cmd.OutOrStdout().Write(resp.Data)
		return err
	}

	output := flags.output
	if output == "" {
		output = filepath.Base(filename)
	}
	if err := os.WriteFile(output, resp.Data, 0644); err != nil {
		return fmt.Errorf("failed to save %s: %w", output, err)
	}
	summary.Output = output

	if !flags.quiet {
		return terminal.PrintTransferSummary(cmd.OutOrStdout(), summary)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		if !errors.Is(err, errNotFound) {
			terminal.PrintError(os.Stderr, "Error: %v", err)
		}
		os.Exit(1)
	}
}
