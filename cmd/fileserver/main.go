package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"filexfer/config"
	"filexfer/logger"
	"filexfer/server"
	"filexfer/terminal"
)

type serverFlags struct {
	configFile  string
	host        string
	port        int
	bufferSize  int
	baseDir     string
	logLevel    string
	metricsFile string
	noColor     bool
	theme       string
	version     bool
}

func newRootCmd() (*cobra.Command, *serverFlags) {
	flags := &serverFlags{}

	cmd := &cobra.Command{
		Use:   "fileserver [port]",
		Short: "fileserver serves one file to one client over TCP, then exits.",
		Long: "fileserver binds host:port, accepts a single connection, reads a filename from it and " +
			"sends that file back, or the message \"File NOT found on the Server\" on any failure.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.version {
				terminal.ShowVersion(cmd.OutOrStdout(), "fileserver")
				return nil
			}
			cfg, err := buildConfig(cmd, flags, args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configFile, "config", "c", "", "ini file with a [server] section")
	f.StringVar(&flags.host, "host", "", "host to bind (default localhost)")
	f.IntVarP(&flags.port, "port", "p", 0, "port to bind (default 8080)")
	f.IntVar(&flags.bufferSize, "buffer-size", 0, "bytes read for the filename (default 1024)")
	f.StringVar(&flags.baseDir, "base-dir", "", "directory requested names are resolved against (default working directory)")
	f.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&flags.metricsFile, "metrics-file", "", "append a CSV row per exchange to this file")
	f.BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	f.StringVar(&flags.theme, "theme", "dark", "color theme: dark or light")
	f.BoolVarP(&flags.version, "version", "v", false, "print version and exit")
	return cmd, flags
}

// buildConfig layers defaults, the ini file, env overrides, then flags and the positional port
func buildConfig(cmd *cobra.Command, flags *serverFlags, args []string) (*config.ServerConfig, error) {
	cfg := config.DefaultServerConfig()
	if flags.configFile != "" {
		if err := config.LoadIni(cfg, flags.configFile); err != nil {
			return nil, err
		}
	} else {
		config.ApplyEnv(cfg)
	}

	if len(args) == 1 {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid port number: %s", args[0])
		}
		cfg.Port = port
	}

	f := cmd.Flags()
	if f.Changed("host") {
		cfg.Host = flags.host
	}
	if f.Changed("port") {
		cfg.Port = flags.port
	}
	if f.Changed("buffer-size") {
		cfg.BufferSize = flags.bufferSize
	}
	if f.Changed("base-dir") {
		cfg.BaseDir = flags.baseDir
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if f.Changed("metrics-file") {
		cfg.MetricsFile = flags.metricsFile
	}
	terminal.DisableColor(flags.noColor)
	if err := terminal.SetTheme(flags.theme); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.ServerConfig) error {
	logger.Init(cfg.LogLevel)
	out := terminal.Stdout

	terminal.PrintStartupInfo(out, cfg)

	listener := server.New(cfg, server.WithAcceptHook(func(peer net.Addr) {
		terminal.PrintConnection(out, peer)
	}))
	if err := listener.Bind(); err != nil {
		return err
	}
	terminal.PrintListening(out, listener.Addr())

	exchange, err := listener.Run(ctx)
	if err != nil {
		return err
	}

	// the exchange outcome never changes the exit status
	if exchange.Outcome == server.StateSent {
		terminal.SuccessColor().Fprintf(out, "Sent %q (%d bytes)\n", exchange.FileName, exchange.Bytes)
	} else {
		terminal.PrintError(out, "Could not serve %q", exchange.FileName)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, _ := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		terminal.HandleStartupError(err, "run file server")
	}
}
