package terminal

import (
	"fmt"
	"io"
	"net"
	"os"

	"github.com/rs/zerolog/log"

	"filexfer/config"
)

// Version of the filexfer tools
const Version = "1.0.0"

// PrintStartupInfo prints the listener settings
func PrintStartupInfo(w io.Writer, cfg *config.ServerConfig) {
	InfoColor().Fprintf(w, "Starting single-shot file server...\n")
	TextColor().Fprintf(w, "Address: %s\n", cfg.Address())
	TextColor().Fprintf(w, "Request buffer: %d bytes\n", cfg.BufferSize)
	if cfg.BaseDir != "" {
		TextColor().Fprintf(w, "Base directory: %s\n", cfg.BaseDir)
	} else {
		TextColor().Fprintf(w, "Base directory: working directory\n")
	}
	if cfg.MetricsFile != "" {
		TextColor().Fprintf(w, "Exchange log: %s\n", cfg.MetricsFile)
	}
}

// PrintListening announces the bound port
func PrintListening(w io.Writer, addr net.Addr) {
	port := addr.String()
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = fmt.Sprintf("%d", tcp.Port)
	}
	SuccessColor().Fprintf(w, "The Server is listening for request on port <%s>\n", port)
}

// PrintConnection announces the accepted peer
func PrintConnection(w io.Writer, peer net.Addr) {
	SuccessColor().Fprintf(w, "Connection has been established from <%s>\n", peer)
}

// PrintError prints an operator-facing error line
func PrintError(w io.Writer, format string, args ...interface{}) {
	ErrorColor().Fprintf(w, format+"\n", args...)
}

// HandleStartupError handles startup errors with appropriate logging and exit
func HandleStartupError(err error, context string) {
	log.Fatal().Err(err).Msgf("Failed to %s", context)
}

// ShowVersion displays version information
func ShowVersion(w io.Writer, name string) {
	fmt.Fprintf(w, "%s v%s\n", name, Version)
}

// Stdout is where the commands print operator output
var Stdout io.Writer = os.Stdout
