package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/tftpd/file"
	"github.com/opd-ai/tftpd/server"
	"github.com/opd-ai/tftpd/transport"
)

// CLI configuration
type CLIConfig struct {
	port           uint
	address        string
	root           string
	timeout        time.Duration
	maxRetransmits int
	logLevel       string
	logFormat      string
	help           bool
}

// parseCLIFlags parses command-line flags and returns the configuration.
func parseCLIFlags(fs *flag.FlagSet, args []string) (*CLIConfig, error) {
	config := &CLIConfig{}

	// Network configuration
	fs.UintVar(&config.port, "port", 69, "UDP port to listen on")
	fs.StringVar(&config.address, "address", "", "Address to bind (default: all interfaces)")
	fs.StringVar(&config.root, "root", file.DefaultRoot, "Directory files are served from")

	// Protocol configuration
	fs.DurationVar(&config.timeout, "timeout", server.DefaultTimeout, "Wait for an ACK before retransmitting")
	fs.IntVar(&config.maxRetransmits, "max-retransmits", 0, "Consecutive retransmissions before abandoning a transfer (0 = never)")

	// Logging configuration
	fs.StringVar(&config.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&config.logFormat, "log-format", "text", "Log format (text, json)")

	// Help
	fs.BoolVar(&config.help, "help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return config, nil
}

// printUsage prints the usage information.
func printUsage(fs *flag.FlagSet) {
	fmt.Println("Read-only TFTP server")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s [options]\n", os.Args[0])
	fmt.Println()
	fmt.Println("Options:")
	fs.SetOutput(os.Stdout)
	fs.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  # Serve /var/lib/tftpboot on the standard port\n")
	fmt.Printf("  %s\n", os.Args[0])
	fmt.Println()
	fmt.Printf("  # Unprivileged port, custom root, debug logging\n")
	fmt.Printf("  %s -port 6969 -root ./boot -log-level debug\n", os.Args[0])
}

// validateCLIConfig validates the CLI configuration.
func validateCLIConfig(config *CLIConfig) error {
	if config.port == 0 || config.port > 65535 {
		return fmt.Errorf("invalid port: must be between 1 and 65535")
	}

	if config.root == "" {
		return fmt.Errorf("root directory cannot be empty")
	}

	if config.timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if config.maxRetransmits < 0 {
		return fmt.Errorf("max retransmits cannot be negative")
	}

	if _, err := logrus.ParseLevel(config.logLevel); err != nil {
		return fmt.Errorf("invalid log level %q", config.logLevel)
	}

	switch strings.ToLower(config.logFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", config.logFormat)
	}

	return nil
}

// configureLogging applies the level and formatter to the standard logger.
func configureLogging(config *CLIConfig) {
	level, err := logrus.ParseLevel(config.logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)

	if strings.ToLower(config.logFormat) == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// listenAddress joins the bind address and port.
func listenAddress(config *CLIConfig) string {
	return net.JoinHostPort(config.address, strconv.FormatUint(uint64(config.port), 10))
}

// createServerConfig converts CLI configuration to the server configuration.
func createServerConfig(config *CLIConfig) *server.Config {
	return &server.Config{
		Timeout:        config.timeout,
		MaxRetransmits: config.maxRetransmits,
	}
}

// setupSignalHandling cancels the context on interrupt or termination.
func setupSignalHandling(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logrus.WithFields(logrus.Fields{
			"function": "setupSignalHandling",
			"signal":   sig.String(),
		}).Info("Received signal, shutting down")
		cancel()
	}()
}

// run starts the server and blocks until it stops.
func run(ctx context.Context, config *CLIConfig) error {
	conn, err := transport.Listen(listenAddress(config))
	if err != nil {
		return err
	}

	srv, err := server.New(conn, file.NewDirOpener(config.root), createServerConfig(config))
	if err != nil {
		_ = conn.Close()
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function": "run",
		"address":  conn.LocalAddr().String(),
		"root":     config.root,
	}).Info("Serving files")

	err = srv.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// main is the entry point for the server.
func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	cliConfig, err := parseCLIFlags(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}

	if cliConfig.help {
		printUsage(fs)
		os.Exit(0)
	}

	if err := validateCLIConfig(cliConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Use -help for usage information.\n")
		os.Exit(1)
	}

	configureLogging(cliConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(cancel)

	if err := run(ctx, cliConfig); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Error("Server stopped")
		os.Exit(1)
	}
}
