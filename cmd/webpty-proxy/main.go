// Command webpty-proxy runs one command under a pseudo-terminal and
// bridges the session to its parent process over newline-delimited JSON
// messages on stdin/stdout. Diagnostics go to stderr; stdout belongs to
// the command channel.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sys/unix"

	"github.com/PiranhaCodes/webpty-proxy/internal/config"
	"github.com/PiranhaCodes/webpty-proxy/internal/proxy"
	"github.com/PiranhaCodes/webpty-proxy/internal/pty"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		dir         string
		detectShell bool
	)

	cmd := &cobra.Command{
		Use:   "webpty-proxy [flags] [--] command [args...]",
		Short: "Bridge a PTY-attached command over stdio JSON messages",
		Long: `webpty-proxy starts the given command attached to a pseudo-terminal and
proxies the session over newline-delimited JSON messages on stdin/stdout.
Terminal payloads are base64-encoded. The final message reports how the
child terminated; the proxy itself exits 0 whenever the session ran to
completion.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			argv := stripSeparator(args)
			if len(argv) == 0 {
				if !detectShell {
					return fmt.Errorf("missing command to execute")
				}
				shell, err := pty.DetectShell()
				if err != nil {
					return err
				}
				argv = []string{shell}
			}
			return run(argv, dir)
		},
	}

	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVar(&dir, "dir", "", "working directory for the child command")
	cmd.Flags().BoolVar(&detectShell, "detect-shell", false, "launch the user's shell when no command is given")
	return cmd
}

// stripSeparator drops a conventional leading "--" that callers pass to
// mark the end of proxy arguments.
func stripSeparator(args []string) []string {
	if len(args) > 0 && args[0] == "--" {
		return args[1:]
	}
	return args
}

func run(argv []string, dir string) error {
	settings, err := config.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	logger, err := newLogger(settings.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sess, err := pty.Spawn(argv, pty.Options{
		Dir:  dir,
		Term: settings.Term,
		Cols: settings.Cols,
		Rows: settings.Rows,
	})
	if err != nil {
		return fmt.Errorf("spawn %q: %w", argv[0], err)
	}
	logger.Info("session started",
		zap.String("session", sess.ID),
		zap.String("command", argv[0]),
		zap.Int("pid", sess.Pid()),
	)

	relaySignals(sess, logger)

	proxy.Run(sess, os.Stdin, os.Stdout, proxy.Config{ReadBufferSize: settings.ReadBufferSize}, logger)
	return nil
}

// relaySignals forwards shutdown signals to the child so the session ends
// through the ordinary terminal path and the exit message reports how the
// child actually died.
func relaySignals(sess *pty.Session, logger *zap.Logger) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range ch {
			name := sig.String()
			if s, ok := sig.(syscall.Signal); ok {
				name = unix.SignalName(s)
			}
			logger.Debug("forwarding signal", zap.String("signal", name))
			if err := sess.Signal(sig); err != nil {
				logger.Debug("signal forward failed", zap.Error(err))
			}
		}
	}()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
