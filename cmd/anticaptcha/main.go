// Command anticaptcha is a manual test harness for the client: it prints the
// account balance and then solves the image given as argument.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/maumercado/anticaptcha-go/internal/config"
	"github.com/maumercado/anticaptcha-go/internal/logger"
	"github.com/maumercado/anticaptcha-go/internal/solver"
	"github.com/maumercado/anticaptcha-go/pkg/anticaptcha"
)

const defaultImage = "test1.jpg"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := config.Flags("anticaptcha")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	closeLog, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := solver.NewClient(cfg)
	if err != nil {
		return err
	}

	image := defaultImage
	if fs.NArg() > 0 {
		image = fs.Arg(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(out, "--- anticaptcha test ---")

	report(out, anticaptcha.MethodGetBalance, func() (any, error) {
		return client.GetBalance(ctx)
	})

	report(out, "imageToTextTask", func() (any, error) {
		f, err := os.Open(image)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return client.SolveReader(ctx, f, anticaptcha.WaitLogProcessing(true))
	})

	return nil
}

// report prints the call name and its result. Failures are printed, not
// returned, so every call runs.
func report(out io.Writer, name string, call func() (any, error)) {
	fmt.Fprintln(out, name)
	result, err := call()
	if err != nil {
		fmt.Fprintln(out, "error:", err)
		return
	}
	fmt.Fprintln(out, result)
}

func initLogger(cfg *config.Config) (func(), error) {
	if cfg.LogFile == "" {
		logger.InitWriter(cfg.LogLevel, true, os.Stderr)
		return func() {}, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger.InitWriter(cfg.LogLevel, false, f)
	return func() { _ = f.Close() }, nil
}
