// Command tapstream reads a TAP stream from a file or stdin and
// prints its parsed events and final summary.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/amarbel-llc/tapstream"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	jsonOut  bool
	strict   bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "tapstream [file]",
	Short: "Stream-parse a TAP (Test Anything Protocol) document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().BoolVar(&jsonOut, "json", false, "print one JSON-encoded event per line")
	rootCmd.Flags().BoolVar(&strict, "strict", false, "treat non-TAP input as a failure, as if pragma +strict preceded the stream")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "logger level (debug, info, warn, error); defaults to TAPSTREAM_LOG_LEVEL or warn")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveLogLevel() string {
	if logLevel != "" {
		return logLevel
	}
	if env := os.Getenv("TAPSTREAM_LOG_LEVEL"); env != "" {
		return env
	}
	return "warn"
}

func newLogger() (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.Set(resolveLogLevel()); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var in io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts := []tap.Option{tap.WithLogger(logger)}
	parser := tap.NewParser(opts...)
	if strict {
		parser.Ingest([]byte("pragma +strict\n"))
	}

	done := make(chan struct{})
	var summary *tap.Summary
	go func() {
		defer close(done)
		for ev := range parser.Events() {
			printEvent(ev)
			if ev.Type == tap.EventComplete {
				summary = ev.Complete
			}
		}
	}()

	buf := make([]byte, 64*1024)
readLoop:
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, readErr := in.Read(buf)
		if n > 0 {
			parser.Ingest(buf[:n])
		}
		switch {
		case readErr == io.EOF:
			break readLoop
		case readErr != nil:
			return readErr
		}
	}
	parser.End()
	<-done

	if summary == nil || !summary.OK {
		os.Exit(1)
	}
	return nil
}

func printEvent(ev tap.Event) {
	if jsonOut {
		b, err := json.Marshal(ev)
		if err != nil {
			return
		}
		fmt.Println(string(b))
		return
	}

	switch ev.Type {
	case tap.EventVersion:
		fmt.Printf("version %d\n", ev.Version)
	case tap.EventPlan:
		fmt.Printf("plan %d..%d\n", ev.Plan.Start, ev.Plan.End)
	case tap.EventAssert:
		status := "ok"
		if !ev.Assert.OK {
			status = "not ok"
		}
		fmt.Printf("%s %d %s\n", status, ev.Assert.ID, ev.Assert.Name)
	case tap.EventComment:
		fmt.Printf("# %s\n", ev.Comment)
	case tap.EventExtra:
		if n := len(ev.Extra); n > 0 && ev.Extra[n-1] == '\n' {
			fmt.Printf("extra: %s", ev.Extra)
		} else {
			fmt.Printf("extra: %s\n", ev.Extra)
		}
	case tap.EventChild:
		fmt.Printf("child spawned at depth %d\n", ev.Depth+1)
	case tap.EventBailout:
		fmt.Printf("bail out: %s\n", ev.Bailout)
	case tap.EventComplete:
		fmt.Printf("complete: ok=%v count=%d pass=%d fail=%d\n", ev.Complete.OK, ev.Complete.Count, ev.Complete.Pass, ev.Complete.Fail)
	}
}
