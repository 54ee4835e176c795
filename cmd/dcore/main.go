package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flavioheleno/dcore/internal/errors"
	"github.com/flavioheleno/dcore/internal/logx"
)

var rootCmd = &cobra.Command{
	Use:              filepath.Base(os.Args[0]),
	Short:            "dcore drives e-paper, OLED and LCD panels",
	Long:             `dcore shows the image files named in its configuration on attached display panels, refreshing each screen at its own frame rate`,
	SilenceUsage:     true,
	SilenceErrors:    true,
	TraverseChildren: true,
	Args:             cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(runFunc)
	},
}

func init() {
	cobra.EnablePrefixMatching = true
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFlag, `config`, `c`, `config.yaml`, "screen `file` (yaml)")
	pf.StringVar(&profilesFlag, `profiles`, ``, "extra display profiles `file` (yaml), merged over the builtin catalog")
	pf.StringVar(&logLevelFlag, `log-level`, `info`, "`level`: debug, info, warn or error")
	pf.StringVar(&logFormatFlag, `log-format`, `text`, "`format`: text or json")
	pf.StringVarP(&logFileFlag, `log-file`, `l`, ``, "also append logs to `file`")
	pf.BoolVarP(&debugFlag, `debug`, `d`, false, `print error stacks`)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	configFlag    string
	profilesFlag  string
	logLevelFlag  string
	logFormatFlag string
	logFileFlag   string
	debugFlag     bool
)

type command func(ctx context.Context, logger logx.LoggerProvider) error

// run executes fn with a context canceled on SIGINT or SIGTERM and exits the
// process: 0 on success or signal, 1 on error.
func run(fn command) {
	exitCode := 0
	defer func() { os.Exit(exitCode) }()

	logger, closeLog, err := newLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitCode = 1
		return
	}
	defer closeLog()
	prov := logx.Prov(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if fn == nil {
		err = errors.New(`dcore: nil command`)
	} else {
		err = fn(ctx, prov)
	}
	if err == nil {
		return
	}
	logx.IsErr(err, prov, slog.LevelError)
	exitCode = 1
	if stack, ok := errors.Stack(err); debugFlag && ok {
		fmt.Fprintln(os.Stderr, "\n"+stack)
	}
}

// newLogger writes to stderr and, with --log-file, to the file as well.
func newLogger() (*slog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closeLog := func() {}
	if len(logFileFlag) > 0 {
		f, err := os.OpenFile(logFileFlag, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, errors.New(err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closeLog = func() { _ = f.Close() }
	}
	level := logLevelFlag
	if debugFlag {
		level = `debug`
	}
	logger, err := logx.New(w, level, logFormatFlag)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return logger, closeLog, nil
}
