// Command tmake converts the view templates under a template root into Go
// source, one file per template.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/gnituy18/tmake/internal/build"
	"github.com/gnituy18/tmake/internal/config"
	"github.com/gnituy18/tmake/internal/erb"
	"github.com/gnituy18/tmake/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, afero.NewOsFs(), os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, afs afero.Fs, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("tmake", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		configPath = flags.String("config", "", "config file (default "+config.DefaultFile+" when present)")
		root       = flags.String("root", "", "template root directory")
		out        = flags.String("out", "", "output directory for generated code")
		pkg        = flags.String("pkg", "", "package name of generated code")
		trim       = flags.String("trim", "", "trim mode: off, normal or strong")
		logLevel   = flags.String("log-level", "info", "log level: trace, debug, info, warn, error or off")
		logJSON    = flags.Bool("log-json", false, "log as JSON")
	)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	logger, err := logging.New(stderr, *logLevel, *logJSON)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	cfg, err := loadConfig(afs, *configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 2
	}
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "root":
			cfg.TemplateRoot = filepath.Clean(*root)
		case "out":
			cfg.OutputDir = filepath.Clean(*out)
		case "pkg":
			cfg.Package = *pkg
		case "trim":
			cfg.Trim, err = erb.ParseTrimMode(*trim)
		}
	})
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return 2
	}

	report, err := build.New(afs, cfg, logger).Run(ctx)
	if err != nil {
		logger.Error("build failed", "error", err)
		return 1
	}
	if report.Errors != nil {
		for _, err := range report.Errors.Errors {
			logger.Error("unit failed", "error", err)
		}
	}

	fmt.Fprintf(stdout, "%d units: %d generated, %d written, %d up to date, %d failed\n",
		report.Units, len(report.Generated), len(report.Written), len(report.UpToDate), report.Failed())
	return 0
}

// loadConfig reads path, or the default config file when path is empty and
// the file exists. With neither, it returns the defaults.
func loadConfig(afs afero.Fs, path string) (*config.Config, error) {
	if path != "" {
		return config.Load(afs, path)
	}
	cfg, err := config.Load(afs, config.DefaultFile)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}
