package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ejagojo/shipsafe/internal/baseline"
	"github.com/ejagojo/shipsafe/internal/gitx"
	"github.com/ejagojo/shipsafe/internal/logger"
	"github.com/ejagojo/shipsafe/internal/output"
	"github.com/ejagojo/shipsafe/internal/scanner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev" // Set by ldflags

const (
	exitClean       = 0
	exitFindings    = 1
	exitUsage       = 2
	exitInterrupted = 130
)

// exitWith is a function that can be replaced in tests
var exitWith = os.Exit

// usageError marks malformed invocations, which exit 2 with usage.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

type options struct {
	verbose        bool
	configPath     string
	format         string
	outputFile     string
	threads        int
	maxFileSize    int64
	noColor        bool
	noBaseline     bool
	updateBaseline bool
	gitStatus      bool
	progress       bool
	sniff          bool
	listRules      bool
}

type app struct {
	opts   options
	stdout io.Writer
	stderr io.Writer
	code   int
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shipsafe [path]",
		Short: "Scan your codebase for accidentally committed secrets",
		Long: `shipsafe walks a directory tree and flags text that looks like an API key,
password, private key or connection string. Matches are reported with masked
values so the report itself never leaks the secret.

Exit status is 0 when nothing was found and 1 when there are findings or the
path is invalid, so it can gate CI pipelines and pre-commit hooks.`,
		Example:       "  shipsafe /path/to/your/project\n  shipsafe --format sarif --out shipsafe.sarif .",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return usageError{err}
			}
			return nil
		},
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := output.ParseFormat(a.opts.format); err != nil {
				return usageError{err}
			}
			if a.opts.threads < 0 {
				return usageError{fmt.Errorf("--threads must not be negative")}
			}
			if cmd.Flags().Changed("max-file-size") && a.opts.maxFileSize <= 0 {
				return usageError{fmt.Errorf("--max-file-size must be positive")}
			}
			if a.opts.noBaseline && a.opts.updateBaseline {
				return usageError{fmt.Errorf("--no-baseline and --update-baseline are mutually exclusive")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			code, err := a.run(cmd, path)
			a.code = code
			return err
		},
	}

	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	f := cmd.Flags()
	f.BoolVarP(&a.opts.verbose, "verbose", "v", false, "show which files are being scanned, skipped or unreadable (on stderr)")
	f.StringVarP(&a.opts.configPath, "config", "c", scanner.DefaultConfigPath(), "path to configuration file")
	f.StringVarP(&a.opts.format, "format", "f", string(output.FormatText), "output format (text, table, json, sarif)")
	f.StringVarP(&a.opts.outputFile, "out", "o", "", "output file (default: stdout)")
	f.IntVar(&a.opts.threads, "threads", 0, "number of files scanned concurrently (default from config)")
	f.Int64Var(&a.opts.maxFileSize, "max-file-size", 0, "skip files larger than this many bytes (default from config)")
	f.BoolVar(&a.opts.noColor, "no-color", false, "disable coloured output")
	f.BoolVar(&a.opts.noBaseline, "no-baseline", false, "ignore baseline suppressions")
	f.BoolVar(&a.opts.updateBaseline, "update-baseline", false, "write every current finding to the baseline file and exit 0")
	f.BoolVar(&a.opts.gitStatus, "git-status", false, "annotate files with their git tracking status")
	f.BoolVar(&a.opts.progress, "progress", false, "show a progress spinner on stderr")
	f.BoolVar(&a.opts.sniff, "sniff", false, "skip files whose content looks binary")
	f.BoolVar(&a.opts.listRules, "list-rules", false, "print the active detection rules and exit")

	return cmd
}

func (a *app) run(cmd *cobra.Command, path string) (int, error) {
	noColor := a.opts.noColor || color.NoColor

	// A bad root is reported before anything else is loaded.
	var root string
	if !a.opts.listRules {
		var err error
		root, err = scanner.ResolveRoot(path)
		if err != nil {
			switch {
			case errors.Is(err, scanner.ErrRootNotExist):
				fmt.Fprintf(a.stdout, "Error: Path does not exist: %s\n", root)
			case errors.Is(err, scanner.ErrRootNotDir):
				fmt.Fprintf(a.stdout, "Error: Path is not a directory: %s\n", root)
			default:
				fmt.Fprintf(a.stdout, "Error: %v\n", err)
			}
			return exitFindings, nil
		}
	}

	config, err := a.loadConfig(cmd)
	if err != nil {
		return exitFindings, err
	}
	settings, err := config.Build()
	if err != nil {
		return exitFindings, err
	}

	if a.opts.listRules {
		return exitClean, output.ListRules(a.stdout, settings.Rules, noColor)
	}

	format, _ := output.ParseFormat(a.opts.format)

	if !format.Machine() {
		fmt.Fprintf(a.stdout, "\nScanning: %s\n", root)
		fmt.Fprintln(a.stdout, "This may take a moment for large projects...")
	}

	log := logger.New(a.stderr, a.opts.verbose)

	scanOpts := scanner.Options{Logger: log}
	var bar *progressbar.ProgressBar
	if a.opts.progress {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(a.stderr),
			progressbar.OptionSetDescription("Scanning files"),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
		scanOpts.OnFile = func(scanner.FileResult) { _ = bar.Add(1) }
	}

	results, err := scanner.New(settings, scanOpts).Run(cmd.Context(), root)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(a.stderr, "Interrupted")
			return exitInterrupted, nil
		}
		return exitFindings, fmt.Errorf("scan failed: %w", err)
	}
	log.WithFields(logrus.Fields{
		"scanned":    results.Scanned,
		"skipped":    results.Skipped,
		"unreadable": len(results.Unreadable),
	}).Debug("scan complete")

	if a.opts.updateBaseline {
		b := baseline.FromResults(results)
		if err := b.Save(root); err != nil {
			return exitFindings, err
		}
		fmt.Fprintf(a.stdout, "Baseline written to %s (%d findings)\n", baseline.Path(root), b.Len())
		return exitClean, nil
	}

	suppressed := 0
	if !a.opts.noBaseline {
		b, err := baseline.Load(root)
		if err != nil {
			return exitFindings, err
		}
		if b.Len() > 0 {
			results, suppressed = b.Filter(results)
			log.WithField("suppressed", suppressed).Debug("baseline applied")
		}
	}

	var status map[string]gitx.Status
	if a.opts.gitStatus {
		status, err = gitx.TrackedStatus(root)
		if err != nil {
			if !errors.Is(err, gitx.ErrNotRepository) {
				log.WithError(err).Warn("git status unavailable")
			}
			status = nil
		}
	}

	w := a.stdout
	if a.opts.outputFile != "" {
		f, err := os.Create(a.opts.outputFile)
		if err != nil {
			return exitFindings, fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
		noColor = true
	}

	code, err := output.Report(w, results, output.Options{
		Format:     format,
		NoColor:    noColor,
		Suppressed: suppressed,
		GitStatus:  status,
		Version:    version,
	})
	if err != nil {
		return exitFindings, fmt.Errorf("failed to write report: %w", err)
	}
	return code, nil
}

// loadConfig reads the config file and merges env and flags. An
// explicitly named config file must exist.
func (a *app) loadConfig(cmd *cobra.Command) (*scanner.Config, error) {
	if cmd.Flags().Changed("config") {
		if _, err := os.Stat(a.opts.configPath); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	config, err := scanner.LoadConfig(a.opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := map[string]interface{}{}
	if cmd.Flags().Changed("threads") {
		flags["threads"] = a.opts.threads
	}
	if cmd.Flags().Changed("max-file-size") {
		flags["max-file-size"] = a.opts.maxFileSize
	}
	if a.opts.sniff {
		flags["sniff"] = true
	}
	return scanner.MergeConfig(config, flags), nil
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		var uerr usageError
		if errors.As(err, &uerr) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			fmt.Fprint(stderr, cmd.UsageString())
			return exitUsage
		}

		errColor := color.New(color.FgRed)
		if a.opts.noColor {
			errColor.DisableColor()
		}
		errColor.Fprintf(stderr, "Error: %s\n", strings.TrimSpace(err.Error()))
		if a.code == exitClean {
			return exitFindings
		}
		return a.code
	}
	return a.code
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	exitWith(code)
}
