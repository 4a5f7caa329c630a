// rendezvous merges translated .strings catalogs with freshly generated ones.
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

	"github.com/fatih/color"
	"github.com/minios-linux/rendezvous/config"
	"github.com/minios-linux/rendezvous/discover"
	"github.com/minios-linux/rendezvous/i18n"
	"github.com/minios-linux/rendezvous/merge"
	"github.com/minios-linux/rendezvous/report"
	"github.com/minios-linux/rendezvous/stringsfile"
	"github.com/minios-linux/rendezvous/tracker"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errFilesFailed makes the process exit non-zero after the report has
// been printed.
var errFilesFailed = errors.New("some files could not be merged")

// ---------------------------------------------------------------------------
// Flags
// ---------------------------------------------------------------------------

type options struct {
	configPath   string
	reporter     string
	groupBy      string
	color        string
	folderSuffix string
	extension    string
	jobs         int
	strict       bool
	dryRun       bool
	verbose      bool
}

func bindFlags(fs *pflag.FlagSet, o *options) {
	d := config.Default()
	fs.StringVar(&o.configPath, "config", "", "Config file (default ./"+config.FileName+" when present)")
	fs.StringVarP(&o.reporter, "reporter", "r", d.Reporter, "Report format: pretty, json")
	fs.StringVar(&o.groupBy, "group-by", d.GroupBy, "Group changes per file: none, kind")
	fs.StringVar(&o.color, "color", d.Color, "Colorize the pretty report: auto, always, never")
	fs.StringVar(&o.folderSuffix, "folder-suffix", d.FolderSuffix, "Suffix of language folders")
	fs.StringVar(&o.extension, "extension", d.Extension, "Extension of catalog files")
	fs.IntVarP(&o.jobs, "jobs", "j", d.Jobs, "Number of files merged in parallel")
	fs.BoolVar(&o.strict, "strict", false, "Fail files containing malformed entries instead of skipping them")
	fs.BoolVarP(&o.dryRun, "dry-run", "n", false, "Report changes without writing any file")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "Log every decision")
}

// settings merges the config file and the flags that were set explicitly.
func (o *options) settings(fs afero.Fs, flags *pflag.FlagSet, args []string) (*config.File, error) {
	var (
		cfg *config.File
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(fs, o.configPath)
	} else {
		cfg, err = config.Load(fs, ".")
	}
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}

	if flags.Changed("reporter") {
		cfg.Reporter = o.reporter
	}
	if flags.Changed("group-by") {
		cfg.GroupBy = o.groupBy
	}
	if flags.Changed("color") {
		cfg.Color = o.color
	}
	if flags.Changed("folder-suffix") {
		cfg.FolderSuffix = o.folderSuffix
	}
	if flags.Changed("extension") {
		cfg.Extension = o.extension
	}
	if flags.Changed("jobs") {
		cfg.Jobs = o.jobs
	}
	if flags.Changed("strict") {
		cfg.Strict = o.strict
	}
	if len(args) == 2 {
		cfg.GeneratedDir, cfg.TranslationsDir = args[0], args[1]
	}

	if cfg.GeneratedDir == "" || cfg.TranslationsDir == "" {
		return nil, fmt.Errorf("missing <generated_dir> and <translations_dir> (pass them as arguments or set them in %s)", config.FileName)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func useColor(mode string) bool {
	switch strings.ToLower(mode) {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	return !color.NoColor
}

func setupLogging(w io.Writer, verbose bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: color.NoColor}).
		Level(level).
		With().Timestamp().Logger()
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

type app struct {
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer
}

func (a *app) newRootCmd() *cobra.Command {
	var o options
	root := &cobra.Command{
		Use:   "rendezvous [flags] <generated_dir> <translations_dir>",
		Short: i18n.T("Merge .strings translations with freshly generated files"),
		Long: `rendezvous brings the translated .strings files of every <lang>.lproj
folder in line with the freshly generated ones.

Keys that disappeared from the generated files are deleted, new keys are
added with the generated value as placeholder and developer comments are
refreshed. Existing translations are never overwritten.

Generated files missing from a language folder are copied verbatim.

Example:
  rendezvous --reporter json ./GeneratedStrings ./Translations`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected <generated_dir> <translations_dir>, got %d argument(s)", len(args))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(a.stderr, o.verbose)
			cfg, err := o.settings(a.fs, cmd.Flags(), args)
			if err != nil {
				return err
			}
			return a.run(cmd.Context(), cfg, o.dryRun)
		},
	}
	bindFlags(root.Flags(), &o)

	root.AddCommand(a.newVersionCmd())
	return root
}

func (a *app) run(ctx context.Context, cfg *config.File, dryRun bool) error {
	grouping, err := report.ParseGrouping(cfg.GroupBy)
	if err != nil {
		return err
	}
	renderer, err := report.New(cfg.Reporter, grouping, useColor(cfg.Color))
	if err != nil {
		return err
	}

	policy := stringsfile.SkipMalformed
	if cfg.Strict {
		policy = stringsfile.RejectMalformed
	}
	t := tracker.New()
	runner := &merge.Runner{
		FS:      a.fs,
		Tracker: t,
		Options: discover.Options{FolderSuffix: cfg.FolderSuffix, Extension: cfg.Extension, Policy: policy},
		Jobs:    cfg.Jobs,
		DryRun:  dryRun,
	}

	log.Debug().
		Str("generated", cfg.GeneratedDir).
		Str("translations", cfg.TranslationsDir).
		Int("jobs", cfg.Jobs).
		Bool("dry_run", dryRun).
		Msg("Starting merge")

	if err := runner.Run(ctx, cfg.GeneratedDir, cfg.TranslationsDir); err != nil {
		return err
	}

	snap := t.Snapshot()
	if err := renderer.Render(a.stdout, snap); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	updated, failed := len(snap.Changes), len(snap.Errors)
	log.Info().
		Int("copied", len(snap.Copied)).
		Msgf(i18n.N("%d file updated", "%d files updated", updated), updated)
	if failed > 0 {
		log.Error().Err(t.Err()).Msgf(i18n.N("%d file failed", "%d files failed", failed), failed)
		return errFilesFailed
	}
	return nil
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: i18n.T("Print version information"),
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "rendezvous version %s\n", version)
			fmt.Fprintf(a.stdout, "  commit:    %s\n", commit)
			fmt.Fprintf(a.stdout, "  built:     %s\n", date)
			if langs := i18n.Languages(); len(langs) > 0 {
				fmt.Fprintf(a.stdout, "  locales:   %s\n", strings.Join(langs, ", "))
			}
		},
	}
}

func main() {
	i18n.Init("")
	setupLogging(os.Stderr, false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{fs: afero.NewOsFs(), stdout: os.Stdout, stderr: os.Stderr}
	err := a.newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errFilesFailed) {
			log.Error().Err(err).Msg("rendezvous failed")
		}
		os.Exit(1)
	}
}
