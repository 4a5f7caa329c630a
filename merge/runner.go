package merge

import (
	"context"
	"fmt"

	"github.com/minios-linux/rendezvous/discover"
	"github.com/minios-linux/rendezvous/stringsfile"
	"github.com/minios-linux/rendezvous/textenc"
	"github.com/minios-linux/rendezvous/tracker"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Runner merges a whole generated directory into a translations directory.
type Runner struct {
	FS      afero.Fs
	Tracker *tracker.Tracker
	Options discover.Options
	// Jobs bounds the number of pairs merged at once. Zero or one merges
	// sequentially.
	Jobs   int
	DryRun bool
	Logger *zerolog.Logger
}

type pair struct {
	source *stringsfile.File
	target *stringsfile.File
}

func (r *Runner) logger() zerolog.Logger {
	if r.Logger != nil {
		return *r.Logger
	}
	return log.Logger
}

// Run scans both directories, copies catalogs missing from language
// folders and merges every remaining pair. Per-file failures are recorded
// in the tracker and do not stop the run; the returned error is reserved
// for failures that prevent the run altogether, such as a missing root
// directory or a cancelled context.
func (r *Runner) Run(ctx context.Context, generatedDir, translationsDir string) error {
	if r.FS == nil {
		r.FS = afero.NewOsFs()
	}
	if r.Tracker == nil {
		r.Tracker = tracker.New()
	}
	logger := r.logger()

	plan, err := discover.Scan(r.FS, generatedDir, translationsDir, r.Options)
	if err != nil {
		return err
	}
	logger.Debug().
		Int("sources", len(plan.Sources)).
		Int("folders", len(plan.Folders)).
		Msg("Scanned")
	for _, f := range plan.Sources {
		if f.Encoding == textenc.Unknown {
			logger.Debug().Str("file", f.Path).Msg("Encoding undetermined, reading as UTF-8")
		}
	}

	for _, op := range plan.Missing() {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.copy(logger, op)
	}

	var pairs []pair
	for _, src := range plan.Sources {
		targets := plan.Matches(src)
		if len(targets) == 0 {
			continue
		}
		if err := src.Load(); err != nil {
			logger.Warn().Err(err).Str("file", src.Path).Msg("Cannot load source")
			for _, target := range targets {
				r.Tracker.TrackError(target.Path, fmt.Errorf("source %s: %w", src.Path, err))
			}
			continue
		}
		for _, target := range targets {
			pairs = append(pairs, pair{source: src, target: target})
		}
	}

	merger := New(r.Tracker, WithDryRun(r.DryRun), WithLogger(logger))
	if r.Jobs <= 1 {
		for _, p := range pairs {
			if err := ctx.Err(); err != nil {
				return err
			}
			r.mergePair(logger, merger, p)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Jobs)
	for _, p := range pairs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r.mergePair(logger, merger, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (r *Runner) copy(logger zerolog.Logger, op discover.CopyOp) {
	if r.DryRun {
		r.Tracker.TrackCopy(op.To)
		return
	}
	data, err := afero.ReadFile(r.FS, op.From)
	if err == nil {
		err = afero.WriteFile(r.FS, op.To, data, 0644)
	}
	if err != nil {
		logger.Error().Err(err).Str("file", op.To).Msg("Copy failed")
		r.Tracker.TrackError(op.To, fmt.Errorf("copying %s: %w", op.From, err))
		return
	}
	logger.Debug().Str("from", op.From).Str("file", op.To).Msg("Copied")
	r.Tracker.TrackCopy(op.To)
}

func (r *Runner) mergePair(logger zerolog.Logger, merger *Merger, p pair) {
	if p.target.Encoding == textenc.Unknown {
		logger.Debug().Str("file", p.target.Path).Msg("Encoding undetermined, reading as UTF-8")
	}
	if err := p.target.Load(); err != nil {
		logger.Warn().Err(err).Str("file", p.target.Path).Msg("Cannot load translation")
		r.Tracker.TrackError(p.target.Path, err)
		return
	}
	// Save failures are tracked by the merger.
	_, _ = merger.Merge(p.source, p.target)
}
