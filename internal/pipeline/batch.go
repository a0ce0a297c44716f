package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/sitekeeper/internal/model"
	"github.com/nao1215/sitekeeper/internal/standardize"
	"github.com/nao1215/sitekeeper/internal/stylesheet"
	"golang.org/x/sync/errgroup"
)

// ErrPagePanic is stored as a page's error when standardizing it panicked.
var ErrPagePanic = errors.New("page processing panicked")

// PageResult is the outcome of processing one page.
// Exactly one of Result and Err is set.
type PageResult struct {
	// Name is the page name relative to the site root.
	Name string

	// Path is the page file path.
	Path string

	Result *standardize.Result
	Err    error
}

// Outcome converts the result to the report's page outcome.
func (r PageResult) Outcome() model.PageOutcome {
	if r.Err != nil || r.Result == nil {
		return model.PageOutcome{Name: r.Name, Status: model.PageFailed}
	}
	return r.Result.Outcome()
}

// BatchProcessor standardizes the pages of one run.
//
// With a concurrency of 1 each page is read, standardized and written
// before the next one starts. With more, pages are prepared in parallel,
// their styles are registered in page order, then they are rendered and
// written in parallel. Registration order is the page order in both
// modes, so the accumulator and every written page are identical.
type BatchProcessor struct {
	std         *standardize.Standardizer
	concurrency int
	logger      *slog.Logger

	// dryRun keeps every result in memory and writes nothing.
	dryRun bool
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of pages processed at once.
// Default is 1.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithDryRun disables writing pages back.
func WithDryRun(dryRun bool) BatchOption {
	return func(b *BatchProcessor) {
		b.dryRun = dryRun
	}
}

// NewBatchProcessor creates a BatchProcessor around std.
func NewBatchProcessor(std *standardize.Standardizer, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		std:         std,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// Concurrency returns the configured page parallelism.
func (bp *BatchProcessor) Concurrency() int {
	return bp.concurrency
}

// ProcessPages standardizes the pages at paths, naming them relative to
// root, and registers their styles in acc. Results are returned in the
// order of paths. Page errors are stored in the results; the returned
// error is non-nil only when ctx is cancelled.
func (bp *BatchProcessor) ProcessPages(ctx context.Context, root string, paths []string, acc *stylesheet.Accumulator) ([]PageResult, error) {
	bp.logger.Info("processing pages",
		"total_pages", len(paths),
		"concurrency", bp.concurrency,
		"dry_run", bp.dryRun,
	)
	startTime := time.Now()

	results := make([]PageResult, len(paths))
	for i, path := range paths {
		results[i] = PageResult{Name: pageName(root, path), Path: path}
	}

	var err error
	if bp.concurrency <= 1 || len(paths) <= 1 {
		err = bp.sequential(ctx, root, results, acc)
	} else {
		err = bp.parallel(ctx, root, results, acc)
	}

	bp.logger.Info("page processing complete",
		"total_pages", len(paths),
		"elapsed", time.Since(startTime),
	)
	return results, err
}

func (bp *BatchProcessor) sequential(ctx context.Context, root string, results []PageResult, acc *stylesheet.Accumulator) error {
	for i := range results {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := &results[i]
		page, err := readPage(r.Path, root)
		if err != nil {
			bp.fail(r, err)
			continue
		}
		var res *standardize.Result
		err = recoverPage(func() (err error) {
			res, err = bp.std.Standardize(ctx, page, acc, i)
			return err
		})
		if err != nil {
			bp.fail(r, err)
			continue
		}
		bp.commit(r, res)
	}
	return nil
}

func (bp *BatchProcessor) parallel(ctx context.Context, root string, results []PageResult, acc *stylesheet.Accumulator) error {
	docs := make([]*standardize.Document, len(results))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)
	for i := range results {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := &results[i]
			page, err := readPage(r.Path, root)
			if err != nil {
				bp.fail(r, err)
				return nil
			}
			var d *standardize.Document
			err = recoverPage(func() (err error) {
				d, err = bp.std.Prepare(gctx, page)
				return err
			})
			if err != nil {
				bp.fail(r, err)
				return nil
			}
			docs[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, d := range docs {
		if d == nil {
			continue
		}
		if err := recoverPage(func() error { return bp.std.Register(d, acc, i) }); err != nil {
			bp.fail(&results[i], err)
			docs[i] = nil
		}
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)
	for i, d := range docs {
		if d == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var res *standardize.Result
			err := recoverPage(func() (err error) {
				res, err = bp.std.Apply(gctx, d)
				return err
			})
			if err != nil {
				bp.fail(&results[i], err)
				return nil
			}
			bp.commit(&results[i], res)
			return nil
		})
	}
	return g.Wait()
}

// commit writes res unless this is a dry run and stores it in r.
// A write failure turns the page into a failed page.
func (bp *BatchProcessor) commit(r *PageResult, res *standardize.Result) {
	if !bp.dryRun {
		if err := standardize.Commit(res); err != nil {
			bp.fail(r, err)
			return
		}
	}
	r.Result = res
	bp.logger.Debug("page done",
		"page", r.Name,
		"changed", res.Changed,
	)
}

func (bp *BatchProcessor) fail(r *PageResult, err error) {
	r.Err = err
	bp.logger.Warn("page skipped",
		"page", r.Name,
		"error", err,
	)
}

// recoverPage runs fn and turns a panic into an ErrPagePanic error, so
// one page cannot take the whole run down.
func recoverPage(fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%w: %v", ErrPagePanic, v)
		}
	}()
	return fn()
}

func readPage(path, root string) (*model.Page, error) {
	content, err := os.ReadFile(path) //nolint:gosec // pages are listed from the site directory
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	return model.NewPage(path, root, content), nil
}

// pageName names a page the way model.NewPage does, for pages that
// could not be read.
func pageName(root, path string) string {
	if root != "" {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.Base(path)
}
