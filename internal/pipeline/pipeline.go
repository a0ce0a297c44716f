package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/sitekeeper/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the run state left by
// the previous ones.
type Step interface {
	// Do executes the step. Non-fatal problems are recorded in
	// run.Report and Do returns nil; a returned error stops the run.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging and issue records.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence. Cancellation is checked before each
// step; steps handle it themselves while running.
//
// A step error is recorded in the report as a fatal issue and stops the
// run; Execute returns it.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", err,
			)
			run.Report.AddIssue(model.Issue{
				Stage:  step.Name(),
				Kind:   model.KindFatal,
				Reason: "cancelled before start: " + err.Error(),
			})
			return err
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"site", run.Config.SiteDir,
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"site", run.Config.SiteDir,
				"error", err,
			)
			run.Report.AddIssue(model.Issue{
				Stage:  step.Name(),
				Kind:   model.KindFatal,
				Reason: err.Error(),
			})
			return err
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"site", run.Config.SiteDir,
		)
	}

	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
