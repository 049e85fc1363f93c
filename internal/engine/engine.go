// Package engine is the entry point for running suites. It owns the suite
// catalog, the executor and the in-memory history of one process, and
// exposes the operations callers use: run the default or a named suite,
// create and list suites, read history and statistics, and validate a single
// output in isolation.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ariel-frischer/pipecheck/internal/executor"
	"github.com/ariel-frischer/pipecheck/internal/history"
	"github.com/ariel-frischer/pipecheck/internal/pipeline"
	"github.com/ariel-frischer/pipecheck/internal/suite"
	"github.com/ariel-frischer/pipecheck/internal/validation"
)

// ErrSuiteNotFound is returned by RunNamed and Suite for unknown suite ids.
var ErrSuiteNotFound = suite.ErrSuiteNotFound

// Recorder receives every finished execution, e.g. to persist it.
type Recorder interface {
	Record(exec *pipeline.Execution) (string, error)
}

// Engine runs suites and keeps their history. It is safe for concurrent use.
type Engine struct {
	builder   *suite.Builder
	catalog   *suite.Catalog
	executor  *executor.Executor
	validator *validation.Validator
	history   *history.Log
	recorders []Recorder
	logger    *slog.Logger

	defaultSuite *pipeline.Suite
}

type options struct {
	executorOpts []executor.Option
	builderOpts  []suite.BuilderOption
	historyLimit int
	recorders    []Recorder
	logger       *slog.Logger
}

// Option is a functional option for configuring an Engine.
type Option func(*options)

// WithExecutorOptions passes options through to the executor.
func WithExecutorOptions(opts ...executor.Option) Option {
	return func(o *options) {
		o.executorOpts = append(o.executorOpts, opts...)
	}
}

// WithBuilderOptions passes options through to the suite builder.
func WithBuilderOptions(opts ...suite.BuilderOption) Option {
	return func(o *options) {
		o.builderOpts = append(o.builderOpts, opts...)
	}
}

// WithHistoryLimit bounds the in-memory history. Zero or less uses
// history.DefaultLimit.
func WithHistoryLimit(n int) Option {
	return func(o *options) {
		o.historyLimit = n
	}
}

// WithRecorder adds a recorder that receives every finished execution.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorders = append(o.recorders, r)
		}
	}
}

// WithLogger sets the logger used by the engine and its executor.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// New creates an Engine and registers the default suite in its catalog.
func New(opts ...Option) *Engine {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	catalog := suite.NewCatalog()
	builder := suite.NewBuilder(catalog, o.builderOpts...)

	execOpts := append([]executor.Option{executor.WithLogger(o.logger)}, o.executorOpts...)

	e := &Engine{
		builder:   builder,
		catalog:   catalog,
		executor:  executor.New(execOpts...),
		validator: validation.New(),
		history:   history.NewLog(o.historyLimit),
		recorders: o.recorders,
		logger:    o.logger.With("component", "engine"),
	}
	e.defaultSuite = builder.BuildDefault()
	return e
}

// DefaultSuite returns the default six-phase suite of this engine.
func (e *Engine) DefaultSuite() *pipeline.Suite {
	return e.defaultSuite
}

// RunDefault runs the default suite.
func (e *Engine) RunDefault(ctx context.Context) *pipeline.Execution {
	return e.Run(ctx, e.defaultSuite)
}

// RunNamed runs the suite registered under suiteID.
func (e *Engine) RunNamed(ctx context.Context, suiteID string) (*pipeline.Execution, error) {
	s, err := e.catalog.Get(suiteID)
	if err != nil {
		return nil, fmt.Errorf("running suite: %w", err)
	}
	return e.Run(ctx, s), nil
}

// Run executes s, appends the result to history and hands it to every
// recorder. Recorder failures are logged and otherwise ignored.
func (e *Engine) Run(ctx context.Context, s *pipeline.Suite) *pipeline.Execution {
	exec := e.executor.Execute(ctx, s)
	e.history.Append(exec)

	for _, r := range e.recorders {
		if _, err := r.Record(exec); err != nil {
			e.logger.Warn("failed to record execution", "execution", exec.ID, "error", err)
		}
	}
	return exec
}

// CreateSuite builds and registers a custom suite.
func (e *Engine) CreateSuite(name, description string, phases []pipeline.Phase, steps []pipeline.Step) (*pipeline.Suite, error) {
	return e.builder.BuildCustom(name, description, phases, steps)
}

// CreateSuiteFromDefinition builds and registers a suite from a parsed
// definition file.
func (e *Engine) CreateSuiteFromDefinition(def *suite.Definition) (*pipeline.Suite, error) {
	return def.Build(e.builder)
}

// ListSuites returns every registered suite in creation order.
func (e *Engine) ListSuites() []*pipeline.Suite {
	return e.catalog.List()
}

// Suite returns the suite registered under id.
func (e *Engine) Suite(id string) (*pipeline.Suite, error) {
	return e.catalog.Get(id)
}

// History returns up to limit executions, most recent first. A limit of
// zero or less returns everything held.
func (e *Engine) History(limit int) []*pipeline.Execution {
	return e.history.Recent(limit)
}

// Statistics summarises the executions in history. It is computed on every
// call.
func (e *Engine) Statistics() history.Statistics {
	return e.history.Statistics()
}

// ValidateOutput judges output against step's phase and criteria without
// running anything.
func (e *Engine) ValidateOutput(step pipeline.Step, output pipeline.Output) pipeline.Verdict {
	return e.validator.Validate(step, output)
}
