package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nlemus/solarb/internal/logger"
)

// Runner is a long-running component driven by a context.
type Runner interface {
	Run(ctx context.Context) error
}

// Pipeline ties the scanner, engine and executor together and runs them
// until the context is cancelled. Extra runners (store maintenance and
// similar background loops) are supervised alongside the core stages.
type Pipeline struct {
	scanner  *Scanner
	engine   *Engine
	executor *Executor
	reporter Reporter
	extras   []Runner
	log      logger.LoggerInterface
}

// NewPipeline assembles a pipeline from already-wired stages.
func NewPipeline(scanner *Scanner, engine *Engine, executor *Executor, reporter Reporter, log logger.LoggerInterface, extras ...Runner) *Pipeline {
	return &Pipeline{
		scanner:  scanner,
		engine:   engine,
		executor: executor,
		reporter: reporter,
		extras:   extras,
		log:      log,
	}
}

// Run starts every stage and blocks until the context is cancelled or a
// stage fails. A single stage failure tears down the whole pipeline.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.reporter != nil {
		if err := p.reporter.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := p.reporter.Stop(); err != nil {
				p.log.Warn(ctx, "reporter stop failed", "error", err)
			}
		}()
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return p.scanner.Run(ctx) })
	g.Go(func() error { return p.engine.Run(ctx) })
	g.Go(func() error { return p.executor.Run(ctx) })
	for _, extra := range p.extras {
		extra := extra
		g.Go(func() error { return extra.Run(ctx) })
	}

	p.log.Info(ctx, "pipeline started", "stages", 3+len(p.extras))
	return g.Wait()
}
