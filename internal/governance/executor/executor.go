// Package executor applies the side effect of a passed proposal. Each law kind
// maps to one Executor; the Dispatcher is assembled once at startup and is
// read-only afterwards.
package executor

import (
	"context"
	"fmt"
	"sort"

	"civitas/internal/governance/models"
	dErrors "civitas/pkg/domain-errors"
)

// Result describes an applied effect for resolution notes and audit.
type Result struct {
	Detail string
}

// Executor performs one external write for a passed proposal. Implementations
// must be idempotent on the proposal ID: a redispatch after a crash or a
// failed attempt may run the same proposal again.
type Executor interface {
	LawKind() models.LawKind
	Execute(ctx context.Context, p *models.Proposal) (Result, error)
}

// Func adapts a function to Executor.
type Func struct {
	Law models.LawKind
	Fn  func(ctx context.Context, p *models.Proposal) (Result, error)
}

func (f Func) LawKind() models.LawKind { return f.Law }

func (f Func) Execute(ctx context.Context, p *models.Proposal) (Result, error) {
	return f.Fn(ctx, p)
}

// Dispatcher routes a proposal to the executor registered for its law kind.
type Dispatcher struct {
	executors map[models.LawKind]Executor
}

// NewDispatcher registers executors, rejecting two for the same law kind.
func NewDispatcher(executors ...Executor) (*Dispatcher, error) {
	d := &Dispatcher{executors: make(map[models.LawKind]Executor, len(executors))}
	for _, e := range executors {
		law := e.LawKind()
		if _, exists := d.executors[law]; exists {
			return nil, fmt.Errorf("executor for %s already registered", law)
		}
		d.executors[law] = e
	}
	return d, nil
}

// Has reports whether law has an executor.
func (d *Dispatcher) Has(law models.LawKind) bool {
	_, ok := d.executors[law]
	return ok
}

// Laws lists the law kinds with executors, sorted.
func (d *Dispatcher) Laws() []models.LawKind {
	out := make([]models.LawKind, 0, len(d.executors))
	for law := range d.executors {
		out = append(out, law)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Dispatch runs the executor for p. Every failure, including a missing
// executor, comes back as CodeExecutionFailed.
func (d *Dispatcher) Dispatch(ctx context.Context, p *models.Proposal) (Result, error) {
	e, ok := d.executors[p.LawKind]
	if !ok {
		return Result{}, dErrors.New(dErrors.CodeExecutionFailed, "no executor registered for "+p.LawKind.String())
	}
	res, err := e.Execute(ctx, p)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeExecutionFailed) {
			return Result{}, err
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeExecutionFailed, p.LawKind.String()+" failed")
	}
	return res, nil
}
