/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sink

import (
	"context"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/rulego/streamagg/aggregates"
	"github.com/rulego/streamagg/column"
	"github.com/rulego/streamagg/logger"
	"github.com/rulego/streamagg/types"
)

// ErrFinalized is returned when a finalized sink is fed or finalized again.
var ErrFinalized = errors.New("sink already finalized")

// Option configures a Sink.
type Option func(*Sink)

// WithLogger sets the logger used by the sink instead of the global default.
func WithLogger(log logger.Logger) Option {
	return func(s *Sink) {
		s.log = log
	}
}

// WithRegistry resolves the aggregate from r instead of the global registry.
func WithRegistry(r *aggregates.Registry) Option {
	return func(s *Sink) {
		s.registry = r
	}
}

// Sink is a groupby sink computing one aggregate per group key across
// several execution branches.
type Sink struct {
	cfg      types.Config
	kind     aggregates.Kind
	dtype    aggregates.Kind
	physical bool
	registry *aggregates.Registry
	program  *vm.Program
	log      logger.Logger

	route    route
	branches []*Branch

	mu        sync.Mutex
	finalized bool
}

// New validates cfg and prepares a sink with cfg.Branches branches.
func New(cfg types.Config, opts ...Option) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kind, err := cfg.AccumulatorKind()
	if err != nil {
		return nil, err
	}
	s := &Sink{cfg: cfg, kind: kind}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.GetDefault()
	}

	// probe once so a bad aggregate/kind pair fails here and not per group
	probe, err := s.create()
	if err != nil {
		return nil, err
	}
	s.dtype = probe.DType()
	s.physical = probe.HasPhysicalAgg()

	if cfg.Expr != "" {
		program, err := expr.Compile(cfg.Expr, expr.AllowUndefinedVariables())
		if err != nil {
			return nil, errors.Wrapf(err, "compile expr %q", cfg.Expr)
		}
		s.program = program
		s.cfg.Channel = types.ChannelDynamic
	}

	s.branches = make([]*Branch, cfg.Branches)
	for i := range s.branches {
		s.branches[i] = newBranch(i, s)
	}
	s.log.Debug("groupby %s: %s<%s> over %d branches, channel %s", cfg.Name, cfg.Aggregate, kind, cfg.Branches, s.cfg.Channel)
	return s, nil
}

func (s *Sink) create() (aggregates.AggregateFn, error) {
	if s.registry != nil {
		return s.registry.New(s.cfg.Aggregate, s.kind)
	}
	return aggregates.New(s.cfg.Aggregate, s.kind)
}

// newAgg creates a slot accumulator. The pair was validated in New.
func (s *Sink) newAgg() aggregates.AggregateFn {
	fn, err := s.create()
	if err != nil {
		panic(errors.Wrap(err, "aggregate constructor failed after validation"))
	}
	return fn
}

func (s *Sink) eval(env map[string]interface{}) (interface{}, error) {
	return expr.Run(s.program, env)
}

// DType is the kind of the output column, known before any value is finalized.
func (s *Sink) DType() aggregates.Kind { return s.dtype }

// Config returns the configuration the sink was built with.
func (s *Sink) Config() types.Config { return s.cfg }

// Channel reports the ingestion channel once the first chunk fixed it.
func (s *Sink) Channel() (types.Channel, bool) {
	return s.route.current()
}

// Branches returns the number of execution branches.
func (s *Sink) Branches() int { return len(s.branches) }

// Branch returns branch i. The caller must not drive one branch from two
// goroutines at once.
func (s *Sink) Branch(i int) *Branch { return s.branches[i] }

func (s *Sink) isFinalized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}

// Run feeds chunks from ch until it is closed. Every branch pulls from ch in
// its own goroutine. A branch stops at its first error; the others keep going.
func (s *Sink) Run(ctx context.Context, ch <-chan column.Chunk) error {
	return s.parallel(ctx, func(ctx context.Context, b *Branch) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case chunk, ok := <-ch:
				if !ok {
					return nil
				}
				if err := b.Sink(chunk); err != nil {
					return err
				}
			}
		}
	})
}

// RunChunks feeds chunks with chunk i assigned to branch i modulo Branches.
func (s *Sink) RunChunks(ctx context.Context, chunks []column.Chunk) error {
	n := len(s.branches)
	return s.parallel(ctx, func(ctx context.Context, b *Branch) error {
		for i := b.id; i < len(chunks); i += n {
			if ctx.Err() != nil {
				return nil
			}
			if err := b.Sink(chunks[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Sink) parallel(ctx context.Context, work func(context.Context, *Branch) error) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, b := range s.branches {
		wg.Add(1)
		go func(b *Branch) {
			defer wg.Done()
			s.log.Debug("groupby %s: branch %d started", s.cfg.Name, b.id)
			if err := work(ctx, b); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, errors.Wrapf(err, "branch %d", b.id))
				mu.Unlock()
			}
			s.log.Debug("groupby %s: branch %d done, %d chunks %d rows %d groups", s.cfg.Name, b.id, b.chunks, b.rows, b.groups)
		}(b)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return multierr.Append(err, errs)
	}
	return errs
}

// Stats summarises what the branches have seen so far. Only call it while
// no branch is running.
type Stats struct {
	Branches int
	Chunks   int
	Rows     int
	Partials int
	// ExprMisses counts rows the value expression failed on.
	ExprMisses int
}

func (s *Sink) Stats() Stats {
	st := Stats{Branches: len(s.branches)}
	for _, b := range s.branches {
		st.Chunks += b.chunks
		st.Rows += b.rows
		st.Partials += b.groups
		st.ExprMisses += b.exprMiss
	}
	return st
}

// Finalize combines the partial accumulators of every branch per key and
// returns one row per group. It may only be called once, after every branch
// has stopped.
func (s *Sink) Finalize() (*Result, error) {
	s.mu.Lock()
	if s.finalized {
		s.mu.Unlock()
		return nil, ErrFinalized
	}
	s.finalized = true
	s.mu.Unlock()

	merged := make(map[string]*slot)
	var order []*slot
	for _, b := range s.branches {
		b.slots(func(sl *slot) {
			if base, ok := merged[sl.enc]; ok {
				base.agg.Combine(sl.agg)
				return
			}
			merged[sl.enc] = sl
			order = append(order, sl)
		})
	}
	if len(s.cfg.GroupBy) == 0 && len(order) == 0 {
		// a global aggregate always yields one row
		order = append(order, &slot{agg: s.newAgg()})
	}

	res := &Result{
		Keys:   append([]string(nil), s.cfg.GroupBy...),
		Output: s.cfg.OutputName(),
		DType:  s.dtype,
		Rows:   make([]Row, 0, len(order)),
	}
	for _, sl := range order {
		res.Rows = append(res.Rows, Row{Key: sl.key, Value: sl.agg.Finalize()})
	}
	res.sort()

	st := s.Stats()
	s.log.Info("groupby %s: %d groups from %d partials across %d branches (%d rows)", s.cfg.Name, len(res.Rows), st.Partials, st.Branches, st.Rows)
	return res, nil
}
