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

package streamagg

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rulego/streamagg/aggregates"
	"github.com/rulego/streamagg/column"
	"github.com/rulego/streamagg/logger"
	"github.com/rulego/streamagg/sink"
	"github.com/rulego/streamagg/types"
	"github.com/rulego/streamagg/utils/table"
)

// Streamagg builds groupby sinks with shared logging, branch count and
// result callbacks.
type Streamagg struct {
	log      logger.Logger
	level    *logger.Level
	out      io.Writer
	branches int
	registry *aggregates.Registry

	mu    sync.RWMutex
	sinks []func(*sink.Result)
}

// New 创建Streamagg实例
//
// 示例:
//
//	sa := streamagg.New(streamagg.WithBranches(8), streamagg.WithLogLevel(logger.DEBUG))
//	res, err := sa.Aggregate(ctx, cfg, chunks)
func New(options ...Option) *Streamagg {
	s := &Streamagg{out: os.Stdout}
	for _, option := range options {
		option(s)
	}
	if s.log == nil {
		s.log = logger.GetDefault()
	}
	if s.level != nil {
		s.log.SetLevel(*s.level)
	}
	return s
}

// Logger returns the logger handed to every sink.
func (s *Streamagg) Logger() logger.Logger { return s.log }

// GroupBy creates a sink for cfg. A branch count set with WithBranches
// overrides cfg.Branches.
func (s *Streamagg) GroupBy(cfg types.Config) (*sink.Sink, error) {
	if s.branches > 0 {
		cfg.Branches = s.branches
	}
	opts := []sink.Option{sink.WithLogger(s.log)}
	if s.registry != nil {
		opts = append(opts, sink.WithRegistry(s.registry))
	}
	return sink.New(cfg, opts...)
}

// Aggregate runs cfg over chunks, chunk i on branch i modulo the branch
// count, and finalizes. Registered sinks receive the result before it is
// returned.
func (s *Streamagg) Aggregate(ctx context.Context, cfg types.Config, chunks []column.Chunk) (*sink.Result, error) {
	sk, err := s.GroupBy(cfg)
	if err != nil {
		return nil, err
	}
	if err := sk.RunChunks(ctx, chunks); err != nil {
		return nil, err
	}
	return s.finish(sk)
}

// AggregateStream runs cfg over chunks read from ch until ch is closed.
func (s *Streamagg) AggregateStream(ctx context.Context, cfg types.Config, ch <-chan column.Chunk) (*sink.Result, error) {
	sk, err := s.GroupBy(cfg)
	if err != nil {
		return nil, err
	}
	if err := sk.Run(ctx, ch); err != nil {
		return nil, err
	}
	return s.finish(sk)
}

func (s *Streamagg) finish(sk *sink.Sink) (*sink.Result, error) {
	res, err := sk.Finalize()
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	sinks := make([]func(*sink.Result), len(s.sinks))
	copy(sinks, s.sinks)
	s.mu.RUnlock()
	for _, fn := range sinks {
		fn(res)
	}
	return res, nil
}

// AddSink 添加结果处理函数，每次聚合完成后按注册顺序调用
//
// 示例:
//
//	sa.AddSink(func(res *sink.Result) {
//	    for _, row := range res.Maps() {
//	        sendToQueue(row)
//	    }
//	})
func (s *Streamagg) AddSink(fn func(*sink.Result)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, fn)
}

// PrintTable prints every result as a table to the configured output.
//
//	+--------+------------------+
//	| device | temperature_mean |
//	+--------+------------------+
//	| aa     | 20               |
//	| bb     | 2                |
//	+--------+------------------+
//	(2 rows)
func (s *Streamagg) PrintTable() {
	s.AddSink(func(res *sink.Result) {
		table.PrintResult(s.out, res)
	})
}
