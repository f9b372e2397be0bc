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
	"io"

	"github.com/rulego/streamagg/aggregates"
	"github.com/rulego/streamagg/logger"
)

// Option 表示对Streamagg默认行为的修改配置。
type Option func(*Streamagg)

// WithLogger 设置自定义日志记录器，替代全局默认日志记录器。
//
// 示例:
//
//	customLogger := logger.NewLogger(logger.DEBUG, os.Stderr)
//	sa := streamagg.New(WithLogger(customLogger))
func WithLogger(log logger.Logger) Option {
	return func(s *Streamagg) {
		s.log = log
	}
}

// WithLogLevel 设置日志级别。
// 未指定日志记录器时作用于全局默认日志记录器。
//
// 参数:
//   - level: 日志级别，可选值：DEBUG, INFO, WARN, ERROR, OFF
func WithLogLevel(level logger.Level) Option {
	return func(s *Streamagg) {
		s.level = &level
	}
}

// WithLogOutput 设置日志输出目标。
//
// 示例:
//
//	logFile, _ := os.OpenFile("streamagg.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
//	sa := streamagg.New(WithLogOutput(logFile, logger.INFO))
func WithLogOutput(output io.Writer, level logger.Level) Option {
	return func(s *Streamagg) {
		s.log = logger.NewLogger(level, output)
	}
}

// WithDiscardLog 禁用所有日志输出。
func WithDiscardLog() Option {
	return func(s *Streamagg) {
		s.log = logger.NewDiscardLogger()
	}
}

// WithBranches 设置每个sink的执行分支数，覆盖配置中的branches。
// n小于1时忽略。
func WithBranches(n int) Option {
	return func(s *Streamagg) {
		if n > 0 {
			s.branches = n
		}
	}
}

// WithRegistry resolves aggregates from r instead of the global registry.
func WithRegistry(r *aggregates.Registry) Option {
	return func(s *Streamagg) {
		s.registry = r
	}
}

// WithOutput sets where PrintTable writes. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Streamagg) {
		s.out = w
	}
}
