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

/*
Package streamagg 是一个基于部分聚合的分组聚合内核。

每个执行分支为每个分组键维护独立的累加器（只保存和与计数），所有分支结束后
通过 Combine 合并同一分组的部分状态，再由 Finalize 计算最终结果。合并顺序
和分支数量不影响结果。

# 核心组成

• aggregates - 累加器契约 AggregateFn 与均值累加器 MeanAgg
• column - 类型化列 Series 与动态列 AnyColumn、数据块 Chunk
• sink - 分组 sink，多分支并行摄取、合并与输出
• types - YAML 配置
• logger - 日志接口，logrus 实现

# 入门示例

	package main

	import (
		"context"

		"github.com/rulego/streamagg"
		"github.com/rulego/streamagg/column"
		"github.com/rulego/streamagg/types"
	)

	func main() {
		sa := streamagg.New(streamagg.WithBranches(4))
		sa.PrintTable()

		cfg := types.NewConfig()
		cfg.GroupBy = []string{"device"}
		cfg.Value = "temperature"

		chunk := column.NewChunk(0,
			column.NewAnyColumn("device", []any{"aa", "bb", "aa"}),
			column.NewSeries("temperature", []float64{10, 1, 30}),
		)
		if _, err := sa.Aggregate(context.Background(), cfg, []column.Chunk{chunk}); err != nil {
			panic(err)
		}
	}

# 表达式

配置 expr 时值由表达式按行计算（expr-lang/expr），例如 "price * qty"。
表达式结果只能经由动态通道 PreAgg 摄取。求值失败的行按空值处理，
计入 Stats.ExprMisses。
*/
package streamagg
