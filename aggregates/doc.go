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
Package aggregates provides the partial aggregation core of the groupby sink.

Every accumulator implements AggregateFn. The sink creates one accumulator per
(group key, execution branch), feeds it values, folds sibling partials with
Combine once the branches are done and finally calls Finalize to obtain the
group's output cell.

# Ingestion Channels

Values reach an accumulator through one of two channels:

	// typed: the caller knows the column kind
	fn.PreAggFloat64(chunkIdx, aggregates.Some(12.5))
	fn.PreAggInt32(chunkIdx, aggregates.Null[int32]())

	// dynamic: one value is drawn from the iterator per call
	it := aggregates.NewSliceIter(10, nil, "x", 30.0)
	for it.Len() > 0 {
		fn.PreAgg(chunkIdx, it)
	}

Both channels end in the same fold rule. Nulls and values that cannot be
extracted into the accumulator's kind are skipped. A sink must pick one channel
per accumulator and stick to it.

# Partial State

Accumulators keep raw partial state (a mean keeps sum and count, never a
running average) so that Combine is associative and commutative over any
partitioning of the input:

	a := aggregates.MustNew("mean", aggregates.Float64)
	b := aggregates.MustNew("mean", aggregates.Float64)
	// ... feed a and b from different branches ...
	a.Combine(b)
	cell := a.Finalize() // float64, or NullValue for an all-null group

# Invariant Violations

Combining accumulators of different concrete kinds, or calling PreAgg with an
exhausted iterator, is a bug in the caller. These panic with *InvariantError
instead of returning an error, so a wrong merge can never be produced silently.
*/
package aggregates
