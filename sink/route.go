package sink

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/rulego/streamagg/aggregates"
	"github.com/rulego/streamagg/column"
	"github.com/rulego/streamagg/types"
)

// ErrMixedChannels is returned when a chunk would be fed through a different
// channel than the one the sink settled on.
var ErrMixedChannels = errors.New("ingestion channel mixed within one sink")

// feeder pushes one row of a column into an accumulator.
type feeder func(fn aggregates.AggregateFn, chunkIdx aggregates.IdxSize, row int)

// route is the channel decision shared by every accumulator of a sink.
type route struct {
	mu        sync.Mutex
	decided   bool
	channel   types.Channel
	inputKind aggregates.Kind
}

// resolve fixes the channel on the first call and checks col against it afterwards.
func (r *route) resolve(want types.Channel, physical bool, col column.Column) (types.Channel, error) {
	kind, typed := col.Kind()

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.decided {
		switch want {
		case types.ChannelTyped:
			if !physical {
				return "", errors.New("aggregate has no typed channel")
			}
			if !typed {
				return "", errors.Errorf("column %s is not a typed series", col.Name())
			}
			r.channel, r.inputKind = types.ChannelTyped, kind
		case types.ChannelAuto:
			if physical && typed {
				r.channel, r.inputKind = types.ChannelTyped, kind
			} else {
				r.channel = types.ChannelDynamic
			}
		default:
			r.channel = types.ChannelDynamic
		}
		r.decided = true
		return r.channel, nil
	}

	if r.channel == types.ChannelTyped {
		if !typed {
			return "", errors.Wrapf(ErrMixedChannels, "column %s is dynamic, sink uses typed %s", col.Name(), r.inputKind)
		}
		if kind != r.inputKind {
			return "", errors.Errorf("column %s changed kind from %s to %s", col.Name(), r.inputKind, kind)
		}
	}
	return r.channel, nil
}

// fixDynamic settles the route on the dynamic channel. Expression results
// have no column kind to resolve against.
func (r *route) fixDynamic() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.decided {
		r.channel, r.decided = types.ChannelDynamic, true
	}
}

func (r *route) current() (types.Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channel, r.decided
}

// typedFeeder selects the PreAgg* method matching the series kind. The type
// switch runs once per chunk, not per row.
func typedFeeder(col column.Column) (feeder, error) {
	switch s := col.(type) {
	case *column.Series[int8]:
		return func(fn aggregates.AggregateFn, idx aggregates.IdxSize, row int) { fn.PreAggInt8(idx, s.Get(row)) }, nil
	case *column.Series[int16]:
		return func(fn aggregates.AggregateFn, idx aggregates.IdxSize, row int) { fn.PreAggInt16(idx, s.Get(row)) }, nil
	case *column.Series[int32]:
		return func(fn aggregates.AggregateFn, idx aggregates.IdxSize, row int) { fn.PreAggInt32(idx, s.Get(row)) }, nil
	case *column.Series[int64]:
		return func(fn aggregates.AggregateFn, idx aggregates.IdxSize, row int) { fn.PreAggInt64(idx, s.Get(row)) }, nil
	case *column.Series[uint8]:
		return func(fn aggregates.AggregateFn, idx aggregates.IdxSize, row int) { fn.PreAggUint8(idx, s.Get(row)) }, nil
	case *column.Series[uint16]:
		return func(fn aggregates.AggregateFn, idx aggregates.IdxSize, row int) { fn.PreAggUint16(idx, s.Get(row)) }, nil
	case *column.Series[uint32]:
		return func(fn aggregates.AggregateFn, idx aggregates.IdxSize, row int) { fn.PreAggUint32(idx, s.Get(row)) }, nil
	case *column.Series[uint64]:
		return func(fn aggregates.AggregateFn, idx aggregates.IdxSize, row int) { fn.PreAggUint64(idx, s.Get(row)) }, nil
	case *column.Series[float32]:
		return func(fn aggregates.AggregateFn, idx aggregates.IdxSize, row int) { fn.PreAggFloat32(idx, s.Get(row)) }, nil
	case *column.Series[float64]:
		return func(fn aggregates.AggregateFn, idx aggregates.IdxSize, row int) { fn.PreAggFloat64(idx, s.Get(row)) }, nil
	}
	return nil, errors.Errorf("column %s: no typed channel for %T", col.Name(), col)
}

type uncheckedPreAgg interface {
	PreAggUnchecked(chunkIdx aggregates.IdxSize, items aggregates.ValueIter)
}

// dynamicFeed feeds the single value in cell through the dynamic channel,
// using the unchecked form when the sink is configured for it and the
// accumulator offers one.
func dynamicFeed(fn aggregates.AggregateFn, idx aggregates.IdxSize, it *aggregates.SliceIter, cell []any, checked bool) {
	it.Reset(cell)
	if !checked {
		if u, ok := fn.(uncheckedPreAgg); ok {
			u.PreAggUnchecked(idx, it)
			return
		}
	}
	fn.PreAgg(idx, it)
}
