package sink

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/rulego/streamagg/aggregates"
	"github.com/rulego/streamagg/column"
	"github.com/rulego/streamagg/types"
	"github.com/rulego/streamagg/utils/cast"
)

// slot is the accumulator of one group key inside one branch.
type slot struct {
	key []any
	enc string
	agg aggregates.AggregateFn
}

// Branch is one execution branch of a sink. It owns its accumulators
// exclusively and must only be driven by one goroutine at a time.
type Branch struct {
	id     int
	sink   *Sink
	table  map[uint64][]*slot
	iter   aggregates.SliceIter
	cell   [1]any
	keyBuf strings.Builder

	chunks   int
	rows     int
	groups   int
	exprMiss int
}

func newBranch(id int, s *Sink) *Branch {
	return &Branch{id: id, sink: s, table: make(map[uint64][]*slot)}
}

// ID returns the branch ordinal.
func (b *Branch) ID() int { return b.id }

// Groups returns the number of keys seen by this branch.
func (b *Branch) Groups() int { return b.groups }

// Sink folds every row of chunk into the branch's accumulators.
func (b *Branch) Sink(chunk column.Chunk) error {
	s := b.sink
	if s.isFinalized() {
		return ErrFinalized
	}
	if err := chunk.Validate(); err != nil {
		return err
	}

	keys := make([]column.Column, len(s.cfg.GroupBy))
	for i, name := range s.cfg.GroupBy {
		col, ok := chunk.Column(name)
		if !ok {
			return errors.Errorf("chunk %d: missing group by column %s", chunk.Index, name)
		}
		keys[i] = col
	}

	var err error
	if s.program != nil {
		err = b.sinkExpr(chunk, keys)
	} else {
		err = b.sinkColumn(chunk, keys)
	}
	if err != nil {
		return err
	}
	b.chunks++
	b.rows += chunk.Len()
	return nil
}

func (b *Branch) sinkColumn(chunk column.Chunk, keys []column.Column) error {
	s := b.sink
	col, ok := chunk.Column(s.cfg.Value)
	if !ok {
		return errors.Errorf("chunk %d: missing value column %s", chunk.Index, s.cfg.Value)
	}
	channel, err := s.route.resolve(s.cfg.Channel, s.physical, col)
	if err != nil {
		return errors.Wrapf(err, "chunk %d", chunk.Index)
	}

	if channel == types.ChannelTyped {
		feed, err := typedFeeder(col)
		if err != nil {
			return err
		}
		for row := 0; row < chunk.Len(); row++ {
			feed(b.slotFor(keys, row).agg, chunk.Index, row)
		}
		return nil
	}
	for row := 0; row < chunk.Len(); row++ {
		b.cell[0] = col.Value(row).Interface()
		dynamicFeed(b.slotFor(keys, row).agg, chunk.Index, &b.iter, b.cell[:], s.cfg.Checked)
	}
	return nil
}

func (b *Branch) sinkExpr(chunk column.Chunk, keys []column.Column) error {
	s := b.sink
	s.route.fixDynamic()
	env := make(map[string]interface{}, len(chunk.Columns))
	for row := 0; row < chunk.Len(); row++ {
		for _, col := range chunk.Columns {
			env[col.Name()] = col.Value(row).Interface()
		}
		v, err := s.eval(env)
		if err != nil {
			// a row the expression cannot evaluate contributes nothing
			b.exprMiss++
			v = nil
		}
		b.cell[0] = v
		dynamicFeed(b.slotFor(keys, row).agg, chunk.Index, &b.iter, b.cell[:], s.cfg.Checked)
	}
	return nil
}

// slotFor returns the accumulator for the key of row, creating it on first sight.
func (b *Branch) slotFor(keys []column.Column, row int) *slot {
	b.keyBuf.Reset()
	for _, col := range keys {
		writeKey(&b.keyBuf, col.Value(row).Interface())
	}
	enc := b.keyBuf.String()
	h := xxhash.Sum64String(enc)
	for _, sl := range b.table[h] {
		if sl.enc == enc {
			return sl
		}
	}

	key := make([]any, len(keys))
	for i, col := range keys {
		key[i] = col.Value(row).Interface()
	}
	sl := &slot{key: key, enc: enc, agg: b.sink.newAgg()}
	b.table[h] = append(b.table[h], sl)
	b.groups++
	return sl
}

// writeKey appends a type tagged encoding of v so that 1 and "1" stay
// distinct. Type name and value are length prefixed, so the concatenation
// of several keys decodes one way only.
func writeKey(w *strings.Builder, v any) {
	if v == nil {
		w.WriteString("-;")
		return
	}
	typ, val := fmt.Sprintf("%T", v), cast.ToString(v)
	fmt.Fprintf(w, "%d:%s%d:%s", len(typ), typ, len(val), val)
}

// encodeKey is the group identity of a key tuple.
func encodeKey(key []any) string {
	var b strings.Builder
	for _, v := range key {
		writeKey(&b, v)
	}
	return b.String()
}

func (b *Branch) slots(fn func(*slot)) {
	for _, chain := range b.table {
		for _, sl := range chain {
			fn(sl)
		}
	}
}
