package sink

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/streamagg/aggregates"
	"github.com/rulego/streamagg/column"
	"github.com/rulego/streamagg/logger"
	"github.com/rulego/streamagg/types"
)

func testConfig(branches int) types.Config {
	cfg := types.NewConfig()
	cfg.Name = "test"
	cfg.GroupBy = []string{"device"}
	cfg.Value = "temperature"
	cfg.Branches = branches
	return cfg
}

func newTestSink(t *testing.T, cfg types.Config, opts ...Option) *Sink {
	t.Helper()
	s, err := New(cfg, append([]Option{WithLogger(logger.NewDiscardLogger())}, opts...)...)
	require.NoError(t, err)
	return s
}

func float64Chunk(idx aggregates.IdxSize, devices []any, temps []aggregates.Nullable[float64]) column.Chunk {
	return column.NewChunk(idx,
		column.NewAnyColumn("device", devices),
		column.FromNullable("temperature", temps),
	)
}

func some(v float64) aggregates.Nullable[float64] { return aggregates.Some(v) }

var null = aggregates.Null[float64]()

func TestSink_MeanByKey(t *testing.T) {
	s := newTestSink(t, testConfig(3))
	chunks := []column.Chunk{
		float64Chunk(0, []any{"aa", "bb", "aa"}, []aggregates.Nullable[float64]{some(10), some(1), some(20)}),
		float64Chunk(1, []any{"aa", "cc"}, []aggregates.Nullable[float64]{some(30), null}),
		float64Chunk(2, []any{"bb", "bb"}, []aggregates.Nullable[float64]{some(3), null}),
		float64Chunk(3, []any{"cc"}, []aggregates.Nullable[float64]{null}),
	}
	require.NoError(t, s.RunChunks(context.Background(), chunks))

	channel, ok := s.Channel()
	assert.True(t, ok)
	assert.Equal(t, types.ChannelTyped, channel)

	res, err := s.Finalize()
	require.NoError(t, err)
	assert.Equal(t, aggregates.Float64, res.DType)
	assert.Equal(t, "temperature_mean", res.Output)
	require.Equal(t, 3, res.Len())

	assert.Equal(t, []any{"aa"}, res.Rows[0].Key)
	assert.Equal(t, aggregates.NewAnyValue(20.0), res.Rows[0].Value)
	assert.Equal(t, aggregates.NewAnyValue(2.0), res.Rows[1].Value)
	// an all-null group finalizes to null
	assert.True(t, res.Rows[2].Value.IsNull())

	st := s.Stats()
	assert.Equal(t, 4, st.Chunks)
	assert.Equal(t, 8, st.Rows)
	assert.GreaterOrEqual(t, st.Partials, 3)
}

func TestSink_BranchCountDoesNotChangeResult(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var chunks []column.Chunk
	for c := 0; c < 20; c++ {
		n := 1 + rng.Intn(30)
		keys := make([]any, n)
		vals := make([]aggregates.Nullable[float64], n)
		for i := 0; i < n; i++ {
			keys[i] = rng.Intn(6)
			if rng.Intn(4) > 0 {
				vals[i] = some(float64(rng.Intn(500)))
			}
		}
		chunks = append(chunks, float64Chunk(aggregates.IdxSize(c), keys, vals))
	}

	single := newTestSink(t, testConfig(1))
	require.NoError(t, single.RunChunks(context.Background(), chunks))
	want, err := single.Finalize()
	require.NoError(t, err)

	for _, branches := range []int{2, 3, 8, 32} {
		s := newTestSink(t, testConfig(branches))
		require.NoError(t, s.RunChunks(context.Background(), chunks))
		got, err := s.Finalize()
		require.NoError(t, err)
		assert.Equal(t, want.Rows, got.Rows, "branches=%d", branches)
	}
}

func TestSink_DynamicChannel(t *testing.T) {
	cfg := testConfig(2)
	cfg.Channel = types.ChannelDynamic
	s := newTestSink(t, cfg)

	chunks := []column.Chunk{
		column.NewChunk(0, column.NewAnyColumn("device", []any{"a", "a", "a"}), column.NewAnyColumn("temperature", []any{10, "n/a", nil})),
		column.NewChunk(1, column.NewAnyColumn("device", []any{"a", "b"}), column.NewSeries("temperature", []int32{30, 7})),
	}
	require.NoError(t, s.RunChunks(context.Background(), chunks))
	channel, _ := s.Channel()
	assert.Equal(t, types.ChannelDynamic, channel)

	res, err := s.Finalize()
	require.NoError(t, err)
	v, ok := res.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, aggregates.NewAnyValue(20.0), v)
	v, _ = res.Lookup("b")
	assert.Equal(t, aggregates.NewAnyValue(7.0), v)
}

func TestSink_Unchecked(t *testing.T) {
	cfg := testConfig(1)
	cfg.Channel = types.ChannelDynamic
	cfg.Checked = false
	s := newTestSink(t, cfg)
	require.NoError(t, s.Branch(0).Sink(column.NewChunk(0,
		column.NewAnyColumn("device", []any{"x", "x"}),
		column.NewAnyColumn("temperature", []any{1.0, 2.0}),
	)))
	res, err := s.Finalize()
	require.NoError(t, err)
	assert.Equal(t, aggregates.NewAnyValue(1.5), res.Rows[0].Value)
}

func TestSink_AutoRejectsMixedChannels(t *testing.T) {
	s := newTestSink(t, testConfig(1))
	b := s.Branch(0)
	require.NoError(t, b.Sink(float64Chunk(0, []any{"a"}, []aggregates.Nullable[float64]{some(1)})))

	err := b.Sink(column.NewChunk(1, column.NewAnyColumn("device", []any{"a"}), column.NewAnyColumn("temperature", []any{2.0})))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMixedChannels))

	err = b.Sink(column.NewChunk(2, column.NewAnyColumn("device", []any{"a"}), column.NewSeries("temperature", []int64{2})))
	assert.Error(t, err, "input kind is fixed by the first chunk")
}

func TestSink_AutoFallsBackToDynamic(t *testing.T) {
	s := newTestSink(t, testConfig(1))
	require.NoError(t, s.Branch(0).Sink(column.NewChunk(0,
		column.NewAnyColumn("device", []any{"a"}),
		column.NewAnyColumn("temperature", []any{4}),
	)))
	channel, _ := s.Channel()
	assert.Equal(t, types.ChannelDynamic, channel)

	// a typed series is still fed through the dynamic channel afterwards
	require.NoError(t, s.Branch(0).Sink(column.NewChunk(1,
		column.NewAnyColumn("device", []any{"a"}),
		column.NewSeries("temperature", []float32{8}),
	)))
	res, err := s.Finalize()
	require.NoError(t, err)
	assert.Equal(t, aggregates.NewAnyValue(6.0), res.Rows[0].Value)
}

func TestSink_TypedRequiresSeries(t *testing.T) {
	cfg := testConfig(1)
	cfg.Channel = types.ChannelTyped
	s := newTestSink(t, cfg)
	err := s.Branch(0).Sink(column.NewChunk(0, column.NewAnyColumn("device", []any{"a"}), column.NewAnyColumn("temperature", []any{1.0})))
	assert.Error(t, err)
	_, decided := s.Channel()
	assert.False(t, decided)
}

func TestSink_Float32Output(t *testing.T) {
	cfg := testConfig(2)
	cfg.Kind = "f32"
	cfg.Output = "avg_temp"
	s := newTestSink(t, cfg)
	assert.Equal(t, aggregates.Float32, s.DType())

	chunks := []column.Chunk{
		column.NewChunk(0, column.NewAnyColumn("device", []any{"a", "b"}), column.NewSeries("temperature", []uint16{1, 5})),
		column.NewChunk(1, column.NewAnyColumn("device", []any{"a"}), column.NewSeries("temperature", []uint16{2})),
	}
	require.NoError(t, s.RunChunks(context.Background(), chunks))
	res, err := s.Finalize()
	require.NoError(t, err)

	col := res.Column()
	series, ok := col.(*column.Series[float32])
	require.True(t, ok, "output column is %T", col)
	assert.Equal(t, "avg_temp", series.Name())
	assert.Equal(t, aggregates.Some[float32](1.5), series.Get(0))
	assert.Equal(t, aggregates.Some[float32](5), series.Get(1))

	out := res.Chunk()
	require.NoError(t, out.Validate())
	assert.Equal(t, 2, len(out.Columns))
	assert.Equal(t, []string{"device", "avg_temp"}, res.FieldOrder())
	assert.Equal(t, []map[string]interface{}{
		{"device": "a", "avg_temp": float32(1.5)},
		{"device": "b", "avg_temp": float32(5)},
	}, res.Maps())
}

func TestSink_Expr(t *testing.T) {
	cfg := testConfig(2)
	cfg.Value = ""
	cfg.Expr = "price * qty"
	cfg.Output = "avg_total"
	s := newTestSink(t, cfg)

	chunk := column.NewChunk(0,
		column.NewAnyColumn("device", []any{"a", "a", "b"}),
		column.NewSeries("price", []float64{1.5, 2, 10}),
		column.NewAnyColumn("qty", []any{2, 4, nil}),
	)
	require.NoError(t, s.Branch(0).Sink(chunk))
	assert.Equal(t, types.ChannelDynamic, s.Config().Channel)
	channel, decided := s.Channel()
	assert.True(t, decided)
	assert.Equal(t, types.ChannelDynamic, channel)

	res, err := s.Finalize()
	require.NoError(t, err)
	v, _ := res.Lookup("a")
	assert.Equal(t, aggregates.NewAnyValue(5.5), v)
	v, _ = res.Lookup("b")
	assert.True(t, v.IsNull(), "a row the expression fails on is a null")
	assert.Equal(t, 1, s.Stats().ExprMisses)
}

func TestSink_ExprCompileError(t *testing.T) {
	cfg := testConfig(1)
	cfg.Value = ""
	cfg.Expr = "price *"
	_, err := New(cfg, WithLogger(logger.NewDiscardLogger()))
	assert.Error(t, err)
}

func TestSink_GlobalAggregate(t *testing.T) {
	cfg := testConfig(2)
	cfg.GroupBy = nil
	s := newTestSink(t, cfg)
	res, err := s.Finalize()
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())
	assert.True(t, res.Rows[0].Value.IsNull())

	s = newTestSink(t, cfg)
	require.NoError(t, s.RunChunks(context.Background(), []column.Chunk{
		column.NewChunk(0, column.NewSeries("temperature", []float64{1, 2})),
		column.NewChunk(1, column.NewSeries("temperature", []float64{3, 4, 5})),
	}))
	res, err = s.Finalize()
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())
	assert.Equal(t, aggregates.NewAnyValue(3.0), res.Rows[0].Value)
}

func TestSink_MultiKey(t *testing.T) {
	cfg := testConfig(2)
	cfg.GroupBy = []string{"device", "site"}
	s := newTestSink(t, cfg)
	chunk := column.NewChunk(0,
		column.NewAnyColumn("device", []any{"a", "a", "a", nil}),
		column.NewAnyColumn("site", []any{1, "1", 1, 2}),
		column.NewSeries("temperature", []float64{1, 2, 3, 4}),
	)
	require.NoError(t, s.Branch(1).Sink(chunk))
	res, err := s.Finalize()
	require.NoError(t, err)
	// 1 and "1" are different keys, null keys form their own group
	require.Equal(t, 3, res.Len())
	assert.Equal(t, []any{nil, 2}, res.Rows[0].Key)
	assert.Equal(t, []any{"a", 1}, res.Rows[1].Key)
	assert.Equal(t, aggregates.NewAnyValue(2.0), res.Rows[1].Value)
	assert.Equal(t, []any{"a", "1"}, res.Rows[2].Key)
}

func TestSink_KeyEncodingIsUnambiguous(t *testing.T) {
	cfg := testConfig(1)
	cfg.GroupBy = []string{"a", "b"}
	s := newTestSink(t, cfg)
	chunk := column.NewChunk(0,
		column.NewAnyColumn("a", []any{"x", "x\x1fstring=y", "ab", "a", "1:x", "1:"}),
		column.NewAnyColumn("b", []any{"y\x1fstring=z", "z", "c", "bc", "", "x"}),
		column.NewSeries("temperature", []float64{10, 30, 1, 2, 3, 4}),
	)
	require.NoError(t, s.Branch(0).Sink(chunk))
	res, err := s.Finalize()
	require.NoError(t, err)
	require.Equal(t, 6, res.Len())

	for _, tc := range []struct {
		a, b string
		want float64
	}{
		{"x", "y\x1fstring=z", 10},
		{"x\x1fstring=y", "z", 30},
		{"ab", "c", 1},
		{"a", "bc", 2},
		{"1:x", "", 3},
		{"1:", "x", 4},
	} {
		v, ok := res.Lookup(tc.a, tc.b)
		require.True(t, ok, "%q/%q", tc.a, tc.b)
		assert.Equal(t, aggregates.NewAnyValue(tc.want), v, "%q/%q", tc.a, tc.b)
	}
}

func TestSink_LookupMatchesGrouping(t *testing.T) {
	s := newTestSink(t, testConfig(1))
	chunk := column.NewChunk(0,
		column.NewAnyColumn("device", []any{1, int64(1), 1.0, 1}),
		column.NewSeries("temperature", []float64{2, 6, 9, 4}),
	)
	require.NoError(t, s.Branch(0).Sink(chunk))
	res, err := s.Finalize()
	require.NoError(t, err)
	require.Equal(t, 3, res.Len())

	v, ok := res.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, aggregates.NewAnyValue(3.0), v)
	v, ok = res.Lookup(int64(1))
	require.True(t, ok)
	assert.Equal(t, aggregates.NewAnyValue(6.0), v)
	v, ok = res.Lookup(1.0)
	require.True(t, ok)
	assert.Equal(t, aggregates.NewAnyValue(9.0), v)
	_, ok = res.Lookup(int32(1))
	assert.False(t, ok)
	_, ok = res.Lookup(1, 1)
	assert.False(t, ok)
}

func TestSink_Errors(t *testing.T) {
	s := newTestSink(t, testConfig(1))
	b := s.Branch(0)

	assert.Error(t, b.Sink(column.NewChunk(0, column.NewSeries("temperature", []float64{1}))), "missing key column")
	assert.Error(t, b.Sink(column.NewChunk(0, column.NewAnyColumn("device", []any{"a"}))), "missing value column")
	assert.Error(t, b.Sink(column.NewChunk(0, column.NewAnyColumn("device", []any{"a"}), column.NewSeries("temperature", []float64{1, 2}))))

	_, err := s.Finalize()
	require.NoError(t, err)
	_, err = s.Finalize()
	assert.True(t, errors.Is(err, ErrFinalized))
	assert.True(t, errors.Is(b.Sink(float64Chunk(1, []any{"a"}, []aggregates.Nullable[float64]{some(1)})), ErrFinalized))
}

func TestSink_RunChunksCollectsBranchErrors(t *testing.T) {
	s := newTestSink(t, testConfig(2))
	bad := column.NewChunk(1, column.NewAnyColumn("device", []any{"a"}))
	err := s.RunChunks(context.Background(), []column.Chunk{
		float64Chunk(0, []any{"a"}, []aggregates.Nullable[float64]{some(1)}),
		bad,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "branch 1")
}

func TestSink_BadAggregate(t *testing.T) {
	cfg := testConfig(1)
	cfg.Kind = "i64"
	_, err := New(cfg)
	assert.Error(t, err, "mean has no integer representation")

	cfg = testConfig(1)
	cfg.Aggregate = "median"
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = testConfig(0)
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestSink_WithRegistry(t *testing.T) {
	r := aggregates.NewRegistry()
	require.NoError(t, r.Register("mean32", func(aggregates.Kind) (aggregates.AggregateFn, error) {
		return aggregates.NewMeanAgg[float32](), nil
	}))
	cfg := testConfig(1)
	cfg.Aggregate = "mean32"
	s := newTestSink(t, cfg, WithRegistry(r))
	assert.Equal(t, aggregates.Float32, s.DType())
}

func TestSink_Run(t *testing.T) {
	s := newTestSink(t, testConfig(4))
	ch := make(chan column.Chunk)
	go func() {
		defer close(ch)
		for i := 0; i < 40; i++ {
			ch <- float64Chunk(aggregates.IdxSize(i), []any{i % 2}, []aggregates.Nullable[float64]{some(float64(i))})
		}
	}()
	require.NoError(t, s.Run(context.Background(), ch))
	res, err := s.Finalize()
	require.NoError(t, err)
	// evens 0..38 average 19, odds 1..39 average 20
	v, _ := res.Lookup(0)
	assert.Equal(t, aggregates.NewAnyValue(19.0), v)
	v, _ = res.Lookup(1)
	assert.Equal(t, aggregates.NewAnyValue(20.0), v)
}

func TestSink_RunCancelled(t *testing.T) {
	s := newTestSink(t, testConfig(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ch := make(chan column.Chunk)
	err := s.Run(ctx, ch)
	assert.True(t, errors.Is(err, context.Canceled))

	err = s.RunChunks(ctx, []column.Chunk{float64Chunk(0, []any{"a"}, []aggregates.Nullable[float64]{some(1)})})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, s.Stats().Rows)
}

func TestSink_Logging(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(1)
	s, err := New(cfg, WithLogger(logger.NewLogger(logger.DEBUG, &buf)))
	require.NoError(t, err)
	require.NoError(t, s.RunChunks(context.Background(), []column.Chunk{
		float64Chunk(0, []any{"a"}, []aggregates.Nullable[float64]{some(1)}),
	}))
	_, err = s.Finalize()
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "branch 0 started")
	assert.Contains(t, out, "[INFO] groupby test: 1 groups from 1 partials across 1 branches (1 rows)")
}
