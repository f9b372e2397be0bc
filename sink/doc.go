/*
Package sink implements the groupby sink that drives the aggregates core.

A Sink owns one accumulator per (group key, branch). Branches run in their own
goroutines and never share accumulators; when every branch is done Finalize
folds the sibling partials of each key with Combine and finalizes the result.

	cfg := types.NewConfig()
	cfg.GroupBy = []string{"device"}
	cfg.Value = "temperature"
	cfg.Branches = 4

	s, err := sink.New(cfg)
	if err != nil {
		return err
	}
	if err := s.RunChunks(ctx, chunks); err != nil {
		return err
	}
	res, err := s.Finalize()

The ingestion channel is decided once per sink: typed series go through the
PreAgg* methods of their kind, everything else (including expression results)
through the dynamic PreAgg channel. A sink never mixes the two.
*/
package sink
