package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/balltree"
	"github.com/hupe1980/balltree/distance"
	"github.com/hupe1980/balltree/search"
	"github.com/hupe1980/balltree/tree"
)

type searchParams struct {
	treePath string
	input    string
	queries  string
	k        int
	radius   float64
	byRadius bool
	asJSON   bool
}

type queryResult struct {
	Query int          `json:"query"`
	Hits  []search.Hit `json:"hits"`
}

func newSearchCmd(a *app) *cobra.Command {
	var p searchParams

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run k-NN or ranged queries against a saved tree",
		Long: `Load a saved tree, attach the items it was built over and answer one
query per row (or line) of the queries file.

Results are printed as tab separated "query index distance" rows, or as
JSON with --json. The metric defaults to the one recorded in the tree.

Example:
  balltree search -t points.bt -i points.csv -q queries.csv -k 10
  balltree search -t points.bt -i points.csv -q queries.csv -r 0.25 --algorithm linear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			metricSet := cmd.Flags().Changed("metric")
			a.overlay(cmd.Flags())
			p.byRadius = cmd.Flags().Changed("radius")
			return runSearch(cmd.Context(), cmd.OutOrStdout(), a, p, metricSet)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&p.treePath, "tree", "t", "", "Tree location")
	f.StringVarP(&p.input, "input", "i", "", "Items the tree was built over")
	f.StringVarP(&p.queries, "queries", "q", "", "Query file, same format as the input")
	f.IntVarP(&p.k, "k", "k", 0, "Number of nearest neighbors")
	f.Float64VarP(&p.radius, "radius", "r", 0, "Search radius")
	f.String("algorithm", a.cfg.Algorithm, "k-NN strategy (best-first, repeated-range, breadth-first, linear)")
	f.StringP("metric", "m", a.cfg.Metric, "Distance metric (defaults to the tree's)")
	f.BoolVar(&p.asJSON, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("tree")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("queries")
	cmd.MarkFlagsMutuallyExclusive("k", "radius")
	cmd.MarkFlagsOneRequired("k", "radius")

	return cmd
}

func runSearch(ctx context.Context, w io.Writer, a *app, p searchParams, metricSet bool) error {
	alg, err := search.ParseAlgorithm(a.cfg.Algorithm)
	if err != nil {
		return err
	}

	loc, err := parseLocation(ctx, p.treePath)
	if err != nil {
		return err
	}
	s, err := readStructure(ctx, loc)
	if err != nil {
		a.logger.LogLoad(ctx, loc.String(), 0, err)
		return fmt.Errorf("failed to read tree: %w", err)
	}

	name := a.cfg.Metric
	if !metricSet && s.Info().Metric != "" {
		name = s.Info().Metric
	}

	opts, err := a.options()
	if err != nil {
		return err
	}
	a.logger.Debug("searching", "tree", loc.String(), "metric", name, "algorithm", alg.String())

	var results [][]search.Hit
	switch kindOf(name) {
	case kindString:
		metric, err := distance.StringMetric(name)
		if err != nil {
			return err
		}
		results, err = runQueries(ctx, s, readLines, nil, p.input, p.queries, metric, alg, p, opts)
		if err != nil {
			return err
		}
	case kindFloat32:
		metric, err := distance.Vector32Metric(name)
		if err != nil {
			return err
		}
		results, err = runQueries(ctx, s, readVectors32, checkDims[float32], p.input, p.queries, metric, alg, p, opts)
		if err != nil {
			return err
		}
	default:
		metric, err := distance.VectorMetric(name)
		if err != nil {
			return err
		}
		results, err = runQueries(ctx, s, readVectors, checkDims[float64], p.input, p.queries, metric, alg, p, opts)
		if err != nil {
			return err
		}
	}

	return printResults(w, results, p.asJSON)
}

func runQueries[T any](
	ctx context.Context,
	s *tree.Structure,
	read func(string) ([]T, error),
	check func(items, queries []T) error,
	input, queries string,
	metric distance.Metric[T],
	alg search.Algorithm,
	p searchParams,
	opts []balltree.Option,
) ([][]search.Hit, error) {
	items, err := read(input)
	if err != nil {
		return nil, err
	}
	qs, err := read(queries)
	if err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(items, qs); err != nil {
			return nil, fmt.Errorf("%s: %w", queries, err)
		}
	}

	idx, err := balltree.Attach(ctx, s, items, metric, opts...)
	if err != nil {
		return nil, err
	}

	if p.byRadius {
		return idx.BatchWithin(ctx, qs, p.radius)
	}
	return idx.BatchKNN(ctx, qs, p.k, balltree.WithAlgorithm(alg))
}

func printResults(w io.Writer, results [][]search.Hit, asJSON bool) error {
	if asJSON {
		out := make([]queryResult, len(results))
		for i, hits := range results {
			if hits == nil {
				hits = []search.Hit{}
			}
			out[i] = queryResult{Query: i, Hits: hits}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for i, hits := range results {
		for _, h := range hits {
			fmt.Fprintf(w, "%d\t%d\t%g\n", i, h.Index, h.Distance)
		}
	}
	return nil
}
