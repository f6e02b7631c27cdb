package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/balltree"
	"github.com/hupe1980/balltree/distance"
)

func newBuildCmd(a *app) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a ball tree and save it",
		Long: `Build a ball tree over the items in the input file and save its
structure. Items are not stored in the tree file; pass the same input
file to search.

The output may be a local path, s3://bucket/key or minio://host/bucket/key.

Example:
  balltree build -i points.csv -o points.bt
  balltree build -i words.txt -m levenshtein -o s3://trees/words.bt --compression zstd`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.overlay(cmd.Flags())
			return runBuild(cmd.Context(), cmd.OutOrStdout(), a, input, output)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "Input file (CSV vectors, or one string per line)")
	f.StringVarP(&output, "output", "o", "", "Output location for the tree")
	f.StringP("metric", "m", a.cfg.Metric, "Distance metric")
	f.Int("leaf-size", a.cfg.LeafSize, "Largest cluster that is not split")
	f.Int64("seed", a.cfg.Seed, "Seed for center sampling")
	f.Int("workers", a.cfg.Workers, "Build parallelism (0 = GOMAXPROCS)")
	f.String("compression", a.cfg.Compression, "Payload compression (none, lz4, zstd)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runBuild(ctx context.Context, w io.Writer, a *app, input, output string) error {
	opts, err := a.options()
	if err != nil {
		return err
	}
	loc, err := parseLocation(ctx, output)
	if err != nil {
		return err
	}

	switch kindOf(a.cfg.Metric) {
	case kindString:
		metric, err := distance.StringMetric(a.cfg.Metric)
		if err != nil {
			return err
		}
		items, err := readLines(input)
		if err != nil {
			return err
		}
		return buildAndSave(ctx, w, items, metric, loc, opts)

	case kindFloat32:
		metric, err := distance.Vector32Metric(a.cfg.Metric)
		if err != nil {
			return err
		}
		items, err := readVectors32(input)
		if err != nil {
			return err
		}
		return buildAndSave(ctx, w, items, metric, loc, opts)

	default:
		metric, err := distance.VectorMetric(a.cfg.Metric)
		if err != nil {
			return err
		}
		items, err := readVectors(input)
		if err != nil {
			return err
		}
		return buildAndSave(ctx, w, items, metric, loc, opts)
	}
}

func buildAndSave[T any](ctx context.Context, w io.Writer, items []T, metric distance.Metric[T], loc location, opts []balltree.Option) error {
	idx, err := balltree.Build(ctx, items, metric, opts...)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if loc.store != nil {
		err = idx.Save(ctx, loc.store, loc.name)
	} else {
		err = idx.SaveFile(ctx, loc.path)
	}
	if err != nil {
		return fmt.Errorf("save failed: %w", err)
	}

	sum := idx.Stats()
	fmt.Fprintf(w, "Built %s: %d items, %d clusters, %d leaves, depth %d (metric %s)\n",
		loc, sum.Items, sum.Clusters, sum.Leaves, sum.Depth, metric.Name())
	return nil
}
