package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/balltree/tree"
)

type infoOutput struct {
	Location            string    `json:"location"`
	Metric              string    `json:"metric"`
	Items               int       `json:"items"`
	Clusters            int       `json:"clusters"`
	Leaves              int       `json:"leaves"`
	Depth               int       `json:"depth"`
	RootRadius          float64   `json:"root_radius"`
	MeanLeafCardinality float64   `json:"mean_leaf_cardinality"`
	MeanLeafRadius      float64   `json:"mean_leaf_radius"`
	MeanLFD             float64   `json:"mean_lfd"`
	LeafSize            int       `json:"leaf_size"`
	MaxDepth            int       `json:"max_depth"`
	Seed                int64     `json:"seed"`
	BuiltAt             time.Time `json:"built_at"`
}

func newInfoCmd(a *app) *cobra.Command {
	var (
		treePath string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the shape and build parameters of a saved tree",
		Long: `Decode a saved tree, verify its structure and print its shape.

Example:
  balltree info -t points.bt
  balltree info -t s3://trees/points.bt --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			loc, err := parseLocation(ctx, treePath)
			if err != nil {
				return err
			}
			s, err := readStructure(ctx, loc)
			if err != nil {
				a.logger.LogLoad(ctx, loc.String(), 0, err)
				return fmt.Errorf("failed to read tree: %w", err)
			}
			a.logger.LogLoad(ctx, loc.String(), s.Len(), nil)
			return printInfo(cmd.OutOrStdout(), describe(loc, s), asJSON)
		},
	}

	cmd.Flags().StringVarP(&treePath, "tree", "t", "", "Tree location")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("tree")

	return cmd
}

func describe(loc location, s *tree.Structure) infoOutput {
	sum := s.Summary()
	info := s.Info()
	return infoOutput{
		Location:            loc.String(),
		Metric:              info.Metric,
		Items:               sum.Items,
		Clusters:            sum.Clusters,
		Leaves:              sum.Leaves,
		Depth:               sum.Depth,
		RootRadius:          sum.RootRadius,
		MeanLeafCardinality: sum.MeanLeafCardinality,
		MeanLeafRadius:      sum.MeanLeafRadius,
		MeanLFD:             sum.MeanLFD,
		LeafSize:            info.LeafSize,
		MaxDepth:            info.MaxDepth,
		Seed:                info.Seed,
		BuiltAt:             info.BuiltAt,
	}
}

func printInfo(w io.Writer, out infoOutput, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "Tree:        %s\n", out.Location)
	fmt.Fprintf(w, "Metric:      %s\n", out.Metric)
	fmt.Fprintf(w, "Items:       %d\n", out.Items)
	fmt.Fprintf(w, "Clusters:    %d (%d leaves)\n", out.Clusters, out.Leaves)
	fmt.Fprintf(w, "Depth:       %d\n", out.Depth)
	fmt.Fprintf(w, "Root radius: %g\n", out.RootRadius)
	fmt.Fprintf(w, "Mean leaf:   %.2f items, radius %.3g\n", out.MeanLeafCardinality, out.MeanLeafRadius)
	fmt.Fprintf(w, "Mean LFD:    %.3f\n", out.MeanLFD)
	fmt.Fprintf(w, "Leaf size:   %d\n", out.LeafSize)
	fmt.Fprintf(w, "Seed:        %d\n", out.Seed)
	if !out.BuiltAt.IsZero() {
		fmt.Fprintf(w, "Built at:    %s\n", out.BuiltAt.Format(time.RFC3339))
	}
	return nil
}
