package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/hazard-tile-service/internal/catalog"
	"github.com/couchcryptid/hazard-tile-service/internal/domain"
)

var (
	catalogAll      bool
	catalogManifest string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the tile archives the server would load",
	Long: `List the PMTiles archives in the tiles directory. By default only
the freshest archive per partition is shown, matching what the tile server
loads; --all lists every archive on disk.

--manifest <dataset> prints the latest pipeline run manifest for a dataset
instead of the archive listing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if catalogManifest != "" {
			return printLatestManifest(cmd, catalogManifest)
		}

		archives, err := catalog.Scan(cfg.TilesDir())
		if err != nil {
			return err
		}
		if !catalogAll {
			archives = catalog.SelectLatest(archives)
		}
		if len(archives) == 0 {
			fmt.Println("no archives found in", cfg.TilesDir())
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FILE\tDATASET\tKEY\tZOOM\tSIZE")
		for _, a := range archives {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
				a.Name.File, a.Name.Dataset, a.Name.Key, a.Name.Zoom, a.Size)
		}
		return w.Flush()
	},
}

func printLatestManifest(cmd *cobra.Command, name string) error {
	dataset, ok := domain.ParseDataset(name)
	if !ok {
		return fmt.Errorf("unknown dataset %q", name)
	}
	m, err := catalog.LatestManifest(cfg.ManifestDir(), dataset)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s  dataset %s  generated %s\n",
		m.RunID, m.Dataset, m.GeneratedAt.Format(time.RFC3339))
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tFILE\tSTATUS\tSIZE\tERROR")
	for _, e := range m.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			e.Step, e.File, e.Status, e.SizeBytes, e.Error)
	}
	return w.Flush()
}

func init() {
	catalogCmd.Flags().BoolVar(&catalogAll, "all", false, "list every archive, not just the freshest per partition")
	catalogCmd.Flags().StringVar(&catalogManifest, "manifest", "", "print the latest run manifest for a dataset")
}
