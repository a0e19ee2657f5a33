package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/lehigh-university-libraries/srcsetter/internal/batch"
	"github.com/spf13/cobra"
)

func newBatchCmd(opts *rootOptions) *cobra.Command {
	var manifestPath string
	var limit int
	var parallel int
	var reportDir string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Render markup for every image in a manifest",
		Long: `Reads jobs from a JSONL or Parquet manifest, renders each one and writes a
YAML report with the markup or error per image.

Each row carries image, sizes and optionally alt, title, format and quality.`,
		Example: `  # Render all images listed in a JSONL manifest
  srcsetter batch --manifest ./images.jsonl

  # Render the first 100 rows of a Parquet manifest, 8 at a time
  srcsetter batch --manifest ./images.parquet --limit 100 --parallel 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			jobs, err := batch.NewLoader(manifestPath).LoadSample(limit)
			if err != nil {
				return fmt.Errorf("failed to load manifest: %w", err)
			}
			for i := range jobs {
				if jobs[i].Format == "" {
					jobs[i].Format = a.cfg.Images.Format
				}
				if jobs[i].Quality == 0 {
					jobs[i].Quality = int32(a.cfg.Images.Quality)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loaded %d jobs from %s\n", len(jobs), manifestPath)

			if parallel <= 0 {
				parallel = a.cfg.Images.Parallel
			}
			results := batch.Run(cmd.Context(), a.resolver, jobs, parallel)

			if reportDir == "" {
				reportDir = a.cfg.Batch.ReportDir
			}
			path, err := batch.SaveToYAML(reportDir, manifestPath, results)
			if err != nil {
				return err
			}

			summary := batch.Summarize(manifestPath, results)
			absPath, _ := filepath.Abs(path)
			fmt.Fprintf(out, "Rendered: %d  Skipped: %d  Failed: %d\n", summary.Rendered, summary.Skipped, summary.Failed)
			fmt.Fprintf(out, "Report saved to: %s\n", absPath)

			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d jobs failed", summary.Failed, summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Path to parquet or jsonl manifest (required)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of jobs to run (0 for all)")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "Jobs rendered concurrently (defaults to images.parallel)")
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "Directory for the YAML report (defaults to batch.report_dir)")

	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}
