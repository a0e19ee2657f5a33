package batch

import (
	"context"
	"log/slog"

	"github.com/lehigh-university-libraries/srcsetter/internal/srcset"
	"golang.org/x/sync/errgroup"
)

// Renderer renders one request. *srcset.Resolver satisfies it.
type Renderer interface {
	Build(ctx context.Context, req srcset.Request) (string, error)
}

// Result is the outcome of one job. Markup is empty and Error unset when the
// image or its breakpoints could not be found.
type Result struct {
	Image  string `yaml:"image"`
	Markup string `yaml:"markup,omitempty"`
	Error  string `yaml:"error,omitempty"`
}

// Skipped reports whether the job produced no markup without failing.
func (r Result) Skipped() bool {
	return r.Markup == "" && r.Error == ""
}

// Run renders jobs with at most parallel jobs in flight. Results keep the
// manifest order. A cancelled context stops jobs that have not started.
func Run(ctx context.Context, renderer Renderer, jobs []Job, parallel int) []Result {
	if parallel <= 0 {
		parallel = 1
	}

	results := make([]Result, len(jobs))
	g := new(errgroup.Group)
	g.SetLimit(parallel)

	for i, job := range jobs {
		g.Go(func() error {
			results[i].Image = job.Image
			if err := ctx.Err(); err != nil {
				results[i].Error = err.Error()
				return nil
			}

			markup, err := renderer.Build(ctx, job.Request())
			if err != nil {
				slog.Error("Batch job failed", "image", job.Image, "error", err)
				results[i].Error = err.Error()
				return nil
			}
			results[i].Markup = markup
			slog.Debug("Batch job rendered", "image", job.Image, "bytes", len(markup))
			return nil
		})
	}
	_ = g.Wait()

	return results
}
