// Package batch renders responsive markup for many images listed in a
// manifest file.
package batch

import (
	"github.com/lehigh-university-libraries/srcsetter/internal/imagetext"
	"github.com/lehigh-university-libraries/srcsetter/internal/srcset"
)

// Job is one manifest row. Sizes maps breakpoint names to display widths.
type Job struct {
	Image   string            `json:"image" parquet:"image"`
	Sizes   map[string]string `json:"sizes" parquet:"sizes"`
	Alt     string            `json:"alt,omitempty" parquet:"alt,optional"`
	Title   string            `json:"title,omitempty" parquet:"title,optional"`
	Format  string            `json:"format,omitempty" parquet:"format,optional"`
	Quality int32             `json:"quality,omitempty" parquet:"quality,optional"`
}

// Request converts the job into a render request.
func (j Job) Request() srcset.Request {
	return srcset.Request{
		Image: j.Image,
		Sizes: j.Sizes,
		Text: imagetext.Spec{
			Alt:   j.Alt,
			Title: j.Title,
		},
		Format:  j.Format,
		Quality: int(j.Quality),
	}
}
