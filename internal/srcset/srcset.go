// Package srcset builds responsive <img> markup from a theme's breakpoint
// catalog.
//
// For every breakpoint the caller asks for, the image is resized once and
// contributes one srcset candidate. Every band except the zero band also
// contributes one sizes media query. Output order follows the stylesheet.
package srcset

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"math"
	"strings"

	"github.com/lehigh-university-libraries/srcsetter/internal/breakpoints"
	"github.com/lehigh-university-libraries/srcsetter/internal/imagetext"
	"github.com/lehigh-university-libraries/srcsetter/internal/media"
	"github.com/lehigh-university-libraries/srcsetter/internal/units"
	"golang.org/x/sync/errgroup"
)

// DefaultQuality is passed to the resizer when a request has no quality.
const DefaultQuality = 90

// DefaultParallel bounds concurrent resize calls per request.
const DefaultParallel = 4

var (
	ErrImageNotFound       = errors.New("image not found")
	ErrBreakpointsNotFound = errors.New("breakpoints not found")
)

// Files answers questions about root-relative files.
type Files interface {
	Exists(path string) bool
	MimeType(path string) (string, error)
	Read(path string) (string, error)
}

// Resizer produces a resized copy of an image and returns its root-relative
// path.
type Resizer interface {
	Resize(ctx context.Context, path string, width int, format string, quality int) (string, error)
}

// Theme locates the active breakpoint stylesheet and turns root-relative
// paths into public URLs.
type Theme interface {
	Normalize(path string) string
	BreakpointsPath() string
	URL(path string) string
}

// MetadataSource looks up stored title and description for an image.
type MetadataSource interface {
	Get(ctx context.Context, path string) (*imagetext.Metadata, error)
}

// Request describes one responsive image.
type Request struct {
	Image   string              `json:"image" yaml:"image"`
	Sizes   map[string]string   `json:"sizes" yaml:"sizes"`
	Text    imagetext.Spec      `json:"text" yaml:"text"`
	Meta    *imagetext.Metadata `json:"meta,omitempty" yaml:"meta,omitempty"`
	Format  string              `json:"format,omitempty" yaml:"format,omitempty"`
	Quality int                 `json:"quality,omitempty" yaml:"quality,omitempty"`
}

// Resolver renders responsive image markup.
type Resolver struct {
	Files    Files
	Resizer  Resizer
	Theme    Theme
	Catalog  *breakpoints.Cache
	Metadata MetadataSource // optional, used when a request carries no metadata
	Logger   *slog.Logger   // nil uses slog.Default()
	Parallel int            // concurrent resize calls, DefaultParallel when <= 0
}

// New creates a resolver. The breakpoint cache reads through files.
func New(files Files, resizer Resizer, theme Theme, catalog *breakpoints.Cache) *Resolver {
	return &Resolver{
		Files:   files,
		Resizer: resizer,
		Theme:   theme,
		Catalog: catalog,
	}
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Build renders req and never fails because a file is missing: a missing
// image, stylesheet or catalog is logged and yields "". Broken stylesheets,
// bad lengths and resize failures are returned.
func (r *Resolver) Build(ctx context.Context, req Request) (string, error) {
	markup, err := r.Render(ctx, req)
	if err == nil {
		return markup, nil
	}

	if isMissing(err) {
		r.logger().Error("Responsive image skipped", "image", req.Image, "error", err)
		return "", nil
	}
	return "", err
}

func isMissing(err error) bool {
	return errors.Is(err, ErrImageNotFound) ||
		errors.Is(err, ErrBreakpointsNotFound) ||
		errors.Is(err, breakpoints.ErrCatalogNotFound)
}

// imagePath normalizes image through the theme and returns "" for paths
// that would leave the project root.
func (r *Resolver) imagePath(image string) string {
	return media.Contained(r.Theme.Normalize(image))
}

// Render is Build without the soft failure policy.
func (r *Resolver) Render(ctx context.Context, req Request) (string, error) {
	rel := r.imagePath(req.Image)
	if rel == "" || !r.Files.Exists(rel) {
		return "", fmt.Errorf("%w: %s", ErrImageNotFound, req.Image)
	}

	bpPath := r.Theme.BreakpointsPath()
	if !r.Files.Exists(bpPath) {
		return "", fmt.Errorf("%w: %s", ErrBreakpointsNotFound, bpPath)
	}

	bands, err := r.Catalog.Get(bpPath)
	if err != nil {
		return "", err
	}

	targets, err := Plan(bands, req.Sizes)
	if err != nil {
		return "", err
	}

	quality := req.Quality
	if quality == 0 {
		quality = DefaultQuality
	}

	urls, err := r.resizeAll(ctx, rel, targets, req.Format, quality)
	if err != nil {
		return "", err
	}

	entries, clauses := Assemble(targets, urls)
	text := imagetext.Attributes(r.metadata(ctx, rel, req.Meta), req.Text)

	r.logger().Debug("Rendered responsive image", "image", rel, "candidates", len(entries), "clauses", len(clauses))
	return Markup(r.Theme.URL(rel), text, entries, clauses), nil
}

func (r *Resolver) metadata(ctx context.Context, rel string, meta *imagetext.Metadata) *imagetext.Metadata {
	if meta != nil || r.Metadata == nil {
		return meta
	}
	found, err := r.Metadata.Get(ctx, rel)
	if err != nil {
		r.logger().Warn("Failed to load image metadata", "image", rel, "error", err)
		return nil
	}
	return found
}

// resizeAll calls the resizer once per target. Results keep target order
// regardless of completion order.
func (r *Resolver) resizeAll(ctx context.Context, rel string, targets []Target, format string, quality int) ([]string, error) {
	urls := make([]string, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	limit := r.Parallel
	if limit <= 0 {
		limit = DefaultParallel
	}
	g.SetLimit(limit)

	for i, t := range targets {
		g.Go(func() error {
			width := t.ResizeWidth()
			out, err := r.Resizer.Resize(gctx, rel, width, format, quality)
			if err != nil {
				return fmt.Errorf("failed to resize %s to %dpx: %w", rel, width, err)
			}
			urls[i] = r.Theme.URL(out)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// Target is a band the caller asked for, with the requested display width.
type Target struct {
	Band    breakpoints.Band
	Width   string
	WidthPx float64
}

// ResizeWidth is the pixel width passed to the resizer.
func (t Target) ResizeWidth() int {
	return int(math.Round(t.WidthPx))
}

// Plan pairs catalog bands with requested sizes, in catalog order. Bands
// without a requested size and sizes without a band are dropped.
func Plan(bands []breakpoints.Band, sizes map[string]string) ([]Target, error) {
	var targets []Target
	for _, band := range bands {
		width, ok := sizes[band.Name]
		if !ok {
			continue
		}
		px, err := units.Pixels(width)
		if err != nil {
			return nil, fmt.Errorf("size for breakpoint %q: %w", band.Name, err)
		}
		targets = append(targets, Target{Band: band, Width: width, WidthPx: px})
	}
	return targets, nil
}

// Entry is one srcset candidate.
type Entry struct {
	URL   string
	Width float64
}

// Clause is one sizes media query.
type Clause struct {
	Min          float64
	Max          float64
	Unit         units.Unit
	DisplayWidth string
}

// Assemble turns planned targets and their resized URLs into srcset entries
// and sizes clauses. The zero band becomes the 1w fallback and gets no
// clause. Each clause starts where the previous non-zero band started.
func Assemble(targets []Target, urls []string) ([]Entry, []Clause) {
	entries := make([]Entry, 0, len(targets))
	var clauses []Clause

	lower := 0.0
	for i, t := range targets {
		if t.Band.Px == 0 {
			entries = append(entries, Entry{URL: urls[i], Width: 1})
			continue
		}

		entries = append(entries, Entry{URL: urls[i], Width: t.Band.Px})
		clauses = append(clauses, Clause{
			Min:          lower,
			Max:          t.Band.Px - 1,
			Unit:         t.Band.Width.Unit,
			DisplayWidth: t.Width,
		})
		lower = t.Band.Px
	}
	return entries, clauses
}

// SrcsetAttr joins entries as "url widthw" candidates.
func SrcsetAttr(entries []Entry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.URL + " " + units.FormatNumber(e.Width) + "w"
	}
	return strings.Join(parts, ",")
}

// SizesAttr joins clauses as media-query display widths. Bounds are printed
// in the band's declared unit.
func SizesAttr(clauses []Clause) string {
	parts := make([]string, len(clauses))
	for i, c := range clauses {
		parts[i] = fmt.Sprintf("(min-width: %s%s) and (max-width: %s%s) %s",
			units.FormatNumber(c.Min), c.Unit,
			units.FormatNumber(c.Max), c.Unit,
			c.DisplayWidth)
	}
	return strings.Join(parts, ",")
}

// Markup assembles the final img element. text holds pre-escaped alt/title
// fragments.
func Markup(src, text string, entries []Entry, clauses []Clause) string {
	var b strings.Builder
	b.WriteString(`<img src="`)
	b.WriteString(html.EscapeString(src))
	b.WriteString(`"`)
	b.WriteString(text)
	b.WriteString(` srcset="`)
	b.WriteString(html.EscapeString(SrcsetAttr(entries)))
	b.WriteString(`" sizes="`)
	b.WriteString(html.EscapeString(SizesAttr(clauses)))
	b.WriteString(`">`)
	return b.String()
}
