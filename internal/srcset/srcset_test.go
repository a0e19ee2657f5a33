package srcset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lehigh-university-libraries/srcsetter/internal/breakpoints"
	"github.com/lehigh-university-libraries/srcsetter/internal/imagetext"
	"github.com/lehigh-university-libraries/srcsetter/internal/units"
)

const breakpointsPath = "themes/demo/assets/css/breakpoints.css"

const bootstrapCSS = `.xs { width: 0; } .sm { width: 40rem; } .md { width: 60rem; }`

type fakeFiles struct {
	files map[string]string
	mimes map[string]string
}

func (f *fakeFiles) Exists(p string) bool {
	_, ok := f.files[p]
	return ok
}

func (f *fakeFiles) MimeType(p string) (string, error) {
	if m, ok := f.mimes[p]; ok {
		return m, nil
	}
	return "image/jpeg", nil
}

func (f *fakeFiles) Read(p string) (string, error) {
	text, ok := f.files[p]
	if !ok {
		return "", fmt.Errorf("%w: %s", breakpoints.ErrCatalogNotFound, p)
	}
	return text, nil
}

type call struct {
	Path    string
	Width   int
	Format  string
	Quality int
}

type fakeResizer struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (r *fakeResizer) Resize(ctx context.Context, p string, width int, format string, quality int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{Path: p, Width: width, Format: format, Quality: quality})
	if r.err != nil {
		return "", r.err
	}
	base := strings.TrimSuffix(path.Base(p), path.Ext(p))
	ext := format
	if ext == "" {
		ext = strings.TrimPrefix(path.Ext(p), ".")
	}
	return fmt.Sprintf("resized/%s_%d.%s", base, width, ext), nil
}

func (r *fakeResizer) widths() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, c := range r.calls {
		out = append(out, c.Width)
	}
	return out
}

type fakeTheme struct{}

func (fakeTheme) Normalize(p string) string {
	p = strings.TrimPrefix(p, "https://example.org")
	return strings.TrimLeft(p, "/")
}
func (fakeTheme) BreakpointsPath() string { return breakpointsPath }
func (fakeTheme) URL(p string) string     { return "https://example.org/" + p }

type fakeMetadata map[string]*imagetext.Metadata

func (m fakeMetadata) Get(ctx context.Context, p string) (*imagetext.Metadata, error) {
	return m[p], nil
}

func newResolver(t *testing.T, css string) (*Resolver, *fakeResizer, *bytes.Buffer) {
	t.Helper()
	files := &fakeFiles{
		files: map[string]string{
			"storage/app/media/photo.jpg": "",
			"storage/app/media/logo.svg":  "<?xml version=\"1.0\"?>\n<!-- logo -->\n<svg  width=\"10\">\r\n  <g/>\n</svg>\n",
		},
		mimes: map[string]string{"storage/app/media/logo.svg": "image/svg+xml"},
	}
	if css != "" {
		files.files[breakpointsPath] = css
	}

	resizer := &fakeResizer{}
	var logs bytes.Buffer
	r := New(files, resizer, fakeTheme{}, breakpoints.NewCache(files))
	r.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	return r, resizer, &logs
}

func TestBuild(t *testing.T) {
	r, resizer, _ := newResolver(t, bootstrapCSS)

	markup, err := r.Build(context.Background(), Request{
		Image: "/storage/app/media/photo.jpg",
		Sizes: map[string]string{"xs": "30rem", "sm": "40rem", "md": "50rem"},
		Text:  imagetext.Spec{Alt: "Harbour"},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	expected := `<img src="https://example.org/storage/app/media/photo.jpg" alt="Harbour"` +
		` srcset="https://example.org/resized/photo_480.jpg 1w,https://example.org/resized/photo_640.jpg 640w,https://example.org/resized/photo_800.jpg 960w"` +
		` sizes="(min-width: 0rem) and (max-width: 639rem) 40rem,(min-width: 640rem) and (max-width: 959rem) 50rem">`
	if markup != expected {
		t.Errorf("Unexpected markup:\nwant %s\ngot  %s", expected, markup)
	}

	if diff := cmp.Diff([]int{480, 640, 800}, sortedInts(resizer.widths())); diff != "" {
		t.Errorf("Resize widths mismatch (-want +got):\n%s", diff)
	}
	for _, c := range resizer.calls {
		if c.Quality != DefaultQuality || c.Path != "storage/app/media/photo.jpg" {
			t.Errorf("Unexpected resize call %+v", c)
		}
	}
}

func sortedInts(in []int) []int {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}

func TestPlanAndAssemble(t *testing.T) {
	bands, err := breakpoints.Load(bootstrapCSS)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	targets, err := Plan(bands, map[string]string{"xs": "100px", "sm": "40rem", "md": "60rem", "xxl": "80rem"})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(targets) != 3 {
		t.Fatalf("Expected 3 targets (xxl dropped), got %d", len(targets))
	}

	entries, clauses := Assemble(targets, []string{"a", "b", "c"})

	expectedEntries := []Entry{{URL: "a", Width: 1}, {URL: "b", Width: 640}, {URL: "c", Width: 960}}
	if diff := cmp.Diff(expectedEntries, entries); diff != "" {
		t.Errorf("Entries mismatch (-want +got):\n%s", diff)
	}

	expectedClauses := []Clause{
		{Min: 0, Max: 639, Unit: units.REM, DisplayWidth: "40rem"},
		{Min: 640, Max: 959, Unit: units.REM, DisplayWidth: "60rem"},
	}
	if diff := cmp.Diff(expectedClauses, clauses); diff != "" {
		t.Errorf("Clauses mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleZeroBandKeepsLowerBound(t *testing.T) {
	bands, err := breakpoints.Load(`.sm { width: 640px } .xs { width: 0 } .md { width: 960px }`)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	targets, err := Plan(bands, map[string]string{"sm": "600px", "xs": "300px", "md": "900px"})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	entries, clauses := Assemble(targets, []string{"sm", "xs", "md"})

	if diff := cmp.Diff([]Entry{{"sm", 640}, {"xs", 1}, {"md", 960}}, entries); diff != "" {
		t.Errorf("Entries mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Clause{
		{Min: 0, Max: 639, Unit: units.PX, DisplayWidth: "600px"},
		{Min: 640, Max: 959, Unit: units.PX, DisplayWidth: "900px"},
	}, clauses); diff != "" {
		t.Errorf("Clauses mismatch (-want +got):\n%s", diff)
	}
}

func TestSizesAttr(t *testing.T) {
	got := SizesAttr([]Clause{
		{Min: 0, Max: 575, Unit: units.PX, DisplayWidth: "100vw"},
		{Min: 576, Max: 767, Unit: units.PX, DisplayWidth: "540px"},
	})
	expected := "(min-width: 0px) and (max-width: 575px) 100vw,(min-width: 576px) and (max-width: 767px) 540px"
	if got != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}
}

func TestBuildUnmatchedBreakpoint(t *testing.T) {
	r, resizer, _ := newResolver(t, bootstrapCSS)

	markup, err := r.Build(context.Background(), Request{
		Image: "storage/app/media/photo.jpg",
		Sizes: map[string]string{"sm": "40rem", "xxl": "80rem"},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(resizer.calls) != 1 {
		t.Errorf("Expected 1 resize call, got %d", len(resizer.calls))
	}
	if !strings.Contains(markup, `srcset="https://example.org/resized/photo_640.jpg 640w"`) {
		t.Errorf("Unexpected markup %s", markup)
	}
	if strings.Contains(markup, "80rem") {
		t.Errorf("Unmatched size leaked into markup: %s", markup)
	}
}

func TestBuildDoesNotMemoizeResizes(t *testing.T) {
	r, resizer, _ := newResolver(t, bootstrapCSS)

	_, err := r.Build(context.Background(), Request{
		Image: "storage/app/media/photo.jpg",
		Sizes: map[string]string{"sm": "40rem", "md": "40rem"},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if diff := cmp.Diff([]int{640, 640}, resizer.widths()); diff != "" {
		t.Errorf("Expected one resize per band (-want +got):\n%s", diff)
	}
}

func TestBuildMissingImage(t *testing.T) {
	r, resizer, logs := newResolver(t, bootstrapCSS)
	req := Request{Image: "missing.png", Sizes: map[string]string{"sm": "40rem"}}

	markup, err := r.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build must not fail for a missing image: %v", err)
	}
	if markup != "" {
		t.Errorf("Expected empty markup, got %s", markup)
	}
	if !strings.Contains(logs.String(), "image not found") {
		t.Errorf("Expected image not found diagnostic, got logs: %s", logs.String())
	}
	if len(resizer.calls) != 0 {
		t.Errorf("Expected no resize calls, got %d", len(resizer.calls))
	}

	if _, err := r.Render(context.Background(), req); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("Expected ErrImageNotFound from Render, got %v", err)
	}
}

func TestBuildMissingBreakpoints(t *testing.T) {
	r, _, logs := newResolver(t, "")
	req := Request{Image: "storage/app/media/photo.jpg", Sizes: map[string]string{"sm": "40rem"}}

	markup, err := r.Build(context.Background(), req)
	if err != nil || markup != "" {
		t.Fatalf("Expected empty markup and no error, got %q, %v", markup, err)
	}
	if !strings.Contains(logs.String(), "breakpoints not found") {
		t.Errorf("Expected breakpoints diagnostic, got logs: %s", logs.String())
	}
	if _, err := r.Render(context.Background(), req); !errors.Is(err, ErrBreakpointsNotFound) {
		t.Errorf("Expected ErrBreakpointsNotFound, got %v", err)
	}
}

func TestBuildHardFailures(t *testing.T) {
	t.Run("unsupported size unit", func(t *testing.T) {
		r, _, _ := newResolver(t, bootstrapCSS)
		_, err := r.Build(context.Background(), Request{
			Image: "storage/app/media/photo.jpg",
			Sizes: map[string]string{"sm": "100vw"},
		})
		var unitErr *units.UnsupportedUnitError
		if !errors.As(err, &unitErr) {
			t.Fatalf("Expected UnsupportedUnitError, got %v", err)
		}
	})

	t.Run("broken stylesheet", func(t *testing.T) {
		r, _, _ := newResolver(t, `.xs { width: 0`)
		_, err := r.Build(context.Background(), Request{Image: "storage/app/media/photo.jpg"})
		var parseErr *breakpoints.ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("Expected ParseError, got %v", err)
		}
	})

	t.Run("resize failure", func(t *testing.T) {
		r, resizer, _ := newResolver(t, bootstrapCSS)
		resizer.err = errors.New("service unavailable")
		_, err := r.Build(context.Background(), Request{
			Image: "storage/app/media/photo.jpg",
			Sizes: map[string]string{"sm": "40rem"},
		})
		if err == nil || !strings.Contains(err.Error(), "service unavailable") {
			t.Fatalf("Expected resize error, got %v", err)
		}
	})
}

func TestBuildIdempotent(t *testing.T) {
	req := Request{
		Image:   "storage/app/media/photo.jpg",
		Sizes:   map[string]string{"xs": "20rem", "sm": "40rem", "md": "60rem"},
		Text:    imagetext.Spec{Alt: "A", Title: "T"},
		Format:  "webp",
		Quality: 70,
	}

	r, _, _ := newResolver(t, bootstrapCSS)
	cold, err := r.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	warm, err := r.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	fresh, _, _ := newResolver(t, bootstrapCSS)
	other, err := fresh.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if cold != warm || cold != other {
		t.Errorf("Expected identical markup:\ncold  %s\nwarm  %s\nfresh %s", cold, warm, other)
	}
	if !strings.Contains(cold, ` alt="A" title="T"`) {
		t.Errorf("Expected alt and title, got %s", cold)
	}
}

func TestBuildUsesMetadataSource(t *testing.T) {
	r, _, _ := newResolver(t, bootstrapCSS)
	r.Metadata = fakeMetadata{"storage/app/media/photo.jpg": {Description: "From the archive"}}

	markup, err := r.Build(context.Background(), Request{
		Image: "storage/app/media/photo.jpg",
		Sizes: map[string]string{"sm": "40rem"},
		Text:  imagetext.Spec{Alt: "caller"},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !strings.Contains(markup, ` alt="From the archive"`) {
		t.Errorf("Expected metadata description, got %s", markup)
	}

	markup, err = r.Build(context.Background(), Request{
		Image: "storage/app/media/photo.jpg",
		Sizes: map[string]string{"sm": "40rem"},
		Meta:  &imagetext.Metadata{Title: "Explicit"},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !strings.Contains(markup, ` alt="Explicit"`) {
		t.Errorf("Expected request metadata to win, got %s", markup)
	}
}

func TestTag(t *testing.T) {
	r, resizer, _ := newResolver(t, bootstrapCSS)

	got, err := r.Tag(context.Background(), "/storage/app/media/photo.jpg", TagOptions{
		Text:    imagetext.Spec{Alt: "Harbour"},
		Classes: "img-fluid rounded",
	})
	if err != nil {
		t.Fatalf("Tag failed: %v", err)
	}
	expected := `<img src="https://example.org/storage/app/media/photo.jpg" alt="Harbour" class="img-fluid rounded">`
	if got != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}
	if len(resizer.calls) != 0 {
		t.Errorf("Tag must not resize")
	}

	svg, err := r.Tag(context.Background(), "storage/app/media/logo.svg", TagOptions{})
	if err != nil {
		t.Fatalf("Tag failed: %v", err)
	}
	if svg != `<svg width="10"> <g/></svg>` {
		t.Errorf("Unexpected inline svg %q", svg)
	}

	missing, err := r.Tag(context.Background(), "nope.jpg", TagOptions{})
	if err != nil || missing != "" {
		t.Errorf("Expected empty result for missing file, got %q, %v", missing, err)
	}
}

func TestImagesOutsideRootAreNotFound(t *testing.T) {
	r, resizer, _ := newResolver(t, bootstrapCSS)
	files := r.Files.(*fakeFiles)
	files.files["../secret.svg"] = "<svg>TOP-SECRET</svg>"
	files.mimes["../secret.svg"] = "image/svg+xml"
	files.files["../photo.jpg"] = ""

	for _, image := range []string{"../secret.svg", "storage/../../secret.svg", "https://example.org/../photo.jpg"} {
		t.Run(image, func(t *testing.T) {
			got, err := r.Tag(context.Background(), image, TagOptions{})
			if err != nil || got != "" {
				t.Errorf("Expected empty tag, got %q, %v", got, err)
			}

			req := Request{Image: image, Sizes: map[string]string{"sm": "40rem"}}
			markup, err := r.Build(context.Background(), req)
			if err != nil || markup != "" {
				t.Errorf("Expected empty markup, got %q, %v", markup, err)
			}
			if _, err := r.Render(context.Background(), req); !errors.Is(err, ErrImageNotFound) {
				t.Errorf("Expected ErrImageNotFound, got %v", err)
			}
		})
	}
	if len(resizer.calls) != 0 {
		t.Errorf("Expected no resize calls, got %d", len(resizer.calls))
	}
}

type unreadableSource struct{}

func (unreadableSource) Read(p string) (string, error) {
	return "", errors.New("permission denied")
}

func TestBuildUnreadableCatalog(t *testing.T) {
	r, resizer, logs := newResolver(t, bootstrapCSS)
	r.Catalog = breakpoints.NewCache(unreadableSource{})
	req := Request{Image: "storage/app/media/photo.jpg", Sizes: map[string]string{"sm": "40rem"}}

	markup, err := r.Build(context.Background(), req)
	if err != nil || markup != "" {
		t.Fatalf("Expected empty markup and no error, got %q, %v", markup, err)
	}
	if !strings.Contains(logs.String(), "permission denied") {
		t.Errorf("Expected read error in logs, got: %s", logs.String())
	}
	if len(resizer.calls) != 0 {
		t.Errorf("Expected no resize calls, got %d", len(resizer.calls))
	}

	if _, err := r.Render(context.Background(), req); !errors.Is(err, breakpoints.ErrCatalogNotFound) {
		t.Errorf("Expected ErrCatalogNotFound from Render, got %v", err)
	}
}
