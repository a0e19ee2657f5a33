// Package resize scales images to a target width and stores the results in
// a cache directory under the project root.
package resize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultQuality is used when no quality between 1 and 100 is given.
const DefaultQuality = 90

// DefaultCacheDir is where resized files are written, relative to the root.
const DefaultCacheDir = "storage/app/resized"

// ErrUnsupportedFormat is returned for output formats that cannot be encoded.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Local resizes files that live under Root.
type Local struct {
	Root     string
	CacheDir string
}

// NewLocal creates a resizer for root using the default cache directory.
func NewLocal(root string) *Local {
	return &Local{Root: root, CacheDir: DefaultCacheDir}
}

// Resize scales rel to width pixels wide, keeping the aspect ratio, and
// encodes it as format ("" keeps the source format). It returns the
// root-relative path of the result. A cached result newer than the source is
// reused.
func (l *Local) Resize(ctx context.Context, rel string, width int, format string, quality int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if width <= 0 {
		return "", fmt.Errorf("invalid width %d for %s", width, rel)
	}

	format, err := outputFormat(rel, format)
	if err != nil {
		return "", err
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	srcPath := filepath.Join(l.Root, filepath.FromSlash(rel))
	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat source image: %w", err)
	}

	outRel := path.Join(l.cacheDir(), cacheName(rel, width, quality, format))
	outPath := filepath.Join(l.Root, filepath.FromSlash(outRel))
	if info, err := os.Stat(outPath); err == nil && !info.ModTime().Before(srcInfo.ModTime()) {
		slog.Debug("Reusing resized image", "source", rel, "width", width, "path", outRel)
		return outRel, nil
	}

	src, err := decode(srcPath)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := scale(src, width)
	if err := write(outPath, dst, format, quality); err != nil {
		return "", err
	}

	slog.Info("Resized image", "source", rel, "width", width, "format", format, "quality", quality, "path", outRel)
	return outRel, nil
}

func (l *Local) cacheDir() string {
	if l.CacheDir == "" {
		return DefaultCacheDir
	}
	return strings.Trim(filepath.ToSlash(l.CacheDir), "/")
}

func outputFormat(rel, requested string) (string, error) {
	format := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(requested), "."))
	if format == "" {
		format = strings.ToLower(strings.TrimPrefix(path.Ext(rel), "."))
	}

	switch format {
	case "jpg", "jpeg":
		return "jpeg", nil
	case "png", "gif":
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func cacheName(rel string, width, quality int, format string) string {
	sum := sha256.Sum256([]byte(rel))
	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	base := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	return hex.EncodeToString(sum[:])[:12] + "_" + base + "_" + strconv.Itoa(width) + "_" + strconv.Itoa(quality) + "." + ext
}

func decode(p string) (image.Image, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open source image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", p, err)
	}
	return img, nil
}

func scale(src image.Image, width int) image.Image {
	b := src.Bounds()
	height := int(math.Round(float64(b.Dy()) * float64(width) / float64(b.Dx())))
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// write encodes into a temporary file and renames it into place so readers
// never see a partial image.
func write(outPath string, img image.Image, format string, quality int) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".resize-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, img, format, quality); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write resized image: %w", err)
	}

	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return fmt.Errorf("failed to move resized image into place: %w", err)
	}
	return nil
}

func encode(w io.Writer, img image.Image, format string, quality int) error {
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case "png":
		err = (&png.Encoder{CompressionLevel: png.BestCompression}).Encode(w, img)
	case "gif":
		err = gif.Encode(w, img, nil)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}
