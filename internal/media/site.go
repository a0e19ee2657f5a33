// Package media resolves site-relative image paths against the project root
// and the active theme.
package media

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultThemesPath is where themes live relative to the project root.
const DefaultThemesPath = "themes"

// Site is a project on disk plus the public URL it is served from.
type Site struct {
	Root       string
	BaseURL    string
	ThemesPath string
	Theme      string
}

// Normalize turns a URL or rooted path into a cleaned root-relative path.
// The site's base URL is removed from absolute URLs, then any leading slash.
// Paths that resolve outside the root become "".
func (s *Site) Normalize(p string) string {
	p = strings.TrimSpace(p)
	if base := strings.TrimRight(s.BaseURL, "/"); base != "" && strings.Contains(p, "://") {
		p = strings.TrimPrefix(p, base)
	}
	clean := Contained(strings.TrimLeft(p, "/"))
	if clean != "" && strings.Contains(p, "://") {
		// Foreign URLs are kept as given so they never match a local file.
		return p
	}
	return clean
}

// Contained cleans a root-relative path and returns "" when it is empty or
// climbs above the root.
func Contained(rel string) string {
	rel = path.Clean(strings.ReplaceAll(rel, "\\", "/"))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") || strings.HasPrefix(rel, "/") {
		return ""
	}
	return rel
}

// Path returns the on-disk location of a root-relative path.
func (s *Site) Path(rel string) string {
	return filepath.Join(s.Root, filepath.FromSlash(rel))
}

// URL returns the public URL of a root-relative path.
func (s *Site) URL(rel string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(rel, "/")
}

// BreakpointsPath is the active theme's breakpoint stylesheet.
func (s *Site) BreakpointsPath() string {
	themes := s.ThemesPath
	if themes == "" {
		themes = DefaultThemesPath
	}
	return path.Join(themes, s.Theme, "assets", "css", "breakpoints.css")
}

// Exists reports whether rel is a regular file.
func (s *Site) Exists(rel string) bool {
	info, err := os.Stat(s.Path(rel))
	return err == nil && !info.IsDir()
}

// Read returns the contents of rel as text.
func (s *Site) Read(rel string) (string, error) {
	data, err := os.ReadFile(s.Path(rel))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MimeType sniffs the content type of rel, without parameters.
func (s *Site) MimeType(rel string) (string, error) {
	f, err := os.Open(s.Path(rel))
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", rel, err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read %s: %w", rel, err)
	}
	head = head[:n]

	if strings.EqualFold(path.Ext(rel), ".svg") || bytes.Contains(head, []byte("<svg")) {
		return "image/svg+xml", nil
	}

	ct := http.DetectContentType(head)
	if ct == "application/octet-stream" {
		if byExt := mime.TypeByExtension(path.Ext(rel)); byExt != "" {
			ct = byExt
		}
	}

	ct, _, _ = strings.Cut(ct, ";")
	return strings.TrimSpace(ct), nil
}

// Info describes a media file.
type Info struct {
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	Type     string `json:"type"`
	Subtype  string `json:"subtype"`
}

// None is reported for files that do not exist.
var None = Info{MimeType: "none/none", Type: "none", Subtype: "none"}

// Inspect reports size and type of rel, or None when it is missing or a
// directory. SVG is reported with the subtype "svg".
func (s *Site) Inspect(rel string) Info {
	if rel == "" {
		return None
	}

	info, err := os.Stat(s.Path(rel))
	if err != nil || info.IsDir() {
		return None
	}

	ct, err := s.MimeType(rel)
	if err != nil {
		return None
	}

	out := Info{Size: info.Size(), MimeType: ct}
	if typ, sub, ok := strings.Cut(ct, "/"); ok {
		out.Type = typ
		out.Subtype = sub
	}
	if out.Subtype == "svg+xml" {
		out.Subtype = "svg"
	}
	return out
}
