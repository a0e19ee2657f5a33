// Package imagetext resolves alt and title attributes for images.
//
// Text comes from three places: the caller, the caller's defaults, and the
// metadata stored for the image. The metadata description always replaces
// caller text, and the metadata title replaces everything when Spec.First is
// "title" (the default).
package imagetext

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// Kind selects the attribute being resolved.
type Kind string

const (
	Alt   Kind = "alt"
	Title Kind = "title"
)

// First selects which metadata field is preferred when both are present.
type First string

const (
	FirstTitle       First = "title"
	FirstDescription First = "description"
)

// Metadata is the title and description stored for an image.
type Metadata struct {
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Defaults are used when neither the caller nor the metadata has text.
type Defaults struct {
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Spec is the caller's text configuration for one image.
type Spec struct {
	Alt     string   `json:"alt,omitempty" yaml:"alt,omitempty"`
	Title   string   `json:"title,omitempty" yaml:"title,omitempty"`
	First   First    `json:"first,omitempty" yaml:"first,omitempty"`
	Default Defaults `json:"default,omitempty" yaml:"default,omitempty"`

	// ShowAlt defaults to true.
	ShowAlt *bool `json:"show_alt,omitempty" yaml:"show_alt,omitempty"`
	// ShowTitle defaults to false, unless Title is set.
	ShowTitle *bool `json:"show_title,omitempty" yaml:"show_title,omitempty"`
}

// AltEnabled reports whether an alt attribute should be computed.
func (s Spec) AltEnabled() bool {
	return s.ShowAlt == nil || *s.ShowAlt
}

// TitleEnabled reports whether a title attribute should be computed.
func (s Spec) TitleEnabled() bool {
	if s.ShowTitle != nil {
		return *s.ShowTitle
	}
	return s.Title != ""
}

func (s Spec) first() First {
	if s.First == "" {
		return FirstTitle
	}
	return s.First
}

func (s Spec) text(kind Kind) string {
	switch kind {
	case Alt:
		return s.Alt
	case Title:
		return s.Title
	}
	return ""
}

var strict = bluemonday.StrictPolicy()

// strip removes markup from stored metadata text. The policy escapes what it
// keeps, so the result is unescaped again to avoid double escaping later.
func strip(s string) string {
	return html.UnescapeString(strict.Sanitize(s))
}

// Resolve returns ` alt="…"` or ` title="…"` for kind, escaped, or an empty
// string when no text is available. meta may be nil.
func Resolve(meta *Metadata, spec Spec, kind Kind) string {
	text := spec.text(kind)

	if text == "" {
		text = spec.Default.Description
	}

	if meta != nil && meta.Description != "" {
		text = strip(meta.Description)
	}

	if text == "" {
		text = spec.Default.Title
	}

	if meta != nil && meta.Title != "" && (text == "" || spec.first() == FirstTitle) {
		text = strip(meta.Title)
	}

	if text == "" {
		return ""
	}

	return " " + string(kind) + `="` + html.EscapeString(text) + `"`
}

// Attributes returns the alt and title fragments enabled by spec, in that
// order.
func Attributes(meta *Metadata, spec Spec) string {
	var out string
	if spec.AltEnabled() {
		out += Resolve(meta, spec, Alt)
	}
	if spec.TitleEnabled() {
		out += Resolve(meta, spec, Title)
	}
	return out
}
