// Package describe asks a vision-capable model for short image descriptions
// used as alt text.
package describe

import (
	"context"
	"fmt"
	"strings"
)

// DefaultPrompt asks for plain alt text without preamble.
const DefaultPrompt = `Describe this image in one short sentence suitable for the alt attribute of an HTML img element.
Do not start with "An image of" or "A picture of". Respond with the description only.`

// Config represents the configuration for a describer.
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
}

// Image is the encoded image sent to the model.
type Image struct {
	Data     []byte
	MimeType string
}

// Describer returns a description of an image.
type Describer interface {
	Describe(ctx context.Context, config Config, image Image) (string, error)
}

// New returns the describer for provider.
func New(provider string) (Describer, error) {
	switch provider {
	case "gemini":
		return NewGemini(), nil
	case "", "ollama":
		return NewOllama(), nil
	default:
		return nil, fmt.Errorf("unsupported describe provider: %s", provider)
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	if provider == "gemini" {
		return "gemini-2.5-flash"
	}
	return "llava"
}

// Clean trims whitespace, surrounding quotes and a trailing newline block from
// a model response.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return strings.Trim(s, "\"'`")
}

func prompt(config Config) string {
	if config.Prompt == "" {
		return DefaultPrompt
	}
	return config.Prompt
}
