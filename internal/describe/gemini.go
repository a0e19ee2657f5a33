package describe

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini describes images with Google Gemini.
type Gemini struct{}

func NewGemini() *Gemini {
	return &Gemini{}
}

func (g *Gemini) Describe(ctx context.Context, config Config, image Image) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))

	// genai.ImageData wants the subtype, "jpeg" for image/jpeg.
	format := strings.TrimPrefix(image.MimeType, "image/")
	resp, err := model.GenerateContent(ctx, genai.ImageData(format, image.Data), genai.Text(prompt(config)))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return Clean(string(txt)), nil
	}

	return "", fmt.Errorf("unexpected response format from Gemini")
}
