package cmd

import (
	"fmt"
	"os"

	"github.com/lehigh-university-libraries/srcsetter/internal/describe"
	"github.com/lehigh-university-libraries/srcsetter/internal/imagetext"
	"github.com/spf13/cobra"
)

func newDescribeCmd(opts *rootOptions) *cobra.Command {
	var provider string
	var model string
	var save bool

	cmd := &cobra.Command{
		Use:   "describe IMAGE",
		Short: "Generate alt text for an image with a vision model",
		Long: `Sends IMAGE to a vision-capable model and prints a one-sentence
description. With --save the description is stored as the image's metadata
description, which is then used as alt text.

Gemini requires GEMINI_API_KEY. Ollama uses OLLAMA_URL (default
http://localhost:11434).`,
		Example: `  # Describe with the configured provider
  srcsetter describe media/hero.jpg

  # Describe with Gemini and store the result
  srcsetter describe media/hero.jpg --provider gemini --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			rel := a.site.Normalize(args[0])
			if !a.site.Exists(rel) {
				return fmt.Errorf("image not found: %s", args[0])
			}

			if provider == "" {
				provider = a.cfg.Describe.Provider
			}
			if model == "" {
				model = a.cfg.Describe.Model
			}
			if model == "" {
				model = describe.DefaultModel(provider)
			}

			describer, err := describe.New(provider)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(a.site.Path(rel))
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			mimeType, err := a.site.MimeType(rel)
			if err != nil {
				return err
			}

			text, err := describer.Describe(cmd.Context(), describe.Config{
				Model:       model,
				Temperature: a.cfg.Describe.Temperature,
				Prompt:      a.cfg.Describe.Prompt,
			}, describe.Image{Data: data, MimeType: mimeType})
			if err != nil {
				return fmt.Errorf("failed to describe %s: %w", rel, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), text)

			if !save {
				return nil
			}
			meta, err := a.store.Get(cmd.Context(), rel)
			if err != nil {
				return err
			}
			if meta == nil {
				meta = &imagetext.Metadata{}
			}
			meta.Description = text
			return a.store.Set(cmd.Context(), rel, *meta)
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to use (ollama, gemini)")
	cmd.Flags().StringVar(&model, "model", "", "Model to use")
	cmd.Flags().BoolVar(&save, "save", false, "Store the description in the metadata store")

	return cmd
}
