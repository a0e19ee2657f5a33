package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/srcsetter/internal/imagetext"
	"github.com/lehigh-university-libraries/srcsetter/internal/srcset"
	"github.com/spf13/cobra"
)

type textFlags struct {
	alt         string
	title       string
	first       string
	noAlt       bool
	showTitle   bool
	defaultText string
	defaultDesc string
}

func (f *textFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.alt, "alt", "", "Alt text")
	cmd.Flags().StringVar(&f.title, "title", "", "Title text")
	cmd.Flags().StringVar(&f.first, "first", "title", "Metadata field preferred when both exist (title or description)")
	cmd.Flags().BoolVar(&f.noAlt, "no-alt", false, "Omit the alt attribute")
	cmd.Flags().BoolVar(&f.showTitle, "show-title", false, "Emit a title attribute even without --title")
	cmd.Flags().StringVar(&f.defaultText, "default", "", "Fallback title used when nothing else is available")
	cmd.Flags().StringVar(&f.defaultDesc, "default-description", "", "Fallback description, preferred over --default")
}

func (f *textFlags) spec(cmd *cobra.Command) imagetext.Spec {
	spec := imagetext.Spec{
		Alt:     f.alt,
		Title:   f.title,
		First:   imagetext.First(f.first),
		Default: imagetext.Defaults{Title: f.defaultText, Description: f.defaultDesc},
	}
	if f.noAlt {
		show := false
		spec.ShowAlt = &show
	}
	if cmd.Flags().Changed("show-title") {
		show := f.showTitle
		spec.ShowTitle = &show
	}
	return spec
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var sizes map[string]string
	var format string
	var quality int
	var strict bool
	var text textFlags

	cmd := &cobra.Command{
		Use:   "render IMAGE",
		Short: "Render responsive <img> markup for one image",
		Long: `Resizes IMAGE once for every requested breakpoint of the active theme and
prints an <img> element with srcset and sizes attributes.

Breakpoints are named after the classes in the theme's breakpoints.css. A
breakpoint that is not in the stylesheet is ignored.`,
		Example: `  # 30rem wide on phones, 960px from the md breakpoint
  srcsetter render media/hero.jpg --size xs=30rem --size md=960px --alt "Harbour at dusk"

  # Convert to png and fail instead of printing nothing when files are missing
  srcsetter render media/logo.jpg --size sm=120px --format png --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			req := a.request(srcset.Request{
				Image:   args[0],
				Sizes:   sizes,
				Text:    text.spec(cmd),
				Format:  format,
				Quality: quality,
			})

			render := a.resolver.Build
			if strict {
				render = a.resolver.Render
			}
			markup, err := render(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to render %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), markup)
			return nil
		},
	}

	cmd.Flags().StringToStringVarP(&sizes, "size", "s", nil, "Display width per breakpoint, e.g. md=960px (repeatable)")
	cmd.Flags().StringVar(&format, "format", "", "Output format (jpg, png, gif); defaults to the source format")
	cmd.Flags().IntVar(&quality, "quality", 0, "Output quality 1-100")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when the image or breakpoints are missing")
	text.register(cmd)

	return cmd
}

func newTagCmd(opts *rootOptions) *cobra.Command {
	var classes string
	var text textFlags

	cmd := &cobra.Command{
		Use:   "tag IMAGE",
		Short: "Render a plain <img> tag, or inline SVG",
		Example: `  srcsetter tag media/photo.jpg --class "rounded" --alt "Portrait"
  srcsetter tag media/icons/arrow.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			markup, err := a.resolver.Tag(cmd.Context(), args[0], srcset.TagOptions{
				Text:    text.spec(cmd),
				Classes: classes,
			})
			if err != nil {
				return fmt.Errorf("failed to render tag for %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), markup)
			return nil
		},
	}

	cmd.Flags().StringVar(&classes, "class", "", "Value of the class attribute")
	text.register(cmd)

	return cmd
}
