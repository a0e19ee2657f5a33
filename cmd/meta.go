package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/srcsetter/internal/imagetext"
	"github.com/spf13/cobra"
)

func newMetaCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Read and write stored image metadata",
		Long: `Stored title and description are used for alt and title text when a render
request does not supply its own.`,
	}

	cmd.AddCommand(newMetaGetCmd(opts))
	cmd.AddCommand(newMetaSetCmd(opts))

	return cmd
}

func newMetaGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get IMAGE",
		Short: "Print stored metadata for an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			rel := a.site.Normalize(args[0])
			meta, err := a.store.Get(cmd.Context(), rel)
			if err != nil {
				return err
			}
			if meta == nil {
				return fmt.Errorf("no metadata stored for %s", rel)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Title:       %s\n", meta.Title)
			fmt.Fprintf(out, "Description: %s\n", meta.Description)
			return nil
		},
	}
}

func newMetaSetCmd(opts *rootOptions) *cobra.Command {
	var title string
	var description string

	cmd := &cobra.Command{
		Use:   "set IMAGE",
		Short: "Store title and description for an image",
		Example: `  srcsetter meta set media/hero.jpg --title "Harbour" --description "Fishing boats at dusk"`,
		Args:    cobra.ExactArgs(1),
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

			meta, err := a.store.Get(cmd.Context(), rel)
			if err != nil {
				return err
			}
			if meta == nil {
				meta = &imagetext.Metadata{}
			}
			if cmd.Flags().Changed("title") {
				meta.Title = title
			}
			if cmd.Flags().Changed("description") {
				meta.Description = description
			}

			if err := a.store.Set(cmd.Context(), rel, *meta); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored metadata for %s\n", rel)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Image title")
	cmd.Flags().StringVar(&description, "description", "", "Image description")

	return cmd
}
