package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"block-manifests/internal/app"
)

type cssOptions struct {
	Attributes string
	UniqueID   string
	Selector   string
	Globals    bool
}

func newCSSCommand() *cobra.Command {
	opts := cssOptions{}
	cmd := &cobra.Command{
		Use:   "css <block|component> <name>",
		Short: "Render the responsive CSS variables of one instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCSS(cmd.Context(), cmd, args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Attributes, "attributes", "", "JSON file with the instance attribute values")
	cmd.Flags().StringVar(&opts.UniqueID, "unique", "", "Instance id used in the selector (generated when empty)")
	cmd.Flags().StringVar(&opts.Selector, "selector", "", "Selector overriding the class-derived one")
	cmd.Flags().BoolVar(&opts.Globals, "globals", false, "Prepend the :root global variables")
	return cmd
}

func runCSS(ctx context.Context, cmd *cobra.Command, args []string, opts cssOptions) error {
	result, err := newAppService().CSS(ctx, app.CSSRequest{
		Target:         args[0],
		Name:           args[1],
		AttributesPath: opts.Attributes,
		UniqueID:       opts.UniqueID,
		Selector:       opts.Selector,
		Globals:        resolveBool(cmd, opts.Globals, "css.globals", "globals"),
	})
	if err != nil {
		return err
	}
	if result.CSS == "" {
		log.Ctx(ctx).Info().Str("unique", result.UniqueID).Msg("no declarations for this instance")
		return nil
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), result.CSS)
	return err
}
