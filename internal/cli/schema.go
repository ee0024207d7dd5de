package cli

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"block-manifests/internal/app"
)

type schemaOptions struct {
	Full   bool
	Format string
}

func newSchemaCommand() *cobra.Command {
	opts := schemaOptions{}
	cmd := &cobra.Command{
		Use:   "schema <block|component> <name>",
		Short: "Print the composed attribute schema of a block or component",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd.Context(), cmd, args, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Full, "full", false, "Include default block and wrapper attributes (blocks only)")
	cmd.Flags().StringVar(&opts.Format, "format", app.FormatJSON, "Output format (json or yaml)")
	return cmd
}

func runSchema(ctx context.Context, cmd *cobra.Command, args []string, opts schemaOptions) error {
	result, err := newAppService().Schema(ctx, app.SchemaRequest{
		Target: args[0],
		Name:   args[1],
		Full:   resolveBool(cmd, opts.Full, "schema.full", "full"),
		Format: resolveString(cmd, opts.Format, "output.format", "format"),
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Debug().Int("attributes", result.Keys).Msg("schema composed")
	_, err = cmd.OutOrStdout().Write(result.Output)
	return err
}
