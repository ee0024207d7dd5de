package cli

import (
	"context"

	"github.com/spf13/cobra"

	"block-manifests/internal/app"
)

type manifestOptions struct {
	Query  string
	Format string
}

func newManifestCommand() *cobra.Command {
	opts := manifestOptions{}
	cmd := &cobra.Command{
		Use:   "manifest [kind] [identity]",
		Short: "Print merged manifests, optionally narrowed by a JSONPath query",
		Example: `  block-manifests manifest settings
  block-manifests manifest blocks button --query '$.attributes'
  block-manifests manifest components --format yaml`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManifest(cmd.Context(), cmd, args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Query, "query", "", "JSONPath expression evaluated against the selected document")
	cmd.Flags().StringVar(&opts.Format, "format", app.FormatJSON, "Output format (json or yaml)")
	return cmd
}

func runManifest(ctx context.Context, cmd *cobra.Command, args []string, opts manifestOptions) error {
	req := app.ManifestRequest{
		Query:  opts.Query,
		Format: resolveString(cmd, opts.Format, "output.format", "format"),
	}
	if len(args) > 0 {
		req.Kind = args[0]
	}
	if len(args) > 1 {
		req.Identity = args[1]
	}
	result, err := newAppService().Manifest(ctx, req)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(result.Output)
	return err
}
