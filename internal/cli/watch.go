package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"block-manifests/internal/app"
)

type watchOptions struct {
	Persist bool
}

func newWatchCommand() *cobra.Command {
	opts := watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild manifests whenever a manifest file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Persist, "persist", false, "Write every rebuild to the snapshot and store")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, opts watchOptions) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return newAppService().Watch(ctx, app.WatchRequest{
		Persist: resolveBool(cmd, opts.Persist, "watch.persist", "persist"),
	}, func(event app.WatchEvent) {
		if event.Err != nil {
			log.Ctx(ctx).Error().Err(event.Err).Str("path", event.Path).Msg("rebuild failed, serving previous manifests")
			return
		}
		log.Ctx(ctx).Info().
			Str("path", event.Path).
			Int("manifests", event.Manifests).
			Time("at", event.At).
			Msg("manifests rebuilt")
	})
}
