package cli

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"block-manifests/internal/app"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the persisted manifest cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "build",
		Short: "Rebuild manifests and write the snapshot and store entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheBuild(cmd.Context(), cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the snapshot and store entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheClear(cmd.Context(), cmd)
		},
	})
	return cmd
}

func runCacheBuild(ctx context.Context, cmd *cobra.Command) error {
	result, err := newAppService().CacheBuild(ctx, app.CacheBuildRequest{})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cached %d manifests in %s (%s), store key %s\n",
		result.Manifests, result.SnapshotPath, humanize.Bytes(uint64(result.Size)), result.StoreKey)
	return nil
}

func runCacheClear(ctx context.Context, cmd *cobra.Command) error {
	result, err := newAppService().CacheClear(ctx, app.CacheClearRequest{})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cleared %s and store key %s\n", result.SnapshotPath, result.StoreKey)
	return nil
}
