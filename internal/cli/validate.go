package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"block-manifests/internal/app"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Rebuild manifests from files and report what was merged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), cmd)
		},
	}
	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command) error {
	service := newAppService()
	result, err := service.Validate(ctx, app.ValidateRequest{})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "validated: %s\n", result.Namespace)
	for _, count := range result.Counts {
		fmt.Fprintf(out, "- %s: %d\n", count.Kind, count.Count)
	}
	return nil
}

func newAppService() app.Service {
	return app.NewService(loadAppConfig())
}

// loadAppConfig reads the persistent flags through viper, so changed flags
// win over config file and environment values.
func loadAppConfig() app.Config {
	return app.Config{
		Root:         viper.GetString("root"),
		Environment:  viper.GetString("environment"),
		DevelopMode:  viper.GetBool("develop_mode"),
		NoCache:      viper.GetBool("no_cache"),
		CacheName:    viper.GetString("cache.name"),
		CacheTTL:     viper.GetDuration("cache.ttl"),
		StrictSchema: viper.GetBool("strict_schema"),
		Paths:        viper.GetStringMapString("paths"),
		Store: app.StoreConfig{
			Backend:       viper.GetString("store.backend"),
			RedisAddr:     viper.GetString("store.redis_addr"),
			RedisPassword: viper.GetString("store.redis_password"),
			RedisDB:       viper.GetInt("store.redis_db"),
			SQLitePath:    viper.GetString("store.sqlite_path"),
			MemorySize:    viper.GetInt("store.memory_size"),
		},
	}
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	if configured := viper.GetString(key); configured != "" {
		return configured
	}
	return value
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetBool(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
