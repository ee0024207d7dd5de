package cli

import (
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"block-manifests/internal/types"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "BLOCK_MANIFESTS"

type RootConfig struct {
	ConfigFile   string
	LogLevel     string
	Root         string
	Environment  string
	DevelopMode  bool
	NoCache      bool
	CacheName    string
	CacheTTL     string
	StoreBackend string
	RedisAddr    string
	SQLitePath   string
	StrictSchema bool
}

func Execute() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:          "block-manifests",
		Short:        "Block manifest cache, attribute schemas and responsive CSS variables",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			setupLogging(viper.GetString("log_level"))
			cmd.SetContext(log.Logger.WithContext(cmd.Context()))
			return nil
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.ConfigFile, "config", "", "Config file path")
	flags.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&cfg.Root, "root", ".", "Project root containing src/Blocks")
	flags.StringVar(&cfg.Environment, "environment", "", "Execution environment (production, staging, development, local)")
	flags.BoolVar(&cfg.DevelopMode, "develop-mode", false, "Serve manifests from files on every run")
	flags.BoolVar(&cfg.NoCache, "no-cache", false, "Skip the persistent store and snapshot tiers")
	flags.StringVar(&cfg.CacheName, "cache-name", "", "Cache name used for the store key and snapshot directory")
	flags.StringVar(&cfg.CacheTTL, "cache-ttl", "", "Persistent store entry lifetime (e.g. 24h, 0 keeps it)")
	flags.StringVar(&cfg.StoreBackend, "store", "memory", "Persistent store backend (none, memory, redis, sqlite)")
	flags.StringVar(&cfg.RedisAddr, "redis-addr", "", "Redis address for the redis store")
	flags.StringVar(&cfg.SQLitePath, "sqlite-path", "", "SQLite file for the sqlite store (defaults under the cache location)")
	flags.BoolVar(&cfg.StrictSchema, "strict-schema", false, "Check manifest shapes against per-kind JSON schemas")

	for key, flag := range map[string]string{
		"log_level":         "log-level",
		"root":              "root",
		"environment":       "environment",
		"develop_mode":      "develop-mode",
		"no_cache":          "no-cache",
		"cache.name":        "cache-name",
		"cache.ttl":         "cache-ttl",
		"store.backend":     "store",
		"store.redis_addr":  "redis-addr",
		"store.sqlite_path": "sqlite-path",
		"strict_schema":     "strict-schema",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newManifestCommand())
	cmd.AddCommand(newSchemaCommand())
	cmd.AddCommand(newCSSCommand())
	cmd.AddCommand(newCacheCommand())
	cmd.AddCommand(newWatchCommand())
	return cmd
}

func initConfig(configFile string) error {
	// A project .env may carry the environment and develop mode flags.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("block-manifests")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/block-manifests")
	if err := viper.ReadInConfig(); err != nil {
		return nil
	}
	return nil
}

// setupLogging writes to stderr; stdout carries command output.
func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.DefaultContextLogger = &log.Logger
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func exitCodeForError(err error) int {
	switch types.ErrorCode(err) {
	case errbuilder.CodeInvalidArgument, errbuilder.CodeAlreadyExists:
		return 2
	case errbuilder.CodeFailedPrecondition:
		return 4
	case errbuilder.CodePermissionDenied:
		return 3
	case errbuilder.CodeNotFound, errbuilder.CodeInternal:
		return 5
	default:
		return 1
	}
}
