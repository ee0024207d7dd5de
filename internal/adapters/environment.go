package adapters

import (
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"block-manifests/internal/ports"
)

var uncachedEnvironments = map[string]struct{}{
	"development": {},
	"local":       {},
}

// EnvironmentPolicy decides once per process whether the persisted cache
// tiers are used. An explicit no-cache request, a development or local
// environment and develop mode each disable them.
type EnvironmentPolicy struct {
	Environment string
	DevelopMode bool
	NoCache     bool

	once     sync.Once
	disabled bool
}

func NewEnvironmentPolicy(environment string, developMode bool, noCache bool) *EnvironmentPolicy {
	return &EnvironmentPolicy{
		Environment: environment,
		DevelopMode: developMode,
		NoCache:     noCache,
	}
}

func (p *EnvironmentPolicy) CachingDisabled() bool {
	p.once.Do(func() {
		_, uncached := uncachedEnvironments[strings.ToLower(strings.TrimSpace(p.Environment))]
		p.disabled = p.NoCache || p.DevelopMode || uncached
		log.Debug().
			Str("environment", p.Environment).
			Bool("develop_mode", p.DevelopMode).
			Bool("no_cache", p.NoCache).
			Bool("caching_disabled", p.disabled).
			Msg("cache policy resolved")
	})
	return p.disabled
}

var _ ports.CachePolicyPort = (*EnvironmentPolicy)(nil)
