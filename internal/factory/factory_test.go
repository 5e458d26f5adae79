package factory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/gomoku-arena/internal/services/match"
)

func TestWithDefaultsSizesStepLeaseToOracleTimeout(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultOracleTimeout, cfg.OracleTimeout)
	assert.Greater(t, cfg.MatchConfig.StepLease, cfg.OracleTimeout)

	cfg = Config{OracleTimeout: 5 * time.Minute}.withDefaults()
	assert.Equal(t, match.LeaseFor(5*time.Minute), cfg.MatchConfig.StepLease)
	assert.Greater(t, cfg.MatchConfig.StepLease, 5*time.Minute)
}

func TestWithDefaultsKeepsExplicitStepLease(t *testing.T) {
	cfg := Config{
		OracleTimeout: 5 * time.Minute,
		MatchConfig:   match.Config{StepLease: 10 * time.Minute},
	}.withDefaults()
	assert.Equal(t, 10*time.Minute, cfg.MatchConfig.StepLease)
}
