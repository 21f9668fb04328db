package configbinder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/tigerroll/riptide/pkg/batch/core/config"
	"github.com/tigerroll/riptide/pkg/batch/support/util/configbinder"
)

func TestBindProperties_WeaklyTypedConversion(t *testing.T) {
	cfg := config.NewBatchConfig()

	err := configbinder.BindProperties(map[string]string{
		"batch_size":      "9",
		"rate_per_second": "2.5",
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, 9, cfg.BatchSize)
	assert.Equal(t, 2.5, cfg.RatePerSecond)
	// Unmentioned fields are untouched.
	assert.Equal(t, 3, cfg.MaxConcurrency)
}

func TestBindProperties_EmptyMapIsNoOp(t *testing.T) {
	cfg := config.NewBatchConfig()
	require.NoError(t, configbinder.BindProperties(nil, cfg))
	assert.Equal(t, 5, cfg.BatchSize)
}

func TestBindProperties_InvalidValue(t *testing.T) {
	cfg := config.NewBatchConfig()
	err := configbinder.BindProperties(map[string]string{"batch_size": "not-a-number"}, cfg)
	assert.Error(t, err)
}
