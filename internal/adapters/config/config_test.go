package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbdwatch/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATASET_PATH", "testdata/dataset.csv")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dbdwatch", cfg.App.Name)
	assert.Equal(t, "file", cfg.Data.Source)
	assert.Equal(t, "native", cfg.Model.Backend)
	assert.Equal(t, 20.0, cfg.Risk.MediumThreshold)
	assert.Equal(t, 50.0, cfg.Risk.HighThreshold)
	assert.Equal(t, 2000.0, cfg.Recommendation.RainfallMM)
	assert.Equal(t, 1200.0, cfg.Recommendation.DensityPerKm2)
	assert.Equal(t, 10, cfg.Importance.TopN)
	assert.Equal(t, "comparison", cfg.Dashboard.Variant)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, 5, cfg.App.ConnectAttempts)
	assert.False(t, cfg.Workers.SnapshotEnabled)
	assert.Empty(t, cfg.Workers.SnapshotCron)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RISK_MEDIUM_THRESHOLD", "10")
	t.Setenv("RISK_HIGH_THRESHOLD", "35")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("DASHBOARD_VARIANT", "basic")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10.0, cfg.Risk.MediumThreshold)
	assert.Equal(t, 35.0, cfg.Risk.HighThreshold)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "basic", cfg.Dashboard.Variant)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Data:       DataConfig{Source: "file", Path: "data.csv"},
			Model:      ModelConfig{Backend: "native"},
			Risk:       RiskConfig{MediumThreshold: 20, HighThreshold: 50},
			Dashboard:  DashboardConfig{Variant: "comparison"},
			Importance: ImportanceConfig{PermutationRepeats: 5},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{name: "inverted thresholds", mutate: func(c *Config) { c.Risk.MediumThreshold = 60 }, field: "RISK_MEDIUM_THRESHOLD"},
		{name: "unknown source", mutate: func(c *Config) { c.Data.Source = "s3" }, field: "DATASET_SOURCE"},
		{name: "postgres without host", mutate: func(c *Config) { c.Data.Source = "postgres" }, field: "POSTGRES_HOST"},
		{name: "unknown backend", mutate: func(c *Config) { c.Model.Backend = "tf" }, field: "ML_BACKEND"},
		{name: "unknown variant", mutate: func(c *Config) { c.Dashboard.Variant = "full" }, field: "DASHBOARD_VARIANT"},
		{name: "zero repeats", mutate: func(c *Config) { c.Importance.PermutationRepeats = 0 }, field: "IMPORTANCE_PERMUTATION_REPEATS"},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidInput))

			var vErr *errors.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}
