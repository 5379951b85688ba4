package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultAlertPolicy(t *testing.T) {
	p := DefaultAlertPolicy()
	assert.Equal(t, 5*time.Minute, p.RunInterval)
	assert.Equal(t, 30*time.Minute, p.StaleThreshold)
	assert.Equal(t, 100, p.BatchSize)
}

func TestWithDefaultsFillsZeroValues(t *testing.T) {
	p := AlertPolicy{RunInterval: time.Minute}.withDefaults()
	assert.Equal(t, time.Minute, p.RunInterval)
	assert.Equal(t, 30*time.Minute, p.StaleThreshold)
	assert.Equal(t, 100, p.BatchSize)
}

func TestValidateAlertPolicy(t *testing.T) {
	assert.NoError(t, validateAlertPolicy(DefaultAlertPolicy()))

	bad := AlertPolicy{
		RunInterval:    time.Hour,
		StaleThreshold: 30 * time.Minute,
		BatchSize:      100,
	}
	assert.Error(t, validateAlertPolicy(bad))
}

func TestStaticHolder(t *testing.T) {
	holder := NewStaticAlertPolicyHolder(AlertPolicy{
		RunInterval:    time.Minute,
		StaleThreshold: 10 * time.Minute,
		BatchSize:      7,
	})

	p := holder.Get()
	assert.Equal(t, time.Minute, p.RunInterval)
	assert.Equal(t, 10*time.Minute, p.StaleThreshold)
	assert.Equal(t, 7, p.BatchSize)
}
