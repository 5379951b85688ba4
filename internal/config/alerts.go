package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AlertPolicy controls the unread-message reminder worker. It is loaded
// from alerts.yml and hot-reloaded so operators can tune the staleness
// window without a restart.
type AlertPolicy struct {
	RunInterval    time.Duration `mapstructure:"runInterval"`
	StaleThreshold time.Duration `mapstructure:"staleThreshold"`
	BatchSize      int           `mapstructure:"batchSize"`
}

func DefaultAlertPolicy() AlertPolicy {
	return AlertPolicy{
		RunInterval:    5 * time.Minute,
		StaleThreshold: 30 * time.Minute,
		BatchSize:      100,
	}
}

type AlertPolicyHolder struct {
	current atomic.Value // holds AlertPolicy
}

func NewAlertPolicyHolder() (*AlertPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("alerts")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/courier")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COURIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultAlertPolicy()
		v.SetDefault("alerts.runInterval", defaults.RunInterval)
		v.SetDefault("alerts.staleThreshold", defaults.StaleThreshold)
		v.SetDefault("alerts.batchSize", defaults.BatchSize)
	}

	var policy AlertPolicy
	if err := v.UnmarshalKey("alerts", &policy); err != nil {
		return nil, err
	}
	policy = policy.withDefaults()
	if err := validateAlertPolicy(policy); err != nil {
		return nil, err
	}

	holder := &AlertPolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated AlertPolicy
		if err := v.UnmarshalKey("alerts", &updated); err != nil {
			log.Printf("[alert-policy] reload failed: %v", err)
			return
		}
		updated = updated.withDefaults()
		if err := validateAlertPolicy(updated); err != nil {
			log.Printf("[alert-policy] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[alert-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticAlertPolicyHolder wraps a fixed policy for tests and tools
// that do not watch a config file.
func NewStaticAlertPolicyHolder(p AlertPolicy) *AlertPolicyHolder {
	holder := &AlertPolicyHolder{}
	holder.current.Store(p.withDefaults())
	return holder
}

func (h *AlertPolicyHolder) Get() AlertPolicy {
	return h.current.Load().(AlertPolicy)
}

func (p AlertPolicy) withDefaults() AlertPolicy {
	defaults := DefaultAlertPolicy()
	if p.RunInterval <= 0 {
		p.RunInterval = defaults.RunInterval
	}
	if p.StaleThreshold <= 0 {
		p.StaleThreshold = defaults.StaleThreshold
	}
	if p.BatchSize <= 0 {
		p.BatchSize = defaults.BatchSize
	}
	return p
}

func validateAlertPolicy(p AlertPolicy) error {
	if p.RunInterval > p.StaleThreshold {
		return errors.New("alerts.runInterval must not exceed alerts.staleThreshold")
	}
	return nil
}
