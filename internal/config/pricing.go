package config

import (
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PricingConfig carries the shop-level billing defaults used when a work
// record does not specify an explicit rate and the customer has none.
type PricingConfig struct {
	DefaultHourlyRateCents int64 `mapstructure:"defaultHourlyRateCents"`
	WorkUnitMinutes        int   `mapstructure:"workUnitMinutes"`
	DefaultVatRate         int   `mapstructure:"defaultVatRate"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		DefaultHourlyRateCents: 9000,
		WorkUnitMinutes:        10,
		DefaultVatRate:         19,
	}
}

type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

// NewPricingConfigHolder reads pricing.yml if present and watches it for
// changes, falling back to built-in defaults otherwise.
func NewPricingConfigHolder(log *zap.Logger) (*PricingConfigHolder, error) {
	log = log.Named("config.pricing")
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/beleg")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BELEG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultPricingConfig()
		v.SetDefault("pricing.defaultHourlyRateCents", defaults.DefaultHourlyRateCents)
		v.SetDefault("pricing.workUnitMinutes", defaults.WorkUnitMinutes)
		v.SetDefault("pricing.defaultVatRate", defaults.DefaultVatRate)
	}

	holder := &PricingConfigHolder{}
	if err := holder.reload(v); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if err := holder.reload(v); err != nil {
			log.Warn("pricing config reload failed", zap.String("file", e.Name), zap.Error(err))
		}
	})
	v.WatchConfig()

	return holder, nil
}

func (h *PricingConfigHolder) reload(v *viper.Viper) error {
	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return err
	}
	if cfg.DefaultHourlyRateCents <= 0 {
		cfg.DefaultHourlyRateCents = DefaultPricingConfig().DefaultHourlyRateCents
	}
	if cfg.WorkUnitMinutes <= 0 {
		cfg.WorkUnitMinutes = DefaultPricingConfig().WorkUnitMinutes
	}
	if cfg.DefaultVatRate <= 0 {
		cfg.DefaultVatRate = DefaultPricingConfig().DefaultVatRate
	}
	h.current.Store(cfg)
	return nil
}

// Current returns the active pricing config.
func (h *PricingConfigHolder) Current() PricingConfig {
	value := h.current.Load()
	cfg, ok := value.(PricingConfig)
	if !ok {
		return DefaultPricingConfig()
	}
	return cfg
}
