package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// MaxMarginSlots caps how many branded company profiles a deployment may define.
// Every quote item carries one margin percentage per slot.
const MaxMarginSlots = 10

// BrandingProfile describes one branded output company. The slot index ties the
// profile to a margin column on quote items.
type BrandingProfile struct {
	Slot       int    `mapstructure:"slot" json:"slot"`
	Name       string `mapstructure:"name" json:"name"`
	City       string `mapstructure:"city" json:"city"`
	Footer     string `mapstructure:"footer" json:"footer"`
	AccentHex  string `mapstructure:"accentHex" json:"accent_hex"`
	Conditions string `mapstructure:"conditions" json:"conditions"`
}

// BrandingConfig is the file-backed default set of branding profiles.
type BrandingConfig struct {
	DefaultTaxPct float64           `mapstructure:"defaultTaxPct"`
	Profiles      []BrandingProfile `mapstructure:"profiles"`
}

func DefaultBrandingConfig() BrandingConfig {
	return BrandingConfig{
		DefaultTaxPct: 16,
		Profiles: []BrandingProfile{
			{Slot: 1, Name: "Casa Matriz", City: "Pachuca de Soto, Hidalgo"},
			{Slot: 2, Name: "Comercializadora Norte", City: "Pachuca de Soto, Hidalgo"},
			{Slot: 3, Name: "Servicios Industriales", City: "Pachuca de Soto, Hidalgo"},
		},
	}
}

// BrandingConfigHolder keeps the current branding config and hot-reloads it
// when the file changes.
type BrandingConfigHolder struct {
	current atomic.Value // holds BrandingConfig
}

func NewBrandingConfigHolder() (*BrandingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("branding")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/cotiza/config")
	v.AddConfigPath("/etc/cotiza")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COTIZA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultBrandingConfig()
		v.SetDefault("branding.defaultTaxPct", defaults.DefaultTaxPct)
		v.SetDefault("branding.profiles", defaults.Profiles)
	}

	var cfg BrandingConfig
	if err := v.UnmarshalKey("branding", &cfg); err != nil {
		return nil, err
	}
	if err := validateBrandingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BrandingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BrandingConfig
		if err := v.UnmarshalKey("branding", &updated); err != nil {
			log.Printf("[branding-config] reload failed: %v", err)
			return
		}
		if err := validateBrandingConfig(updated); err != nil {
			log.Printf("[branding-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[branding-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticBrandingConfigHolder wraps a fixed config without file watching.
func NewStaticBrandingConfigHolder(cfg BrandingConfig) (*BrandingConfigHolder, error) {
	if err := validateBrandingConfig(cfg); err != nil {
		return nil, err
	}
	holder := &BrandingConfigHolder{}
	holder.current.Store(cfg)
	return holder, nil
}

func (h *BrandingConfigHolder) Get() BrandingConfig {
	return h.current.Load().(BrandingConfig)
}

func validateBrandingConfig(cfg BrandingConfig) error {
	if len(cfg.Profiles) == 0 {
		return errors.New("branding.profiles cannot be empty")
	}
	if len(cfg.Profiles) > MaxMarginSlots {
		return fmt.Errorf("branding.profiles cannot exceed %d entries", MaxMarginSlots)
	}
	seen := map[int]bool{}
	for _, p := range cfg.Profiles {
		if p.Slot < 1 || p.Slot > MaxMarginSlots {
			return fmt.Errorf("branding profile slot %d out of range 1..%d", p.Slot, MaxMarginSlots)
		}
		if seen[p.Slot] {
			return fmt.Errorf("duplicate branding profile slot %d", p.Slot)
		}
		seen[p.Slot] = true
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("branding profile slot %d requires a name", p.Slot)
		}
	}
	if cfg.DefaultTaxPct < 0 {
		return errors.New("branding.defaultTaxPct cannot be negative")
	}
	return nil
}
