package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/KirkDiggler/headsteal/internal/entities"
	apperr "github.com/KirkDiggler/headsteal/internal/errors"
)

// Config holds all configuration for the application
type Config struct {
	Log     LogConfig     `envPrefix:"LOG_"`
	Ability AbilityConfig `envPrefix:"ABILITY_"`
	Combo   ComboConfig   `envPrefix:"COMBO_"`
	Summon  SummonConfig  `envPrefix:"SUMMON_"`
	BanBox  BanBoxConfig  `envPrefix:"BANBOX_"`
	Heads   HeadsConfig   `envPrefix:"HEADS_"`
	Store   StoreConfig   `envPrefix:"STORE_"`
	Discord DiscordConfig `envPrefix:"DISCORD_"`
	Host    HostConfig    `envPrefix:"HOST_"`
}

// LogConfig controls the shared logger
type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// AbilityConfig tunes the execution engine
type AbilityConfig struct {
	MaxConcurrent      int           `env:"MAX_CONCURRENT" envDefault:"10"`
	UseCooldowns       bool          `env:"USE_COOLDOWNS" envDefault:"false"`
	GlobalCooldown     time.Duration `env:"GLOBAL_COOLDOWN" envDefault:"30s"`
	CooldownMultiplier float64       `env:"COOLDOWN_MULTIPLIER" envDefault:"1.0"`
	Sounds             bool          `env:"SOUNDS" envDefault:"true"`
	Particles          bool          `env:"PARTICLES" envDefault:"true"`
	CleanupInterval    time.Duration `env:"CLEANUP_INTERVAL" envDefault:"5m"`
}

// ComboConfig tunes boss combo detection
type ComboConfig struct {
	Enabled           bool          `env:"ENABLED" envDefault:"true"`
	DoubleClickWindow time.Duration `env:"DOUBLE_CLICK_WINDOW" envDefault:"500ms"`
	ResetWindow       time.Duration `env:"RESET_WINDOW" envDefault:"2s"`
	History           int           `env:"HISTORY" envDefault:"5"`
}

// SummonConfig bounds summoned objects
type SummonConfig struct {
	MaxPerPlayer     int           `env:"MAX_PER_PLAYER" envDefault:"10"`
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL" envDefault:"30s"`
	RestrictedWorlds []string      `env:"RESTRICTED_WORLDS" envSeparator:","`
}

// BanBoxConfig controls the BanBox lifecycle
type BanBoxConfig struct {
	Enabled           bool          `env:"ENABLED" envDefault:"true"`
	TimerDays         int           `env:"TIMER_DAYS" envDefault:"7"`
	DisabledWorlds    []string      `env:"DISABLED_WORLDS" envSeparator:","`
	EnabledWorlds     []string      `env:"ENABLED_WORLDS" envSeparator:","`
	BroadcastDeaths   bool          `env:"BROADCAST_DEATHS" envDefault:"true"`
	BroadcastRevives  bool          `env:"BROADCAST_REVIVES" envDefault:"true"`
	BroadcastReleases bool          `env:"BROADCAST_RELEASES" envDefault:"true"`
	CrossWorldRevive  bool          `env:"CROSS_WORLD_REVIVE" envDefault:"true"`
	DefaultLocation   string        `env:"DEFAULT_LOCATION" envDefault:"world:0:100:0"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	ReminderInterval  time.Duration `env:"REMINDER_INTERVAL" envDefault:"1m"`
	ReminderEvery     int           `env:"REMINDER_EVERY" envDefault:"5"`
	ReminderLimit     int           `env:"REMINDER_LIMIT" envDefault:"60"`
	ReviverExperience int           `env:"REVIVER_EXPERIENCE" envDefault:"100"`
}

// HeadsConfig controls charged creeper head drops
type HeadsConfig struct {
	Enabled        bool     `env:"ENABLED" envDefault:"true"`
	DropChance     int      `env:"DROP_CHANCE" envDefault:"100"`
	DisabledWorlds []string `env:"DISABLED_WORLDS" envSeparator:","`
	EnabledWorlds  []string `env:"ENABLED_WORLDS" envSeparator:","`
	Broadcast      bool     `env:"BROADCAST" envDefault:"false"`
	Particles      bool     `env:"PARTICLES" envDefault:"true"`
}

// StoreConfig selects the BanBox persistence backend. Redis wins over SQLite;
// with neither set records live in memory only.
type StoreConfig struct {
	RedisURL   string `env:"REDIS_URL"`
	RedisKey   string `env:"REDIS_KEY" envDefault:"headsteal:banbox"`
	SQLitePath string `env:"SQLITE_PATH"`
}

// DiscordConfig holds the optional broadcast relay settings
type DiscordConfig struct {
	Token     string `env:"TOKEN"`
	ChannelID string `env:"CHANNEL_ID"`
	QueueSize int    `env:"QUEUE_SIZE" envDefault:"64"`
}

// Enabled reports whether the Discord relay should run
func (d DiscordConfig) Enabled() bool {
	return d.Token != "" && d.ChannelID != ""
}

// HostConfig configures the simulation host
type HostConfig struct {
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"50ms"`
	GatewayAddr  string        `env:"GATEWAY_ADDR" envDefault:":8085"`
	CatalogPath  string        `env:"CATALOG_PATH"`
	Worlds       []string      `env:"WORLDS" envSeparator:"," envDefault:"world,world_nether,world_the_end"`
	SpawnPoint   string        `env:"SPAWN" envDefault:"world:0:64:0"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom loads configuration from the given variables instead of the process environment
func LoadFrom(environment map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field rules. Every problem is a validation error.
func (c *Config) Validate() error {
	var errs []error

	if c.Ability.MaxConcurrent <= 0 {
		errs = append(errs, apperr.Validationf("ABILITY_MAX_CONCURRENT must be positive, got %d", c.Ability.MaxConcurrent))
	}
	if c.Ability.CooldownMultiplier <= 0 {
		errs = append(errs, apperr.Validationf("ABILITY_COOLDOWN_MULTIPLIER must be positive, got %g", c.Ability.CooldownMultiplier))
	}
	if c.Ability.GlobalCooldown < 0 {
		errs = append(errs, apperr.Validationf("ABILITY_GLOBAL_COOLDOWN must not be negative"))
	}
	if c.Ability.CleanupInterval <= 0 {
		errs = append(errs, apperr.Validationf("ABILITY_CLEANUP_INTERVAL must be positive"))
	}

	if c.Combo.DoubleClickWindow <= 0 {
		errs = append(errs, apperr.Validationf("COMBO_DOUBLE_CLICK_WINDOW must be positive"))
	}
	if c.Combo.ResetWindow < c.Combo.DoubleClickWindow {
		errs = append(errs, apperr.Validationf("COMBO_RESET_WINDOW (%v) must be at least COMBO_DOUBLE_CLICK_WINDOW (%v)",
			c.Combo.ResetWindow, c.Combo.DoubleClickWindow))
	}
	if c.Combo.History <= 0 {
		errs = append(errs, apperr.Validationf("COMBO_HISTORY must be positive"))
	}

	if c.Summon.MaxPerPlayer <= 0 {
		errs = append(errs, apperr.Validationf("SUMMON_MAX_PER_PLAYER must be positive, got %d", c.Summon.MaxPerPlayer))
	}
	if c.Summon.SweepInterval <= 0 {
		errs = append(errs, apperr.Validationf("SUMMON_SWEEP_INTERVAL must be positive"))
	}

	if c.BanBox.TimerDays <= 0 {
		errs = append(errs, apperr.Validationf("BANBOX_TIMER_DAYS must be positive, got %d", c.BanBox.TimerDays))
	}
	if _, err := entities.ParseLocation(c.BanBox.DefaultLocation); err != nil {
		errs = append(errs, apperr.WrapWithCode(err, apperr.CodeValidation, "BANBOX_DEFAULT_LOCATION"))
	}
	if c.BanBox.ReminderEvery <= 0 || c.BanBox.ReminderLimit <= 0 {
		errs = append(errs, apperr.Validationf("BANBOX_REMINDER_EVERY and BANBOX_REMINDER_LIMIT must be positive"))
	}
	if c.BanBox.SweepInterval <= 0 {
		errs = append(errs, apperr.Validationf("BANBOX_SWEEP_INTERVAL must be positive"))
	}

	if c.Heads.DropChance < 0 || c.Heads.DropChance > 100 {
		errs = append(errs, apperr.Validationf("HEADS_DROP_CHANCE must be between 0 and 100, got %d", c.Heads.DropChance))
	}

	if c.Host.TickInterval <= 0 {
		errs = append(errs, apperr.Validationf("HOST_TICK_INTERVAL must be positive"))
	}
	if _, err := entities.ParseLocation(c.Host.SpawnPoint); err != nil {
		errs = append(errs, apperr.WrapWithCode(err, apperr.CodeValidation, "HOST_SPAWN"))
	}
	if (c.Discord.Token == "") != (c.Discord.ChannelID == "") {
		errs = append(errs, apperr.Validationf("DISCORD_TOKEN and DISCORD_CHANNEL_ID must be set together"))
	}

	return errors.Join(errs...)
}

// Location returns the parsed BanBox release location
func (b BanBoxConfig) Location() entities.Location {
	loc, _ := entities.ParseLocation(b.DefaultLocation)
	return loc
}

// Spawn returns the parsed host spawn point
func (h HostConfig) Spawn() entities.Location {
	loc, _ := entities.ParseLocation(h.SpawnPoint)
	return loc
}
