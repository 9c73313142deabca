package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Ventana por defecto (minutos) después de la hora programada en la que
// todavía se puede marcar la dosis como dada.
const DefaultLockMinutes = 2

type Config struct {
	Port string

	// Persistencia del historial: DB_DSN tiene prioridad sobre HISTORY_FILE.
	DBDSN       string
	HistoryFile string

	RosterFile string

	Timezone    string
	LockMinutes int

	AlertInterval   time.Duration
	AlertWebhookURL string

	RateLimitRPS   int
	RateLimitBurst int

	LogLevel  string
	LogFormat string
	AppName   string
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// Load lee la configuración desde env (ver defaults abajo).
func Load() (Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("HISTORY_FILE", "history_store.json")
	v.SetDefault("ROSTER_FILE", "configs/roster.yaml")
	v.SetDefault("TIMEZONE", "Asia/Dhaka")
	v.SetDefault("LOCK_MINUTES", DefaultLockMinutes)
	v.SetDefault("ALERT_INTERVAL", "30s")
	v.SetDefault("ALERT_WEBHOOK_URL", "")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("APP_NAME", "medidispense")

	v.AutomaticEnv()

	cfg := Config{
		Port:            strings.TrimSpace(v.GetString("PORT")),
		DBDSN:           strings.TrimSpace(v.GetString("DB_DSN")),
		HistoryFile:     strings.TrimSpace(v.GetString("HISTORY_FILE")),
		RosterFile:      strings.TrimSpace(v.GetString("ROSTER_FILE")),
		Timezone:        strings.TrimSpace(v.GetString("TIMEZONE")),
		LockMinutes:     v.GetInt("LOCK_MINUTES"),
		AlertInterval:   v.GetDuration("ALERT_INTERVAL"),
		AlertWebhookURL: strings.TrimSpace(v.GetString("ALERT_WEBHOOK_URL")),
		RateLimitRPS:    v.GetInt("RATE_LIMIT_RPS"),
		RateLimitBurst:  v.GetInt("RATE_LIMIT_BURST"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		AppName:         v.GetString("APP_NAME"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("config: PORT is empty")
	}
	if c.LockMinutes < 0 {
		return fmt.Errorf("config: LOCK_MINUTES must be >= 0, got %d", c.LockMinutes)
	}
	if c.AlertInterval < time.Second {
		return fmt.Errorf("config: ALERT_INTERVAL must be at least 1s, got %s", c.AlertInterval)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}
