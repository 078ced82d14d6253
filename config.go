package pomomo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	AppName        = "pomomo"
	configFileName = "config.yaml"
)

// config keys
const (
	DatabaseURLKey          = "database_url"
	ListenAddrKey           = "listen_addr"
	DaemonURLKey            = "daemon_url"
	DispatchIntervalKey     = "dispatch_interval"
	LogLevelKey             = "log_level"
	TimezoneKey             = "timezone"
	PermissionKey           = "notifications.permission"
	IconKey                 = "notifications.icon"
	BaseURLKey              = "notifications.base_url"
	DiscordTokenKey         = "notifications.discord.token"
	DiscordChannelIDKey     = "notifications.discord.channel_id"
	defaultListenAddr       = "127.0.0.1:7425"
	defaultDispatchInterval = time.Minute
)

type DiscordConfig struct {
	Token     string `mapstructure:"token" yaml:"token"`
	ChannelID string `mapstructure:"channel_id" yaml:"channel_id"`
}

type NotificationsConfig struct {
	Permission string        `mapstructure:"permission" yaml:"permission"`
	Icon       string        `mapstructure:"icon" yaml:"icon"`
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url"`
	Discord    DiscordConfig `mapstructure:"discord" yaml:"discord"`
}

type Config struct {
	DatabaseURL      string              `mapstructure:"database_url" yaml:"database_url"`
	ListenAddr       string              `mapstructure:"listen_addr" yaml:"listen_addr"`
	DaemonURL        string              `mapstructure:"daemon_url" yaml:"daemon_url"`
	DispatchInterval time.Duration       `mapstructure:"dispatch_interval" yaml:"dispatch_interval"`
	LogLevel         string              `mapstructure:"log_level" yaml:"log_level"`
	Timezone         string              `mapstructure:"timezone" yaml:"timezone"`
	Notifications    NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
}

func DefaultConfig() Config {
	return Config{
		DatabaseURL:      filepath.Join(defaultDataDir(), "pomomo.db"),
		ListenAddr:       defaultListenAddr,
		DaemonURL:        "http://" + defaultListenAddr,
		DispatchInterval: defaultDispatchInterval,
		LogLevel:         "info",
		Timezone:         "Local",
		Notifications: NotificationsConfig{
			Permission: "granted",
			Icon:       "/logo192.png",
			BaseURL:    "http://localhost:3000",
		},
	}
}

// LoadConfig layers defaults, the YAML file at path (or the user config file
// when path is empty), .env and POMOMO_* environment variables.
func LoadConfig(path string) (Config, error) {
	_ = godotenv.Load(".env")

	def := DefaultConfig()
	v := viper.New()
	v.SetDefault(DatabaseURLKey, def.DatabaseURL)
	v.SetDefault(ListenAddrKey, def.ListenAddr)
	v.SetDefault(DaemonURLKey, def.DaemonURL)
	v.SetDefault(DispatchIntervalKey, def.DispatchInterval)
	v.SetDefault(LogLevelKey, def.LogLevel)
	v.SetDefault(TimezoneKey, def.Timezone)
	v.SetDefault(PermissionKey, def.Notifications.Permission)
	v.SetDefault(IconKey, def.Notifications.Icon)
	v.SetDefault(BaseURLKey, def.Notifications.BaseURL)
	v.SetDefault(DiscordTokenKey, "")
	v.SetDefault(DiscordChannelIDKey, "")

	v.SetEnvPrefix("POMOMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("stat config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("required config: %s", DatabaseURLKey)
	}
	if c.DispatchInterval <= 0 {
		return fmt.Errorf("%s must be positive, got %s", DispatchIntervalKey, c.DispatchInterval)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if d := c.Notifications.Discord; (d.Token == "") != (d.ChannelID == "") {
		return fmt.Errorf("%s and %s must be set together", DiscordTokenKey, DiscordChannelIDKey)
	}
	return nil
}

// Location resolves Timezone; "" and "Local" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// WriteConfig serializes cfg as YAML to path, creating parent directories.
func WriteConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	out, err := yaml.Marshal(configFile{
		DatabaseURL:      cfg.DatabaseURL,
		ListenAddr:       cfg.ListenAddr,
		DaemonURL:        cfg.DaemonURL,
		DispatchInterval: cfg.DispatchInterval.String(),
		LogLevel:         cfg.LogLevel,
		Timezone:         cfg.Timezone,
		Notifications:    cfg.Notifications,
	})
	if err != nil {
		return fmt.Errorf("marshal config yaml: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// configFile mirrors Config with the interval as a duration string.
type configFile struct {
	DatabaseURL      string              `yaml:"database_url"`
	ListenAddr       string              `yaml:"listen_addr"`
	DaemonURL        string              `yaml:"daemon_url"`
	DispatchInterval string              `yaml:"dispatch_interval"`
	LogLevel         string              `yaml:"log_level"`
	Timezone         string              `yaml:"timezone"`
	Notifications    NotificationsConfig `yaml:"notifications"`
}

func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join("."+AppName, configFileName)
	}
	return filepath.Join(dir, AppName, configFileName)
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(dir, AppName)
}
