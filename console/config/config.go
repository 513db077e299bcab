package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultServer    = "http://localhost:8080"
	DefaultAPIPrefix = "/api"
	DefaultSubject   = "schedctl.notifications"
	DefaultTimeout   = 15 * time.Second
)

// RefreshIntervals are the task list refresh cadences a user can pick. Zero disables polling.
var RefreshIntervals = []time.Duration{0, 5 * time.Second, 10 * time.Second, 30 * time.Second}

var ErrInvalidInterval = errors.New("refresh interval must be one of 0s, 5s, 10s, 30s")

type NotifyConfig struct {
	NatsURL string
	Subject string
}

type ConsoleConfig struct {
	Server          string
	APIPrefix       string
	DataDir         string
	RefreshInterval time.Duration
	Timeout         time.Duration
	Proxy           string
	Cert            string
	RateLimit       float64
	MetricsAddr     string
	Notify          NotifyConfig
	// File is the config file viper loaded, empty when running on defaults
	File string
}

// BaseURL is where every API path is resolved against
func (c *ConsoleConfig) BaseURL() string {
	prefix := c.APIPrefix
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimRight(c.Server, "/") + strings.TrimRight(prefix, "/")
}

func (c *ConsoleConfig) SessionPath() string {
	return filepath.Join(c.DataDir, "session.db")
}

func (c *ConsoleConfig) LogPath() string {
	return filepath.Join(c.DataDir, "schedctl.log")
}

func ValidInterval(d time.Duration) bool {
	for _, i := range RefreshIntervals {
		if d == i {
			return true
		}
	}
	return false
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".schedctl"
	}
	return filepath.Join(home, ".schedctl")
}

// NewViper returns a viper instance set up with the console's search paths,
// env binding and defaults. file overrides the search when non empty.
func NewViper(file string) *viper.Viper {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("schedctl")
		v.SetConfigType("json")
		v.AddConfigPath("/etc/")
		v.AddConfigPath(defaultDataDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("schedctl")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server", DefaultServer)
	v.SetDefault("api_prefix", DefaultAPIPrefix)
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("refresh_interval", "0s")
	v.SetDefault("timeout", DefaultTimeout.String())
	v.SetDefault("rate_limit", 0)
	v.SetDefault("notify.subject", DefaultSubject)
	return v
}

// NewConsoleConfig reads the config file if there is one and builds the console config.
// A missing config file is not an error, defaults and env vars are used instead.
func NewConsoleConfig(v *viper.Viper) (*ConsoleConfig, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return Decode(v)
}

// Decode builds the console config from whatever viper currently holds.
func Decode(v *viper.Viper) (*ConsoleConfig, error) {
	ret := &ConsoleConfig{
		Server:          v.GetString("server"),
		APIPrefix:       v.GetString("api_prefix"),
		DataDir:         v.GetString("data_dir"),
		RefreshInterval: v.GetDuration("refresh_interval"),
		Timeout:         v.GetDuration("timeout"),
		Proxy:           v.GetString("proxy"),
		Cert:            v.GetString("cert"),
		RateLimit:       v.GetFloat64("rate_limit"),
		MetricsAddr:     v.GetString("metrics_addr"),
		Notify: NotifyConfig{
			NatsURL: v.GetString("notify.nats_url"),
			Subject: v.GetString("notify.subject"),
		},
		File: v.ConfigFileUsed(),
	}

	if ret.Server == "" {
		return nil, fmt.Errorf("server is required")
	}
	if !ValidInterval(ret.RefreshInterval) {
		return nil, fmt.Errorf("refresh_interval %s: %w", ret.RefreshInterval, ErrInvalidInterval)
	}
	if ret.Timeout <= 0 {
		ret.Timeout = DefaultTimeout
	}
	if ret.RateLimit < 0 {
		return nil, fmt.Errorf("rate_limit must not be negative")
	}
	return ret, nil
}
