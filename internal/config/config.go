package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a yaml-friendly time.Duration: accepts "3s"/"2h" strings or
// a bare integer meaning seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(time.Duration(n) * time.Second)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Env string `yaml:"env"`

	HTTP struct {
		Addr string `yaml:"addr"` // ":8080"
	} `yaml:"http"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		Database int    `yaml:"database"`
	} `yaml:"redis"`

	MySQL struct {
		DSN          string   `yaml:"dsn"`
		MaxOpenConns int      `yaml:"max_open_conns"`
		MaxIdleConns int      `yaml:"max_idle_conns"`
		ConnMaxLife  Duration `yaml:"conn_max_life"`
		ConnMaxIdle  Duration `yaml:"conn_max_idle"`
	} `yaml:"mysql"`

	Auth struct {
		Token struct {
			Secret       string   `yaml:"secret"` // 16/24/32 bytes
			RedisPrefix  string   `yaml:"redis_prefix"`
			TTL          Duration `yaml:"ttl"`
			Header       string   `yaml:"header"`
			BearerPrefix string   `yaml:"bearer_prefix"`
			QueryKey     string   `yaml:"query_key"`
		} `yaml:"token"`
	} `yaml:"auth"`

	Reaction struct {
		FlushDelay Duration `yaml:"flush_delay"`
	} `yaml:"reaction"`

	Reconcile struct {
		Interval Duration `yaml:"interval"`
	} `yaml:"reconcile"`

	WS struct {
		GracePeriod  Duration `yaml:"grace_period"`
		WriteTimeout Duration `yaml:"write_timeout"`
		OutBuffer    int      `yaml:"out_buffer"`
	} `yaml:"ws"`

	YouTube struct {
		APIKey  string   `yaml:"api_key"`
		Timeout Duration `yaml:"timeout"`
	} `yaml:"youtube"`
}

// Load supports comma-separated config files: "-c common.yml,local.yml";
// later files override earlier ones.
func Load(pathList string) (*Config, error) {
	if strings.TrimSpace(pathList) == "" {
		return nil, errors.New("config path required (e.g. -c ./config.yml)")
	}
	var c Config
	for _, p := range strings.Split(pathList, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if c.Auth.Token.RedisPrefix == "" {
		c.Auth.Token.RedisPrefix = "token:fm:"
	}
	if c.Auth.Token.TTL <= 0 {
		c.Auth.Token.TTL = Duration(24 * time.Hour)
	}
	if c.Auth.Token.Header == "" {
		c.Auth.Token.Header = "Authorization"
	}
	if c.Auth.Token.BearerPrefix == "" {
		c.Auth.Token.BearerPrefix = "Bearer "
	}
	if c.Auth.Token.QueryKey == "" {
		c.Auth.Token.QueryKey = "token"
	}
	if c.Reaction.FlushDelay <= 0 {
		c.Reaction.FlushDelay = Duration(3 * time.Second)
	}
	if c.Reconcile.Interval <= 0 {
		c.Reconcile.Interval = Duration(2 * time.Hour)
	}
	if c.WS.GracePeriod <= 0 {
		c.WS.GracePeriod = Duration(5 * time.Second)
	}
	if c.WS.WriteTimeout <= 0 {
		c.WS.WriteTimeout = Duration(5 * time.Second)
	}
	if c.WS.OutBuffer <= 0 {
		c.WS.OutBuffer = 256
	}
	if c.YouTube.Timeout <= 0 {
		c.YouTube.Timeout = Duration(5 * time.Second)
	}
	return &c, nil
}
