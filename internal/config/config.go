// Package config carga la configuración del proceso: YAML opcional con
// overrides por variables de entorno. Se carga una sola vez al arranque y
// se pasa explícitamente a los constructores; nada lee config global en
// tiempo de request.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigError es un error fatal de configuración: el proceso no debe
// arrancar a servir con configuración de firma ausente o malformada.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Config es la configuración completa del servicio.
type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Sessions struct {
		// db | redis | off — dónde persistir side-data de logins federados
		Store string `yaml:"store"`
		TTL   string `yaml:"ttl"` // solo redis; "" = sin expiración
	} `yaml:"sessions"`

	JWT struct {
		Secret     string `yaml:"secret"`
		Algorithm  string `yaml:"algorithm"`   // HS256 | HS384 | HS512
		TTLMinutes int    `yaml:"ttl_minutes"` // expiración del access token
	} `yaml:"jwt"`

	Security struct {
		BcryptCost int `yaml:"bcrypt_cost"`
	} `yaml:"security"`

	Providers struct {
		Google struct {
			Enabled  bool   `yaml:"enabled"`
			ClientID string `yaml:"client_id"` // audience esperada del ID token
		} `yaml:"google"`
	} `yaml:"providers"`
}

// Load lee el YAML (opcional: path vacío = solo env), aplica overrides por
// env, setea defaults y valida. Un *ConfigError acá es fatal para main.
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, &ConfigError{Field: "file", Reason: err.Error()}
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, &ConfigError{Field: "file", Reason: err.Error()}
		}
	}

	c.applyEnvOverrides()

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Sessions.Store == "" {
		c.Sessions.Store = "db"
	}
	if c.JWT.Algorithm == "" {
		c.JWT.Algorithm = "HS256"
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// AccessTTL devuelve el TTL del access token como duración.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.JWT.TTLMinutes) * time.Minute
}

// SessionTTL devuelve el TTL de sesiones redis (0 = sin expiración).
func (c *Config) SessionTTL() time.Duration {
	if c.Sessions.TTL == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Sessions.TTL)
	return d
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return &ConfigError{Field: "jwt.secret", Reason: "required"}
	}
	switch c.JWT.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return &ConfigError{Field: "jwt.algorithm", Reason: fmt.Sprintf("unsupported algorithm %q", c.JWT.Algorithm)}
	}
	if c.JWT.TTLMinutes <= 0 {
		return &ConfigError{Field: "jwt.ttl_minutes", Reason: "must be a positive integer"}
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return &ConfigError{Field: "storage.dsn", Reason: "required for postgres driver"}
	}
	if c.Cache.Kind == "redis" && c.Cache.Redis.Addr == "" {
		return &ConfigError{Field: "cache.redis.addr", Reason: "required for redis cache"}
	}
	if c.Sessions.Store == "redis" && c.Cache.Kind != "redis" {
		return &ConfigError{Field: "sessions.store", Reason: "redis session store requires cache.kind=redis"}
	}
	switch c.Sessions.Store {
	case "db", "redis", "off":
	default:
		return &ConfigError{Field: "sessions.store", Reason: fmt.Sprintf("unknown store %q", c.Sessions.Store)}
	}
	if c.Sessions.TTL != "" {
		if _, err := time.ParseDuration(c.Sessions.TTL); err != nil {
			return &ConfigError{Field: "sessions.ttl", Reason: err.Error()}
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return &ConfigError{Field: "storage.postgres.conn_max_lifetime", Reason: err.Error()}
		}
	}
	if c.Providers.Google.Enabled && c.Providers.Google.ClientID == "" {
		return &ConfigError{Field: "providers.google.client_id", Reason: "required when google is enabled"}
	}
	return nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// SESSIONS
	if v, ok := getEnvStr("SESSIONS_STORE"); ok {
		c.Sessions.Store = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SESSIONS_TTL"); ok {
		c.Sessions.TTL = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("JWT_ALGORITHM"); ok {
		c.JWT.Algorithm = strings.ToUpper(strings.TrimSpace(v))
	}
	if v, ok := getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES"); ok {
		c.JWT.TTLMinutes = v
	}

	// SECURITY
	if v, ok := getEnvInt("BCRYPT_COST"); ok {
		c.Security.BcryptCost = v
	}

	// PROVIDERS
	if v, ok := getEnvBool("GOOGLE_ENABLED"); ok {
		c.Providers.Google.Enabled = v
	}
	if v, ok := getEnvStr("GOOGLE_CLIENT_ID"); ok {
		c.Providers.Google.ClientID = v
	}
}
