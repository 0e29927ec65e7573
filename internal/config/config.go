package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type AppConfig struct {
	API      *APIConfig      `mapstructure:"api"`
	Gin      *GinConfig      `mapstructure:"gin"`
	Postgres *PostgresConfig `mapstructure:"postgres"`
	SMTP     *SMTPConfig     `mapstructure:"smtp"`
	Announce *AnnounceConfig `mapstructure:"announce"`
	Blob     *BlobConfig     `mapstructure:"blob"`
	Redis    *RedisConfig    `mapstructure:"redis"`
	Ticket   *TicketConfig   `mapstructure:"ticket"`
	Admin    *AdminConfig    `mapstructure:"admin"`
	Campus   *CampusConfig   `mapstructure:"campus"`
	External *ExternalConfig `mapstructure:"external"`
}

type APIConfig struct {
	Environment        string        `mapstructure:"environment"`
	Port               string        `mapstructure:"port"`
	BaseURL            string        `mapstructure:"base_url"`
	AllowedCORSDomains []string      `mapstructure:"allowed_cors_domains"`
	JWTSigningKey      string        `mapstructure:"jwt_signing_key"`
	JWTTTL             time.Duration `mapstructure:"jwt_ttl"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode)
}

// SMTPConfig configures confirmation mail. An empty host logs mail instead of sending it.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// AnnounceConfig selects where publish announcements go: "none", "webhook" or "amqp".
type AnnounceConfig struct {
	Driver         string `mapstructure:"driver"`
	WebhookURL     string `mapstructure:"webhook_url"`
	AMQPURL        string `mapstructure:"amqp_url"`
	AMQPExchange   string `mapstructure:"amqp_exchange"`
	AMQPRoutingKey string `mapstructure:"amqp_routing_key"`
}

// BlobConfig selects the blob backend: "postgres" or "redis".
type BlobConfig struct {
	Driver         string   `mapstructure:"driver"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
	ProofMimeTypes []string `mapstructure:"proof_mime_types"`
	ProofMaxBytes  int64    `mapstructure:"proof_max_bytes"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type TicketConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
	QRSize      int `mapstructure:"qr_size"`
}

// AdminConfig seeds the admin account at startup when Email is set.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type CampusConfig struct {
	EmailDomains []string `mapstructure:"email_domains"`
}

type ExternalConfig struct {
	Timeout             time.Duration `mapstructure:"timeout"`
	CompensationTimeout time.Duration `mapstructure:"compensation_timeout"`
	LivePushInterval    time.Duration `mapstructure:"live_push_interval"`
}

func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	watch(v, path)

	return conf, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.base_url", "localhost:8080")
	v.SetDefault("api.jwt_ttl", 24*time.Hour)
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("smtp.port", "587")
	v.SetDefault("announce.driver", "none")
	v.SetDefault("announce.amqp_exchange", "events")
	v.SetDefault("announce.amqp_routing_key", "event.published")
	v.SetDefault("blob.driver", "postgres")
	v.SetDefault("blob.max_upload_bytes", 10<<20)
	v.SetDefault("blob.proof_mime_types", []string{"image/jpeg", "image/png", "image/webp", "application/pdf"})
	v.SetDefault("blob.proof_max_bytes", 5<<20)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.prefix", "blob:")
	v.SetDefault("ticket.max_attempts", 5)
	v.SetDefault("ticket.qr_size", 256)
	v.SetDefault("admin.name", "Administrator")
	v.SetDefault("campus.email_domains", []string{"iiit.ac.in", "students.iiit.ac.in", "research.iiit.ac.in"})
	v.SetDefault("external.timeout", 10*time.Second)
	v.SetDefault("external.compensation_timeout", 30*time.Second)
	v.SetDefault("external.live_push_interval", 3*time.Second)
}

func (c *AppConfig) validate() error {
	if c.API.JWTSigningKey == "" {
		return fmt.Errorf("api.jwt_signing_key is required")
	}

	switch c.Announce.Driver {
	case "none", "webhook", "amqp":
	default:
		return fmt.Errorf("unknown announce.driver %q", c.Announce.Driver)
	}

	switch c.Blob.Driver {
	case "postgres", "redis":
	default:
		return fmt.Errorf("unknown blob.driver %q", c.Blob.Driver)
	}

	if c.External.Timeout <= 0 {
		return fmt.Errorf("external.timeout must be positive")
	}

	return nil
}

// watch only logs changes. Settings are read once at startup.
func watch(v *viper.Viper, path string) {
	v.OnConfigChange(func(e fsnotify.Event) {
		zap.L().Info("config file changed, restart to apply",
			zap.String("path", path),
			zap.String("op", e.Op.String()),
		)
	})
	v.WatchConfig()
}
