package config

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/cecimongo/identity-api/internal/core/domain"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	JWTSecret string `env:"JWT_SECRET"`

	// TrustedProxies lists the CIDRs (or bare addresses) of reverse proxies
	// allowed to set X-Forwarded-For. Empty means the socket peer is the client.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	Session Session
	Cookie  Cookie
	Mongo   MongoConfig
	Redis   RedisConfig
	Argon2  Argon2Config
	Mail    MailConfig
}

type Session struct {
	AccessTTL      time.Duration `env:"JWT_TTL,                 default=24h"`
	RefreshTTL     time.Duration `env:"REFRESH_TTL,             default=168h"`
	CodeTTL        time.Duration `env:"CODE_TTL,                default=10m"`
	ReuseDetection bool          `env:"REFRESH_REUSE_DETECTION, default=false"`
	BasicRoleName  string        `env:"ROLE_BASIC_NAME,         default=basic"`
	BasicRoleID    string        `env:"ROLE_BASIC_ID"`
	AdminRoleID    string        `env:"ROLE_ADMIN_ID"`
}

type Cookie struct {
	// Secure defaults to true outside development when unset.
	Secure *bool  `env:"COOKIE_SECURE, noinit"`
	Domain string `env:"COOKIE_DOMAIN"`
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,            default=identity"`
	TTLCleanup  bool   `env:"MONGO_TTL_CLEANUP,   default=false"`
	MaxPoolSize uint64 `env:"MONGO_MAX_POOL_SIZE, default=100"`
}

// RedisConfig holds the connection and the throttle budgets. The account
// budget caps attempts against one login across all client addresses.
type RedisConfig struct {
	Enabled         bool          `env:"REDIS_ENABLED,              default=true"`
	Addr            string        `env:"REDIS_ADDR,                 default=localhost:6379"`
	Password        string        `env:"REDIS_PASSWORD"`
	DB              int           `env:"REDIS_DB,                   default=0"`
	LoginAttempts   int           `env:"LOGIN_MAX_ATTEMPTS,         default=10"`
	AccountAttempts int           `env:"LOGIN_ACCOUNT_MAX_ATTEMPTS, default=30"`
	LoginWindow     time.Duration `env:"LOGIN_WINDOW,               default=15m"`
	CodeSends       int           `env:"CODE_MAX_SENDS,             default=5"`
	CodeWindow      time.Duration `env:"CODE_WINDOW,                default=1h"`
	CodeGuesses     int           `env:"CODE_MAX_GUESSES,           default=5"`
	CodeGuessWindow time.Duration `env:"CODE_GUESS_WINDOW,          default=10m"`
}

type Argon2Config struct {
	MemoryKB uint32 `env:"ARGON2_MEMORY_KB, default=65536"`
	Time     uint32 `env:"ARGON2_TIME,      default=3"`
	Threads  uint8  `env:"ARGON2_THREADS,   default=2"`
}

type MailConfig struct {
	Provider       string `env:"MAIL_PROVIDER,    default=log"`
	From           string `env:"MAIL_FROM,        default=no-reply@localhost"`
	FromName       string `env:"MAIL_FROM_NAME,   default=Identity"`
	Workers        int    `env:"MAIL_WORKERS,     default=4"`
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	MailgunDomain  string `env:"MAILGUN_DOMAIN"`
	MailgunAPIKey  string `env:"MAILGUN_API_KEY"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if c.Session.RefreshTTL <= 0 || c.Session.AccessTTL <= 0 || c.Session.CodeTTL <= 0 {
		return fmt.Errorf("config: token lifetimes must be positive")
	}
	if _, err := c.TrustedProxyNets(); err != nil {
		return err
	}
	switch c.Mail.Provider {
	case "log":
		if !c.IsDevelopment() {
			return fmt.Errorf("config: MAIL_PROVIDER=log writes secrets to the log and is only allowed in development")
		}
	case "sendgrid":
		if c.Mail.SendGridAPIKey == "" {
			return fmt.Errorf("config: SENDGRID_API_KEY is required for MAIL_PROVIDER=sendgrid")
		}
	case "mailgun":
		if c.Mail.MailgunDomain == "" || c.Mail.MailgunAPIKey == "" {
			return fmt.Errorf("config: MAILGUN_DOMAIN and MAILGUN_API_KEY are required for MAIL_PROVIDER=mailgun")
		}
	default:
		return fmt.Errorf("config: unknown MAIL_PROVIDER %q", c.Mail.Provider)
	}
	return nil
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "local"
}

// Roles is the catalog administrators assign from. The admin role name is
// fixed because route guards match on it.
func (c *Config) Roles() domain.RoleCatalog {
	return domain.RoleCatalog{
		{ID: c.Session.BasicRoleID, Name: c.Session.BasicRoleName},
		{ID: c.Session.AdminRoleID, Name: domain.RoleAdmin},
	}
}

// SecureCookies resolves COOKIE_SECURE against the environment.
func (c *Config) SecureCookies() bool {
	if c.Cookie.Secure != nil {
		return *c.Cookie.Secure
	}
	return !c.IsDevelopment()
}

// TrustedProxyNets parses TRUSTED_PROXIES. A bare address is read as a
// single-host network.
func (c *Config) TrustedProxyNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("config: invalid TRUSTED_PROXIES entry %q", entry)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("config: invalid TRUSTED_PROXIES entry %q: %w", entry, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}
