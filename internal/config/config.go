package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	TenancySingle = "single"
	TenancyMulti  = "multi"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Storage struct {
		Driver string
		DSN    string
		Path   string
	} `mapstructure:"storage"`

	Tenancy struct {
		Mode          string
		DefaultTenant string `mapstructure:"default_tenant"`
		// BootstrapOwner, in multi mode, is made owner of DefaultTenant at startup.
		BootstrapOwner string `mapstructure:"bootstrap_owner"`
	} `mapstructure:"tenancy"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`

	Redis struct {
		Addr           string
		Password       string
		DB             int
		IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
	} `mapstructure:"redis"`
}

// Load reads the yaml file at path. A .env next to the working directory is
// applied first, and APP_* variables override file values (APP_STORAGE_DSN etc).
func Load(path string) (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := gotenv.Load(".env"); err != nil {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "prod")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.path", "data.db")
	v.SetDefault("tenancy.mode", TenancySingle)
	v.SetDefault("tenancy.default_tenant", "default")
	v.SetDefault("redis.idempotency_ttl", 24*time.Hour)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("config: storage.dsn is required for postgres")
		}
	case DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("config: storage.path is required for sqlite")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}

	switch c.Tenancy.Mode {
	case TenancySingle:
		if strings.TrimSpace(c.Tenancy.DefaultTenant) == "" {
			return fmt.Errorf("config: tenancy.default_tenant is required in single mode")
		}
	case TenancyMulti:
		if strings.TrimSpace(c.Tenancy.BootstrapOwner) != "" && strings.TrimSpace(c.Tenancy.DefaultTenant) == "" {
			return fmt.Errorf("config: tenancy.bootstrap_owner needs tenancy.default_tenant")
		}
	default:
		return fmt.Errorf("config: unknown tenancy.mode %q", c.Tenancy.Mode)
	}
	return nil
}
