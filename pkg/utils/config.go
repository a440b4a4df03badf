package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Token     TokenConfig
	NoShow    NoShowConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name           string
	Port           string
	Debug          bool
	LogPath        string
	DemoAdminToken string
}

type StoreConfig struct {
	Driver string // postgres | memory
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// Enabled reports whether locks should be shared through Redis.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type TokenConfig struct {
	Secret string
}

type NoShowConfig struct {
	SweepEnabled bool
	SweepCron    string
	Grace        time.Duration
}

type RateLimitConfig struct {
	ScanPerMinute int
	ScanBurst     int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "parking-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("STORE_DRIVER", "postgres")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LOCK_TTL_SECONDS", 10)
	viper.SetDefault("NOSHOW_SWEEP_ENABLED", false)
	viper.SetDefault("NOSHOW_SWEEP_CRON", "0 */5 * * * *")
	viper.SetDefault("NOSHOW_GRACE_MINUTES", 30)
	viper.SetDefault("SCAN_RATE_PER_MINUTE", 120)
	viper.SetDefault("SCAN_RATE_BURST", 20)

	// .env is optional, the environment wins anyway
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:           viper.GetString("APP_NAME"),
			Port:           viper.GetString("PORT"),
			Debug:          viper.GetBool("DEBUG"),
			LogPath:        viper.GetString("LOG_PATH"),
			DemoAdminToken: viper.GetString("DEMO_ADMIN_TOKEN"),
		},
		Store: StoreConfig{
			Driver: viper.GetString("STORE_DRIVER"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			LockTTL:  time.Duration(viper.GetInt("LOCK_TTL_SECONDS")) * time.Second,
		},
		Token: TokenConfig{
			Secret: viper.GetString("TOKEN_SECRET"),
		},
		NoShow: NoShowConfig{
			SweepEnabled: viper.GetBool("NOSHOW_SWEEP_ENABLED"),
			SweepCron:    viper.GetString("NOSHOW_SWEEP_CRON"),
			Grace:        time.Duration(viper.GetInt("NOSHOW_GRACE_MINUTES")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			ScanPerMinute: viper.GetInt("SCAN_RATE_PER_MINUTE"),
			ScanBurst:     viper.GetInt("SCAN_RATE_BURST"),
		},
	}

	if config.Token.Secret == "" {
		return nil, errors.New("TOKEN_SECRET is required")
	}

	return config, nil
}
