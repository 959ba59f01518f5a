package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds everything the server reads from the environment or rccafe.yaml.
type Config struct {
	HTTPAddr string

	DB    Database
	Redis Redis
	JWT   JWT

	LogLevel  string
	LogPretty bool

	CORSOrigins []string

	// BookingsEnabled switches online booking creation on and off.
	BookingsEnabled bool
	// DeleteAdminEmail is the only account allowed to delete ledger entries.
	DeleteAdminEmail string

	Venue Venue
}

type Database struct {
	Driver   string // postgres | mysql
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type JWT struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Venue is the price and allowance catalog of the venue.
type Venue struct {
	TimerMinutes    []int
	AddTimeMinutes  []int
	DefaultSessions int
	PointsMin       int
	PointsMax       int
	PlanPrices      map[string]decimal.Decimal
}

// DSN builds the driver specific connection string.
func (d Database) DSN() string {
	if d.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.Port, d.Name)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// AllowsTimerMinutes reports whether m is one of the bookable timer lengths.
func (v Venue) AllowsTimerMinutes(m int) bool {
	return containsInt(v.TimerMinutes, m)
}

// AllowsAddTime reports whether m is an accepted add_time increment.
func (v Venue) AllowsAddTime(m int) bool {
	return containsInt(v.AddTimeMinutes, m)
}

// PlanPrice returns the monthly price of a membership plan.
func (v Venue) PlanPrice(plan string) (decimal.Decimal, bool) {
	p, ok := v.PlanPrices[plan]
	return p, ok
}

func containsInt(list []int, m int) bool {
	for _, x := range list {
		if x == m {
			return true
		}
	}
	return false
}

var (
	mu      sync.RWMutex
	current = Default()
)

// Get returns the active configuration.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set replaces the active configuration. Used by main after Load and by tests.
func Set(c *Config) {
	mu.Lock()
	current = c
	mu.Unlock()
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	c, _ := fromViper(newViper())
	return c
}

// Load reads .env (unless ENV_CHEK is set), the optional rccafe.yaml and the environment.
func Load() (*Config, error) {
	if os.Getenv("ENV_CHEK") == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	v := newViper()
	v.SetConfigName("rccafe")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if path := os.Getenv("RCCAFE_CONFIG"); path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	c, err := fromViper(v)
	if err != nil {
		return nil, err
	}
	if len(c.JWT.AccessSecret) == 0 || len(c.JWT.RefreshSecret) == 0 {
		return nil, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must be set")
	}
	return c, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_addr", ":8080")

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "rccafe")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.access_secret", "")
	v.SetDefault("jwt.refresh_secret", "")
	v.SetDefault("jwt.access_ttl", 15*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	v.SetDefault("cors.origins", "*")

	v.SetDefault("bookings.enabled", true)
	v.SetDefault("admin.delete_email", "")

	v.SetDefault("venue.timer_minutes", []int{15, 30, 45, 60, 120})
	v.SetDefault("venue.add_time_minutes", []int{5, 10})
	v.SetDefault("venue.default_sessions", 16)
	v.SetDefault("venue.points_min", 1)
	v.SetDefault("venue.points_max", 1000)
	v.SetDefault("venue.plans.rc_track", "6999")
	v.SetDefault("venue.plans.ps5_gamer_duo", "3499")
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	timerMinutes, err := intList(v, "venue.timer_minutes")
	if err != nil {
		return nil, err
	}
	addTime, err := intList(v, "venue.add_time_minutes")
	if err != nil {
		return nil, err
	}

	prices := map[string]decimal.Decimal{}
	for plan, key := range map[string]string{
		"RC_TRACK":      "venue.plans.rc_track",
		"PS5_GAMER_DUO": "venue.plans.ps5_gamer_duo",
	} {
		p, err := decimal.NewFromString(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		prices[plan] = p
	}

	return &Config{
		HTTPAddr: v.GetString("http_addr"),
		DB: Database{
			Driver:   strings.ToLower(v.GetString("db.driver")),
			Host:     v.GetString("db.host"),
			Port:     v.GetString("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			Name:     v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
		},
		Redis: Redis{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWT{
			AccessSecret:  []byte(v.GetString("jwt.access_secret")),
			RefreshSecret: []byte(v.GetString("jwt.refresh_secret")),
			AccessTTL:     v.GetDuration("jwt.access_ttl"),
			RefreshTTL:    v.GetDuration("jwt.refresh_ttl"),
		},
		LogLevel:         v.GetString("log.level"),
		LogPretty:        v.GetBool("log.pretty"),
		CORSOrigins:      splitCSV(v.GetString("cors.origins")),
		BookingsEnabled:  v.GetBool("bookings.enabled"),
		DeleteAdminEmail: strings.ToLower(strings.TrimSpace(v.GetString("admin.delete_email"))),
		Venue: Venue{
			TimerMinutes:    timerMinutes,
			AddTimeMinutes:  addTime,
			DefaultSessions: v.GetInt("venue.default_sessions"),
			PointsMin:       v.GetInt("venue.points_min"),
			PointsMax:       v.GetInt("venue.points_max"),
			PlanPrices:      prices,
		},
	}, nil
}

// intList accepts either a YAML list or a comma separated env value ("15,30,45").
func intList(v *viper.Viper, key string) ([]int, error) {
	switch raw := v.Get(key).(type) {
	case []int:
		return raw, nil
	case []interface{}:
		out := make([]int, 0, len(raw))
		for _, item := range raw {
			n, err := strconv.Atoi(strings.TrimSpace(fmt.Sprint(item)))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out = append(out, n)
		}
		return out, nil
	case string:
		out := []int{}
		for _, part := range splitCSV(raw) {
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out = append(out, n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: unsupported value %v", key, raw)
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
