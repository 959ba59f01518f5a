package storage

import (
	"context"
	"fmt"
	"time"

	"rccafe/internal/clock"
	"rccafe/internal/config"
	"rccafe/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// ConnectDatabase opens the configured SQL database and stores it in DB.
func ConnectDatabase(cfg config.Database) error {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN())
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN())
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: clock.Now,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	DB = db
	log.Info().Str("driver", cfg.Driver).Str("host", cfg.Host).Str("db", cfg.Name).Msg("database connected")
	return nil
}

// Migrate creates or updates every table the application owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Track{},
		&models.Game{},
		&models.Booking{},
		&models.Point{},
		&models.StaffAction{},
		&models.Membership{},
		&models.MembershipSession{},
		&models.MembershipTransaction{},
		&models.Timer{},
		&models.PasswordResetToken{},
	)
}

var RedisClient *redis.Client

// InitRedis connects the cache. An empty address leaves RedisClient nil and turns caching off.
func InitRedis(cfg config.Redis) {
	if cfg.Addr == "" {
		log.Warn().Msg("REDIS_ADDR not set, cache disabled")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unreachable, cache disabled")
		_ = client.Close()
		return
	}

	RedisClient = client
	log.Info().Str("addr", cfg.Addr).Msg("redis connected")
}
