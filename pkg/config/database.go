package config

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/anonto42/nano-midea/client/internal/session"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var userConfigDir = os.UserConfigDir

// Stores holds the credential vault and the connection behind it
type Stores struct {
	Vault    session.Vault
	Postgres *gorm.DB
	Redis    *redis.Client
}

// InitStores opens the vault backend selected by cfg.Vault
func InitStores(ctx context.Context, cfg *Config) (*Stores, error) {
	switch cfg.Vault {
	case VaultMemory:
		return &Stores{Vault: session.NewMemoryVault()}, nil
	case VaultFile, "":
		vault, err := session.NewFileVault(cfg.VaultPath, cfg.VaultSecret)
		if err != nil {
			return nil, err
		}
		return &Stores{Vault: vault}, nil
	case VaultRedis:
		client, err := initRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		return &Stores{Vault: session.NewRedisVault(client, cfg.Profile), Redis: client}, nil
	case VaultPostgres:
		if cfg.PostgresConn == "" {
			return nil, fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
		}
		db, err := initPostgres(cfg.PostgresConn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		vault, err := session.NewGormVault(db.WithContext(ctx), cfg.Profile)
		if err != nil {
			return nil, fmt.Errorf("failed to migrate credentials table: %w", err)
		}
		return &Stores{Vault: vault, Postgres: db}, nil
	default:
		return nil, fmt.Errorf("unknown vault backend %q", cfg.Vault)
	}
}

// initPostgres initializes the PostgreSQL database connection using GORM
func initPostgres(connStr string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to PostgreSQL!")
	return db, nil
}

func initRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	log.Println("Successfully connected to Redis!")
	return client, nil
}

// Close closes the connections behind the vault
func (s *Stores) Close() {
	if s.Postgres != nil {
		sqlDB, err := s.Postgres.DB()
		if err != nil {
			log.Printf("Error getting SQL DB from GORM: %v\n", err)
		} else if err := sqlDB.Close(); err != nil {
			log.Printf("Error closing PostgreSQL connection: %v\n", err)
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v\n", err)
		}
	}
}
