package config

import (
	"log"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Vault backends selectable with FEED_VAULT
const (
	VaultFile     = "file"
	VaultRedis    = "redis"
	VaultPostgres = "postgres"
	VaultMemory   = "memory"
)

// Stub API stores selectable with FEED_STUB_STORE
const (
	StubMemory = "memory"
	StubMongo  = "mongo"
)

type Config struct {
	APIURL         string        `mapstructure:"FEED_API_URL"`
	Env            string        `mapstructure:"ENV"`
	Profile        string        `mapstructure:"FEED_PROFILE"`
	Vault          string        `mapstructure:"FEED_VAULT"`
	VaultPath      string        `mapstructure:"FEED_VAULT_PATH"`
	VaultSecret    string        `mapstructure:"FEED_VAULT_SECRET"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	PostgresConn   string        `mapstructure:"POSTGRES_CONN_STR"`
	RequestTimeout time.Duration `mapstructure:"FEED_REQUEST_TIMEOUT"`
	Port           string        `mapstructure:"PORT"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	StubStore      string        `mapstructure:"FEED_STUB_STORE"`
	MongoURI       string        `mapstructure:"MONGO_URI"`
	MongoDatabase  string        `mapstructure:"MONGO_DB"`
}

// Load reads .env, then the environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("FEED_API_URL", "http://localhost:8080/graphql")
	v.SetDefault("ENV", "development")
	v.SetDefault("FEED_PROFILE", "default")
	v.SetDefault("FEED_VAULT", VaultFile)
	v.SetDefault("FEED_VAULT_PATH", defaultVaultPath())
	v.SetDefault("FEED_VAULT_SECRET", "dev-vault-secret-change-me")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("POSTGRES_CONN_STR", "")
	v.SetDefault("FEED_REQUEST_TIMEOUT", "15s")
	v.SetDefault("PORT", "8080")
	v.SetDefault("JWT_SECRET", "supersecretjwtkey")
	v.SetDefault("FEED_STUB_STORE", StubMemory)
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DB", "feedstub")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Printf("Failed to decode configuration: %v", err)
	}
	return &cfg
}

func defaultVaultPath() string {
	dir, err := userConfigDir()
	if err != nil {
		return ".feedclient.vault"
	}
	return filepath.Join(dir, "feedclient", "session.vault")
}
