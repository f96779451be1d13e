package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anonto42/nano-midea/client/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StubStore holds the stub API's repositories and the connection behind them
type StubStore struct {
	*repositories.Store
	Mongo *mongo.Client
}

// InitStubStore opens the store selected by cfg.StubStore. A store with no
// users yet is seeded with the demo accounts.
func InitStubStore(ctx context.Context, cfg *Config) (*StubStore, error) {
	var out StubStore
	switch cfg.StubStore {
	case StubMemory, "":
		out.Store = repositories.NewMemoryStore()
	case StubMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI environment variable not set")
		}
		client, err := initMongo(cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		db := client.Database(cfg.MongoDatabase)
		if err := repositories.EnsureIndexes(ctx, db); err != nil {
			client.Disconnect(ctx)
			return nil, err
		}
		out.Store, out.Mongo = repositories.NewMongoStore(db), client
	default:
		return nil, fmt.Errorf("unknown stub store %q", cfg.StubStore)
	}

	users, err := out.Users.ListUsers(ctx)
	if err != nil {
		out.Close()
		return nil, err
	}
	if len(users) == 0 {
		if err := out.Seed(ctx); err != nil {
			out.Close()
			return nil, fmt.Errorf("failed to seed store: %w", err)
		}
		log.Printf("Seeded demo users alice and bob (password %q)", repositories.DemoPassword)
	}
	return &out, nil
}

// initMongo initializes the MongoDB connection
func initMongo(uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to MongoDB!")
	return client, nil
}

// Close disconnects from MongoDB when the store uses it
func (s *StubStore) Close() {
	if s.Mongo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Mongo.Disconnect(ctx); err != nil {
		log.Printf("Error closing MongoDB connection: %v\n", err)
	} else {
		log.Println("MongoDB connection closed.")
	}
}
