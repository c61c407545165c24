package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/draftline/posts-service/internal/core/ports"
	"github.com/draftline/posts-service/internal/infrastructure/db/mongo"
	"github.com/draftline/posts-service/internal/infrastructure/db/sqlstore"
	"github.com/draftline/posts-service/internal/infrastructure/http/handlers"
	"github.com/draftline/posts-service/internal/pkg/config"
)

// stores are the repositories backing one STORE_DRIVER.
type stores struct {
	posts  ports.PostRepository
	users  ports.UserRepository
	events ports.EventRepository
	health handlers.Dependency
	close  func(ctx context.Context) error
}

// openStores connects the configured store. When migrate is set the schema
// is brought up to date first: goose migrations for SQL, indexes for Mongo.
func openStores(ctx context.Context, cfg *config.Config, migrate bool, log zerolog.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := mongo.EnsureIndexes(ctx, db); err != nil {
				_ = client.Disconnect(ctx)
				return nil, err
			}
		}
		return &stores{
			posts:  mongo.NewPostRepository(db),
			users:  mongo.NewUserRepository(db),
			events: mongo.NewEventRepository(db),
			health: mongo.Pinger{DB: db},
			close:  client.Disconnect,
		}, nil

	case config.StorePostgres, config.StoreSQLite:
		db, err := sqlstore.Open(ctx, sqlstore.Config{Driver: cfg.Store.Driver, DSN: cfg.Store.DatabaseURL})
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := db.Migrate(ctx, log); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return &stores{
			posts:  sqlstore.NewPostRepository(db),
			users:  sqlstore.NewUserRepository(db),
			events: sqlstore.NewEventRepository(db),
			health: db,
			close:  func(context.Context) error { return db.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
}
