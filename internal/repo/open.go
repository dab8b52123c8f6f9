package repo

import (
	"context"
	"fmt"
	"time"
)

// Options selects a backend and carries its connection settings. Only the
// fields of the chosen backend are read.
type Options struct {
	Backend string // one of the Backend* constants

	DBPath      string // SQLite file
	DatabaseURL string // Postgres DSN

	MongoURI            string
	MongoDatabase       string
	MongoCollection     string
	MongoConnectTimeout time.Duration
}

// Closer releases resources held by a Store.
type Closer func(context.Context) error

func noopCloser(context.Context) error { return nil }

// Open builds the Store selected by opts.Backend, running migrations or index
// creation as needed. The returned Closer must be called on shutdown.
func Open(ctx context.Context, opts Options) (Store, Closer, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryStore(), noopCloser, nil

	case BackendSQLite, BackendPostgres:
		open, dsn := OpenSQLite, opts.DBPath
		if opts.Backend == BackendPostgres {
			open, dsn = OpenPostgres, opts.DatabaseURL
		}
		db, err := open(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", opts.Backend, err)
		}
		if err := AutoMigrate(db); err != nil {
			return nil, nil, fmt.Errorf("migrate %s: %w", opts.Backend, err)
		}
		closer := func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		return NewSQLStore(db), closer, nil

	case BackendMongo:
		client, err := ConnectMongo(ctx, opts.MongoURI, opts.MongoConnectTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		st := NewMongoStore(client.Database(opts.MongoDatabase), opts.MongoCollection)
		if err := st.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return st, client.Disconnect, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", opts.Backend)
}
