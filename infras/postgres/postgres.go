package postgres

//nolint:revive
import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"stayfinder/config"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	postgresMaxIdleConnection = 10
	postgresMaxOpenConnection = 10
)

type Connection struct {
	Read  *sqlx.DB
	Write *sqlx.DB
}

func New(config *config.Config) *Connection {
	return &Connection{
		Read:  CreatePostgresReadConn(*config),
		Write: CreatePostgresWriteConn(*config),
	}
}

// WithTx runs fn inside a write transaction. The transaction is committed when
// fn returns nil and rolled back otherwise.
func (c *Connection) WithTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := c.Write.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err == nil {
			return
		}

		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Close releases both pools.
func (c *Connection) Close() error {
	var errs []error

	for _, db := range []*sqlx.DB{c.Read, c.Write} {
		if db == nil {
			continue
		}

		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func getDBName(config config.Config, baseName string) string {
	if config.DB.Postgres.Prefix != "" {
		return config.DB.Postgres.Prefix + baseName
	}

	return baseName
}

// CreatePostgresWriteConn creates a database connection for write access.
func CreatePostgresWriteConn(config config.Config) *sqlx.DB {
	write := config.DB.Postgres.Write

	return createConnection(
		"write",
		endpoint{write.Username, write.Password, write.Host, write.Port, getDBName(config, write.Name), write.SSLMode},
		config.DB.Postgres.MaxRetry,
		config.DB.Postgres.RetryWaitTime,
	)
}

// CreatePostgresReadConn creates a database connection for read access.
func CreatePostgresReadConn(config config.Config) *sqlx.DB {
	read := config.DB.Postgres.Read

	return createConnection(
		"read",
		endpoint{read.Username, read.Password, read.Host, read.Port, getDBName(config, read.Name), read.SSLMode},
		config.DB.Postgres.MaxRetry,
		config.DB.Postgres.RetryWaitTime,
	)
}

type endpoint struct {
	username, password, host, port, dbName, sslMode string
}

func (e endpoint) dsn() string {
	sslMode := e.sslMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(e.username, e.password),
		Host:     net.JoinHostPort(e.host, e.port),
		Path:     e.dbName,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}

	return dsn.String()
}

// createConnection connects with a constant backoff between attempts
// and stops the process when every attempt failed.
func createConnection(name string, target endpoint, maxRetry, waitTime int) *sqlx.DB {
	maxRetry = max(maxRetry, 1)
	attempt := 0

	sqlDB, err := backoff.Retry(context.Background(), func() (*sqlx.DB, error) {
		attempt++

		db, err := sqlx.Connect("postgres", target.dsn())
		if err != nil {
			log.Error().
				Err(err).
				Str("name", name).
				Str("host", target.host).
				Str("dbName", target.dbName).
				Int("attempt", attempt).
				Msg("Failed connecting to database, retrying")

			return nil, err //nolint:wrapcheck
		}

		return db, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(time.Duration(waitTime)*time.Second)),
		backoff.WithMaxTries(uint(maxRetry)),
	)
	if err != nil {
		log.Fatal().Err(err).Str("name", name).Msg("Giving up connecting to database")
	}

	sqlDB.SetMaxIdleConns(postgresMaxIdleConnection)
	sqlDB.SetMaxOpenConns(postgresMaxOpenConnection)

	log.Info().
		Str("name", name).
		Str("host", target.host).
		Str("port", target.port).
		Str("dbName", target.dbName).
		Msg("Connected to database")

	return sqlDB
}
