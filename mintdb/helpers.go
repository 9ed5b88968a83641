package mintdb

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/avast/retry-go"
	_ "github.com/lib/pq" // this comment here because of linter: a blank import should be only in a main or test package, or have a comment justifying it (golint)
)

type config struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DBName   string `toml:"dbname"`
	SSLMode  string `toml:"sslmode"`
}

func (c config) dsn() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName,
		sslMode,
	)
}

func OpenPostgres(configPath string) (*sql.DB, error) {
	var cfg config
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", cfg.dsn())
	if err != nil {
		return nil, err
	}
	return db, nil
}

// OpenPostgresWithRetries opens and pings the database, retrying every
// 5 seconds up to attempts times.
func OpenPostgresWithRetries(ctx context.Context, configPath string, attempts uint) (*sql.DB, error) {
	var db *sql.DB
	err := retry.Do(
		func() error {
			conn, err := OpenPostgres(configPath)
			if err != nil {
				return fmt.Errorf("failed to open postgres: %w", err)
			}
			if err := conn.PingContext(ctx); err != nil {
				conn.Close()
				return fmt.Errorf("failed to ping postgres: %w", err)
			}
			db = conn
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(5*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("MintDB: %v (attempt %d/%d)\n", err, n+1, attempts)
		}),
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}
