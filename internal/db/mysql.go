package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewMySQL returns a connected GORM DB instance.
func NewMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return db, nil
}

// NewMySQLWithRetry connects with exponential backoff. Retries happen only at
// process startup; per-request database errors are never retried.
func NewMySQLWithRetry(dsn string, attempts int) (*gorm.DB, error) {
	backoff := time.Second
	var lastErr error
	for i := 0; i < attempts; i++ {
		db, err := NewMySQL(dsn)
		if err == nil {
			return db, nil
		}
		lastErr = err
		log.Printf("database connect failed (attempt %d/%d): %v; retrying in %s", i+1, attempts, err, backoff)
		time.Sleep(backoff)
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
	return nil, lastErr
}
