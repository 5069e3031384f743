package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schemaSQL string

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// Migrate creates any missing tables and indexes.
func Migrate(ctx context.Context, db *sql.DB, logger *logrus.Logger) error {
	logger.Info("Repository: applying database schema")
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info("Repository: database schema is up to date")
	return nil
}

func pqErrorCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

// inTx runs fn inside a transaction, committing when fn returns nil and
// rolling back on error or panic.
func inTx(ctx context.Context, db *sql.DB, log *logrus.Logger, op string, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf("Repository: %s: failed to begin transaction: %v", op, err)
		return fmt.Errorf("could not start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			log.Errorf("Repository: %s: recovered from panic, rolling back transaction", op)
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			log.Warnf("Repository: %s: rolling back transaction due to error: %v", op, err)
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Errorf("Repository: %s: failed to rollback transaction: %v", op, rbErr)
			}
		} else {
			if cErr := tx.Commit(); cErr != nil {
				log.Errorf("Repository: %s: failed to commit transaction: %v", op, cErr)
				err = fmt.Errorf("failed to commit transaction: %w", cErr)
			}
		}
	}()

	err = fn(tx)
	return err
}
