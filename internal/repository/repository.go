package repository

import (
	"context"
	"fmt"
	"time"

	"ecolearn_backend/pkg/logger"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var (
	ErrNotFound = errors.New("not found")

	ErrDuplicateUser              = errors.New("user already exists")
	ErrDuplicateActivity          = errors.New("activity already credited")
	ErrDuplicatePendingSubmission = errors.New("pending submission already exists")
	ErrAlreadyReviewed            = errors.New("submission already reviewed")
	ErrBadgeAlreadyOwned          = errors.New("badge already owned")
)

const defaultOpTimeout = 5 * time.Second

type Repository struct {
	db        *sqlx.DB
	opTimeout time.Duration
}

type Config struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`

	OpTimeoutSeconds int `json:"opTimeoutSeconds"`
}

func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

func New(cfg Config) (*Repository, error) {
	db, err := sqlx.Connect("pgx", cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Logger().Info("Connected to database successfully")

	timeout := defaultOpTimeout
	if cfg.OpTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.OpTimeoutSeconds) * time.Second
	}

	return &Repository{db: db, opTimeout: timeout}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// opContext bounds every datastore call so an unavailable store surfaces a
// deadline error instead of hanging the request.
func (r *Repository) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.opTimeout)
}

func (r *Repository) Transaction(ctx context.Context, t func(tx *sqlx.Tx) error) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	err = t(tx)
	if err != nil {
		txErr := tx.Rollback()
		if txErr != nil {
			return errors.Wrapf(err, "rollback error: %v", txErr)
		}
		return err
	}
	return tx.Commit()
}

// isUniqueViolation reports whether err is a Postgres 23505 on the named
// constraint. An empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
