// Package mysql backs the user credential store with MySQL, for deployments
// where the user register must outlive a single host.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/bcrypt"

	"github.com/devpablofiz/Hotelier/internal/domain"
)

const mysqlErrDuplicateEntry = 1062

type UserStore struct{ db *sql.DB }

func New(db *sql.DB) *UserStore { return &UserStore{db: db} }

func (s *UserStore) Validate(ctx context.Context, username, password string) (domain.LoginVerdict, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, selectPasswordHashSQL, username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LoginUnknownUser, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select user %s: %w", username, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return domain.LoginBadPassword, nil
	}
	return domain.LoginOK, nil
}

func (s *UserStore) Register(ctx context.Context, username, password string) (domain.RegisterVerdict, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	_, err = s.db.ExecContext(ctx, insertUserSQL, username, string(hash))
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry {
			return domain.RegisterAlreadyExists, nil
		}
		return 0, fmt.Errorf("insert user %s: %w", username, err)
	}
	return domain.RegisterOK, nil
}

func (s *UserStore) ReviewCount(ctx context.Context, username string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, selectReviewsCountSQL, username).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select reviews count for %s: %w", username, err)
	}
	return n, nil
}

func (s *UserStore) IncrementReviewCount(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, incrementReviewsCountSQL, username)
	if err != nil {
		return fmt.Errorf("increment reviews count for %s: %w", username, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
