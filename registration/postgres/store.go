// Package postgres implements the durable registration store on Postgres.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/karimelhady/signupbot/registration"
)

// Store persists registration records in the registrations table.
type Store struct {
	db *sqlx.DB
}

// New wraps an open database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type recordRow struct {
	UserID         int64     `db:"user_id"`
	Platform       string    `db:"platform"`
	WhatsApp       string    `db:"whatsapp"`
	PaymentMethod  string    `db:"payment_method"`
	PaymentDetails string    `db:"payment_details"`
	Step           string    `db:"step"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

const getQuery = `
SELECT user_id, platform, whatsapp, payment_method, payment_details, step, created_at, updated_at
FROM registrations
WHERE user_id = $1`

// Get returns the record for a user, or (nil, nil) when none exists. Rows
// carrying an unknown step value are rejected at this boundary.
func (s *Store) Get(ctx context.Context, userID int64) (*registration.Record, error) {
	var row recordRow
	if err := s.db.GetContext(ctx, &row, getQuery, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}

	step, err := registration.ParseStep(row.Step)
	if err != nil {
		return nil, err
	}

	return &registration.Record{
		UserID:         row.UserID,
		Platform:       row.Platform,
		WhatsApp:       row.WhatsApp,
		PaymentMethod:  row.PaymentMethod,
		PaymentDetails: row.PaymentDetails,
		Step:           step,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}

const saveStepQuery = `
INSERT INTO registrations (user_id, platform, whatsapp, payment_method, payment_details, step)
VALUES ($1, COALESCE($2, ''), COALESCE($3, ''), COALESCE($4, ''), COALESCE($5, ''), $6)
ON CONFLICT (user_id) DO UPDATE SET
    platform        = COALESCE($2, registrations.platform),
    whatsapp        = COALESCE($3, registrations.whatsapp),
    payment_method  = COALESCE($4, registrations.payment_method),
    payment_details = COALESCE($5, registrations.payment_details),
    step            = $6,
    updated_at      = now()`

// SaveStep advances the durable step, upserting the row and updating only the
// fields provided.
func (s *Store) SaveStep(ctx context.Context, userID int64, step registration.Step, fields registration.Fields) error {
	_, err := s.db.ExecContext(ctx, saveStepQuery,
		userID,
		fields.Platform,
		fields.WhatsApp,
		fields.PaymentMethod,
		fields.PaymentDetails,
		string(step),
	)
	if err != nil {
		return fmt.Errorf("save registration step: %w", err)
	}
	return nil
}
