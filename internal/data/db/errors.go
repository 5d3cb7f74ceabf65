package db

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/pak23399/TSchedule/internal/platform/apierr"
)

// MapError turns a storage failure into an API error. Check violations are
// caller input problems, unique violations are conflicts, everything else
// is internal.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apierr.New(http.StatusNotFound, apierr.CodeNotFound, fmt.Errorf("%s: not found", op))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apierr.New(http.StatusServiceUnavailable, apierr.CodeUpstream, fmt.Errorf("%s: %w", op, err))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23514": // check_violation
			return apierr.Invalid("%s: violates %s", op, pgErr.ConstraintName)
		case "23505": // unique_violation
			return apierr.Conflict(fmt.Errorf("%s: %w", op, err))
		case "22P02", "22007", "22008": // invalid text representation / datetime format
			return apierr.Invalid("%s: %s", op, pgErr.Message)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "check constraint failed"):
		return apierr.Invalid("%s: %s", op, constraintName(err.Error()))
	case strings.Contains(msg, "unique constraint failed"), strings.Contains(msg, "duplicate key"):
		return apierr.Conflict(fmt.Errorf("%s: %w", op, err))
	default:
		return apierr.Internal(fmt.Errorf("%s: %w", op, err))
	}
}

// constraintName extracts "chk_x" from sqlite's "CHECK constraint failed: chk_x".
func constraintName(msg string) string {
	if i := strings.LastIndex(msg, ":"); i >= 0 && i+1 < len(msg) {
		return "violates " + strings.TrimSpace(msg[i+1:])
	}
	return msg
}
