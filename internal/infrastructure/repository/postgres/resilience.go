package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/openclassics/archive-search/internal/infrastructure/resilience"
)

func classifySQLError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	// Driver-level failures (connection resets, server restarts) are
	// retried; malformed queries are not distinguished here and will
	// exhaust their attempts.
	return resilience.ErrorClassification{
		Retryable:     true,
		RecordFailure: true,
	}
}
