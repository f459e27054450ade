package persistence

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
)

// notFound maps a missing row onto a domain.NotFoundError and wraps anything else.
func notFound(err error, entity, id, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if message != "" {
			return domain.NewNotFoundErrorWithMessage(entity, id, message)
		}

		return domain.NewNotFoundError(entity, id)
	}

	return fmt.Errorf("querying %s: %w", entity, err)
}

// writeError maps constraint violations raised by a write.
func writeError(err error, entity, field, value string) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.NewConflictErrorWithDetails(entity, field+" already exists", value)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.NewValidationError(field, "references a missing record")
	default:
		return fmt.Errorf("writing %s: %w", entity, err)
	}
}
