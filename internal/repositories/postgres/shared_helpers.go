package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mohammedtarek206/elamid/internal/repositories"
)

// translateError maps gorm errors onto the repository sentinels and wraps the
// rest with the operation name.
func translateError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, repositories.ErrDuplicate)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

// affected turns a zero-row update or delete into ErrNotFound.
func affected(op string, res *gorm.DB) error {
	if res.Error != nil {
		return translateError(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
	}
	return nil
}
