// Package services holds the CRM use cases: validate, then write through the
// repositories, surfacing store failures as *apperrors.StoreError.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
)

// defaultOwner returns owner, or the acting user when owner is unset.
func defaultOwner(ctx context.Context, owner *uuid.UUID) *uuid.UUID {
	if owner != nil {
		return owner
	}
	id, _ := auth.GetUserID(ctx)
	return id
}

// sortError turns an unsupported sort key into a validation error.
func sortError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.NewValidationError("sort", err.Error())
}

// logListed logs the size of a filtered list at debug level.
func logListed(logger *zap.Logger, noun string, total, shown int) {
	logger.Debug(fmt.Sprintf("Listed %s", inflection.Plural(noun)),
		zap.Int("total", total),
		zap.Int("shown", shown))
}
