package usecase

import (
	"fmt"

	"parking-booking/internal/data/entity"
	"parking-booking/pkg/apperror"
	"parking-booking/pkg/utils"

	"github.com/google/uuid"
)

func isStaff(actor utils.CurrentUser) bool {
	return entity.UserRole(actor.Role).IsStaff()
}

func isAdmin(actor utils.CurrentUser) bool {
	return entity.UserRole(actor.Role) == entity.RoleAdmin
}

func isOwner(actor utils.CurrentUser) bool {
	return entity.UserRole(actor.Role) == entity.RoleOwner
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID format %s: %w", kind, raw, apperror.ErrValidation)
	}
	return id, nil
}

func parseOptionalID(kind string, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := parseID(kind, *raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// validateRequest re-checks a DTO so services stay safe when called without
// the HTTP layer.
func validateRequest(req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%s: %w", utils.FormatValidationErrors(errs), apperror.ErrValidation)
	}
	return nil
}
