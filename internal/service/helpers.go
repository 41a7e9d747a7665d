package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/classroom-api/internal/models"
	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
)

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func fieldError(field, message, detail string) error {
	return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, message), map[string]string{field: detail})
}

// requireID rejects identifiers that cannot reference a stored record.
func requireID(field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrInvalidReference, fmt.Sprintf("malformed %s", field)),
			map[string]string{field: "must be a valid identifier"},
		)
	}
	return nil
}

// notFoundOr maps sql.ErrNoRows to a 404 and anything else to a 500.
func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}

// notBlank rejects a value that passed "required" but holds only whitespace.
func notBlank(base *appErrors.Error, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return appErrors.WithDetails(base, map[string]string{field: field + " must not be blank"})
	}
	return nil
}

func requireTeacher(claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleTeacher {
		return appErrors.ErrTeacherOnly
	}
	return nil
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
