package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation. When
// constraintName is provided only violations of that constraint match. Drivers
// that do not expose a SQLSTATE fall back to message inspection.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if code := pkgerrors.PGCode(err); code != "" {
		if code != pgUniqueViolation {
			return false
		}
		return constraintName == "" || pkgerrors.PGConstraint(err) == constraintName
	}
	msg := err.Error()
	// sqlite names the columns, not the index.
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return true
	}
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}
