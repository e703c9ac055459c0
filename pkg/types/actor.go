package types

import (
	"errors"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
)

// Actor is the authenticated caller every engine operation runs on behalf of.
type Actor struct {
	ID        uuid.UUID       `json:"id"`
	Role      enums.ActorRole `json:"role"`
	CompanyID *uuid.UUID      `json:"companyId,omitempty"`
}

func (a Actor) Validate() error {
	if a.ID == uuid.Nil {
		return errors.New("actor id required")
	}
	if !a.Role.IsValid() {
		return errors.New("actor role invalid")
	}
	if a.Role == enums.ActorRoleCompany && (a.CompanyID == nil || *a.CompanyID == uuid.Nil) {
		return errors.New("company actor requires company id")
	}
	return nil
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.ActorRoleAdmin
}

// BelongsTo reports whether the actor acts for the given company.
func (a Actor) BelongsTo(companyID uuid.UUID) bool {
	return a.CompanyID != nil && *a.CompanyID == companyID
}
