package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	"github.com/angelmondragon/fulfillment-engine/pkg/types"
)

// AccessTokenPayload captures the actor an access token is minted for.
type AccessTokenPayload struct {
	ActorID   uuid.UUID
	Role      enums.ActorRole
	CompanyID *uuid.UUID
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	ActorID   uuid.UUID       `json:"actor_id"`
	Role      enums.ActorRole `json:"role"`
	CompanyID *uuid.UUID      `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the caller every engine operation takes.
func (c *AccessTokenClaims) Actor() types.Actor {
	return types.Actor{ID: c.ActorID, Role: c.Role, CompanyID: c.CompanyID}
}
