package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID     uuid.UUID
	BusinessID *uuid.UUID
	CustomerID *uuid.UUID
	Role       enums.UserRole
}

// AccessTokenClaims represents the typed JWT issued to clients. BusinessID is
// the tenant the token is scoped to; handlers never trust a client-supplied
// business id for writes.
type AccessTokenClaims struct {
	UserID     uuid.UUID      `json:"user_id"`
	BusinessID *uuid.UUID     `json:"business_id,omitempty"`
	CustomerID *uuid.UUID     `json:"customer_id,omitempty"`
	Role       enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
