package jwttoken

import (
	"github.com/google/uuid"

	"pkdconsole/internal/platform/middleware"
	id "pkdconsole/pkg/domain"
	dErrors "pkdconsole/pkg/domain-errors"
)

// JWTServiceAdapter bridges the JWT service to the middleware's validator
// interface so transport code stays decoupled from token internals.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	operatorID, err := uuid.Parse(claims.OperatorID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid operator claim")
	}
	return &middleware.JWTClaims{
		OperatorID: id.OperatorID(operatorID),
		Role:       claims.Role,
	}, nil
}
