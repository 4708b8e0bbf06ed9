package security

import (
	"errors"
	"time"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

const RoleAdmin = "admin"

type TokenClaims struct {
	UserID int64
	Role   string
	Exp    time.Time
	Issuer string
}

type AccessTokenVerifier interface {
	VerifyAccessToken(token string) (TokenClaims, error)
}
