package identity

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"axis/internal/domain"
	pkgerrors "axis/pkg/errors"
)

// Claims are the token claims this dashboard cares about.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens minted by the external identity provider.
type Verifier struct {
	signingKey []byte
}

func NewVerifier(signingKey string) *Verifier {
	return &Verifier{signingKey: []byte(signingKey)}
}

func (v *Verifier) ValidateToken(tokenString string) (User, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return User{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "token has expired")
		}
		return User{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return User{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token claims")
	}
	return User{ID: claims.UserID, Role: domain.Role(claims.Role)}, nil
}
