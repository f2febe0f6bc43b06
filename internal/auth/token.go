package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const TokenLifetime = time.Hour

const (
	userIdClaim   = "user_id"
	usernameClaim = "username"
	expClaim      = "exp"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Session is the identity carried by a verified token.
type Session struct {
	UserId   int
	Username string
}

// TokenIssuer issues and verifies signed session tokens. Tokens are
// bearer credentials: any holder of a valid token is treated as the
// embedded identity.
type TokenIssuer struct {
	signingKey []byte
}

func NewTokenIssuer(signingKey []byte) *TokenIssuer {
	return &TokenIssuer{signingKey: signingKey}
}

// Issue creates a signed token embedding the user's id and username,
// expiring one hour from now.
func (ti *TokenIssuer) Issue(userId int, username string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		userIdClaim:   userId,
		usernameClaim: username,
		expClaim:      time.Now().Add(TokenLifetime).Unix(),
	})

	return token.SignedString(ti.signingKey)
}

// Verify parses and validates a token string. It never returns a
// session from an unverified payload: any signature mismatch or
// malformed token yields ErrInvalidToken, an expired token yields
// ErrExpiredToken.
func (ti *TokenIssuer) Verify(tokenString string) (Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.signingKey, nil
	})
	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return Session{}, ErrExpiredToken
		}
		return Session{}, ErrInvalidToken
	}

	if !token.Valid {
		return Session{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, ErrInvalidToken
	}

	userId, ok := claims[userIdClaim].(float64)
	if !ok {
		return Session{}, ErrInvalidToken
	}

	username, ok := claims[usernameClaim].(string)
	if !ok {
		return Session{}, ErrInvalidToken
	}

	return Session{UserId: int(userId), Username: username}, nil
}
