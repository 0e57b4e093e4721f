package auth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

const (
	RoleAdmin     = "ADMIN"
	RoleDashboard = "DASHBOARD"
)

// ctxKey is how claims are stored and retrieved from a context.
type ctxKey int

const Key ctxKey = 1

const (
	accessTokenTTL  = 12 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

type Claims struct {
	UserId int    `json:"user_id"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.StandardClaims
}

// Authorized reports whether the claims' role is one of the given roles.
func (c Claims) Authorized(roles ...string) bool {
	for _, role := range roles {
		if c.Role == role {
			return true
		}
	}
	return false
}

// Auth signs and validates the service's HMAC tokens.
type Auth struct {
	key []byte
}

func New(key string) *Auth {
	return &Auth{key: []byte(key)}
}

// GenTokens issues an access/refresh token pair for the given identity.
func (a *Auth) GenTokens(userID int, role string) (string, string, error) {
	now := time.Now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserId: userID,
		Role:   role,
		Type:   "access",
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(accessTokenTTL).Unix(),
		},
	})
	accessToken, err := access.SignedString(a.key)
	if err != nil {
		return "", "", errors.Wrap(err, "signing access token")
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserId: userID,
		Role:   role,
		Type:   "refresh",
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(refreshTokenTTL).Unix(),
		},
	})
	refreshToken, err := refresh.SignedString(a.key)
	if err != nil {
		return "", "", errors.Wrap(err, "signing refresh token")
	}

	return accessToken, refreshToken, nil
}

// ValidateToken parses and verifies a token string and returns its claims.
func (a *Auth) ValidateToken(tokenStr string) (Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.key, nil
	})
	if err != nil {
		return Claims{}, errors.Wrap(err, "parsing token")
	}
	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}

	return claims, nil
}

// ValidateRefreshToken additionally requires the token to be a refresh token.
func (a *Auth) ValidateRefreshToken(tokenStr string) (Claims, error) {
	claims, err := a.ValidateToken(tokenStr)
	if err != nil {
		return Claims{}, err
	}
	if claims.Type != "refresh" {
		return Claims{}, errors.New("not a refresh token")
	}

	return claims, nil
}
