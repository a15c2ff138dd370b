// Package jwt mints and verifies the backend's session cookie. The external
// OAuth provider proves who the user is; the only thing the token carries is
// the numeric user id the provider reported, so there is nothing to look up
// on verification.
package jwt

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "groupchat-backend"

const (
	sessionLifetime  = 24 * time.Hour
	rememberLifetime = 28 * 24 * time.Hour
)

// SessionToken is the claim set of the session cookie.
type SessionToken struct {
	UserID   int64 `json:"uid"`
	Remember bool  `json:"rem"`
	jwt.RegisteredClaims
}

var signingKey []byte
var secureCookies bool

func Setup(key string, isHttps bool) {
	signingKey = []byte(key)
	secureCookies = isHttps
}

// Mint signs a session token for the user and wraps it in the JWT cookie.
// Without rememberMe the cookie carries no Expires and dies with the browser
// session, even though the token itself lasts a day.
func Mint(rememberMe bool, userID int64) (http.Cookie, error) {
	lifetime := sessionLifetime
	if rememberMe {
		lifetime = rememberLifetime
	}

	now := time.Now().UTC()
	expiresAt := now.Add(lifetime)

	claims := SessionToken{
		UserID:   userID,
		Remember: rememberMe,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(signingKey)
	if err != nil {
		return http.Cookie{}, err
	}

	cookie := http.Cookie{
		Name:     "JWT",
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if rememberMe {
		cookie.Expires = expiresAt
	}

	return cookie, nil
}

// Verify parses and validates the token. The signing method and the issuer
// are pinned, and expiry is checked here, callers get a valid session or an
// error.
func Verify(tokenString string) (SessionToken, error) {
	var claims SessionToken
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(token *jwt.Token) (any, error) { return signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return SessionToken{}, err
	}
	return claims, nil
}
