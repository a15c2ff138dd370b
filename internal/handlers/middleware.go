package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"groupchat-backend/internal/jwt"
)

type UserIDKeyType struct{}

func AllowCors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// UserVerifier resolves the session identity from the JWT cookie and passes
// the authenticated user's ID down in the request context.
func UserVerifier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jwtCookie, err := r.Cookie("JWT")
		if err != nil {
			sugar.Debug(err)
			switch {
			case errors.Is(err, http.ErrNoCookie):
				respondError(w, http.StatusUnauthorized, "No session was provided")
			default:
				respondError(w, http.StatusInternalServerError, "Couldn't read session cookie")
			}
			return
		}

		session, err := jwt.Verify(jwtCookie.Value)
		if err != nil {
			sugar.Debug(err)
			respondError(w, http.StatusUnauthorized, "Couldn't verify session")
			return
		}

		// renew the cookie once it's older than 15 minutes
		timeSinceIssued := time.Now().UTC().Sub(session.IssuedAt.Time)
		if timeSinceIssued >= 15*time.Minute {
			updatedCookie, err := jwt.Mint(session.Remember, session.UserID)
			if err != nil {
				sugar.Error(err)
				respondError(w, http.StatusInternalServerError, "Couldn't renew session")
				return
			}
			http.SetCookie(w, &updatedCookie)
		}

		ctx := context.WithValue(r.Context(), UserIDKeyType{}, session.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
