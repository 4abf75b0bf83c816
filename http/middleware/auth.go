package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"tctc-backend/db"
	"tctc-backend/http/response"
	"tctc-backend/models"
	"tctc-backend/services"
)

type contextKey string

const userContextKey contextKey = "currentUser"

// CurrentUser returns the authenticated user stashed by Protect, or nil.
func CurrentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userContextKey).(*models.User)
	return user
}

// Protect requires a valid bearer token and loads the acting user.
func Protect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.ErrorResponse(w, http.StatusUnauthorized, "Not authorized, no token provided")
			return
		}

		userID, err := services.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.ErrorResponse(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}

		user, err := loadUser(r.Context(), userID)
		if err != nil {
			response.ErrorResponse(w, http.StatusUnauthorized, "Not authorized, user not found")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// Admin requires the acting user to hold the admin role. Must be nested
// inside Protect.
func Admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil || !user.IsAdmin() {
			response.ErrorResponse(w, http.StatusForbidden, "Access denied. Admins only.")
			return
		}
		next(w, r)
	}
}

func loadUser(ctx context.Context, id int) (*models.User, error) {
	var u models.User
	err := db.DB.QueryRowContext(ctx,
		`SELECT id, name, student_id, email, phone, role, avatar, is_verified
		FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.StudentID, &u.Email, &u.Phone, &u.Role, &u.Avatar, &u.IsVerified)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
