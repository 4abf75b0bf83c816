package handlers

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"tctc-backend/config"
	"tctc-backend/db"
	"tctc-backend/http/middleware"
	"tctc-backend/http/response"
	"tctc-backend/logger"
	"tctc-backend/models"
	"tctc-backend/services"
	"tctc-backend/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// RegisterUser creates a student account and sends the verification email
func RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name" validate:"required,max=100"`
		Email    string `json:"email" validate:"required,email"`
		Phone    string `json:"phone" validate:"required"`
		Password string `json:"password" validate:"required,min=6"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var exists bool
	if err := db.DB.QueryRowContext(r.Context(),
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, req.Email).Scan(&exists); err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error checking user")
		return
	}
	if exists {
		response.ErrorResponse(w, http.StatusBadRequest, "User already exists")
		return
	}

	studentID, err := generateUniqueStudentID(func(id string) (bool, error) {
		var taken bool
		err := db.DB.QueryRowContext(r.Context(),
			`SELECT EXISTS(SELECT 1 FROM users WHERE student_id = $1)`, id).Scan(&taken)
		return taken, err
	})
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error creating account")
		return
	}

	hashed, err := services.HashPassword(req.Password)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error creating account")
		return
	}

	verifyToken := uuid.NewString()

	var userID int
	err = db.DB.QueryRowContext(r.Context(),
		`INSERT INTO users (name, email, phone, password, student_id, verification_token)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		req.Name, req.Email, req.Phone, hashed, studentID, verifyToken).Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			response.ErrorResponse(w, http.StatusConflict, "An account with this email, phone or student ID already exists")
			return
		}
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid user data")
		return
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", config.AppConfig.FrontendBaseURL, verifyToken)
	go func() {
		subject := "Verify Your Account - TCTC"
		if err := services.SendEmail(req.Email, subject, services.VerificationEmail(req.Name, studentID, link)); err != nil {
			logger.Warn("Failed to send verification email to %s: %v", req.Email, err)
		}
	}()

	response.SuccessResponse(w, http.StatusCreated, "Registration successful. Check email.", map[string]interface{}{
		"id":         userID,
		"student_id": studentID,
		"email":      req.Email,
	})
}

// LoginUser authenticates a user and issues a bearer token
func LoginUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var user models.User
	err := db.DB.QueryRowContext(r.Context(),
		`SELECT id, name, student_id, email, phone, password, role, avatar, is_verified
		FROM users WHERE email = $1`, req.Email).
		Scan(&user.ID, &user.Name, &user.StudentID, &user.Email, &user.Phone,
			&user.Password, &user.Role, &user.Avatar, &user.IsVerified)
	if err != nil || !services.CheckPassword(user.Password, req.Password) {
		response.ErrorResponse(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := services.GenerateToken(user.ID)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error issuing token")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Login successful", map[string]interface{}{
		"user":  user.ToResponse(),
		"token": token,
	})
}

// GetUserProfile returns the caller's profile
func GetUserProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	response.SuccessResponse(w, http.StatusOK, "Profile retrieved", user.ToResponse())
}

// UpdateUserProfile updates name, phone, avatar and optionally the password
func UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var req struct {
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		Avatar   string `json:"avatar"`
		Password string `json:"password"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if req.Name == "" {
		req.Name = user.Name
	}
	if req.Phone == "" {
		req.Phone = user.Phone
	}
	if req.Avatar == "" {
		req.Avatar = user.Avatar
	}

	if req.Password != "" {
		hashed, err := services.HashPassword(req.Password)
		if err != nil {
			response.ErrorResponse(w, http.StatusInternalServerError, "Error updating password")
			return
		}
		if _, err := db.DB.ExecContext(r.Context(),
			`UPDATE users SET password = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
			hashed, user.ID); err != nil {
			response.ErrorResponse(w, http.StatusInternalServerError, "Error updating password")
			return
		}
	}

	_, err := db.DB.ExecContext(r.Context(),
		`UPDATE users SET name = $1, phone = $2, avatar = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4`,
		req.Name, req.Phone, req.Avatar, user.ID)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error updating profile")
		return
	}

	token, err := services.GenerateToken(user.ID)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error issuing token")
		return
	}

	user.Name = req.Name
	user.Phone = req.Phone
	user.Avatar = req.Avatar
	response.SuccessResponse(w, http.StatusOK, "Profile updated", map[string]interface{}{
		"user":  user.ToResponse(),
		"token": token,
	})
}

// VerifyEmail activates an account from the emailed token
func VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		response.ErrorResponse(w, http.StatusBadRequest, "Token is required")
		return
	}

	result, err := db.DB.ExecContext(r.Context(),
		`UPDATE users SET is_verified = TRUE, verification_token = '',
			updated_at = CURRENT_TIMESTAMP
		WHERE verification_token = $1 AND verification_token <> ''`, token)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error verifying email")
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid token")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Email verified successfully", nil)
}

// MakeAdminByCode promotes a user to admin given the shared secret code
func MakeAdminByCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email" validate:"required,email"`
		SecretCode string `json:"secret_code" validate:"required"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if config.AppConfig.AdminSecretKey == "" || req.SecretCode != config.AppConfig.AdminSecretKey {
		response.ErrorResponse(w, http.StatusForbidden, "Invalid Admin Security Code!")
		return
	}

	var name string
	err := db.DB.QueryRowContext(r.Context(),
		`UPDATE users SET role = 'admin', updated_at = CURRENT_TIMESTAMP
		WHERE email = $1 RETURNING name`, req.Email).Scan(&name)
	if err == sql.ErrNoRows {
		response.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error updating user")
		return
	}

	response.SuccessResponse(w, http.StatusOK, fmt.Sprintf("Success! %s is now an Admin.", name), nil)
}

// ForgotPassword emails a time-limited reset link
func ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	resetToken := uuid.NewString()
	expire := time.Now().Add(10 * time.Minute)

	// Only the hash is stored; the raw token travels in the email
	result, err := db.DB.ExecContext(r.Context(),
		`UPDATE users SET reset_password_token = $1, reset_password_expire = $2,
			updated_at = CURRENT_TIMESTAMP
		WHERE email = $3`,
		hashToken(resetToken), expire, req.Email)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error preparing reset")
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		response.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	link := fmt.Sprintf("%s/reset-password/%s", config.AppConfig.FrontendBaseURL, resetToken)
	go func() {
		if err := services.SendEmail(req.Email, "Password Reset - TCTC", services.PasswordResetEmail(link)); err != nil {
			logger.Warn("Failed to send reset email to %s: %v", req.Email, err)
		}
	}()

	response.SuccessResponse(w, http.StatusOK, "Email sent", nil)
}

// ResetPassword sets a new password from a valid reset token
func ResetPassword(w http.ResponseWriter, r *http.Request) {
	resetToken := r.PathValue("token")

	var req struct {
		Password string `json:"password" validate:"required,min=6"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	hashed, err := services.HashPassword(req.Password)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error updating password")
		return
	}

	result, err := db.DB.ExecContext(r.Context(),
		`UPDATE users SET password = $1, reset_password_token = '',
			reset_password_expire = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE reset_password_token = $2 AND reset_password_token <> ''
			AND reset_password_expire > CURRENT_TIMESTAMP`,
		hashed, hashToken(resetToken))
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error updating password")
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid token")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Password updated", nil)
}

// GetAllUsers lists every account (admin)
func GetAllUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := db.DB.QueryContext(r.Context(),
		`SELECT id, name, student_id, email, phone, role, avatar, is_verified
		FROM users ORDER BY id ASC`)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching users")
		return
	}
	defer rows.Close()

	users := []models.UserResponse{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.StudentID, &u.Email, &u.Phone, &u.Role,
			&u.Avatar, &u.IsVerified); err != nil {
			response.ErrorResponse(w, http.StatusInternalServerError, "Error processing users")
			return
		}
		users = append(users, u.ToResponse())
	}
	if err := rows.Err(); err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error processing users")
		return
	}

	response.SuccessResponse(w, http.StatusOK, fmt.Sprintf("Retrieved %d users", len(users)), users)
}

// DeleteUser removes an account (admin)
func DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	result, err := db.DB.ExecContext(r.Context(), `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error deleting user")
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		response.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "User removed", nil)
}

// UpdateUserRole changes an account's role (admin)
func UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req struct {
		Role string `json:"role" validate:"required,oneof=student admin"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var u models.User
	err = db.DB.QueryRowContext(r.Context(),
		`UPDATE users SET role = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2
		RETURNING id, name, student_id, email, phone, role, avatar, is_verified`,
		req.Role, userID).
		Scan(&u.ID, &u.Name, &u.StudentID, &u.Email, &u.Phone, &u.Role, &u.Avatar, &u.IsVerified)
	if err == sql.ErrNoRows {
		response.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error updating user")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Role updated", u.ToResponse())
}

// SendContactMessage forwards a website inquiry to every admin inbox
func SendContactMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name" validate:"required"`
		Email   string `json:"email" validate:"required,email"`
		Message string `json:"message" validate:"required"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "All fields are required")
		return
	}

	rows, err := db.DB.QueryContext(r.Context(), `SELECT email FROM users WHERE role = 'admin'`)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Failed to send message.")
		return
	}
	defer rows.Close()

	var admins []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err == nil {
			admins = append(admins, email)
		}
	}

	subject := fmt.Sprintf("New Inquiry from %s", req.Name)
	body := services.ContactEmail(req.Name, req.Email, req.Message)
	go func() {
		for _, to := range admins {
			if err := services.SendEmail(to, subject, body); err != nil {
				logger.Warn("Failed to forward contact message to %s: %v", to, err)
			}
		}
	}()

	response.SuccessResponse(w, http.StatusOK, "Message sent successfully!", nil)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// generateUniqueStudentID draws candidate IDs until exists reports a free
// one. The insert's unique constraint still backstops a lost race.
func generateUniqueStudentID(exists func(string) (bool, error)) (string, error) {
	for i := 0; i < 10; i++ {
		id := services.GenerateStudentID()
		taken, err := exists(id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique student ID")
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}
