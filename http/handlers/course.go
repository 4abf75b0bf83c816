package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"tctc-backend/db"
	"tctc-backend/http/response"
	"tctc-backend/models"
	"tctc-backend/utils"
)

const courseColumns = `id, title, title_bn, description, description_bn, type, fee,
	duration, is_active, created_at, updated_at`

func scanCourse(row interface{ Scan(...interface{}) error }) (models.Course, error) {
	var c models.Course
	err := row.Scan(&c.ID, &c.Title, &c.TitleBn, &c.Description, &c.DescriptionBn,
		&c.Type, &c.Fee, &c.Duration, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetCourses lists active courses (public)
func GetCourses(w http.ResponseWriter, r *http.Request) {
	rows, err := db.DB.QueryContext(r.Context(),
		`SELECT `+courseColumns+` FROM courses WHERE is_active = TRUE ORDER BY id ASC`)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching courses")
		return
	}
	defer rows.Close()

	courses := []models.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			response.ErrorResponse(w, http.StatusInternalServerError, "Error processing courses")
			return
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error processing courses")
		return
	}

	response.SuccessResponse(w, http.StatusOK, fmt.Sprintf("Retrieved %d courses", len(courses)), courses)
}

// GetCourseByID returns one course (public)
func GetCourseByID(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	course, err := scanCourse(db.DB.QueryRowContext(r.Context(),
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`, courseID))
	if err == sql.ErrNoRows {
		response.ErrorResponse(w, http.StatusNotFound, "Course not found")
		return
	}
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching course")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Course retrieved", course)
}

// CreateCourse adds a course (admin)
func CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title         string  `json:"title" validate:"required"`
		TitleBn       string  `json:"title_bn"`
		Description   string  `json:"description"`
		DescriptionBn string  `json:"description_bn"`
		Type          string  `json:"type" validate:"omitempty,oneof=Govt Private"`
		Fee           float64 `json:"fee" validate:"required,gt=0"`
		Duration      string  `json:"duration"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Type == "" {
		req.Type = "Private"
	}

	course, err := scanCourse(db.DB.QueryRowContext(r.Context(),
		`INSERT INTO courses (title, title_bn, description, description_bn, type, fee, duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+courseColumns,
		req.Title, req.TitleBn, req.Description, req.DescriptionBn, req.Type, req.Fee, req.Duration))
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error saving course")
		return
	}

	response.SuccessResponse(w, http.StatusCreated, "Course created", course)
}

// UpdateCourse edits a course, keeping unset fields unchanged (admin)
func UpdateCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	var req struct {
		Title         string   `json:"title"`
		TitleBn       string   `json:"title_bn"`
		Description   string   `json:"description"`
		DescriptionBn string   `json:"description_bn"`
		Fee           float64  `json:"fee"`
		Duration      string   `json:"duration"`
		IsActive      *bool    `json:"is_active"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	course, err := scanCourse(db.DB.QueryRowContext(r.Context(),
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`, courseID))
	if err == sql.ErrNoRows {
		response.ErrorResponse(w, http.StatusNotFound, "Course not found")
		return
	}
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching course")
		return
	}

	if req.Title != "" {
		course.Title = req.Title
	}
	if req.TitleBn != "" {
		course.TitleBn = req.TitleBn
	}
	if req.Description != "" {
		course.Description = req.Description
	}
	if req.DescriptionBn != "" {
		course.DescriptionBn = req.DescriptionBn
	}
	if req.Fee > 0 {
		course.Fee = req.Fee
	}
	if req.Duration != "" {
		course.Duration = req.Duration
	}
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}

	updated, err := scanCourse(db.DB.QueryRowContext(r.Context(),
		`UPDATE courses SET title = $1, title_bn = $2, description = $3, description_bn = $4,
			fee = $5, duration = $6, is_active = $7, updated_at = CURRENT_TIMESTAMP
		WHERE id = $8
		RETURNING `+courseColumns,
		course.Title, course.TitleBn, course.Description, course.DescriptionBn,
		course.Fee, course.Duration, course.IsActive, courseID))
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error updating course")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Course updated", updated)
}

// DeleteCourse removes a course (admin)
func DeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	result, err := db.DB.ExecContext(r.Context(), `DELETE FROM courses WHERE id = $1`, courseID)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error deleting course")
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		response.ErrorResponse(w, http.StatusNotFound, "Course not found")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Course removed", nil)
}
