package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"tctc-backend/db"
	"tctc-backend/http/response"
	"tctc-backend/models"
	"tctc-backend/utils"
)

// AddOnlineClass schedules a live session for a course (admin)
func AddOnlineClass(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CourseID    int    `json:"course_id" validate:"required"`
		Title       string `json:"title" validate:"required"`
		MeetingLink string `json:"meeting_link" validate:"required,url"`
		ScheduledAt string `json:"scheduled_at"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var scheduledAt *time.Time
	if req.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			response.ErrorResponse(w, http.StatusBadRequest, "Invalid scheduled_at, expected RFC3339")
			return
		}
		scheduledAt = &t
	}

	var class models.OnlineClass
	err := db.DB.QueryRowContext(r.Context(),
		`INSERT INTO online_classes (course_id, title, meeting_link, scheduled_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, course_id, title, meeting_link, scheduled_at, is_active, created_at, updated_at`,
		req.CourseID, req.Title, req.MeetingLink, scheduledAt).
		Scan(&class.ID, &class.CourseID, &class.Title, &class.MeetingLink, &class.ScheduledAt,
			&class.IsActive, &class.CreatedAt, &class.UpdatedAt)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error saving class")
		return
	}

	response.SuccessResponse(w, http.StatusCreated, "Class scheduled", class)
}

// GetClassesByCourse lists active sessions for one course
func GetClassesByCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.Atoi(r.PathValue("courseId"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	rows, err := db.DB.QueryContext(r.Context(),
		`SELECT id, course_id, title, meeting_link, scheduled_at, is_active, created_at, updated_at
		FROM online_classes
		WHERE course_id = $1 AND is_active = TRUE
		ORDER BY scheduled_at ASC NULLS LAST`, courseID)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching classes")
		return
	}
	defer rows.Close()

	classes := []models.OnlineClass{}
	for rows.Next() {
		var c models.OnlineClass
		if err := rows.Scan(&c.ID, &c.CourseID, &c.Title, &c.MeetingLink, &c.ScheduledAt,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			response.ErrorResponse(w, http.StatusInternalServerError, "Error processing classes")
			return
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error processing classes")
		return
	}

	response.SuccessResponse(w, http.StatusOK, fmt.Sprintf("Retrieved %d classes", len(classes)), classes)
}

// DeleteOnlineClass removes a scheduled session (admin)
func DeleteOnlineClass(w http.ResponseWriter, r *http.Request) {
	classID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid class ID")
		return
	}

	result, err := db.DB.ExecContext(r.Context(), `DELETE FROM online_classes WHERE id = $1`, classID)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error deleting class")
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		response.ErrorResponse(w, http.StatusNotFound, "Class not found")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Class removed", nil)
}
