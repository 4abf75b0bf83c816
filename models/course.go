package models

import "time"

// Course represents a training course offered by the center
type Course struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	TitleBn       string    `json:"title_bn"`
	Description   string    `json:"description"`
	DescriptionBn string    `json:"description_bn"`
	Type          string    `json:"type"` // Govt or Private
	Fee           float64   `json:"fee"`
	Duration      string    `json:"duration"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
