package models

import "time"

// Product represents a digital product sold by the center (PDF, template, software)
type Product struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	TitleBn      string    `json:"title_bn"`
	Type         string    `json:"type"`
	LogoKey      string    `json:"logo_key"`
	Price        float64   `json:"price"`
	ThumbnailURL string    `json:"thumbnail_url"`
	FileURL      string    `json:"file_url,omitempty"`
	Description  string    `json:"description"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicView strips the secure download link for catalog listings
func (p Product) PublicView() Product {
	p.FileURL = ""
	return p
}
