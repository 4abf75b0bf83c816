package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"tctc-backend/db"
	"tctc-backend/http/middleware"
	"tctc-backend/http/response"
	"tctc-backend/models"
	"tctc-backend/utils"
)

const productColumns = `id, title, title_bn, type, logo_key, price, thumbnail_url,
	file_url, description, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Title, &p.TitleBn, &p.Type, &p.LogoKey, &p.Price,
		&p.ThumbnailURL, &p.FileURL, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetProducts lists active products with the download link hidden (public)
func GetProducts(w http.ResponseWriter, r *http.Request) {
	rows, err := db.DB.QueryContext(r.Context(),
		`SELECT `+productColumns+` FROM products WHERE is_active = TRUE ORDER BY id ASC`)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching products")
		return
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			response.ErrorResponse(w, http.StatusInternalServerError, "Error processing products")
			return
		}
		products = append(products, p.PublicView())
	}
	if err := rows.Err(); err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error processing products")
		return
	}

	response.SuccessResponse(w, http.StatusOK, fmt.Sprintf("Retrieved %d products", len(products)), products)
}

// CreateProduct adds a digital product (admin)
func CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title        string  `json:"title" validate:"required"`
		TitleBn      string  `json:"title_bn"`
		Type         string  `json:"type" validate:"required,oneof=PDF Doc Software AI PSD Template Other"`
		LogoKey      string  `json:"logo_key"`
		Price        float64 `json:"price" validate:"required,gt=0"`
		ThumbnailURL string  `json:"thumbnail_url" validate:"required"`
		FileURL      string  `json:"file_url" validate:"required"`
		Description  string  `json:"description"`
	}

	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.LogoKey == "" {
		req.LogoKey = "generic"
	}

	product, err := scanProduct(db.DB.QueryRowContext(r.Context(),
		`INSERT INTO products (title, title_bn, type, logo_key, price, thumbnail_url, file_url, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+productColumns,
		req.Title, req.TitleBn, req.Type, req.LogoKey, req.Price, req.ThumbnailURL,
		req.FileURL, req.Description))
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error saving product")
		return
	}

	response.SuccessResponse(w, http.StatusCreated, "Product created", product)
}

// DownloadProduct hands out the secure file link. Admins always get it;
// students only after a verified payment for this product.
func DownloadProduct(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	productID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := scanProduct(db.DB.QueryRowContext(r.Context(),
		`SELECT `+productColumns+` FROM products WHERE id = $1`, productID))
	if err == sql.ErrNoRows {
		response.ErrorResponse(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error fetching product")
		return
	}

	if !user.IsAdmin() {
		var paid bool
		err := db.DB.QueryRowContext(r.Context(),
			`SELECT EXISTS(SELECT 1 FROM payments
				WHERE user_id = $1 AND source_type = 'product' AND source_id = $2
				AND status = 'verified')`,
			user.ID, productID).Scan(&paid)
		if err != nil {
			response.ErrorResponse(w, http.StatusInternalServerError, "Error checking purchase")
			return
		}
		if !paid {
			response.ErrorResponse(w, http.StatusForbidden, "Purchase not verified or found")
			return
		}
	}

	response.SuccessResponse(w, http.StatusOK, "Download ready", map[string]string{
		"file_url": product.FileURL,
	})
}

// DeleteProduct removes a product (admin)
func DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	result, err := db.DB.ExecContext(r.Context(), `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		response.ErrorResponse(w, http.StatusInternalServerError, "Error deleting product")
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		response.ErrorResponse(w, http.StatusNotFound, "Product not found")
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Product deleted", nil)
}
