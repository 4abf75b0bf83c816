package response

import (
	"encoding/json"
	"log"
	"net/http"

	"tctc-backend/errors"
)

// StandardResponse represents the standard API response structure
type StandardResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Kind    string      `json:"kind,omitempty"`
}

// SuccessResponse sends a success response with given status code, message, and data
func SuccessResponse(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	response := StandardResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
	SendJSON(w, statusCode, response)
}

// ErrorResponse sends an error response with given status code and message
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := StandardResponse{
		Status:  "error",
		Message: message,
	}
	SendJSON(w, statusCode, response)
}

// Error maps an application error to its HTTP status. The human readable
// message is always present; the machine readable kind rides along.
func Error(w http.ResponseWriter, err error) {
	kind := errors.KindOf(err)
	response := StandardResponse{
		Status:  "error",
		Message: errors.MessageOf(err),
		Kind:    kind.String(),
	}
	SendJSON(w, kind.HTTPStatus(), response)
}

// SendJSON encodes and sends a JSON response
func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}
