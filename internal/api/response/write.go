package response

import (
	"encoding/json"
	"net/http"
)

// Envelope marks a body as successful. Every success response embeds it.
type Envelope struct {
	Success bool `json:"success"`
}

// OK is the envelope of a successful response
var OK = Envelope{Success: true}

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Empty writes a success envelope with no other fields
func Empty(w http.ResponseWriter) {
	JSON(w, http.StatusOK, OK)
}
