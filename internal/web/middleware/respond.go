// Package middleware provides HTTP middleware for the import API.
package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody mirrors web.ErrorResponse so middleware rejections look the
// same as handler errors to the dashboard.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func reject(w http.ResponseWriter, status int, body errorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
