package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody has the same shape as the handler package's error envelope so
// clients parse middleware rejections the same way.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}
