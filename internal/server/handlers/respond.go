// internal/server/handlers/respond.go

package handlers

import (
	"encoding/json"
	"net/http"
)

// respondWithJSON writes payload as a JSON response. Callers always receive
// a JSON body, even on failure, never a bare transport error.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
