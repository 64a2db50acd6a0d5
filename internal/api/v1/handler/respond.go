package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponseDTO{Success: false, Message: message})
}

// requireRole resolves the caller identity and enforces the role a route
// demands. Writes the error response itself when the check fails.
func requireRole(w http.ResponseWriter, r *http.Request, role string) (string, bool) {
	userID := middleware.CallerID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	if middleware.CallerRole(r) != role {
		writeError(w, http.StatusForbidden, "Access denied for role")
		return "", false
	}
	return userID, true
}

// requireAuth resolves the caller identity for routes open to any role.
func requireAuth(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.CallerID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return userID, true
}
