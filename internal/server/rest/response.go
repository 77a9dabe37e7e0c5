package rest

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

// Error details returned in {"detail": ...} bodies.
const (
	DetailNotProvided   = "Authentication credentials were not provided."
	DetailInvalidToken  = "Invalid token."
	DetailNoCredentials = "Invalid token header. No credentials provided."
	DetailTokenSpaces   = "Invalid token header. Token string should not contain spaces."
	DetailUserInactive  = "User inactive or deleted."
	DetailNotFound      = "Not found."
	DetailServerError   = "A server error occurred."
	DetailBadLogin      = "Unable to log in with provided credentials."
)

type todoResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Owner       int64  `json:"owner"`
}

func newTodoResponse(t *models.Todo) todoResponse {
	return todoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Owner:       t.UserID,
	}
}

type tokenResponse struct {
	Token string `json:"token"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

// writeUnauthorized sends a 401 carrying the challenge for the Token scheme.
func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Token")
	writeDetail(w, http.StatusUnauthorized, detail)
}
