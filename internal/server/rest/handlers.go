package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// UserService is the part of services.UserService the API needs.
type UserService interface {
	Authenticator
	Login(ctx context.Context, userName string, password []byte) (string, error)
}

// TodoService is the ownership-scoped todo store behind /todos/.
type TodoService interface {
	List(ctx context.Context, userID int64) ([]*models.Todo, error)
	Create(ctx context.Context, userID int64, p services.TodoPayload) (*models.Todo, error)
	Get(ctx context.Context, userID, id int64) (*models.Todo, error)
	Update(ctx context.Context, userID, id int64, p services.TodoPayload) (*models.Todo, error)
	PartialUpdate(ctx context.Context, userID, id int64, p services.TodoPayload) (*models.Todo, error)
	Delete(ctx context.Context, userID, id int64) error
}

type handlers struct {
	users  UserService
	todos  TodoService
	logger logging.Logger
}

// obtainToken exchanges username and password for a token.
func (h *handlers) obtainToken(w http.ResponseWriter, r *http.Request) {
	c, err := decodeCredentials(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	token, err := h.users.Login(r.Context(), c.UserName, []byte(c.Password))
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {DetailBadLogin}})
			return
		}
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *handlers) listTodos(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	items, err := h.todos.List(r.Context(), user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]todoResponse, 0, len(items))
	for _, t := range items {
		out = append(out, newTodoResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) createTodo(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	p, err := decodeTodo(r, false)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	todo, err := h.todos.Create(r.Context(), user.ID, p)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newTodoResponse(todo))
}

func (h *handlers) getTodo(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	id, ok := todoID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, DetailNotFound)
		return
	}

	todo, err := h.todos.Get(r.Context(), user.ID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTodoResponse(todo))
}

// updateTodo serves PUT (full replace) and PATCH (partial update).
func (h *handlers) updateTodo(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	partial := r.Method == http.MethodPatch

	id, ok := todoID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, DetailNotFound)
		return
	}

	p, err := decodeTodo(r, partial)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var todo *models.Todo
	if partial {
		todo, err = h.todos.PartialUpdate(r.Context(), user.ID, id, p)
	} else {
		todo, err = h.todos.Update(r.Context(), user.ID, id, p)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTodoResponse(todo))
}

func (h *handlers) deleteTodo(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	id, ok := todoID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, DetailNotFound)
		return
	}

	if err := h.todos.Delete(r.Context(), user.ID, id); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// todoID parses the {id} path segment. Ids that do not fit int64 cannot
// exist and are reported as not found.
func todoID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// fail maps err to a status code and body.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *common.ValidationError
	if pe, ok := asParseError(err); ok {
		writeDetail(w, pe.status, pe.detail)
		return
	}

	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ve.Fields)
	case errors.Is(err, common.ErrorNotFound):
		writeDetail(w, http.StatusNotFound, DetailNotFound)
	default:
		h.logger.Error(r.Context(), "request failed",
			"request_id", RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeDetail(w, http.StatusInternalServerError, DetailServerError)
	}
}
