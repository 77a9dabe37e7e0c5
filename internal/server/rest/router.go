package rest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/go-chi/chi/v5"
)

// NewRouter builds the HTTP API:
//
//	POST   /api-token-auth/
//	GET    /todos/
//	POST   /todos/
//	GET    /todos/{id}/
//	PUT    /todos/{id}/
//	PATCH  /todos/{id}/
//	DELETE /todos/{id}/
//
// Everything under /todos/ requires an "Authorization: Token <value>" header
// and only ever sees the caller's own records.
func NewRouter(us UserService, ts TodoService, logger logging.Logger) http.Handler {
	h := &handlers{users: us, todos: ts, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID, accessLog(logger), recoverer(logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, DetailNotFound)
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %q not allowed.", r.Method))
	})
	// credentials are checked before the method on protected paths
	protectedNotAllowed := requireUser(us, logger)(notAllowed)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/todos/") {
			protectedNotAllowed.ServeHTTP(w, r)
			return
		}
		notAllowed.ServeHTTP(w, r)
	})

	r.Post("/api-token-auth/", h.obtainToken)

	r.Group(func(r chi.Router) {
		r.Use(requireUser(us, logger))

		r.Get("/todos/", h.listTodos)
		r.Post("/todos/", h.createTodo)

		r.Get("/todos/{id:[0-9]+}/", h.getTodo)
		r.Put("/todos/{id:[0-9]+}/", h.updateTodo)
		r.Patch("/todos/{id:[0-9]+}/", h.updateTodo)
		r.Delete("/todos/{id:[0-9]+}/", h.deleteTodo)
	})

	return r
}
