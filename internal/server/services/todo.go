package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
)

// MaxTitleLength bounds Todo titles; the todos table enforces the same limit.
const MaxTitleLength = 200

// Field-level validation messages.
const (
	MsgRequired = "This field is required."
	MsgBlank    = "This field may not be blank."
)

// TodoPayload carries the client-writable fields of a Todo. A nil field was
// not supplied by the client.
type TodoPayload struct {
	Title       *string
	Description *string
	Completed   *bool
}

// Check adds field messages for p to v. Fields that already have a message in
// v (e.g. a type error found while decoding) are skipped. With partial set,
// absent fields are allowed.
func (p TodoPayload) Check(partial bool, v *common.ValidationError) {
	if _, seen := v.Fields["title"]; seen {
		return
	}
	switch {
	case p.Title == nil:
		if !partial {
			v.Add("title", MsgRequired)
		}
	case strings.TrimSpace(*p.Title) == "":
		v.Add("title", MsgBlank)
	case utf8.RuneCountInString(*p.Title) > MaxTitleLength:
		v.Add("title", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxTitleLength))
	}
}

// Validate returns a *common.ValidationError describing what is wrong with p,
// or nil.
func (p TodoPayload) Validate(partial bool) error {
	v := common.NewValidationError()
	p.Check(partial, v)
	return v.OrNil()
}

// replace overwrites every writable field of todo, resetting absent optional
// fields to their defaults.
func (p TodoPayload) replace(todo *models.Todo) {
	todo.Title = *p.Title
	todo.Description = ""
	if p.Description != nil {
		todo.Description = *p.Description
	}
	todo.Completed = false
	if p.Completed != nil {
		todo.Completed = *p.Completed
	}
}

// merge overwrites only the fields present in p.
func (p TodoPayload) merge(todo *models.Todo) {
	if p.Title != nil {
		todo.Title = *p.Title
	}
	if p.Description != nil {
		todo.Description = *p.Description
	}
	if p.Completed != nil {
		todo.Completed = *p.Completed
	}
}

// TodoService implements the ownership-scoped Todo operations. Every method
// takes the id of the authenticated user; records of other users behave as if
// they did not exist (common.ErrorNotFound).
type TodoService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewTodoService constructs a TodoService over db and the repositories vended by m.
func NewTodoService(db *sql.DB, m repomanager.RepositoryManager) *TodoService {
	return &TodoService{db: db, repomanager: m}
}

// List returns the user's todos in creation order.
func (s *TodoService) List(ctx context.Context, userID int64) ([]*models.Todo, error) {
	items, err := s.repomanager.Todos(s.db).ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing todos: %w", err)
	}
	return items, nil
}

// Create validates p and stores a new todo owned by userID.
func (s *TodoService) Create(ctx context.Context, userID int64, p TodoPayload) (*models.Todo, error) {
	if err := p.Validate(false); err != nil {
		return nil, err
	}

	todo := &models.Todo{UserID: userID}
	p.replace(todo)

	created, err := s.repomanager.Todos(s.db).Create(ctx, todo)
	if err != nil {
		return nil, wrapRepoError("error creating todo", err)
	}
	return created, nil
}

// Get returns todo id if userID owns it.
func (s *TodoService) Get(ctx context.Context, userID, id int64) (*models.Todo, error) {
	todo, err := s.repomanager.Todos(s.db).Get(ctx, userID, id)
	if err != nil {
		return nil, wrapRepoError("error loading todo", err)
	}
	return todo, nil
}

// Update replaces the writable fields of todo id with p. Omitted description
// and completed fall back to their defaults.
func (s *TodoService) Update(ctx context.Context, userID, id int64, p TodoPayload) (*models.Todo, error) {
	if err := p.Validate(false); err != nil {
		return nil, err
	}
	return s.modify(ctx, userID, id, p.replace)
}

// PartialUpdate changes only the fields present in p.
func (s *TodoService) PartialUpdate(ctx context.Context, userID, id int64, p TodoPayload) (*models.Todo, error) {
	if err := p.Validate(true); err != nil {
		return nil, err
	}
	return s.modify(ctx, userID, id, p.merge)
}

// Delete removes todo id if userID owns it.
func (s *TodoService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repomanager.Todos(s.db).Delete(ctx, userID, id); err != nil {
		return wrapRepoError("error deleting todo", err)
	}
	return nil
}

// modify locks the row, applies fn and writes it back in one transaction.
func (s *TodoService) modify(ctx context.Context, userID, id int64, fn func(*models.Todo)) (*models.Todo, error) {
	var updated *models.Todo
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Todos(tx)

		todo, err := repo.GetForUpdate(ctx, userID, id)
		if err != nil {
			return err
		}
		fn(todo)

		updated, err = repo.Update(ctx, todo)
		return err
	})
	if err != nil {
		return nil, wrapRepoError("error updating todo", err)
	}
	return updated, nil
}

// wrapRepoError passes through the sentinels callers branch on and adds
// context to everything else.
func wrapRepoError(msg string, err error) error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorValidation) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
