package rest

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// fakeUsers knows two users with fixed passwords and tokens.
type fakeUsers struct {
	passwords map[string]string
	ids       map[string]int64
	tokens    map[string]int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		passwords: map[string]string{"testuser": "testpass", "testuser2": "testpass2"},
		ids:       map[string]int64{"testuser": 1, "testuser2": 2},
		tokens:    map[string]int64{"tok1": 1, "tok2": 2, "tok3": 3, "gone": 99},
	}
}

func (f *fakeUsers) Login(ctx context.Context, userName string, password []byte) (string, error) {
	if userName == "explode" {
		return "", errBoom{}
	}
	pw, ok := f.passwords[userName]
	if !ok || pw != string(password) {
		return "", common.ErrorUnauthorized
	}
	for tok, id := range f.tokens {
		if id == f.ids[userName] {
			return tok, nil
		}
	}
	return "", common.ErrorInternal
}

func (f *fakeUsers) Authenticate(ctx context.Context, token string) (*models.User, error) {
	switch token {
	case "gone":
		return nil, common.ErrorUnauthorized
	case "expired":
		return nil, common.ErrTokenExpired
	case "explode":
		return nil, errBoom{}
	}
	id, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrInvalidToken
	}
	return &models.User{ID: id}, nil
}

// fakeTodos is an in-memory TodoService with the same ownership rules as
// the real one. User 3 triggers a panic on List.
type fakeTodos struct {
	rows   map[int64]models.Todo
	nextID int64
}

func newFakeTodos() *fakeTodos {
	return &fakeTodos{rows: map[int64]models.Todo{}}
}

func (f *fakeTodos) add(owner int64, title, description string) int64 {
	f.nextID++
	f.rows[f.nextID] = models.Todo{ID: f.nextID, UserID: owner, Title: title, Description: description}
	return f.nextID
}

func (f *fakeTodos) List(ctx context.Context, userID int64) ([]*models.Todo, error) {
	if userID == 3 {
		panic("list exploded")
	}
	out := []*models.Todo{}
	for _, r := range f.rows {
		if r.UserID == userID {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTodos) Create(ctx context.Context, userID int64, p services.TodoPayload) (*models.Todo, error) {
	if err := p.Validate(false); err != nil {
		return nil, err
	}
	t := models.Todo{UserID: userID, Title: *p.Title}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	f.nextID++
	t.ID = f.nextID
	f.rows[t.ID] = t
	return &t, nil
}

func (f *fakeTodos) Get(ctx context.Context, userID, id int64) (*models.Todo, error) {
	r, ok := f.rows[id]
	if !ok || r.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return &r, nil
}

func (f *fakeTodos) Update(ctx context.Context, userID, id int64, p services.TodoPayload) (*models.Todo, error) {
	if err := p.Validate(false); err != nil {
		return nil, err
	}
	r, err := f.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	r.Title, r.Description, r.Completed = *p.Title, "", false
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Completed != nil {
		r.Completed = *p.Completed
	}
	f.rows[id] = *r
	return r, nil
}

func (f *fakeTodos) PartialUpdate(ctx context.Context, userID, id int64, p services.TodoPayload) (*models.Todo, error) {
	if err := p.Validate(true); err != nil {
		return nil, err
	}
	r, err := f.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Completed != nil {
		r.Completed = *p.Completed
	}
	f.rows[id] = *r
	return r, nil
}

func (f *fakeTodos) Delete(ctx context.Context, userID, id int64) error {
	if _, err := f.Get(ctx, userID, id); err != nil {
		return err
	}
	delete(f.rows, id)
	return nil
}
