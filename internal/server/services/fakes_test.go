package services

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/todos"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/users"
)

// --- helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "k",
		AccessTokenValidityDuration: time.Hour,
	}
}

// --- users ---

type fakeUsersRepo struct {
	byName    map[string]*models.User
	byID      map[int64]*models.User
	nextID    int64
	createErr error
	getErr    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byName: map[string]*models.User{}, byID: map[int64]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byName[u.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	f.nextID++
	u.ID = f.nextID
	f.byName[u.UserName] = u
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

// --- todos ---

// fakeTodosRepo keeps rows in memory and honours the owner filter the same
// way the SQL does.
type fakeTodosRepo struct {
	rows   map[int64]models.Todo
	nextID int64

	listErr   error
	getErr    error
	updateErr error
	deleteErr error
	locked    []int64
}

func newFakeTodosRepo() *fakeTodosRepo {
	return &fakeTodosRepo{rows: map[int64]models.Todo{}}
}

func (f *fakeTodosRepo) Create(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	if t.Title == "" {
		v := common.NewValidationError()
		v.Add("title", MsgBlank)
		return nil, v
	}
	f.nextID++
	t.ID = f.nextID
	t.CreatedAt = time.Now()
	f.rows[t.ID] = *t
	return t, nil
}

func (f *fakeTodosRepo) ListByOwner(ctx context.Context, userID int64) ([]*models.Todo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Todo, 0)
	for _, r := range f.rows {
		if r.UserID == userID {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTodosRepo) Get(ctx context.Context, userID, id int64) (*models.Todo, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	r, ok := f.rows[id]
	if !ok || r.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return &r, nil
}

func (f *fakeTodosRepo) GetForUpdate(ctx context.Context, userID, id int64) (*models.Todo, error) {
	f.locked = append(f.locked, id)
	return f.Get(ctx, userID, id)
}

func (f *fakeTodosRepo) Update(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	r, ok := f.rows[t.ID]
	if !ok || r.UserID != t.UserID {
		return nil, common.ErrorNotFound
	}
	r.Title, r.Description, r.Completed = t.Title, t.Description, t.Completed
	f.rows[t.ID] = r
	return &r, nil
}

func (f *fakeTodosRepo) Delete(ctx context.Context, userID, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	r, ok := f.rows[id]
	if !ok || r.UserID != userID {
		return common.ErrorNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	t *fakeTodosRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository           { return m.u }
func (m *fakeRepoManager) Todos(db dbx.DBTX) todos.Repository           { return m.t }
