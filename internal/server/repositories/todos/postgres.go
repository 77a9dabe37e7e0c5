package todos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

const selectColumns = `SELECT id, user_id, title, description, completed, created_at FROM todos`

// PostgresRepository implements todo storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func checkTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		v := common.NewValidationError()
		v.Add("title", "This field may not be blank.")
		return v
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	if err := checkTitle(todo.Title); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO todos (user_id, title, description, completed)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		todo.UserID, todo.Title, todo.Description, todo.Completed).Scan(&todo.ID, &todo.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return todo, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, userID int64) ([]*models.Todo, error) {
	query := selectColumns + `
		WHERE user_id = $1
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select todos: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Todo, 0)
	for rows.Next() {
		var item models.Todo
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Title, &item.Description, &item.Completed, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id int64) (*models.Todo, error) {
	query := selectColumns + `
		WHERE id = $1 AND user_id = $2
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, userID, id int64) (*models.Todo, error) {
	query := selectColumns + `
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *PostgresRepository) Update(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	if err := checkTitle(todo.Title); err != nil {
		return nil, err
	}

	query := `
		UPDATE todos
		SET title = $1, description = $2, completed = $3
		WHERE id = $4 AND user_id = $5
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		todo.Title, todo.Description, todo.Completed, todo.ID, todo.UserID).Scan(&todo.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return todo, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id int64) error {
	query := `
		DELETE FROM todos
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Todo, error) {
	todo := &models.Todo{}
	err := row.Scan(&todo.ID, &todo.UserID, &todo.Title, &todo.Description, &todo.Completed, &todo.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return todo, nil
}
