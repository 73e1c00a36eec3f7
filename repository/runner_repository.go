package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"runnerDispatch/models"
)

type RunnerRepository struct {
	db *sql.DB
}

func NewRunnerRepository(db *sql.DB) *RunnerRepository {
	return &RunnerRepository{db: db}
}

// Create inserts a new runner with the given name.
// Returns the created Runner with its generated ID.
func (r *RunnerRepository) Create(ctx context.Context, name, phone, email string) (*models.Runner, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO runners (name, phone, email) VALUES (?,?,?)`, name, phone, email)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *RunnerRepository) GetByID(ctx context.Context, id int64) (*models.Runner, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var ru models.Runner
	err := r.db.QueryRowContext(ctx, `SELECT id, name, phone, email, created_at FROM runners WHERE id = ?`, id).
		Scan(&ru.ID, &ru.Name, &ru.Phone, &ru.Email, &ru.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ru, nil
}

func (r *RunnerRepository) GetByName(ctx context.Context, name string) (*models.Runner, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var ru models.Runner
	err := r.db.QueryRowContext(ctx, `SELECT id, name, phone, email, created_at FROM runners WHERE name = ?`, name).
		Scan(&ru.ID, &ru.Name, &ru.Phone, &ru.Email, &ru.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ru, nil
}

func (r *RunnerRepository) List(ctx context.Context, limit, offset int) ([]models.Runner, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, phone, email, created_at FROM runners ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Runner
	for rows.Next() {
		var ru models.Runner
		if err := rows.Scan(&ru.ID, &ru.Name, &ru.Phone, &ru.Email, &ru.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ru)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
