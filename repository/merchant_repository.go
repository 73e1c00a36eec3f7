package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"runnerDispatch/models"
)

type MerchantRepository struct {
	db *sql.DB
}

func NewMerchantRepository(db *sql.DB) *MerchantRepository {
	return &MerchantRepository{db: db}
}

func (r *MerchantRepository) Create(ctx context.Context, name, location, phone string) (*models.Merchant, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `INSERT INTO merchants (name, location, phone) VALUES (?,?,?)`, name, location, phone)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Merchant{ID: id, Name: name, Location: location, Phone: phone}, nil
}

func (r *MerchantRepository) GetByID(ctx context.Context, id int64) (*models.Merchant, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var m models.Merchant
	err := r.db.QueryRowContext(ctx, `SELECT id, name, location, phone FROM merchants WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.Location, &m.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
