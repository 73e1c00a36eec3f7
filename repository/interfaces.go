package repository

import (
	"context"

	"runnerDispatch/models"
)

// RunnerRepositoryI defines operations on Runner entities.
type RunnerRepositoryI interface {
	Create(ctx context.Context, name, phone, email string) (*models.Runner, error)
	GetByID(ctx context.Context, id int64) (*models.Runner, error)
	GetByName(ctx context.Context, name string) (*models.Runner, error)
	List(ctx context.Context, limit, offset int) ([]models.Runner, error)
}

// OrderRepositoryI defines operations on Order entities.
type OrderRepositoryI interface {
	Create(ctx context.Context, o *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	AssignRunner(ctx context.Context, orderID, runnerID int64) (int64, error)
	AdvanceStatus(ctx context.Context, orderID, runnerID int64, from, to models.OrderStatus) (int64, error)
	MarkDelivered(ctx context.Context, orderID, runnerID int64) (int64, error)
	Cancel(ctx context.Context, orderID int64, reason string) (int64, error)
	CountInFlight(ctx context.Context, runnerID int64) (int, error)
	ListAvailable(ctx context.Context) ([]models.Order, error)
	ListActive(ctx context.Context, runnerID int64) ([]models.Order, error)
	ListCompleted(ctx context.Context, runnerID int64) ([]models.Order, error)
	GetAddress(ctx context.Context, orderID int64) (*models.DeliveryAddress, error)
	GetItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
}

// HistoryRepositoryI defines operations on the status audit log.
type HistoryRepositoryI interface {
	Append(ctx context.Context, orderID int64, status models.OrderStatus, actor, note string) error
	ListByOrder(ctx context.Context, orderID int64) ([]models.StatusHistory, error)
}

// EarningsRepositoryI defines operations on runner earnings.
type EarningsRepositoryI interface {
	Insert(ctx context.Context, runnerID, orderID int64, baseFee, tip, bonus float64) (bool, error)
	ListByRunner(ctx context.Context, runnerID int64) ([]models.Earnings, error)
	TotalForRunner(ctx context.Context, runnerID int64) (float64, error)
}
