package storage

import (
	"context"
	"database/sql"
	"fmt"

	pq "github.com/lib/pq"

	"github.com/guttosm/mktabuse/internal/domain/models"
)

// OrdersRepository defines the contract for the Postgres order log.
type OrdersRepository interface {
	InsertOrders(ctx context.Context, orders []models.Order) error
	ListOrders(ctx context.Context, instruments []string) ([]models.Order, error)
	DeleteOrdersByInstrument(ctx context.Context, instrument string) (int64, error)
}

type ordersRepository struct {
	db *sql.DB
}

func NewOrdersRepository(db *sql.DB) OrdersRepository {
	return &ordersRepository{db: db}
}

// InsertOrders bulk loads orders with COPY in a single transaction.
func (r *ordersRepository) InsertOrders(ctx context.Context, orders []models.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return err
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"orders",
		"trader_id",
		"stock_symbol",
		"trade_datetime",
		"price",
		"volume",
		"country_code",
		"first_name",
		"last_name",
	))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, o := range orders {
		if _, err := stmt.ExecContext(ctx,
			o.TraderID,
			o.Instrument,
			o.TradeDatetime,
			o.Price.String(),
			o.Volume,
			o.CountryCode,
			o.FirstName,
			o.LastName,
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}

	// flush the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// ListOrders returns the order log in load order. An empty instruments list
// returns every order; otherwise only orders of those symbols are read.
func (r *ordersRepository) ListOrders(ctx context.Context, instruments []string) ([]models.Order, error) {
	query := `
		SELECT trader_id, stock_symbol, trade_datetime, price, volume,
		       country_code, first_name, last_name
		FROM orders`
	var args []interface{}
	if len(instruments) > 0 {
		query += ` WHERE stock_symbol = ANY($1)`
		args = append(args, pq.Array(instruments))
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(
			&o.TraderID,
			&o.Instrument,
			&o.TradeDatetime,
			&o.Price,
			&o.Volume,
			&o.CountryCode,
			&o.FirstName,
			&o.LastName,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return out, nil
}

// DeleteOrdersByInstrument removes every order of one symbol, used before a reload.
func (r *ordersRepository) DeleteOrdersByInstrument(ctx context.Context, instrument string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE stock_symbol = $1`, instrument)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// OrderSource adapts an OrdersRepository to abuse.OrderSource.
type OrderSource struct {
	Repo        OrdersRepository
	Instruments []string
}

// LoadOrders implements abuse.OrderSource.
func (s *OrderSource) LoadOrders(ctx context.Context) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx, s.Instruments)
}
