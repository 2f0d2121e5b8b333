package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/partnerdash/api/internal/order"
	"github.com/shopspring/decimal"
)

// Errors returned by the repository.
var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrOrderNotActive = errors.New("order is no longer active")
)

// Repository persists order sessions. It satisfies service.Backend.
type Repository struct {
	pool Pool
	q    *Queries
}

// NewRepository creates a Repository over pool.
func NewRepository(pool Pool) *Repository {
	return &Repository{pool: pool, q: New(pool)}
}

func (r *Repository) NextOrderNumber(ctx context.Context, restaurantID uuid.UUID) (int64, error) {
	return r.q.NextOrderNumber(ctx, restaurantID)
}

// CreateOrder inserts the order and its items atomically. A clash on the
// order id is reported as order.ErrDuplicateID.
func (r *Repository) CreateOrder(ctx context.Context, restaurantID uuid.UUID, o order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	q := r.q.WithTx(tx)

	if err := q.EnsureRestaurant(ctx, restaurantID); err != nil {
		return fmt.Errorf("ensure restaurant: %w", err)
	}

	if err := q.InsertOrder(ctx, toOrderRow(restaurantID, o)); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", order.ErrDuplicateID, o.ID)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range o.Items {
		if err := q.InsertOrderItem(ctx, restaurantID, OrderItemRow{
			OrderID:  o.ID,
			Position: int32(i),
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    decimalToNumeric(item.Price),
		}); err != nil {
			return fmt.Errorf("insert order item %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// UpdateOrder writes the mutable fields (status, preparation time) of an active order.
func (r *Repository) UpdateOrder(ctx context.Context, restaurantID uuid.UUID, o order.Order) error {
	return r.update(ctx, restaurantID, o.ID, o.Status, prepToInt4(o.PreparationTime))
}

// ArchiveOrder moves an active order to a terminal status. Archived orders
// stay in the table as history but are never listed as active.
func (r *Repository) ArchiveOrder(ctx context.Context, restaurantID uuid.UUID, orderID, status string) error {
	if order.IsActiveStatus(status) {
		return fmt.Errorf("archive %s: %q is not a terminal status", orderID, status)
	}
	// Preparation time is left as it was.
	current, err := r.currentPrep(ctx, restaurantID, orderID)
	if err != nil {
		return err
	}
	return r.update(ctx, restaurantID, orderID, status, current)
}

func (r *Repository) currentPrep(ctx context.Context, restaurantID uuid.UUID, orderID string) (pgtype.Int4, error) {
	var prep pgtype.Int4
	err := r.pool.QueryRow(ctx,
		`SELECT preparation_time FROM orders WHERE restaurant_id = $1 AND id = $2`,
		restaurantID, orderID,
	).Scan(&prep)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return prep, ErrOrderNotFound
		}
		return prep, fmt.Errorf("get preparation time: %w", err)
	}
	return prep, nil
}

func (r *Repository) update(ctx context.Context, restaurantID uuid.UUID, orderID, status string, prep pgtype.Int4) error {
	n, err := r.q.UpdateActiveOrder(ctx, restaurantID, orderID, status, prep)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n > 0 {
		return nil
	}

	// No rows updated: either the order does not exist or it is already terminal.
	if _, err := r.q.GetOrderStatus(ctx, restaurantID, orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("get order status: %w", err)
	}
	return ErrOrderNotActive
}

// ListActiveOrders returns the restaurant's INCOMING, PREPARING and READY
// orders in creation order, with their items.
func (r *Repository) ListActiveOrders(ctx context.Context, restaurantID uuid.UUID) ([]order.Order, error) {
	rows, err := r.q.ListActiveOrders(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list active orders: %w", err)
	}
	if len(rows) == 0 {
		return []order.Order{}, nil
	}

	orders := make([]order.Order, len(rows))
	index := make(map[string]int, len(rows))
	ids := make([]string, len(rows))
	for i, row := range rows {
		orders[i] = fromOrderRow(row)
		index[row.ID] = i
		ids[i] = row.ID
	}

	items, err := r.q.ListOrderItems(ctx, restaurantID, ids)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	for _, it := range items {
		i, ok := index[it.OrderID]
		if !ok {
			continue
		}
		orders[i].Items = append(orders[i].Items, order.Item{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    numericToDecimal(it.Price),
		})
	}
	return orders, nil
}

// GetOnline reports the restaurant's online flag. Unknown restaurants are online.
func (r *Repository) GetOnline(ctx context.Context, restaurantID uuid.UUID) (bool, error) {
	online, err := r.q.GetRestaurantOnline(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return true, nil
		}
		return false, fmt.Errorf("get online: %w", err)
	}
	return online, nil
}

func (r *Repository) SetOnline(ctx context.Context, restaurantID uuid.UUID, online bool) error {
	if err := r.q.SetRestaurantOnline(ctx, restaurantID, online); err != nil {
		return fmt.Errorf("set online: %w", err)
	}
	return nil
}

// --- Helpers ---

// isUniqueViolation checks for pgconn error code 23505 on the orders primary key.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_pkey"
	}
	return false
}

func toOrderRow(restaurantID uuid.UUID, o order.Order) OrderRow {
	row := OrderRow{
		RestaurantID:    restaurantID,
		ID:              o.ID,
		CustomerName:    o.CustomerName,
		OrderDate:       o.Date,
		OrderTime:       o.Time,
		Total:           decimalToNumeric(o.Total),
		OrderType:       o.Type,
		Status:          o.Status,
		PreparationTime: prepToInt4(o.PreparationTime),
	}
	if o.TableNo != "" {
		row.TableNo = pgtype.Text{String: o.TableNo, Valid: true}
	}
	if o.Address != "" {
		row.Address = pgtype.Text{String: o.Address, Valid: true}
	}
	return row
}

func fromOrderRow(row OrderRow) order.Order {
	o := order.Order{
		ID:           row.ID,
		CustomerName: row.CustomerName,
		Date:         row.OrderDate,
		Time:         row.OrderTime,
		Total:        numericToDecimal(row.Total),
		Type:         row.OrderType,
		Status:       row.Status,
		Items:        []order.Item{},
	}
	if row.TableNo.Valid {
		o.TableNo = row.TableNo.String
	}
	if row.Address.Valid {
		o.Address = row.Address.String
	}
	if row.PreparationTime.Valid {
		v := int(row.PreparationTime.Int32)
		o.PreparationTime = &v
	}
	return o
}

func prepToInt4(p *int) pgtype.Int4 {
	if p == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(*p), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	s, ok := val.(string)
	if !ok {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
