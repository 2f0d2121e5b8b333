package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// OrderRow mirrors the orders table.
type OrderRow struct {
	RestaurantID    uuid.UUID
	ID              string
	CustomerName    string
	OrderDate       string
	OrderTime       string
	Total           pgtype.Numeric
	OrderType       string
	Status          string
	TableNo         pgtype.Text
	Address         pgtype.Text
	PreparationTime pgtype.Int4
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItemRow mirrors the order_items table.
type OrderItemRow struct {
	OrderID  string
	Position int32
	Name     string
	Quantity int32
	Price    pgtype.Numeric
}

const ensureRestaurant = `-- name: EnsureRestaurant :exec
INSERT INTO restaurants (id) VALUES ($1)
ON CONFLICT (id) DO NOTHING
`

func (q *Queries) EnsureRestaurant(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, ensureRestaurant, id)
	return err
}

const upsertRestaurant = `-- name: UpsertRestaurant :exec
INSERT INTO restaurants (id, name, online) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, online = EXCLUDED.online
`

func (q *Queries) UpsertRestaurant(ctx context.Context, id uuid.UUID, name string, online bool) error {
	_, err := q.db.Exec(ctx, upsertRestaurant, id, name, online)
	return err
}

const nextOrderNumber = `-- name: NextOrderNumber :one
INSERT INTO restaurants (id, next_order_number) VALUES ($1, 1)
ON CONFLICT (id) DO UPDATE SET next_order_number = restaurants.next_order_number + 1
RETURNING next_order_number
`

func (q *Queries) NextOrderNumber(ctx context.Context, restaurantID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, nextOrderNumber, restaurantID).Scan(&n)
	return n, err
}

const getRestaurantOnline = `-- name: GetRestaurantOnline :one
SELECT online FROM restaurants WHERE id = $1
`

func (q *Queries) GetRestaurantOnline(ctx context.Context, id uuid.UUID) (bool, error) {
	var online bool
	err := q.db.QueryRow(ctx, getRestaurantOnline, id).Scan(&online)
	return online, err
}

const setRestaurantOnline = `-- name: SetRestaurantOnline :exec
INSERT INTO restaurants (id, online) VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET online = EXCLUDED.online
`

func (q *Queries) SetRestaurantOnline(ctx context.Context, id uuid.UUID, online bool) error {
	_, err := q.db.Exec(ctx, setRestaurantOnline, id, online)
	return err
}

const insertOrder = `-- name: InsertOrder :exec
INSERT INTO orders (
    restaurant_id, id, customer_name, order_date, order_time, total,
    order_type, status, table_no, address, preparation_time
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

func (q *Queries) InsertOrder(ctx context.Context, arg OrderRow) error {
	_, err := q.db.Exec(ctx, insertOrder,
		arg.RestaurantID,
		arg.ID,
		arg.CustomerName,
		arg.OrderDate,
		arg.OrderTime,
		arg.Total,
		arg.OrderType,
		arg.Status,
		arg.TableNo,
		arg.Address,
		arg.PreparationTime,
	)
	return err
}

const insertOrderItem = `-- name: InsertOrderItem :exec
INSERT INTO order_items (restaurant_id, order_id, position, name, quantity, price)
VALUES ($1, $2, $3, $4, $5, $6)
`

func (q *Queries) InsertOrderItem(ctx context.Context, restaurantID uuid.UUID, arg OrderItemRow) error {
	_, err := q.db.Exec(ctx, insertOrderItem,
		restaurantID,
		arg.OrderID,
		arg.Position,
		arg.Name,
		arg.Quantity,
		arg.Price,
	)
	return err
}

const updateActiveOrder = `-- name: UpdateActiveOrder :execrows
UPDATE orders
SET status = $3, preparation_time = $4, updated_at = NOW()
WHERE restaurant_id = $1 AND id = $2
  AND status IN ('INCOMING', 'PREPARING', 'READY')
`

// UpdateActiveOrder returns the number of rows changed; zero means the order
// is missing or already terminal.
func (q *Queries) UpdateActiveOrder(ctx context.Context, restaurantID uuid.UUID, id, status string, prep pgtype.Int4) (int64, error) {
	tag, err := q.db.Exec(ctx, updateActiveOrder, restaurantID, id, status, prep)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listActiveOrders = `-- name: ListActiveOrders :many
SELECT restaurant_id, id, customer_name, order_date, order_time, total,
       order_type, status, table_no, address, preparation_time, created_at, updated_at
FROM orders
WHERE restaurant_id = $1 AND status IN ('INCOMING', 'PREPARING', 'READY')
ORDER BY created_at, id
`

func (q *Queries) ListActiveOrders(ctx context.Context, restaurantID uuid.UUID) ([]OrderRow, error) {
	rows, err := q.db.Query(ctx, listActiveOrders, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderRow
	for rows.Next() {
		var i OrderRow
		if err := rows.Scan(
			&i.RestaurantID,
			&i.ID,
			&i.CustomerName,
			&i.OrderDate,
			&i.OrderTime,
			&i.Total,
			&i.OrderType,
			&i.Status,
			&i.TableNo,
			&i.Address,
			&i.PreparationTime,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getOrderStatus = `-- name: GetOrderStatus :one
SELECT status FROM orders WHERE restaurant_id = $1 AND id = $2
`

func (q *Queries) GetOrderStatus(ctx context.Context, restaurantID uuid.UUID, id string) (string, error) {
	var status string
	err := q.db.QueryRow(ctx, getOrderStatus, restaurantID, id).Scan(&status)
	return status, err
}

const listOrderItems = `-- name: ListOrderItems :many
SELECT order_id, position, name, quantity, price
FROM order_items
WHERE restaurant_id = $1 AND order_id = ANY($2::text[])
ORDER BY order_id, position
`

func (q *Queries) ListOrderItems(ctx context.Context, restaurantID uuid.UUID, orderIDs []string) ([]OrderItemRow, error) {
	rows, err := q.db.Query(ctx, listOrderItems, restaurantID, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItemRow
	for rows.Next() {
		var i OrderItemRow
		if err := rows.Scan(&i.OrderID, &i.Position, &i.Name, &i.Quantity, &i.Price); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
