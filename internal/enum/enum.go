package enum

// ── Group A: State machine (CHECK constrained in DB) ──

const (
	OrderStatusIncoming   = "INCOMING"
	OrderStatusPreparing  = "PREPARING"
	OrderStatusReady      = "READY"
	OrderStatusDispatched = "DISPATCHED"
	OrderStatusRejected   = "REJECTED"
)

const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeDelivery = "DELIVERY"
	OrderTypeParcel   = "PARCEL"
)

// ── Group B: View tabs (never stored) ──

// TabAllOrders is a filter sentinel, not a status.
const TabAllOrders = "ALL_ORDERS"

// ── Group C: Notification event types ──

const (
	EventOrderCreated         = "order.created"
	EventOrderApproved        = "order.approved"
	EventOrderRejected        = "order.rejected"
	EventOrderReady           = "order.ready"
	EventOrderDispatched      = "order.dispatched"
	EventOrderPrepTimeChanged = "order.prep_time_changed"
	EventRestaurantOnline     = "restaurant.online_changed"
)

// ── Group D: Roles ──

const (
	UserRoleOwner   = "OWNER"
	UserRoleManager = "MANAGER"
	UserRoleStaff   = "STAFF"
)
