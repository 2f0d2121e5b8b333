package order_test

import (
	"testing"

	"github.com/partnerdash/api/internal/enum"
	"github.com/partnerdash/api/internal/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func sampleOrders() []order.Order {
	return []order.Order{
		{
			ID: "ORD123462", CustomerName: "David Wilson", Type: enum.OrderTypeDelivery,
			Status: enum.OrderStatusIncoming,
			Items: []order.Item{
				{Name: "Butter Chicken", Quantity: 1, Price: decimal.NewFromInt(350)},
				{Name: "Naan", Quantity: 2, Price: decimal.NewFromInt(60)},
			},
		},
		{
			ID: "ORD123456", CustomerName: "John Smith", Type: enum.OrderTypeDelivery,
			Status: enum.OrderStatusPreparing, PreparationTime: intPtr(30),
			Items: []order.Item{{Name: "FarmHouse Pizza", Quantity: 2, Price: decimal.NewFromInt(400)}},
		},
		{
			ID: "ORD123457", CustomerName: "Emma Wilson", Type: enum.OrderTypeParcel,
			Status: enum.OrderStatusReady,
			Items: []order.Item{{Name: "Garlic Naan", Quantity: 2, Price: decimal.NewFromInt(100)}},
		},
		{
			ID: "ORD123459", CustomerName: "Alice Johnson", Type: enum.OrderTypeDineIn,
			Status: enum.OrderStatusPreparing, TableNo: "12",
			Items: []order.Item{{Name: "Burger", Quantity: 1, Price: decimal.NewFromInt(250)}},
		},
	}
}

func ids(orders []order.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

// =====================
// Filtering
// =====================

func TestVisible_TabFiltersByStatusInOrder(t *testing.T) {
	orders := sampleOrders()

	got := order.Visible(orders, enum.OrderStatusPreparing, "")
	assert.Equal(t, []string{"ORD123456", "ORD123459"}, ids(got))

	got = order.Visible(orders, enum.OrderStatusReady, "")
	assert.Equal(t, []string{"ORD123457"}, ids(got))
}

func TestVisible_AllOrdersMatchesEveryStatus(t *testing.T) {
	orders := sampleOrders()
	got := order.Visible(orders, enum.TabAllOrders, "")
	assert.Equal(t, ids(orders), ids(got))
}

func TestVisible_SearchIsCaseInsensitive(t *testing.T) {
	orders := sampleOrders()
	lower := order.Visible(orders, enum.TabAllOrders, "naan")
	upper := order.Visible(orders, enum.TabAllOrders, "NAAN")
	assert.Equal(t, ids(lower), ids(upper))
	assert.Equal(t, []string{"ORD123462", "ORD123457"}, ids(lower))
}

func TestVisible_SearchMatchesIDAndCustomer(t *testing.T) {
	orders := sampleOrders()
	assert.Equal(t, []string{"ORD123459"}, ids(order.Visible(orders, enum.TabAllOrders, "123459")))
	assert.Equal(t, []string{"ORD123462", "ORD123457"}, ids(order.Visible(orders, enum.TabAllOrders, "wilson")))
}

func TestVisible_TabAndSearchCombine(t *testing.T) {
	orders := sampleOrders()
	got := order.Visible(orders, enum.OrderStatusReady, "naan")
	assert.Equal(t, []string{"ORD123457"}, ids(got))
	assert.Empty(t, order.Visible(orders, enum.OrderStatusPreparing, "naan"))
}

func TestVisible_DoesNotModifyInput(t *testing.T) {
	orders := sampleOrders()
	before := ids(orders)
	_ = order.Visible(orders, enum.OrderStatusReady, "x")
	assert.Equal(t, before, ids(orders))
}

func TestParseTab(t *testing.T) {
	tab, err := order.ParseTab("")
	require.NoError(t, err)
	assert.Equal(t, enum.TabAllOrders, tab)

	for _, s := range []string{enum.TabAllOrders, enum.OrderStatusIncoming, enum.OrderStatusPreparing, enum.OrderStatusReady} {
		tab, err := order.ParseTab(s)
		require.NoError(t, err)
		assert.Equal(t, s, tab)
	}

	for _, s := range []string{enum.OrderStatusDispatched, enum.OrderStatusRejected, "preparing"} {
		_, err := order.ParseTab(s)
		assert.ErrorIs(t, err, order.ErrInvalidTab, s)
	}
}

// =====================
// Status machine
// =====================

func TestApply_FullPipeline(t *testing.T) {
	o := order.Order{ID: "A", Type: enum.OrderTypeDelivery, Status: enum.OrderStatusIncoming}

	tr, err := order.Apply(o, order.ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusPreparing, tr.Order.Status)
	assert.False(t, tr.Removed)
	assert.Equal(t, enum.EventOrderApproved, tr.Event)

	tr, err = order.Apply(tr.Order, order.ActionMarkReady)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusReady, tr.Order.Status)
	assert.Equal(t, "Order updated to Ready", tr.Message)

	tr, err = order.Apply(tr.Order, order.ActionDispatch)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusDispatched, tr.Order.Status)
	assert.True(t, tr.Removed)
	assert.Equal(t, enum.EventOrderDispatched, tr.Event)

	// Input is never mutated.
	assert.Equal(t, enum.OrderStatusIncoming, o.Status)
}

func TestApply_Reject(t *testing.T) {
	o := order.Order{ID: "A", Type: enum.OrderTypeParcel, Status: enum.OrderStatusIncoming}
	tr, err := order.Apply(o, order.ActionReject)
	require.NoError(t, err)
	assert.True(t, tr.Removed)
	assert.Equal(t, enum.OrderStatusRejected, tr.Order.Status)
	assert.Equal(t, "Order rejected", tr.Message)
}

func TestApply_DineInDispatchesDirectly(t *testing.T) {
	for _, status := range []string{enum.OrderStatusIncoming, enum.OrderStatusPreparing} {
		o := order.Order{ID: "D", Type: enum.OrderTypeDineIn, Status: status}
		tr, err := order.Apply(o, order.ActionDispatch)
		require.NoError(t, err, status)
		assert.True(t, tr.Removed)
		assert.Equal(t, enum.OrderStatusDispatched, tr.Order.Status)
	}

	_, err := order.Apply(order.Order{Type: enum.OrderTypeDineIn, Status: enum.OrderStatusPreparing}, order.ActionMarkReady)
	assert.ErrorIs(t, err, order.ErrInvalidTransition)
}

func TestApply_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name   string
		typ    string
		status string
		action order.Action
	}{
		{"dispatch incoming delivery", enum.OrderTypeDelivery, enum.OrderStatusIncoming, order.ActionDispatch},
		{"dispatch preparing parcel", enum.OrderTypeParcel, enum.OrderStatusPreparing, order.ActionDispatch},
		{"approve preparing", enum.OrderTypeDelivery, enum.OrderStatusPreparing, order.ActionApprove},
		{"reject ready", enum.OrderTypeDelivery, enum.OrderStatusReady, order.ActionReject},
		{"ready from incoming", enum.OrderTypeDelivery, enum.OrderStatusIncoming, order.ActionMarkReady},
		{"ready from ready", enum.OrderTypeDelivery, enum.OrderStatusReady, order.ActionMarkReady},
		{"prep time on ready", enum.OrderTypeDelivery, enum.OrderStatusReady, order.ActionPrepTimeUp},
		{"prep time on incoming", enum.OrderTypeDelivery, enum.OrderStatusIncoming, order.ActionPrepTimeDown},
		{"unknown action", enum.OrderTypeDelivery, enum.OrderStatusIncoming, order.Action("EDIT")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := order.Apply(order.Order{ID: "X", Type: tt.typ, Status: tt.status}, tt.action)
			assert.ErrorIs(t, err, order.ErrInvalidTransition)
		})
	}
}

func TestApply_PrepTime(t *testing.T) {
	o := order.Order{ID: "P", Type: enum.OrderTypeDelivery, Status: enum.OrderStatusPreparing, PreparationTime: intPtr(10)}
	tr, err := order.Apply(o, order.ActionPrepTimeUp)
	require.NoError(t, err)
	assert.Equal(t, 15, tr.Order.Prep())
	assert.Equal(t, 10, o.Prep(), "input must not change")

	zero := order.Order{ID: "Z", Type: enum.OrderTypeDelivery, Status: enum.OrderStatusPreparing, PreparationTime: intPtr(0)}
	tr, err = order.Apply(zero, order.ActionPrepTimeDown)
	require.NoError(t, err)
	assert.Equal(t, 0, tr.Order.Prep())

	three := order.Order{ID: "T", Type: enum.OrderTypeDelivery, Status: enum.OrderStatusPreparing, PreparationTime: intPtr(3)}
	tr, err = order.Apply(three, order.ActionPrepTimeDown)
	require.NoError(t, err)
	assert.Equal(t, 0, tr.Order.Prep())

	unset := order.Order{ID: "U", Type: enum.OrderTypeDelivery, Status: enum.OrderStatusPreparing}
	tr, err = order.Apply(unset, order.ActionPrepTimeUp)
	require.NoError(t, err)
	assert.Equal(t, 5, tr.Order.Prep())

	top := order.Order{ID: "M", Type: enum.OrderTypeDelivery, Status: enum.OrderStatusPreparing, PreparationTime: intPtr(order.MaxPrepTime - 2)}
	tr, err = order.Apply(top, order.ActionPrepTimeUp)
	require.NoError(t, err)
	assert.Equal(t, order.MaxPrepTime, tr.Order.Prep())
}

func TestApply_PrepTimeSurvivesMarkReady(t *testing.T) {
	o := order.Order{ID: "P", Type: enum.OrderTypeDelivery, Status: enum.OrderStatusPreparing, PreparationTime: intPtr(20)}
	tr, err := order.Apply(o, order.ActionMarkReady)
	require.NoError(t, err)
	require.NotNil(t, tr.Order.PreparationTime)
	assert.Equal(t, 20, *tr.Order.PreparationTime)
}

func TestActionFor(t *testing.T) {
	delivery := func(status string) order.Order {
		return order.Order{Type: enum.OrderTypeDelivery, Status: status}
	}
	dineIn := func(status string) order.Order {
		return order.Order{Type: enum.OrderTypeDineIn, Status: status}
	}

	tests := []struct {
		name   string
		o      order.Order
		target string
		want   order.Action
	}{
		{"approve", delivery(enum.OrderStatusIncoming), enum.OrderStatusPreparing, order.ActionApprove},
		{"ready", delivery(enum.OrderStatusPreparing), enum.OrderStatusReady, order.ActionMarkReady},
		{"dispatch", delivery(enum.OrderStatusReady), enum.OrderStatusDispatched, order.ActionDispatch},
		{"reject", delivery(enum.OrderStatusIncoming), enum.OrderStatusRejected, order.ActionReject},
		{"dine-in dispatch", dineIn(enum.OrderStatusPreparing), enum.OrderStatusDispatched, order.ActionDispatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := order.ActionFor(tt.o, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	backward := []struct {
		name   string
		o      order.Order
		target string
	}{
		{"ready to preparing", delivery(enum.OrderStatusReady), enum.OrderStatusPreparing},
		{"preparing to incoming", delivery(enum.OrderStatusPreparing), enum.OrderStatusIncoming},
		{"skip to dispatched", delivery(enum.OrderStatusIncoming), enum.OrderStatusDispatched},
		{"dine-in ready", dineIn(enum.OrderStatusPreparing), enum.OrderStatusReady},
		{"same status", delivery(enum.OrderStatusPreparing), enum.OrderStatusPreparing},
	}
	for _, tt := range backward {
		t.Run(tt.name, func(t *testing.T) {
			_, err := order.ActionFor(tt.o, tt.target)
			assert.ErrorIs(t, err, order.ErrInvalidTransition)
		})
	}
}

// =====================
// Drafts
// =====================

func validDraft() order.Draft {
	return order.Draft{
		CustomerName: "Sarah Thompson",
		Type:         enum.OrderTypeDelivery,
		Address:      "456 Oak St, Delhi",
		TableNo:      "7",
		Items: []order.Item{
			{Name: "Margherita Pizza", Quantity: 1, Price: decimal.NewFromInt(299)},
		},
		Total: decimal.NewFromInt(448),
	}
}

func TestDraftValidate(t *testing.T) {
	require.NoError(t, validDraft().Validate())

	tests := []struct {
		name   string
		mutate func(d *order.Draft)
		want   error
	}{
		{"blank customer", func(d *order.Draft) { d.CustomerName = "  " }, order.ErrCustomerRequired},
		{"bad type", func(d *order.Draft) { d.Type = "PICKUP" }, order.ErrInvalidType},
		{"no items", func(d *order.Draft) { d.Items = nil }, order.ErrEmptyItems},
		{"zero quantity", func(d *order.Draft) { d.Items[0].Quantity = 0 }, order.ErrInvalidQuantity},
		{"blank item name", func(d *order.Draft) { d.Items[0].Name = "" }, order.ErrItemName},
		{"negative price", func(d *order.Draft) { d.Items[0].Price = decimal.NewFromInt(-1) }, order.ErrNegativePrice},
		{"negative total", func(d *order.Draft) { d.Total = decimal.NewFromInt(-5) }, order.ErrNegativeTotal},
		{"negative prep", func(d *order.Draft) { d.PreparationTime = intPtr(-5) }, order.ErrNegativePrepTime},
		{"prep beyond int4", func(d *order.Draft) { d.PreparationTime = intPtr(order.MaxPrepTime + 1) }, order.ErrPrepTimeTooLarge},
		{"sub-cent price", func(d *order.Draft) { d.Items[0].Price = decimal.RequireFromString("2.995") }, order.ErrMoneyPrecision},
		{"sub-cent total", func(d *order.Draft) { d.Total = decimal.RequireFromString("448.001") }, order.ErrMoneyPrecision},
		{"total too large", func(d *order.Draft) { d.Total = decimal.RequireFromString("10000000000") }, order.ErrMoneyPrecision},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			assert.ErrorIs(t, d.Validate(), tt.want)
		})
	}
}

func TestDraftValidate_MoneyAtStoredPrecision(t *testing.T) {
	d := validDraft()
	d.Items[0].Price = decimal.RequireFromString("299.50")
	d.Total = decimal.RequireFromString("9999999999.990")
	d.PreparationTime = intPtr(order.MaxPrepTime)
	assert.NoError(t, d.Validate())
}

func TestDraftValidate_TotalNotCheckedAgainstItems(t *testing.T) {
	d := validDraft()
	d.Total = decimal.NewFromInt(1)
	assert.NoError(t, d.Validate())
}

func TestDraftBuild_KeepsChannelFields(t *testing.T) {
	o := validDraft().Build("ORD000001", enum.OrderStatusIncoming)
	assert.Equal(t, "ORD000001", o.ID)
	assert.Equal(t, enum.OrderStatusIncoming, o.Status)
	assert.Equal(t, "456 Oak St, Delhi", o.Address)
	assert.Empty(t, o.TableNo)

	d := validDraft()
	d.Type = enum.OrderTypeDineIn
	o = d.Build("ORD000002", enum.OrderStatusIncoming)
	assert.Equal(t, "7", o.TableNo)
	assert.Empty(t, o.Address)
}

func TestClone_IsDeep(t *testing.T) {
	o := sampleOrders()[1]
	c := o.Clone()
	c.Items[0].Name = "changed"
	*c.PreparationTime = 99
	assert.Equal(t, "FarmHouse Pizza", o.Items[0].Name)
	assert.Equal(t, 30, *o.PreparationTime)
}
