package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewline/order-service/internal/gateway"
	"github.com/brewline/order-service/internal/model"
	"github.com/brewline/order-service/internal/repository"
)

func newTestOrchestrator() (*Orchestrator, *fakeOrderStore, *fakeProfileStore, *fakeGateway) {
	orders := newFakeOrderStore()
	profiles := newFakeProfileStore()
	gw := &fakeGateway{}
	return NewOrchestrator(orders, profiles, gw, "usd"), orders, profiles, gw
}

func pickupRequest(items ...model.LineItem) CreateOrderRequest {
	return CreateOrderRequest{Items: items, FulfillmentType: FulfillmentPickup}
}

func TestCreateOrderComputesAmounts(t *testing.T) {
	orc, orders, _, gw := newTestOrchestrator()

	res, err := orc.CreateOrder(context.Background(), 1, pickupRequest(
		model.LineItem{ItemID: "latte", Name: "Latte", Quantity: 2, UnitPriceCents: 450},
		model.LineItem{ItemID: "cookie", Name: "Cookie", Quantity: 1, UnitPriceCents: 150},
	))
	require.NoError(t, err)

	// 1050 subtotal, 8.75% tax floored to 91.
	assert.Equal(t, int64(1050), res.Order.SubtotalCents)
	assert.Equal(t, int64(91), res.Order.TaxCents)
	assert.Equal(t, int64(0), res.Order.DiscountCents)
	assert.Equal(t, int64(1141), res.Order.TotalCents)
	assert.Equal(t, model.OrderStatusPending, res.Order.Status)
	assert.Equal(t, model.PaymentStatusPending, res.Order.PaymentStatus)
	assert.Equal(t, "pi_"+res.Order.ID+"_secret", res.ClientSecret)

	stored, err := orders.GetByID(context.Background(), res.Order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PaymentIntentID)
	assert.Equal(t, "pi_"+res.Order.ID, *stored.PaymentIntentID)

	// The intent was opened for the exact total.
	require.Len(t, gw.created, 1)
	assert.Equal(t, int64(1141), gw.created[0].AmountCents)
	assert.Equal(t, "usd", gw.created[0].Currency)
	assert.Equal(t, res.Order.ID, gw.created[0].OrderID)
}

func TestCreateOrderPointsDiscountCappedAtTwentyPercent(t *testing.T) {
	orc, _, profiles, _ := newTestOrchestrator()
	profiles.profiles[7] = &model.Profile{UserID: 7, Points: 300}

	req := pickupRequest(model.LineItem{ItemID: "beans", Name: "Beans", Quantity: 1, UnitPriceCents: 1000})
	req.UsePoints = true
	res, err := orc.CreateOrder(context.Background(), 7, req)
	require.NoError(t, err)

	// 300 points held, but the discount caps at 20% of the 1000 subtotal.
	assert.Equal(t, int64(200), res.Order.DiscountCents)
	assert.Equal(t, int64(1000+87-200), res.Order.TotalCents)

	p, err := profiles.GetByUserID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(100), p.Points)
}

func TestCreateOrderPointsDiscountUsesFullBalanceUnderCap(t *testing.T) {
	orc, _, profiles, _ := newTestOrchestrator()
	profiles.profiles[7] = &model.Profile{UserID: 7, Points: 50}

	req := pickupRequest(model.LineItem{ItemID: "beans", Name: "Beans", Quantity: 1, UnitPriceCents: 1000})
	req.UsePoints = true
	res, err := orc.CreateOrder(context.Background(), 7, req)
	require.NoError(t, err)

	assert.Equal(t, int64(50), res.Order.DiscountCents)
	p, _ := profiles.GetByUserID(context.Background(), 7)
	assert.Equal(t, int64(0), p.Points)
}

func TestCreateOrderZeroPointsIsNotAnError(t *testing.T) {
	orc, _, profiles, _ := newTestOrchestrator()
	profiles.profiles[7] = &model.Profile{UserID: 7, Points: 0}

	req := pickupRequest(model.LineItem{ItemID: "beans", Name: "Beans", Quantity: 1, UnitPriceCents: 1000})
	req.UsePoints = true
	res, err := orc.CreateOrder(context.Background(), 7, req)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Order.DiscountCents)
}

func TestCreateOrderValidation(t *testing.T) {
	orc, _, _, _ := newTestOrchestrator()
	addr := "12 Main St"

	cases := []struct {
		name string
		req  CreateOrderRequest
	}{
		{"no items", CreateOrderRequest{FulfillmentType: FulfillmentPickup}},
		{"zero quantity", pickupRequest(model.LineItem{ItemID: "x", Quantity: 0, UnitPriceCents: 100})},
		{"zero price", pickupRequest(model.LineItem{ItemID: "x", Quantity: 1, UnitPriceCents: 0})},
		{"missing item id", pickupRequest(model.LineItem{Quantity: 1, UnitPriceCents: 100})},
		{"unknown fulfillment", CreateOrderRequest{
			Items:           []model.LineItem{{ItemID: "x", Quantity: 1, UnitPriceCents: 100}},
			FulfillmentType: "teleport",
		}},
		{"delivery without address", CreateOrderRequest{
			Items:           []model.LineItem{{ItemID: "x", Quantity: 1, UnitPriceCents: 100}},
			FulfillmentType: FulfillmentDelivery,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := orc.CreateOrder(context.Background(), 1, tc.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	ok := CreateOrderRequest{
		Items:           []model.LineItem{{ItemID: "x", Name: "X", Quantity: 1, UnitPriceCents: 100}},
		FulfillmentType: FulfillmentDelivery,
		DeliveryAddress: &addr,
	}
	_, err := orc.CreateOrder(context.Background(), 1, ok)
	assert.NoError(t, err)
}

func TestCreateOrderGatewayHardFailureCancelsOrder(t *testing.T) {
	orc, orders, _, gw := newTestOrchestrator()
	gw.err = gateway.ErrGatewayUnavailable

	_, err := orc.CreateOrder(context.Background(), 1,
		pickupRequest(model.LineItem{ItemID: "x", Name: "X", Quantity: 1, UnitPriceCents: 500}))
	require.Error(t, err)

	// The single pending order must have been moved to a terminal state.
	orders.mu.Lock()
	defer orders.mu.Unlock()
	require.Len(t, orders.orders, 1)
	for _, o := range orders.orders {
		assert.Equal(t, model.OrderStatusCancelled, o.Status)
		assert.Equal(t, model.PaymentStatusFailed, o.PaymentStatus)
	}
}

func TestCreateOrderGatewayTimeoutLeavesOrderPending(t *testing.T) {
	orc, orders, _, gw := newTestOrchestrator()
	gw.err = context.DeadlineExceeded

	_, err := orc.CreateOrder(context.Background(), 1,
		pickupRequest(model.LineItem{ItemID: "x", Name: "X", Quantity: 1, UnitPriceCents: 500}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, gateway.ErrGatewayUnavailable))

	// Outcome unknown: the order stays pending with no intent attached so
	// the reaper or a late webhook can settle it.
	orders.mu.Lock()
	defer orders.mu.Unlock()
	require.Len(t, orders.orders, 1)
	for _, o := range orders.orders {
		assert.Equal(t, model.PaymentStatusPending, o.PaymentStatus)
		assert.Nil(t, o.PaymentIntentID)
	}
}

func TestGetOrderEnforcesOwnership(t *testing.T) {
	orc, _, _, _ := newTestOrchestrator()

	res, err := orc.CreateOrder(context.Background(), 1,
		pickupRequest(model.LineItem{ItemID: "x", Name: "X", Quantity: 1, UnitPriceCents: 500}))
	require.NoError(t, err)

	got, err := orc.GetOrder(context.Background(), res.Order.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, res.Order.ID, got.ID)

	_, err = orc.GetOrder(context.Background(), res.Order.ID, 2)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	_, err = orc.GetOrder(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}
