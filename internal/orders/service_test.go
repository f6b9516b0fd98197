package orders

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	"github.com/shopmandi/shopmandi-backend/pkg/enums"
	pkgerrors "github.com/shopmandi/shopmandi-backend/pkg/errors"
	"github.com/shopmandi/shopmandi-backend/pkg/outbox"
	"github.com/shopmandi/shopmandi-backend/pkg/pagination"
	"github.com/shopmandi/shopmandi-backend/pkg/types"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutbox) byType(eventType enums.OutboxEventType) []outbox.DomainEvent {
	var matched []outbox.DomainEvent
	for _, event := range f.events {
		if event.EventType == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

type fakeOrdersRepo struct {
	orders map[uuid.UUID]*models.Order
}

func newFakeOrdersRepo() *fakeOrdersRepo {
	return &fakeOrdersRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (f *fakeOrdersRepo) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	stored := cloneOrder(order)
	f.orders[order.ID] = stored
	return nil
}

func (f *fakeOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	stored, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneOrder(stored), nil
}

func (f *fakeOrdersRepo) ListByBuyer(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	var rows []models.Order
	for _, order := range f.orders {
		if order.UserID == userID {
			rows = append(rows, *cloneOrder(order))
		}
	}
	return rows, "", nil
}

func (f *fakeOrdersRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	var rows []models.Order
	for _, order := range f.orders {
		for _, item := range order.Items {
			if item.SellerID == sellerID {
				rows = append(rows, *cloneOrder(order))
				break
			}
		}
	}
	return rows, "", nil
}

func (f *fakeOrdersRepo) ListAll(ctx context.Context, params pagination.Params) ([]models.Order, string, error) {
	var rows []models.Order
	for _, order := range f.orders {
		rows = append(rows, *cloneOrder(order))
	}
	return rows, "", nil
}

func (f *fakeOrdersRepo) UpdateLineItemStatus(ctx context.Context, itemID uuid.UUID, status enums.LineItemStatus, now time.Time) error {
	for _, order := range f.orders {
		for i := range order.Items {
			if order.Items[i].ID != itemID {
				continue
			}
			order.Items[i].Status = status
			switch status {
			case enums.LineItemStatusConfirmed:
				order.Items[i].ConfirmedAt = &now
			case enums.LineItemStatusShipped:
				order.Items[i].ShippedAt = &now
			case enums.LineItemStatusDelivered:
				order.Items[i].DeliveredAt = &now
			case enums.LineItemStatusCancelled:
				order.Items[i].CancelledAt = &now
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeOrdersRepo) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	order, ok := f.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	return nil
}

func (f *fakeOrdersRepo) UpdatePayment(ctx context.Context, orderID uuid.UUID, isPaid bool, paidAt *time.Time) error {
	order, ok := f.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.IsPaid = isPaid
	order.PaidAt = paidAt
	return nil
}

func cloneOrder(order *models.Order) *models.Order {
	copied := *order
	copied.Items = make([]models.OrderLineItem, len(order.Items))
	copy(copied.Items, order.Items)
	sort.Slice(copied.Items, func(i, j int) bool {
		return copied.Items[i].Position < copied.Items[j].Position
	})
	return &copied
}

type fakeProducts struct {
	products map[uuid.UUID]*models.Product
}

func newFakeProducts(products ...*models.Product) *fakeProducts {
	store := &fakeProducts{products: make(map[uuid.UUID]*models.Product)}
	for _, p := range products {
		store.products[p.ID] = p
	}
	return store
}

func (f *fakeProducts) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	return &copied, nil
}

type fakeNotifications struct {
	rows []models.Notification
}

func (f *fakeNotifications) CreateBatch(ctx context.Context, rows []models.Notification) error {
	f.rows = append(f.rows, rows...)
	return nil
}

type fakeUsers struct {
	users map[uuid.UUID]*models.User
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	store := &fakeUsers{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		store.users[u.ID] = u
	}
	return store
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

type orderFixture struct {
	svc           *service
	repo          *fakeOrdersRepo
	products      *fakeProducts
	notifications *fakeNotifications
	outbox        *fakeOutbox
}

func newOrderFixture(products *fakeProducts, users *fakeUsers) *orderFixture {
	repo := newFakeOrdersRepo()
	notes := &fakeNotifications{}
	events := &fakeOutbox{}
	svc := &service{
		repo:   repo,
		tx:     stubTx{},
		outbox: events,
		users:  users,
		repoForTx: func(tx *gorm.DB) ordersRepository {
			return repo
		},
		productsForTx: func(tx *gorm.DB) productStore {
			return products
		},
		notificationsForTx: func(tx *gorm.DB) notificationWriter {
			return notes
		},
	}
	return &orderFixture{svc: svc, repo: repo, products: products, notifications: notes, outbox: events}
}

func testAddress() types.Address {
	return types.Address{
		Address:    "1 Market Rd",
		City:       "Pune",
		PostalCode: "411001",
		Country:    "IN",
	}
}

func newProduct(sellerID uuid.UUID, name string, price string, stock int) *models.Product {
	return &models.Product{
		ID:       uuid.New(),
		SellerID: sellerID,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	}
}

func newBuyer(name string) *models.User {
	return &models.User{
		ID:    uuid.New(),
		Name:  name,
		Email: name + "@example.com",
		Role:  enums.UserRoleBuyer,
	}
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s got %v", code, err)
	}
}

func TestCreateOrderTwoSellers(t *testing.T) {
	sellerA := uuid.New()
	sellerB := uuid.New()
	bottle := newProduct(sellerA, "Steel Bottle", "100.00", 5)
	scarf := newProduct(sellerB, "Cotton Scarf", "150.00", 3)
	buyer := newBuyer("ravi")

	fx := newOrderFixture(newFakeProducts(bottle, scarf), newFakeUsers(buyer))

	order, err := fx.svc.Create(context.Background(), buyer.ID, CreateOrderRequest{
		Items: []OrderItemInput{
			{ProductID: bottle.ID, Quantity: 1},
			{ProductID: scarf.ID, Quantity: 1},
		},
		PaymentMethod:   "cod",
		ShippingAddress: testAddress(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !order.TotalPrice.Equal(decimal.RequireFromString("250.00")) {
		t.Fatalf("expected total 250.00 got %s", order.TotalPrice)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 line items got %d", len(order.Items))
	}
	for _, item := range order.Items {
		if item.Status != enums.LineItemStatusPending {
			t.Fatalf("expected pending items, got %s", item.Status)
		}
	}
	if order.IsPaid || order.PaidAt != nil {
		t.Fatalf("cod order must not be paid at creation")
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending order got %s", order.Status)
	}

	if len(fx.notifications.rows) != 2 {
		t.Fatalf("expected one notification per distinct seller, got %d", len(fx.notifications.rows))
	}
	bySeller := make(map[uuid.UUID]models.Notification)
	for _, row := range fx.notifications.rows {
		bySeller[row.SellerID] = row
	}
	if got := bySeller[sellerA].ProductNames; len(got) != 1 || got[0] != "Steel Bottle" {
		t.Fatalf("seller A should only see their product, got %v", got)
	}
	if got := bySeller[sellerB].ProductNames; len(got) != 1 || got[0] != "Cotton Scarf" {
		t.Fatalf("seller B should only see their product, got %v", got)
	}

	created := fx.outbox.byType(enums.EventOrderCreated)
	if len(created) != 1 {
		t.Fatalf("expected one order_created event got %d", len(created))
	}
}

func TestCreateOrderSameSellerSingleNotification(t *testing.T) {
	sellerID := uuid.New()
	bottle := newProduct(sellerID, "Steel Bottle", "100.00", 5)
	lamp := newProduct(sellerID, "Desk Lamp", "50.00", 5)
	buyer := newBuyer("mina")

	fx := newOrderFixture(newFakeProducts(bottle, lamp), newFakeUsers(buyer))

	_, err := fx.svc.Create(context.Background(), buyer.ID, CreateOrderRequest{
		Items: []OrderItemInput{
			{ProductID: bottle.ID, Quantity: 2},
			{ProductID: lamp.ID, Quantity: 1},
		},
		PaymentMethod:   "cod",
		ShippingAddress: testAddress(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if len(fx.notifications.rows) != 1 {
		t.Fatalf("expected single notification for single seller, got %d", len(fx.notifications.rows))
	}
	names := fx.notifications.rows[0].ProductNames
	if len(names) != 2 || names[0] != "Steel Bottle" || names[1] != "Desk Lamp" {
		t.Fatalf("expected both product names in order, got %v", names)
	}
}

func TestCreateOrderPrepaidMarksPaid(t *testing.T) {
	sellerID := uuid.New()
	bottle := newProduct(sellerID, "Steel Bottle", "100.00", 5)
	buyer := newBuyer("asha")

	fx := newOrderFixture(newFakeProducts(bottle), newFakeUsers(buyer))

	order, err := fx.svc.Create(context.Background(), buyer.ID, CreateOrderRequest{
		Items:           []OrderItemInput{{ProductID: bottle.ID, Quantity: 1}},
		PaymentMethod:   "upi",
		ShippingAddress: testAddress(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !order.IsPaid || order.PaidAt == nil {
		t.Fatalf("expected upi order paid at creation")
	}
}

func TestCreateOrderUnknownProductFailsWholeOrder(t *testing.T) {
	sellerID := uuid.New()
	bottle := newProduct(sellerID, "Steel Bottle", "100.00", 5)
	buyer := newBuyer("ravi")

	fx := newOrderFixture(newFakeProducts(bottle), newFakeUsers(buyer))

	_, err := fx.svc.Create(context.Background(), buyer.ID, CreateOrderRequest{
		Items: []OrderItemInput{
			{ProductID: uuid.New(), Quantity: 1},
			{ProductID: bottle.ID, Quantity: 1},
		},
		PaymentMethod:   "cod",
		ShippingAddress: testAddress(),
	})
	expectCode(t, err, pkgerrors.CodeNotFound)

	if len(fx.repo.orders) != 0 {
		t.Fatalf("expected no order persisted")
	}
	if len(fx.notifications.rows) != 0 {
		t.Fatalf("expected no notifications on failure")
	}
}

func TestCreateOrderDoesNotReserveStock(t *testing.T) {
	sellerID := uuid.New()
	bottle := newProduct(sellerID, "Steel Bottle", "100.00", 1)
	buyer := newBuyer("ravi")

	fx := newOrderFixture(newFakeProducts(bottle), newFakeUsers(buyer))

	// Quantity above the listed stock still checks out; stock is never
	// read or reserved during order creation.
	order, err := fx.svc.Create(context.Background(), buyer.ID, CreateOrderRequest{
		Items:           []OrderItemInput{{ProductID: bottle.ID, Quantity: 3}},
		PaymentMethod:   "cod",
		ShippingAddress: testAddress(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !order.TotalPrice.Equal(decimal.RequireFromString("300.00")) {
		t.Fatalf("expected total 300.00 got %s", order.TotalPrice)
	}
	if fx.products.products[bottle.ID].Stock != 1 {
		t.Fatalf("stock must be untouched, got %d", fx.products.products[bottle.ID].Stock)
	}
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	buyer := newBuyer("ravi")
	fx := newOrderFixture(newFakeProducts(), newFakeUsers(buyer))

	_, err := fx.svc.Create(context.Background(), buyer.ID, CreateOrderRequest{
		PaymentMethod:   "cod",
		ShippingAddress: testAddress(),
	})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = fx.svc.Create(context.Background(), buyer.ID, CreateOrderRequest{
		Items:           []OrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
		PaymentMethod:   "cheque",
		ShippingAddress: testAddress(),
	})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = fx.svc.Create(context.Background(), buyer.ID, CreateOrderRequest{
		Items:         []OrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
		PaymentMethod: "cod",
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func seedOrder(t *testing.T, fx *orderFixture, buyerID uuid.UUID, productIDs ...uuid.UUID) *OrderDTO {
	t.Helper()
	items := make([]OrderItemInput, 0, len(productIDs))
	for _, id := range productIDs {
		items = append(items, OrderItemInput{ProductID: id, Quantity: 1})
	}
	order, err := fx.svc.Create(context.Background(), buyerID, CreateOrderRequest{
		Items:           items,
		PaymentMethod:   "cod",
		ShippingAddress: testAddress(),
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func TestShipRequiresConfirmed(t *testing.T) {
	sellerID := uuid.New()
	bottle := newProduct(sellerID, "Steel Bottle", "100.00", 5)
	buyer := newBuyer("ravi")
	fx := newOrderFixture(newFakeProducts(bottle), newFakeUsers(buyer))
	order := seedOrder(t, fx, buyer.ID, bottle.ID)

	_, err := fx.svc.Transition(context.Background(), Actor{UserID: sellerID, Role: enums.UserRoleSeller}, TransitionInput{
		OrderID:   order.ID,
		ItemIndex: 0,
		Target:    enums.LineItemStatusShipped,
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)

	stored, _ := fx.repo.FindByID(context.Background(), order.ID)
	if stored.Items[0].Status != enums.LineItemStatusPending {
		t.Fatalf("failed ship must leave item pending, got %s", stored.Items[0].Status)
	}
}

func TestConfirmThenShip(t *testing.T) {
	sellerID := uuid.New()
	bottle := newProduct(sellerID, "Steel Bottle", "100.00", 5)
	buyer := newBuyer("ravi")
	fx := newOrderFixture(newFakeProducts(bottle), newFakeUsers(buyer))
	order := seedOrder(t, fx, buyer.ID, bottle.ID)
	seller := Actor{UserID: sellerID, Role: enums.UserRoleSeller}

	updated, err := fx.svc.Transition(context.Background(), seller, TransitionInput{
		OrderID: order.ID, ItemIndex: 0, Target: enums.LineItemStatusConfirmed,
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if updated.Items[0].Status != enums.LineItemStatusConfirmed || updated.Items[0].ConfirmedAt == nil {
		t.Fatalf("expected confirmed item with timestamp")
	}

	updated, err = fx.svc.Transition(context.Background(), seller, TransitionInput{
		OrderID: order.ID, ItemIndex: 0, Target: enums.LineItemStatusShipped,
	})
	if err != nil {
		t.Fatalf("ship: %v", err)
	}
	if updated.Items[0].Status != enums.LineItemStatusShipped || updated.Items[0].ShippedAt == nil {
		t.Fatalf("expected shipped item with timestamp")
	}

	if len(fx.outbox.byType(enums.EventLineItemStateChanged)) != 2 {
		t.Fatalf("expected a line item event per transition")
	}
}

func TestForeignSellerCannotTransition(t *testing.T) {
	sellerID := uuid.New()
	bottle := newProduct(sellerID, "Steel Bottle", "100.00", 5)
	buyer := newBuyer("ravi")
	fx := newOrderFixture(newFakeProducts(bottle), newFakeUsers(buyer))
	order := seedOrder(t, fx, buyer.ID, bottle.ID)

	_, err := fx.svc.Transition(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleSeller}, TransitionInput{
		OrderID: order.ID, ItemIndex: 0, Target: enums.LineItemStatusConfirmed,
	})
	expectCode(t, err, pkgerrors.CodeForbidden)

	stored, _ := fx.repo.FindByID(context.Background(), order.ID)
	if stored.Items[0].Status != enums.LineItemStatusPending {
		t.Fatalf("foreign seller must not change status, got %s", stored.Items[0].Status)
	}
	if len(fx.outbox.byType(enums.EventLineItemStateChanged)) != 0 {
		t.Fatalf("denied transition must not emit events")
	}
}

func TestBuyerCanCancelPendingItem(t *testing.T) {
	sellerID := uuid.New()
	bottle := newProduct(sellerID, "Steel Bottle", "100.00", 5)
	buyer := newBuyer("ravi")
	fx := newOrderFixture(newFakeProducts(bottle), newFakeUsers(buyer))
	order := seedOrder(t, fx, buyer.ID, bottle.ID)

	updated, err := fx.svc.Transition(context.Background(), Actor{UserID: buyer.ID, Role: enums.UserRoleBuyer}, TransitionInput{
		OrderID: order.ID, ItemIndex: 0, Target: enums.LineItemStatusCancelled,
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if updated.Items[0].Status != enums.LineItemStatusCancelled {
		t.Fatalf("expected cancelled item")
	}
	if updated.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected all-cancelled order to aggregate to cancelled, got %s", updated.Status)
	}
}

func TestBuyerCannotConfirm(t *testing.T) {
	sellerID := uuid.New()
	bottle := newProduct(sellerID, "Steel Bottle", "100.00", 5)
	buyer := newBuyer("ravi")
	fx := newOrderFixture(newFakeProducts(bottle), newFakeUsers(buyer))
	order := seedOrder(t, fx, buyer.ID, bottle.ID)

	_, err := fx.svc.Transition(context.Background(), Actor{UserID: buyer.ID, Role: enums.UserRoleBuyer}, TransitionInput{
		OrderID: order.ID, ItemIndex: 0, Target: enums.LineItemStatusConfirmed,
	})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestCancelConfirmedItemFails(t *testing.T) {
	sellerID := uuid.New()
	bottle := newProduct(sellerID, "Steel Bottle", "100.00", 5)
	buyer := newBuyer("ravi")
	fx := newOrderFixture(newFakeProducts(bottle), newFakeUsers(buyer))
	order := seedOrder(t, fx, buyer.ID, bottle.ID)
	seller := Actor{UserID: sellerID, Role: enums.UserRoleSeller}

	if _, err := fx.svc.Transition(context.Background(), seller, TransitionInput{
		OrderID: order.ID, ItemIndex: 0, Target: enums.LineItemStatusConfirmed,
	}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	_, err := fx.svc.Transition(context.Background(), Actor{UserID: buyer.ID, Role: enums.UserRoleBuyer}, TransitionInput{
		OrderID: order.ID, ItemIndex: 0, Target: enums.LineItemStatusCancelled,
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestAggregateStatusFollowsItems(t *testing.T) {
	sellerA := uuid.New()
	sellerB := uuid.New()
	bottle := newProduct(sellerA, "Steel Bottle", "100.00", 5)
	scarf := newProduct(sellerB, "Cotton Scarf", "150.00", 5)
	buyer := newBuyer("ravi")
	fx := newOrderFixture(newFakeProducts(bottle, scarf), newFakeUsers(buyer))
	order := seedOrder(t, fx, buyer.ID, bottle.ID, scarf.ID)

	actorA := Actor{UserID: sellerA, Role: enums.UserRoleSeller}
	actorB := Actor{UserID: sellerB, Role: enums.UserRoleSeller}
	ctx := context.Background()

	step := func(actor Actor, index int, target enums.LineItemStatus) *OrderDTO {
		t.Helper()
		updated, err := fx.svc.Transition(ctx, actor, TransitionInput{OrderID: order.ID, ItemIndex: index, Target: target})
		if err != nil {
			t.Fatalf("transition %s item %d: %v", target, index, err)
		}
		return updated
	}

	updated := step(actorA, 0, enums.LineItemStatusConfirmed)
	if updated.Status != enums.OrderStatusPending {
		t.Fatalf("one pending item must keep order pending, got %s", updated.Status)
	}

	updated = step(actorB, 1, enums.LineItemStatusConfirmed)
	if updated.Status != enums.OrderStatusConfirmed {
		t.Fatalf("all-confirmed order should aggregate to confirmed, got %s", updated.Status)
	}

	updated = step(actorA, 0, enums.LineItemStatusShipped)
	if updated.Status != enums.OrderStatusConfirmed {
		t.Fatalf("mixed shipped/confirmed stays confirmed, got %s", updated.Status)
	}

	updated = step(actorB, 1, enums.LineItemStatusShipped)
	if updated.Status != enums.OrderStatusShipped {
		t.Fatalf("all items shipped must aggregate to shipped, got %s", updated.Status)
	}

	updated = step(actorA, 0, enums.LineItemStatusDelivered)
	if updated.Status != enums.OrderStatusShipped {
		t.Fatalf("shipped+delivered mix stays shipped, got %s", updated.Status)
	}

	updated = step(actorB, 1, enums.LineItemStatusDelivered)
	if updated.Status != enums.OrderStatusDelivered {
		t.Fatalf("all delivered must aggregate to delivered, got %s", updated.Status)
	}

	stateChanges := fx.outbox.byType(enums.EventOrderStateChanged)
	if len(stateChanges) != 3 {
		t.Fatalf("expected order_state_changed on confirmed, shipped, delivered; got %d", len(stateChanges))
	}
}

func TestDeliveredIgnoresCancelledItems(t *testing.T) {
	sellerA := uuid.New()
	sellerB := uuid.New()
	bottle := newProduct(sellerA, "Steel Bottle", "100.00", 5)
	scarf := newProduct(sellerB, "Cotton Scarf", "150.00", 5)
	buyer := newBuyer("ravi")
	fx := newOrderFixture(newFakeProducts(bottle, scarf), newFakeUsers(buyer))
	order := seedOrder(t, fx, buyer.ID, bottle.ID, scarf.ID)

	ctx := context.Background()
	actorA := Actor{UserID: sellerA, Role: enums.UserRoleSeller}
	actorB := Actor{UserID: sellerB, Role: enums.UserRoleSeller}

	if _, err := fx.svc.Transition(ctx, actorB, TransitionInput{OrderID: order.ID, ItemIndex: 1, Target: enums.LineItemStatusCancelled}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	for _, target := range []enums.LineItemStatus{
		enums.LineItemStatusConfirmed,
		enums.LineItemStatusShipped,
		enums.LineItemStatusDelivered,
	} {
		if _, err := fx.svc.Transition(ctx, actorA, TransitionInput{OrderID: order.ID, ItemIndex: 0, Target: target}); err != nil {
			t.Fatalf("transition %s: %v", target, err)
		}
	}

	stored, _ := fx.repo.FindByID(ctx, order.ID)
	if stored.Status != enums.OrderStatusDelivered {
		t.Fatalf("cancelled items must not block delivered aggregate, got %s", stored.Status)
	}
}

func TestTransitionUnknownItemIndex(t *testing.T) {
	sellerID := uuid.New()
	bottle := newProduct(sellerID, "Steel Bottle", "100.00", 5)
	buyer := newBuyer("ravi")
	fx := newOrderFixture(newFakeProducts(bottle), newFakeUsers(buyer))
	order := seedOrder(t, fx, buyer.ID, bottle.ID)

	_, err := fx.svc.Transition(context.Background(), Actor{UserID: sellerID, Role: enums.UserRoleSeller}, TransitionInput{
		OrderID: order.ID, ItemIndex: 5, Target: enums.LineItemStatusConfirmed,
	})
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestGetEnforcesOwnership(t *testing.T) {
	sellerID := uuid.New()
	bottle := newProduct(sellerID, "Steel Bottle", "100.00", 5)
	buyer := newBuyer("ravi")
	fx := newOrderFixture(newFakeProducts(bottle), newFakeUsers(buyer))
	order := seedOrder(t, fx, buyer.ID, bottle.ID)
	ctx := context.Background()

	if _, err := fx.svc.Get(ctx, Actor{UserID: buyer.ID, Role: enums.UserRoleBuyer}, order.ID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := fx.svc.Get(ctx, Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}, order.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}

	_, err := fx.svc.Get(ctx, Actor{UserID: uuid.New(), Role: enums.UserRoleBuyer}, order.ID)
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestForcePaymentStatus(t *testing.T) {
	sellerID := uuid.New()
	bottle := newProduct(sellerID, "Steel Bottle", "100.00", 5)
	buyer := newBuyer("ravi")
	fx := newOrderFixture(newFakeProducts(bottle), newFakeUsers(buyer))
	order := seedOrder(t, fx, buyer.ID, bottle.ID)

	updated, err := fx.svc.ForcePaymentStatus(context.Background(), order.ID, true)
	if err != nil {
		t.Fatalf("force payment: %v", err)
	}
	if !updated.IsPaid || updated.PaidAt == nil {
		t.Fatalf("expected order forced to paid")
	}

	updated, err = fx.svc.ForcePaymentStatus(context.Background(), order.ID, false)
	if err != nil {
		t.Fatalf("force unpaid: %v", err)
	}
	if updated.IsPaid || updated.PaidAt != nil {
		t.Fatalf("expected order forced to unpaid")
	}

	_, err = fx.svc.ForcePaymentStatus(context.Background(), uuid.New(), true)
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestRecomputeOrderStatusTable(t *testing.T) {
	mk := func(statuses ...enums.LineItemStatus) []models.OrderLineItem {
		items := make([]models.OrderLineItem, 0, len(statuses))
		for _, status := range statuses {
			items = append(items, models.OrderLineItem{Status: status})
		}
		return items
	}

	cases := []struct {
		name     string
		items    []models.OrderLineItem
		expected enums.OrderStatus
	}{
		{"all pending", mk(enums.LineItemStatusPending, enums.LineItemStatusPending), enums.OrderStatusPending},
		{"pending and confirmed", mk(enums.LineItemStatusPending, enums.LineItemStatusConfirmed), enums.OrderStatusPending},
		{"all confirmed", mk(enums.LineItemStatusConfirmed, enums.LineItemStatusConfirmed), enums.OrderStatusConfirmed},
		{"confirmed and shipped", mk(enums.LineItemStatusConfirmed, enums.LineItemStatusShipped), enums.OrderStatusConfirmed},
		{"all shipped", mk(enums.LineItemStatusShipped, enums.LineItemStatusShipped), enums.OrderStatusShipped},
		{"shipped and delivered", mk(enums.LineItemStatusShipped, enums.LineItemStatusDelivered), enums.OrderStatusShipped},
		{"all delivered", mk(enums.LineItemStatusDelivered, enums.LineItemStatusDelivered), enums.OrderStatusDelivered},
		{"delivered with cancelled", mk(enums.LineItemStatusDelivered, enums.LineItemStatusCancelled), enums.OrderStatusDelivered},
		{"all cancelled", mk(enums.LineItemStatusCancelled, enums.LineItemStatusCancelled), enums.OrderStatusCancelled},
		{"cancelled with pending", mk(enums.LineItemStatusCancelled, enums.LineItemStatusPending), enums.OrderStatusPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := recomputeOrderStatus(tc.items); got != tc.expected {
				t.Fatalf("expected %s got %s", tc.expected, got)
			}
		})
	}
}
