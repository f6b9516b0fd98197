package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopmandi/shopmandi-backend/internal/notifications"
	product "github.com/shopmandi/shopmandi-backend/internal/products"
	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	"github.com/shopmandi/shopmandi-backend/pkg/enums"
	pkgerrors "github.com/shopmandi/shopmandi-backend/pkg/errors"
	"github.com/shopmandi/shopmandi-backend/pkg/outbox"
	"github.com/shopmandi/shopmandi-backend/pkg/outbox/payloads"
	"github.com/shopmandi/shopmandi-backend/pkg/pagination"
)

// Service defines checkout, fulfillment, and order query operations.
type Service interface {
	Create(ctx context.Context, buyerID uuid.UUID, req CreateOrderRequest) (*OrderDTO, error)
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error)
	ListMine(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderListResult, error)
	ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*OrderListResult, error)
	ListAll(ctx context.Context, params pagination.Params) (*OrderListResult, error)
	Transition(ctx context.Context, actor Actor, input TransitionInput) (*OrderDTO, error)
	ForcePaymentStatus(ctx context.Context, orderID uuid.UUID, isPaid bool) (*OrderDTO, error)
}

// Actor identifies the authenticated caller for permission checks.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// TransitionInput addresses one line item by its position in the order.
type TransitionInput struct {
	OrderID   uuid.UUID
	ItemIndex int
	Target    enums.LineItemStatus
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ordersRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByBuyer(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	ListAll(ctx context.Context, params pagination.Params) ([]models.Order, string, error)
	UpdateLineItemStatus(ctx context.Context, itemID uuid.UUID, status enums.LineItemStatus, now time.Time) error
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	UpdatePayment(ctx context.Context, orderID uuid.UUID, isPaid bool, paidAt *time.Time) error
}

type productStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type notificationWriter interface {
	CreateBatch(ctx context.Context, rows []models.Notification) error
}

type buyerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type service struct {
	repo   ordersRepository
	tx     txRunner
	outbox outboxPublisher
	users  buyerLoader

	repoForTx          func(tx *gorm.DB) ordersRepository
	productsForTx      func(tx *gorm.DB) productStore
	notificationsForTx func(tx *gorm.DB) notificationWriter
}

// ServiceParams bundles the order service dependencies. The factory fields
// default to the real repositories and only exist for test injection.
type ServiceParams struct {
	Repo   ordersRepository
	Tx     txRunner
	Outbox outboxPublisher
	Users  buyerLoader

	RepoFactory         func(tx *gorm.DB) ordersRepository
	ProductFactory      func(tx *gorm.DB) productStore
	NotificationFactory func(tx *gorm.DB) notificationWriter
}

// NewService constructs the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}

	svc := &service{
		repo:               params.Repo,
		tx:                 params.Tx,
		outbox:             params.Outbox,
		users:              params.Users,
		repoForTx:          params.RepoFactory,
		productsForTx:      params.ProductFactory,
		notificationsForTx: params.NotificationFactory,
	}
	if svc.repoForTx == nil {
		svc.repoForTx = func(tx *gorm.DB) ordersRepository {
			return NewRepository(tx)
		}
	}
	if svc.productsForTx == nil {
		svc.productsForTx = func(tx *gorm.DB) productStore {
			return product.NewRepository(tx)
		}
	}
	if svc.notificationsForTx == nil {
		svc.notificationsForTx = func(tx *gorm.DB) notificationWriter {
			return notifications.NewRepository(tx)
		}
	}
	return svc, nil
}

func (s *service) Create(ctx context.Context, buyerID uuid.UUID, req CreateOrderRequest) (*OrderDTO, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}
	method, err := enums.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if !req.ShippingAddress.Validate() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete")
	}
	if req.TaxPrice.IsNegative() || req.ShippingPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax and shipping must not be negative")
	}

	buyer, err := s.users.FindByID(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load buyer")
	}

	now := time.Now().UTC()
	order := &models.Order{
		UserID:          buyerID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   method,
		TaxPrice:        req.TaxPrice,
		ShippingPrice:   req.ShippingPrice,
		Status:          enums.OrderStatusPending,
	}
	if method.PaidAtCreation() {
		order.IsPaid = true
		order.PaidAt = &now
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productsRepo := s.productsForTx(tx)

		// Line items snapshot the product's name, image, price, and seller
		// at checkout. Stock is informational and never reserved.
		itemsPrice := decimal.Zero
		lineItems := make([]models.OrderLineItem, 0, len(req.Items))
		for i, requested := range req.Items {
			p, err := productsRepo.FindByID(ctx, requested.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", requested.ProductID))
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
			}

			image := ""
			if len(p.ImageURLs) > 0 {
				image = p.ImageURLs[0]
			}
			lineItems = append(lineItems, models.OrderLineItem{
				ProductID: p.ID,
				SellerID:  p.SellerID,
				Position:  i,
				Name:      p.Name,
				Image:     image,
				Price:     p.Price,
				Qty:       requested.Quantity,
				Status:    enums.LineItemStatusPending,
			})
			itemsPrice = itemsPrice.Add(p.Price.Mul(decimal.NewFromInt(int64(requested.Quantity))))
		}

		order.ItemsPrice = itemsPrice
		order.TotalPrice = itemsPrice.Add(order.TaxPrice).Add(order.ShippingPrice)
		order.Items = lineItems

		if err := s.repoForTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		fanout := notifications.BuildOrderPlaced(notifications.OrderPlacedInput{
			OrderID:    order.ID,
			BuyerName:  buyer.Name,
			BuyerEmail: buyer.Email,
			Items:      order.Items,
		})
		if err := s.notificationsForTx(tx).CreateBatch(ctx, fanout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create seller notifications")
		}

		event := payloads.OrderCreatedEvent{
			OrderID:    order.ID,
			BuyerID:    buyerID,
			SellerIDs:  distinctSellers(order.Items),
			ItemCount:  len(order.Items),
			TotalPrice: order.TotalPrice.StringFixed(2),
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: buyerID, Role: string(buyer.Role)},
			Data:          event,
			Version:       1,
			OccurredAt:    now,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.load(ctx, order.ID)
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role != enums.UserRoleAdmin && order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return fromModel(order), nil
}

func (s *service) ListMine(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderListResult, error) {
	rows, nextCursor, err := s.repo.ListByBuyer(ctx, buyerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return buildListResult(rows, nextCursor), nil
}

func (s *service) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*OrderListResult, error) {
	rows, nextCursor, err := s.repo.ListBySeller(ctx, sellerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list seller orders")
	}
	return buildListResult(rows, nextCursor), nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params) (*OrderListResult, error) {
	rows, nextCursor, err := s.repo.ListAll(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list all orders")
	}
	return buildListResult(rows, nextCursor), nil
}

func (s *service) Transition(ctx context.Context, actor Actor, input TransitionInput) (*OrderDTO, error) {
	if !input.Target.IsValid() || input.Target == enums.LineItemStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown target status")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repoForTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		if input.ItemIndex < 0 || input.ItemIndex >= len(order.Items) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
		}
		item := order.Items[input.ItemIndex]

		if err := checkTransitionPermission(actor, order, item, input.Target); err != nil {
			return err
		}
		if !item.Status.CanTransitionTo(input.Target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move item from %s to %s", item.Status, input.Target))
		}

		now := time.Now().UTC()
		if err := repo.UpdateLineItemStatus(ctx, item.ID, input.Target, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update line item")
		}

		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLineItemStateChanged,
			AggregateType: enums.AggregateLineItem,
			AggregateID:   item.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
			Data: payloads.LineItemStateChangedEvent{
				OrderID:     order.ID,
				LineItemID:  item.ID,
				SellerID:    item.SellerID,
				ProductName: item.Name,
				Qty:         item.Qty,
				Status:      input.Target,
				OccurredAt:  now,
			},
			Version:    1,
			OccurredAt: now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit line item event")
		}

		order.Items[input.ItemIndex].Status = input.Target
		next := recomputeOrderStatus(order.Items)
		if next == order.Status {
			return nil
		}
		if err := repo.UpdateOrderStatus(ctx, order.ID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStateChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
			Data: payloads.OrderStateChangedEvent{
				OrderID: order.ID,
				BuyerID: order.UserID,
				Status:  next,
			},
			Version:    1,
			OccurredAt: now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.load(ctx, input.OrderID)
}

func (s *service) ForcePaymentStatus(ctx context.Context, orderID uuid.UUID, isPaid bool) (*OrderDTO, error) {
	var paidAt *time.Time
	if isPaid {
		now := time.Now().UTC()
		paidAt = &now
	}
	if err := s.repo.UpdatePayment(ctx, orderID, isPaid, paidAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update payment status")
	}
	return s.load(ctx, orderID)
}

func (s *service) find(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return fromModel(order), nil
}

// checkTransitionPermission enforces who may move a line item. Fulfillment
// transitions belong to the item's seller; cancellation is open to the buyer
// as well while the item is still pending.
func checkTransitionPermission(actor Actor, order *models.Order, item models.OrderLineItem, target enums.LineItemStatus) error {
	if item.SellerID == actor.UserID {
		return nil
	}
	if target == enums.LineItemStatusCancelled && order.UserID == actor.UserID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "line item belongs to another seller")
}

// recomputeOrderStatus derives the aggregate status from every line item.
// Called after each item mutation so delivered and cancelled aggregates are
// reachable, not just shipped.
func recomputeOrderStatus(items []models.OrderLineItem) enums.OrderStatus {
	if len(items) == 0 {
		return enums.OrderStatusPending
	}

	active := 0
	delivered := 0
	shippedOrBeyond := 0
	confirmed := 0
	pending := 0
	for _, item := range items {
		if item.Status == enums.LineItemStatusCancelled {
			continue
		}
		active++
		switch item.Status {
		case enums.LineItemStatusDelivered:
			delivered++
			shippedOrBeyond++
		case enums.LineItemStatusShipped:
			shippedOrBeyond++
		case enums.LineItemStatusConfirmed:
			confirmed++
		case enums.LineItemStatusPending:
			pending++
		}
	}

	switch {
	case active == 0:
		return enums.OrderStatusCancelled
	case delivered == active:
		return enums.OrderStatusDelivered
	case shippedOrBeyond == active:
		return enums.OrderStatusShipped
	case pending == 0 && confirmed > 0:
		return enums.OrderStatusConfirmed
	default:
		return enums.OrderStatusPending
	}
}

func distinctSellers(items []models.OrderLineItem) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	sellers := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.SellerID]; ok {
			continue
		}
		seen[item.SellerID] = struct{}{}
		sellers = append(sellers, item.SellerID)
	}
	return sellers
}

func buildListResult(rows []models.Order, nextCursor string) *OrderListResult {
	dtos := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *fromModel(&rows[i]))
	}
	return &OrderListResult{Orders: dtos, NextCursor: nextCursor}
}
