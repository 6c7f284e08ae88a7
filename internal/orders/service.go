package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Samyy-Momin/onefooddialer/internal/wallet"
	"github.com/Samyy-Momin/onefooddialer/pkg/codes"
	"github.com/Samyy-Momin/onefooddialer/pkg/db/models"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
	"github.com/Samyy-Momin/onefooddialer/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ledger is the wallet surface order settlement and refunds need.
type ledger interface {
	Apply(ctx context.Context, tx *gorm.DB, input wallet.EntryInput) (*models.WalletTransaction, error)
}

// ItemInput is one requested order line.
type ItemInput struct {
	MenuItemID uuid.UUID `json:"menuItemId"`
	Quantity   int       `json:"quantity"`
}

// CreateInput describes a direct order outside any subscription.
type CreateInput struct {
	BusinessID           uuid.UUID
	CustomerID           uuid.UUID
	KitchenID            *uuid.UUID
	Type                 enums.OrderType
	ScheduledFor         *time.Time
	Items                []ItemInput
	DeliveryAddress      *string
	DeliveryInstructions *string
}

// StatusInput moves an order through the delivery pipeline.
type StatusInput struct {
	BusinessID uuid.UUID
	OrderID    uuid.UUID
	Status     enums.OrderStatus
}

// ListResult is the paginated order collection.
type ListResult struct {
	Orders     []models.Order   `json:"orders"`
	Pagination types.Pagination `json:"pagination"`
}

// Service manages the order lifecycle. Status transitions follow a strict
// forward pipeline; delivery settles the linked invoice and cancellation
// compensates whatever the order already consumed.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, businessID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	UpdateStatus(ctx context.Context, input StatusInput) (*models.Order, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	ledger ledger
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires the order lifecycle service with its collaborators.
func NewService(repo Repository, tx txRunner, ledger ledger, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("wallet ledger required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		ledger: ledger,
		logg:   logg,
		now:    time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if input.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	orderType := input.Type
	if orderType == "" {
		orderType = enums.OrderTypeOneTime
	}
	if !orderType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order type %q", orderType))
	}
	if orderType == enums.OrderTypeSubscription {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription orders are materialized from the subscription, not created directly")
	}
	for i, item := range input.Items {
		if item.MenuItemID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: menu item id required", i))
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be positive", i))
		}
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		customer, err := repo.FindCustomer(ctx, input.BusinessID, input.CustomerID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}

		ids := make([]uuid.UUID, 0, len(input.Items))
		for _, item := range input.Items {
			ids = append(ids, item.MenuItemID)
		}
		menuItems, err := repo.FindMenuItems(ctx, input.BusinessID, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu items")
		}
		byID := make(map[uuid.UUID]models.MenuItem, len(menuItems))
		for _, item := range menuItems {
			byID[item.ID] = item
		}

		subtotal := decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(input.Items))
		for i, item := range input.Items {
			menuItem, ok := byID[item.MenuItemID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("item %d: menu item not found", i))
			}
			if !menuItem.IsAvailable {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: %s is not available", i, menuItem.Name))
			}
			lineTotal := menuItem.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			orderItems = append(orderItems, models.OrderItem{
				MenuItemID: menuItem.ID,
				Quantity:   item.Quantity,
				UnitPrice:  menuItem.Price,
				TotalPrice: lineTotal,
			})
			subtotal = subtotal.Add(lineTotal)
		}
		subtotal = subtotal.Round(2)

		kitchenID, err := s.resolveKitchen(ctx, repo, input.BusinessID, input.KitchenID)
		if err != nil {
			return err
		}

		scheduledFor := s.now()
		if input.ScheduledFor != nil {
			scheduledFor = *input.ScheduledFor
		}
		address := input.DeliveryAddress
		if address == nil {
			address = customer.Address
		}

		order = &models.Order{
			BusinessID:           input.BusinessID,
			CustomerID:           input.CustomerID,
			KitchenID:            kitchenID,
			OrderNumber:          codes.OrderNumber(),
			Type:                 orderType,
			Status:               enums.OrderStatusPending,
			ScheduledFor:         scheduledFor,
			TotalAmount:          subtotal,
			FinalAmount:          subtotal,
			DeliveryAddress:      address,
			DeliveryInstructions: input.DeliveryInstructions,
			Items:                orderItems,
		}
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) resolveKitchen(ctx context.Context, repo Repository, businessID uuid.UUID, requested *uuid.UUID) (*uuid.UUID, error) {
	if requested != nil {
		kitchen, err := repo.FindKitchen(ctx, businessID, *requested)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "kitchen not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load kitchen")
		}
		return &kitchen.ID, nil
	}
	kitchen, err := repo.FindBusiestKitchen(ctx, businessID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			s.logg.Warn(ctx, "no active kitchen available for auto-assignment")
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "auto-assign kitchen")
	}
	return &kitchen.ID, nil
}

func (s *service) Get(ctx context.Context, businessID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, businessID, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *filter.Status))
	}
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &ListResult{
		Orders:     orders,
		Pagination: filter.Page.Meta(total),
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, input StatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", input.Status))
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.BusinessID, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !order.Status.CanTransitionTo(input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order cannot move from %s to %s", order.Status, input.Status))
		}

		now := s.now()
		updates := map[string]any{"status": input.Status}

		switch input.Status {
		case enums.OrderStatusPreparing:
			if err := s.consumeInventory(ctx, repo, order, now); err != nil {
				return err
			}

		case enums.OrderStatusReady:
			updates["prepared_at"] = now
			order.PreparedAt = &now

		case enums.OrderStatusDelivered:
			updates["delivered_at"] = now
			order.DeliveredAt = &now
			if err := s.settleInvoice(ctx, tx, repo, order, now); err != nil {
				return err
			}
			points := int(order.FinalAmount.Div(decimal.NewFromInt(100)).IntPart())
			if err := repo.AddCustomerLoyaltyPoints(ctx, order.CustomerID, points); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accrue loyalty points")
			}

		case enums.OrderStatusCancelled:
			updates["cancelled_at"] = now
			order.CancelledAt = &now
			if order.Status == enums.OrderStatusPreparing {
				if err := s.restoreInventory(ctx, repo, order, now); err != nil {
					return err
				}
			}
			if err := s.compensateInvoice(ctx, tx, repo, order, now); err != nil {
				return err
			}
		}

		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = input.Status
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// settleInvoice pays a still-open invoice linked to the order from the wallet
// when the order is delivered.
func (s *service) settleInvoice(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, now time.Time) error {
	invoice, err := repo.FindInvoiceByOrder(ctx, order.BusinessID, order.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order invoice")
	}
	if !invoice.Status.IsPayable() {
		return nil
	}

	reference := invoice.InvoiceNumber
	if _, err := s.ledger.Apply(ctx, tx, wallet.EntryInput{
		BusinessID:  invoice.BusinessID,
		CustomerID:  invoice.CustomerID,
		Type:        enums.WalletTransactionTypeDebit,
		Amount:      invoice.TotalAmount,
		Description: fmt.Sprintf("Payment for invoice %s", invoice.InvoiceNumber),
		Reference:   &reference,
	}); err != nil {
		return err
	}

	if err := repo.UpdateInvoice(ctx, invoice.ID, map[string]any{
		"status":         enums.InvoiceStatusPaid,
		"paid_at":        now,
		"payment_method": enums.PaymentMethodWallet,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark invoice paid")
	}
	return nil
}

// compensateInvoice reverses the money side of a cancelled order: a paid
// invoice is refunded to the wallet, an open one is voided. The refund
// returns what the order itself was worth, not the invoice total, since the
// invoice may bundle other charges.
func (s *service) compensateInvoice(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, now time.Time) error {
	invoice, err := repo.FindInvoiceByOrder(ctx, order.BusinessID, order.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order invoice")
	}

	switch {
	case invoice.Status == enums.InvoiceStatusPaid:
		reference := invoice.InvoiceNumber
		if _, err := s.ledger.Apply(ctx, tx, wallet.EntryInput{
			BusinessID:  invoice.BusinessID,
			CustomerID:  invoice.CustomerID,
			Type:        enums.WalletTransactionTypeRefund,
			Amount:      order.FinalAmount,
			Description: fmt.Sprintf("Refund for cancelled order %s", order.OrderNumber),
			Reference:   &reference,
		}); err != nil {
			return err
		}
		if err := repo.UpdateInvoice(ctx, invoice.ID, map[string]any{
			"status": enums.InvoiceStatusRefunded,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark invoice refunded")
		}

	case invoice.Status.IsPayable():
		if err := repo.UpdateInvoice(ctx, invoice.ID, map[string]any{
			"status": enums.InvoiceStatusCancelled,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void invoice")
		}
	}
	return nil
}

// consumeInventory deducts stock for every order line that has an inventory
// row. Lines without tracked stock are skipped with a warning.
func (s *service) consumeInventory(ctx context.Context, repo Repository, order *models.Order, now time.Time) error {
	return s.moveInventory(ctx, repo, order, enums.StockMovementTypeOut, "order preparation")
}

// restoreInventory writes the compensating movements when an order is
// cancelled after preparation started.
func (s *service) restoreInventory(ctx context.Context, repo Repository, order *models.Order, now time.Time) error {
	return s.moveInventory(ctx, repo, order, enums.StockMovementTypeIn, "order cancelled")
}

func (s *service) moveInventory(ctx context.Context, repo Repository, order *models.Order, movementType enums.StockMovementType, reason string) error {
	for _, item := range order.Items {
		inventory, err := repo.FindInventoryByMenuItem(ctx, order.BusinessID, item.MenuItemID, order.KitchenID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				s.logg.Warn(s.logg.WithField(ctx, "menu_item_id", item.MenuItemID.String()),
					"no inventory tracked for menu item, skipping stock movement")
				continue
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
		}

		delta := item.Quantity
		if movementType == enums.StockMovementTypeOut {
			delta = -delta
		}
		if err := repo.AdjustInventory(ctx, inventory.ID, delta); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust inventory")
		}

		movementReason := reason
		if err := repo.CreateStockMovement(ctx, &models.StockMovement{
			BusinessID:      order.BusinessID,
			InventoryItemID: inventory.ID,
			OrderID:         &order.ID,
			Type:            movementType,
			Quantity:        item.Quantity,
			Reason:          &movementReason,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
		}
	}
	return nil
}
