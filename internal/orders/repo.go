package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Samyy-Momin/onefooddialer/pkg/db/models"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	"github.com/Samyy-Momin/onefooddialer/pkg/pagination"
)

// ListFilter narrows order list queries; always tenant-scoped.
type ListFilter struct {
	BusinessID     uuid.UUID
	CustomerID     *uuid.UUID
	KitchenID      *uuid.UUID
	SubscriptionID *uuid.UUID
	Status         *enums.OrderStatus
	FromDate       *time.Time
	ToDate         *time.Time
	Page           pagination.Params
}

// Repository persists orders and the rows the lifecycle transitions touch.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, businessID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error)
	Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	FindCustomer(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error)
	FindMenuItems(ctx context.Context, businessID uuid.UUID, ids []uuid.UUID) ([]models.MenuItem, error)
	FindKitchen(ctx context.Context, businessID, kitchenID uuid.UUID) (*models.Kitchen, error)
	FindBusiestKitchen(ctx context.Context, businessID uuid.UUID) (*models.Kitchen, error)
	FindInvoiceByOrder(ctx context.Context, businessID, orderID uuid.UUID) (*models.Invoice, error)
	UpdateInvoice(ctx context.Context, invoiceID uuid.UUID, updates map[string]any) error
	AddCustomerLoyaltyPoints(ctx context.Context, customerID uuid.UUID, points int) error
	FindInventoryByMenuItem(ctx context.Context, businessID, menuItemID uuid.UUID, kitchenID *uuid.UUID) (*models.InventoryItem, error)
	AdjustInventory(ctx context.Context, inventoryItemID uuid.UUID, delta int) error
	CreateStockMovement(ctx context.Context, movement *models.StockMovement) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, businessID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND business_id = ?", orderID, businessID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error) {
	page := filter.Page.Normalize()

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("business_id = ?", filter.BusinessID)
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.KitchenID != nil {
		query = query.Where("kitchen_id = ?", *filter.KitchenID)
	}
	if filter.SubscriptionID != nil {
		query = query.Where("subscription_id = ?", *filter.SubscriptionID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("scheduled_for >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("scheduled_for <= ?", *filter.ToDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := query.
		Preload("Items").
		Order("scheduled_for DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *repository) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) FindCustomer(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ?", customerID, businessID).
		First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindMenuItems(ctx context.Context, businessID uuid.UUID, ids []uuid.UUID) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := r.db.WithContext(ctx).
		Where("business_id = ? AND id IN ?", businessID, ids).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindKitchen(ctx context.Context, businessID, kitchenID uuid.UUID) (*models.Kitchen, error) {
	var kitchen models.Kitchen
	if err := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ? AND is_active = ?", kitchenID, businessID, true).
		First(&kitchen).Error; err != nil {
		return nil, err
	}
	return &kitchen, nil
}

func (r *repository) FindBusiestKitchen(ctx context.Context, businessID uuid.UUID) (*models.Kitchen, error) {
	var kitchen models.Kitchen
	if err := r.db.WithContext(ctx).
		Where("business_id = ? AND is_active = ?", businessID, true).
		Order("capacity DESC").
		First(&kitchen).Error; err != nil {
		return nil, err
	}
	return &kitchen, nil
}

func (r *repository) FindInvoiceByOrder(ctx context.Context, businessID, orderID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).
		Where("business_id = ? AND order_id = ?", businessID, orderID).
		First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) UpdateInvoice(ctx context.Context, invoiceID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", invoiceID).
		Updates(updates).Error
}

func (r *repository) AddCustomerLoyaltyPoints(ctx context.Context, customerID uuid.UUID, points int) error {
	if points <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		Update("loyalty_points", gorm.Expr("loyalty_points + ?", points)).Error
}

func (r *repository) FindInventoryByMenuItem(ctx context.Context, businessID, menuItemID uuid.UUID, kitchenID *uuid.UUID) (*models.InventoryItem, error) {
	query := r.db.WithContext(ctx).
		Where("business_id = ? AND menu_item_id = ?", businessID, menuItemID)
	if kitchenID != nil {
		query = query.Where("kitchen_id = ?", *kitchenID)
	}
	var item models.InventoryItem
	if err := query.First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) AdjustInventory(ctx context.Context, inventoryItemID uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ?", inventoryItemID).
		Update("quantity", gorm.Expr("quantity + ?", delta)).Error
}

func (r *repository) CreateStockMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}
