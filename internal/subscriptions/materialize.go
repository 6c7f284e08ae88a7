package subscriptions

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Samyy-Momin/onefooddialer/internal/billing"
	"github.com/Samyy-Momin/onefooddialer/pkg/codes"
	"github.com/Samyy-Momin/onefooddialer/pkg/db/models"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
)

// materializeOrders builds the delivery schedule for one billing cycle
// starting at cycleStart. Each order freezes the plan's item prices at
// materialization time and carries the taxed plan price as its totals.
func materializeOrders(subscription *models.Subscription, plan *models.SubscriptionPlan, customer *models.Customer, cycleStart time.Time, taxRate decimal.Decimal) ([]models.Order, error) {
	dates := billing.ProjectOrderDates(cycleStart, plan.Type, billing.Horizon(plan.Type))
	if len(dates) == 0 {
		return nil, nil
	}

	address := subscription.DeliveryAddress
	if address == nil {
		address = customer.Address
	}

	items := make([]models.OrderItem, 0, len(plan.Items))
	for _, planItem := range plan.Items {
		if planItem.MenuItem == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "plan item missing menu item")
		}
		items = append(items, models.OrderItem{
			MenuItemID: planItem.MenuItemID,
			Quantity:   planItem.Quantity,
			UnitPrice:  planItem.MenuItem.Price,
			TotalPrice: planItem.MenuItem.Price.Mul(decimal.NewFromInt(int64(planItem.Quantity))),
		})
	}

	totals, err := billing.TotalsFromSubtotal(plan.Price, taxRate, decimal.Zero)
	if err != nil {
		return nil, err
	}
	totalAmount := totals.Subtotal.Round(2)
	taxAmount := totals.TaxAmount.Round(2)
	finalAmount := totals.Total.Round(2)

	orders := make([]models.Order, 0, len(dates))
	for _, scheduledFor := range dates {
		orderItems := make([]models.OrderItem, len(items))
		copy(orderItems, items)

		orders = append(orders, models.Order{
			BusinessID:           subscription.BusinessID,
			CustomerID:           subscription.CustomerID,
			KitchenID:            subscription.KitchenID,
			SubscriptionID:       &subscription.ID,
			OrderNumber:          codes.OrderNumber(),
			Type:                 enums.OrderTypeSubscription,
			Status:               enums.OrderStatusPending,
			ScheduledFor:         scheduledFor,
			TotalAmount:          totalAmount,
			TaxAmount:            taxAmount,
			FinalAmount:          finalAmount,
			DeliveryAddress:      address,
			DeliveryInstructions: subscription.DeliveryInstructions,
			Items:                orderItems,
		})
	}
	return orders, nil
}
