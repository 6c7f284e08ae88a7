package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
)

// Stats is the back-office overview for one business.
type Stats struct {
	TotalCustomers        int64                              `json:"totalCustomers"`
	ActiveCustomers       int64                              `json:"activeCustomers"`
	SubscriptionsByStatus map[enums.SubscriptionStatus]int64 `json:"subscriptionsByStatus"`
	OrdersToday           int64                              `json:"ordersToday"`
	OrdersByStatus        map[enums.OrderStatus]int64        `json:"ordersByStatus"`
	RevenueThisMonth      decimal.Decimal                    `json:"revenueThisMonth"`
	OpenInvoices          int64                              `json:"openInvoices"`
	WalletLiability       decimal.Decimal                    `json:"walletLiability"`
	GeneratedAt           time.Time                          `json:"generatedAt"`
}

// Service assembles the dashboard overview.
type Service interface {
	Stats(ctx context.Context, businessID uuid.UUID) (*Stats, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires the dashboard service with its repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Stats(ctx context.Context, businessID uuid.UUID) (*Stats, error) {
	if businessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	totalCustomers, err := s.repo.CountCustomers(ctx, businessID, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count customers")
	}
	activeCustomers, err := s.repo.CountCustomers(ctx, businessID, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active customers")
	}
	subscriptions, err := s.repo.CountSubscriptionsByStatus(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count subscriptions")
	}
	ordersToday, err := s.repo.CountOrdersScheduledBetween(ctx, businessID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count today's orders")
	}
	ordersByStatus, err := s.repo.CountOrdersByStatus(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	revenue, err := s.repo.SumPaidInvoicesBetween(ctx, businessID, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum monthly revenue")
	}
	openInvoices, err := s.repo.CountOpenInvoices(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count open invoices")
	}
	liability, err := s.repo.SumWalletBalances(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum wallet balances")
	}

	return &Stats{
		TotalCustomers:        totalCustomers,
		ActiveCustomers:       activeCustomers,
		SubscriptionsByStatus: subscriptions,
		OrdersToday:           ordersToday,
		OrdersByStatus:        ordersByStatus,
		RevenueThisMonth:      revenue,
		OpenInvoices:          openInvoices,
		WalletLiability:       liability,
		GeneratedAt:           now,
	}, nil
}
