package customers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Samyy-Momin/onefooddialer/internal/wallet"
	"github.com/Samyy-Momin/onefooddialer/pkg/codes"
	"github.com/Samyy-Momin/onefooddialer/pkg/db"
	"github.com/Samyy-Momin/onefooddialer/pkg/db/models"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
	"github.com/Samyy-Momin/onefooddialer/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ledger is the wallet surface the opening credit needs.
type ledger interface {
	Apply(ctx context.Context, tx *gorm.DB, input wallet.EntryInput) (*models.WalletTransaction, error)
}

// CreateInput describes a new customer.
type CreateInput struct {
	BusinessID     uuid.UUID
	Name           string
	Email          *string
	Phone          *string
	Address        *string
	Preferences    types.JSONMap
	InitialBalance decimal.Decimal
}

// UpdateInput carries the mutable customer fields. Nil means unchanged.
type UpdateInput struct {
	BusinessID  uuid.UUID
	CustomerID  uuid.UUID
	Name        *string
	Email       *string
	Phone       *string
	Address     *string
	Preferences types.JSONMap
	IsActive    *bool
}

// ListResult is the paginated customer collection.
type ListResult struct {
	Customers  []models.Customer `json:"customers"`
	Pagination types.Pagination  `json:"pagination"`
}

// Service manages customer profiles. Wallet balances are owned by the wallet
// ledger; the only balance write here is the opening credit at creation.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Customer, error)
	Get(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, input UpdateInput) (*models.Customer, error)
	Deactivate(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	ledger ledger
	now    func() time.Time
}

// NewService wires the customer service with its collaborators.
func NewService(repo Repository, tx txRunner, ledger ledger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("wallet ledger required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		ledger: ledger,
		now:    time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Customer, error) {
	if input.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if input.Email != nil && !strings.Contains(*input.Email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
	}
	if input.InitialBalance.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial balance must not be negative")
	}

	var customer *models.Customer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		customer = &models.Customer{
			BusinessID:   input.BusinessID,
			CustomerCode: codes.CustomerCode(),
			Name:         name,
			Email:        input.Email,
			Phone:        input.Phone,
			Address:      input.Address,
			Preferences:  input.Preferences,
			IsActive:     true,
		}
		if err := repo.Create(ctx, customer); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "a customer with this email already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
		}

		if input.InitialBalance.IsPositive() {
			if _, err := s.ledger.Apply(ctx, tx, wallet.EntryInput{
				BusinessID:  input.BusinessID,
				CustomerID:  customer.ID,
				Type:        enums.WalletTransactionTypeCredit,
				Amount:      input.InitialBalance,
				Description: "Opening balance",
			}); err != nil {
				return err
			}
			customer.WalletBalance = input.InitialBalance
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *service) Get(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, businessID, customerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	customers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	return &ListResult{
		Customers:  customers,
		Pagination: filter.Page.Meta(total),
	}, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Customer, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.Email != nil && !strings.Contains(*input.Email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
	}

	if _, err := s.Get(ctx, input.BusinessID, input.CustomerID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.Preferences != nil {
		updates["preferences"] = input.Preferences
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, input.CustomerID, updates); err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "a customer with this email already exists")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
		}
	}
	return s.Get(ctx, input.BusinessID, input.CustomerID)
}

func (s *service) Deactivate(ctx context.Context, businessID, customerID uuid.UUID) (*models.Customer, error) {
	customer, err := s.Get(ctx, businessID, customerID)
	if err != nil {
		return nil, err
	}
	if !customer.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "customer already deactivated")
	}

	active, err := s.repo.CountActiveSubscriptions(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active subscriptions")
	}
	if active > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("customer has %d active subscription(s), cancel them first", active))
	}

	if err := s.repo.Update(ctx, customerID, map[string]any{"is_active": false}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate customer")
	}
	return s.Get(ctx, businessID, customerID)
}
