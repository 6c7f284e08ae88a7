package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Samyy-Momin/onefooddialer/pkg/config"
	"github.com/Samyy-Momin/onefooddialer/pkg/db/models"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
	"github.com/Samyy-Momin/onefooddialer/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// EntryInput captures one ledger movement. Amount is always positive; the
// type carries the direction.
type EntryInput struct {
	BusinessID  uuid.UUID
	CustomerID  uuid.UUID
	Type        enums.WalletTransactionType
	Amount      decimal.Decimal
	Description string
	Reference   *string
}

// TopUpInput is the wallet add-money request.
type TopUpInput struct {
	BusinessID       uuid.UUID
	CustomerID       uuid.UUID
	Amount           decimal.Decimal
	PaymentMethod    *enums.PaymentMethod
	PaymentReference *string
	Description      string
}

// TopUpResult returns the credit plus the bonus entry when the incentive rule
// fired.
type TopUpResult struct {
	Transaction *models.WalletTransaction `json:"transaction"`
	Bonus       *models.WalletTransaction `json:"bonus,omitempty"`
	Customer    *models.Customer          `json:"customer"`
	NewBalance  decimal.Decimal           `json:"newBalance"`
}

// TransferInput moves balance between two customers of the same business.
type TransferInput struct {
	BusinessID     uuid.UUID
	FromCustomerID uuid.UUID
	ToCustomerID   uuid.UUID
	Amount         decimal.Decimal
	Description    string
}

// TransferResult returns both parties' post-transfer balances.
type TransferResult struct {
	FromCustomer *models.Customer `json:"fromCustomer"`
	ToCustomer   *models.Customer `json:"toCustomer"`
}

// HistoryResult carries the paginated ledger view with aggregate sums.
type HistoryResult struct {
	Customer     *models.Customer           `json:"customer"`
	Transactions []models.WalletTransaction `json:"transactions"`
	TotalCredits decimal.Decimal            `json:"totalCredits"`
	TotalDebits  decimal.Decimal            `json:"totalDebits"`
	Pagination   types.Pagination           `json:"pagination"`
}

// Service is the wallet ledger engine. Every balance mutation in the system
// flows through it.
type Service interface {
	// Apply records one entry inside the caller's transaction. Orchestrators
	// compose it with their own writes so a failed debit rolls everything back.
	Apply(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.WalletTransaction, error)
	AddMoney(ctx context.Context, input TopUpInput) (*TopUpResult, error)
	Transfer(ctx context.Context, input TransferInput) (*TransferResult, error)
	History(ctx context.Context, filter HistoryFilter) (*HistoryResult, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	bonusFloor decimal.Decimal
	bonusRate  decimal.Decimal
}

// NewService wires the wallet engine with its repository and transaction
// runner. The bonus parameters come from billing configuration.
func NewService(repo Repository, tx txRunner, cfg config.BillingConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		bonusFloor: decimal.NewFromFloat(cfg.TopupBonusFloor),
		bonusRate:  decimal.NewFromFloat(cfg.TopupBonusRate),
	}, nil
}

func (s *service) Apply(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.WalletTransaction, error) {
	if input.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid wallet transaction type %q", input.Type))
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description required")
	}

	repo := s.repo.WithTx(tx)

	customer, err := repo.FindCustomerForUpdate(ctx, input.BusinessID, input.CustomerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer wallet")
	}

	var newBalance decimal.Decimal
	if input.Type.IsCreditDirection() {
		newBalance = customer.WalletBalance.Add(input.Amount)
	} else {
		if input.Amount.GreaterThan(customer.WalletBalance) {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance,
				fmt.Sprintf("insufficient balance: have %s, need %s", customer.WalletBalance, input.Amount))
		}
		newBalance = customer.WalletBalance.Sub(input.Amount)
	}

	if err := repo.UpdateCustomerBalance(ctx, customer.ID, newBalance); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update wallet balance")
	}

	txn := &models.WalletTransaction{
		BusinessID:   input.BusinessID,
		CustomerID:   input.CustomerID,
		Type:         input.Type,
		Amount:       input.Amount,
		BalanceAfter: newBalance,
		Description:  input.Description,
		Reference:    input.Reference,
		Status:       enums.WalletTransactionStatusCompleted,
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record wallet transaction")
	}

	customer.WalletBalance = newBalance
	return txn, nil
}

func (s *service) AddMoney(ctx context.Context, input TopUpInput) (*TopUpResult, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	description := input.Description
	if description == "" {
		description = "Wallet top-up"
	}

	result := &TopUpResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		credit, err := s.Apply(ctx, tx, EntryInput{
			BusinessID:  input.BusinessID,
			CustomerID:  input.CustomerID,
			Type:        enums.WalletTransactionTypeCredit,
			Amount:      input.Amount,
			Description: description,
			Reference:   input.PaymentReference,
		})
		if err != nil {
			return err
		}
		result.Transaction = credit

		// Recharge incentive: top-ups at or above the floor earn a separate
		// bonus entry worth a fixed percentage of the credited amount.
		if input.Amount.GreaterThanOrEqual(s.bonusFloor) && s.bonusRate.IsPositive() {
			bonusAmount := input.Amount.Mul(s.bonusRate)
			bonus, err := s.Apply(ctx, tx, EntryInput{
				BusinessID:  input.BusinessID,
				CustomerID:  input.CustomerID,
				Type:        enums.WalletTransactionTypeBonus,
				Amount:      bonusAmount,
				Description: fmt.Sprintf("Top-up bonus (%s%%)", s.bonusRate.Mul(decimal.NewFromInt(100))),
				Reference:   input.PaymentReference,
			})
			if err != nil {
				return err
			}
			result.Bonus = bonus
		}

		customer, err := s.repo.WithTx(tx).FindCustomer(ctx, input.BusinessID, input.CustomerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload customer")
		}
		result.Customer = customer
		result.NewBalance = customer.WalletBalance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if input.FromCustomerID == uuid.Nil || input.ToCustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "both customer ids required")
	}
	if input.FromCustomerID == input.ToCustomerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot transfer to the same customer")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	description := input.Description
	if description == "" {
		description = "Wallet transfer"
	}

	result := &TransferResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		reference := fmt.Sprintf("TRANSFER-%s", uuid.NewString())

		if _, err := s.Apply(ctx, tx, EntryInput{
			BusinessID:  input.BusinessID,
			CustomerID:  input.FromCustomerID,
			Type:        enums.WalletTransactionTypeDebit,
			Amount:      input.Amount,
			Description: fmt.Sprintf("%s (sent)", description),
			Reference:   &reference,
		}); err != nil {
			return err
		}

		if _, err := s.Apply(ctx, tx, EntryInput{
			BusinessID:  input.BusinessID,
			CustomerID:  input.ToCustomerID,
			Type:        enums.WalletTransactionTypeCredit,
			Amount:      input.Amount,
			Description: fmt.Sprintf("%s (received)", description),
			Reference:   &reference,
		}); err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		from, err := repo.FindCustomer(ctx, input.BusinessID, input.FromCustomerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload sender")
		}
		to, err := repo.FindCustomer(ctx, input.BusinessID, input.ToCustomerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload recipient")
		}
		result.FromCustomer = from
		result.ToCustomer = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) History(ctx context.Context, filter HistoryFilter) (*HistoryResult, error) {
	if filter.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	if filter.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if filter.Type != nil && !filter.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid wallet transaction type %q", *filter.Type))
	}

	customer, err := s.repo.FindCustomer(ctx, filter.BusinessID, filter.CustomerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	txns, total, err := s.repo.ListTransactions(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet transactions")
	}

	credits, debits, err := s.repo.SumByDirection(ctx, filter.BusinessID, filter.CustomerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum wallet transactions")
	}

	return &HistoryResult{
		Customer:     customer,
		Transactions: txns,
		TotalCredits: credits,
		TotalDebits:  debits,
		Pagination:   filter.Page.Meta(total),
	}, nil
}
