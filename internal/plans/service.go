package plans

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Samyy-Momin/onefooddialer/pkg/db/models"
	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
	"github.com/Samyy-Momin/onefooddialer/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ItemInput is one menu item reference in a plan.
type ItemInput struct {
	MenuItemID uuid.UUID `json:"menuItemId"`
	Quantity   int       `json:"quantity"`
	IsOptional bool      `json:"isOptional"`
}

// CreateInput describes a new subscription plan.
type CreateInput struct {
	BusinessID   uuid.UUID
	Name         string
	Description  *string
	Type         enums.PlanType
	Price        decimal.Decimal
	DurationDays int
	Items        []ItemInput
}

// UpdateInput carries the mutable plan fields. Nil means unchanged; a non-nil
// Items slice replaces the whole item list.
type UpdateInput struct {
	BusinessID  uuid.UUID
	PlanID      uuid.UUID
	Name        *string
	Description *string
	Price       *decimal.Decimal
	IsActive    *bool
	Items       []ItemInput
}

// ListResult is the paginated plan collection.
type ListResult struct {
	Plans      []models.SubscriptionPlan `json:"plans"`
	Pagination types.Pagination          `json:"pagination"`
}

// Service manages subscription plans and their item lists.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.SubscriptionPlan, error)
	Get(ctx context.Context, businessID, planID uuid.UUID) (*models.SubscriptionPlan, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, input UpdateInput) (*models.SubscriptionPlan, error)
	Deactivate(ctx context.Context, businessID, planID uuid.UUID) (*models.SubscriptionPlan, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires the plan service with its repository and transaction runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("plans repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) validateItems(ctx context.Context, repo Repository, businessID uuid.UUID, items []ItemInput) ([]models.PlanItem, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	ids := make([]uuid.UUID, 0, len(items))
	for i, item := range items {
		if item.MenuItemID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: menu item id required", i))
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be positive", i))
		}
		ids = append(ids, item.MenuItemID)
	}

	menuItems, err := repo.FindMenuItems(ctx, businessID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu items")
	}
	known := make(map[uuid.UUID]struct{}, len(menuItems))
	for _, item := range menuItems {
		known[item.ID] = struct{}{}
	}

	planItems := make([]models.PlanItem, 0, len(items))
	for i, item := range items {
		if _, ok := known[item.MenuItemID]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("item %d: menu item not found", i))
		}
		planItems = append(planItems, models.PlanItem{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			IsOptional: item.IsOptional,
		})
	}
	return planItems, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.SubscriptionPlan, error) {
	if input.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid plan type %q", input.Type))
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	durationDays := input.DurationDays
	if durationDays <= 0 {
		durationDays = 30
	}

	var plan *models.SubscriptionPlan
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		items, err := s.validateItems(ctx, repo, input.BusinessID, input.Items)
		if err != nil {
			return err
		}

		plan = &models.SubscriptionPlan{
			BusinessID:   input.BusinessID,
			Name:         name,
			Description:  input.Description,
			Type:         input.Type,
			Price:        input.Price,
			DurationDays: durationDays,
			IsActive:     true,
			Items:        items,
		}
		if err := repo.Create(ctx, plan); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create plan")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, input.BusinessID, plan.ID)
}

func (s *service) Get(ctx context.Context, businessID, planID uuid.UUID) (*models.SubscriptionPlan, error) {
	plan, err := s.repo.FindByID(ctx, businessID, planID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load plan")
	}
	return plan, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	if filter.Type != nil && !filter.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid plan type %q", *filter.Type))
	}
	plans, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list plans")
	}
	return &ListResult{
		Plans:      plans,
		Pagination: filter.Page.Meta(total),
	}, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.SubscriptionPlan, error) {
	if input.PlanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan id required")
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
	}
	if input.Price != nil && !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindByID(ctx, input.BusinessID, input.PlanID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load plan")
		}

		updates := map[string]any{}
		if input.Name != nil {
			updates["name"] = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			updates["description"] = *input.Description
		}
		if input.Price != nil {
			updates["price"] = *input.Price
		}
		if input.IsActive != nil {
			updates["is_active"] = *input.IsActive
		}
		if len(updates) > 0 {
			if err := repo.Update(ctx, input.PlanID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update plan")
			}
		}

		if input.Items != nil {
			items, err := s.validateItems(ctx, repo, input.BusinessID, input.Items)
			if err != nil {
				return err
			}
			for i := range items {
				items[i].PlanID = input.PlanID
			}
			if err := repo.ReplaceItems(ctx, input.PlanID, items); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace plan items")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, input.BusinessID, input.PlanID)
}

func (s *service) Deactivate(ctx context.Context, businessID, planID uuid.UUID) (*models.SubscriptionPlan, error) {
	plan, err := s.Get(ctx, businessID, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "plan already deactivated")
	}

	// Existing subscriptions keep running; deactivation only stops new signups.
	if err := s.repo.Update(ctx, planID, map[string]any{"is_active": false}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate plan")
	}
	return s.Get(ctx, businessID, planID)
}
