package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Samyy-Momin/onefooddialer/api/middleware"
	"github.com/Samyy-Momin/onefooddialer/internal/subscriptions"
	"github.com/Samyy-Momin/onefooddialer/pkg/db/models"
)

type testSubscriptionsService struct {
	createFn func(ctx context.Context, input subscriptions.CreateInput) (*models.Subscription, error)
	updateFn func(ctx context.Context, input subscriptions.UpdateInput) (*models.Subscription, error)
}

func (s *testSubscriptionsService) Create(ctx context.Context, input subscriptions.CreateInput) (*models.Subscription, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return nil, nil
}

func (s *testSubscriptionsService) Get(ctx context.Context, businessID, subscriptionID uuid.UUID) (*models.Subscription, error) {
	return nil, nil
}

func (s *testSubscriptionsService) List(ctx context.Context, filter subscriptions.ListFilter) (*subscriptions.ListResult, error) {
	return &subscriptions.ListResult{}, nil
}

func (s *testSubscriptionsService) Update(ctx context.Context, input subscriptions.UpdateInput) (*models.Subscription, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, input)
	}
	return nil, nil
}

func (s *testSubscriptionsService) Cancel(ctx context.Context, businessID, subscriptionID uuid.UUID) (*models.Subscription, error) {
	return nil, nil
}

func (s *testSubscriptionsService) ProcessRenewals(ctx context.Context, batchSize int) (*subscriptions.RenewalRun, error) {
	return &subscriptions.RenewalRun{}, nil
}

func TestSubscriptionCreateRequiresStartDate(t *testing.T) {
	called := false
	svc := &testSubscriptionsService{
		createFn: func(ctx context.Context, input subscriptions.CreateInput) (*models.Subscription, error) {
			called = true
			return &models.Subscription{}, nil
		},
	}

	body := fmt.Sprintf(`{"customerId":%q,"planId":%q}`, uuid.NewString(), uuid.NewString())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions", strings.NewReader(body))
	req = req.WithContext(middleware.WithBusinessID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	SubscriptionCreate(svc, testLogger(t))(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", resp.Code, resp.Body.String())
	}
	if called {
		t.Fatal("service must not be reached without a start date")
	}
}

func TestSubscriptionCreatePassesDates(t *testing.T) {
	start := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	svc := &testSubscriptionsService{
		createFn: func(ctx context.Context, input subscriptions.CreateInput) (*models.Subscription, error) {
			if input.StartDate == nil || !input.StartDate.Equal(start) {
				t.Fatalf("start date = %v, want %s", input.StartDate, start)
			}
			if input.EndDate == nil || !input.EndDate.Equal(end) {
				t.Fatalf("end date = %v, want %s", input.EndDate, end)
			}
			return &models.Subscription{StartDate: start, EndDate: &end}, nil
		},
	}

	body := fmt.Sprintf(`{"customerId":%q,"planId":%q,"startDate":%q,"endDate":%q}`,
		uuid.NewString(), uuid.NewString(), start.Format(time.RFC3339), end.Format(time.RFC3339))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions", strings.NewReader(body))
	req = req.WithContext(middleware.WithBusinessID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	SubscriptionCreate(svc, testLogger(t))(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", resp.Code, resp.Body.String())
	}
}

func TestSubscriptionUpdatePassesEndDate(t *testing.T) {
	end := time.Date(2026, 7, 8, 0, 0, 0, 0, time.UTC)
	subscriptionID := uuid.New()

	svc := &testSubscriptionsService{
		updateFn: func(ctx context.Context, input subscriptions.UpdateInput) (*models.Subscription, error) {
			if input.SubscriptionID != subscriptionID {
				t.Fatalf("subscription id = %s, want %s", input.SubscriptionID, subscriptionID)
			}
			if input.EndDate == nil || !input.EndDate.Equal(end) {
				t.Fatalf("end date = %v, want %s", input.EndDate, end)
			}
			return &models.Subscription{EndDate: &end}, nil
		},
	}

	body := fmt.Sprintf(`{"endDate":%q}`, end.Format(time.RFC3339))
	req := httptest.NewRequest(http.MethodPut, "/api/v1/subscriptions/"+subscriptionID.String(), strings.NewReader(body))
	req = req.WithContext(middleware.WithBusinessID(req.Context(), uuid.NewString()))
	req = addRouteParam(req, "subscriptionId", subscriptionID.String())

	resp := httptest.NewRecorder()
	SubscriptionUpdate(svc, testLogger(t))(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.Code, resp.Body.String())
	}
}
