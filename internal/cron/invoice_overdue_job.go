package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
)

// overdueMarker is the invoice surface the overdue sweep needs.
type overdueMarker interface {
	MarkOverdue(ctx context.Context, businessID *uuid.UUID, now time.Time) (int64, error)
}

// InvoiceOverdueJob flips pending invoices past their due date to OVERDUE
// across all businesses.
type InvoiceOverdueJob struct {
	invoices overdueMarker
	logg     *logger.Logger
	now      func() time.Time
}

// NewInvoiceOverdueJob wires the overdue sweep.
func NewInvoiceOverdueJob(invoices overdueMarker, logg *logger.Logger) (*InvoiceOverdueJob, error) {
	if invoices == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &InvoiceOverdueJob{invoices: invoices, logg: logg, now: time.Now}, nil
}

func (j *InvoiceOverdueJob) Name() string { return "invoice-overdue" }

func (j *InvoiceOverdueJob) Run(ctx context.Context) error {
	marked, err := j.invoices.MarkOverdue(ctx, nil, j.now())
	if err != nil {
		return err
	}
	if marked > 0 {
		j.logg.Info(j.logg.WithField(ctx, "marked", marked), "invoices marked overdue")
	}
	return nil
}
