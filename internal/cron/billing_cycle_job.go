package cron

import (
	"context"
	"fmt"

	"github.com/Samyy-Momin/onefooddialer/internal/subscriptions"
	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
)

// renewalProcessor is the subscription surface the billing sweep needs.
type renewalProcessor interface {
	ProcessRenewals(ctx context.Context, batchSize int) (*subscriptions.RenewalRun, error)
}

// BillingCycleJob bills every due auto-renewing subscription: new invoice,
// wallet settlement where the balance allows, next cycle of orders.
type BillingCycleJob struct {
	processor renewalProcessor
	batchSize int
	logg      *logger.Logger
}

// NewBillingCycleJob wires the renewal sweep.
func NewBillingCycleJob(processor renewalProcessor, batchSize int, logg *logger.Logger) (*BillingCycleJob, error) {
	if processor == nil {
		return nil, fmt.Errorf("renewal processor required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &BillingCycleJob{processor: processor, batchSize: batchSize, logg: logg}, nil
}

func (j *BillingCycleJob) Name() string { return "billing-cycle" }

func (j *BillingCycleJob) Run(ctx context.Context) error {
	run, err := j.processor.ProcessRenewals(ctx, j.batchSize)
	if run != nil && run.Processed > 0 {
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{
			"processed": run.Processed,
			"paid":      run.Paid,
			"unpaid":    run.Unpaid,
		}), "billing cycle sweep completed")
	}
	return err
}
