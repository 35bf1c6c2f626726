/**
 * @description
 * Deferred settlement worker. Settlement is modelled as durable job rows
 * written alongside each transfer log, swept on a cron schedule. A process
 * restart picks pending settlements back up on the next sweep instead of
 * silently dropping them the way an in-memory timer would.
 */

package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/wematrust/transfer-service/internal/domain"
	"github.com/wematrust/transfer-service/internal/store"
	"github.com/wematrust/transfer-service/pkg/rabbitmq"
)

const settlementSweepBatchSize = 100

// SettlementWorker periodically settles due transfer logs.
type SettlementWorker struct {
	repo     store.Repository
	events   rabbitmq.Publisher
	cron     *cron.Cron
	schedule string
}

// NewSettlementWorker creates a worker that sweeps on the given cron schedule
// (e.g. "@every 1s").
func NewSettlementWorker(repo store.Repository, events rabbitmq.Publisher, schedule string) *SettlementWorker {
	cronLogger := cron.PrintfLogger(log.Default())
	return &SettlementWorker{
		repo:     repo,
		events:   events,
		cron:     cron.New(cron.WithChain(cron.Recover(cronLogger))),
		schedule: schedule,
	}
}

// Start registers the sweep job and starts the scheduler.
func (w *SettlementWorker) Start() error {
	if _, err := w.cron.AddFunc(w.schedule, func() {
		w.Sweep(context.Background())
	}); err != nil {
		return err
	}
	w.cron.Start()
	log.Printf("level=info component=settlement msg=\"worker started\" schedule=%q", w.schedule)
	return nil
}

// Stop gracefully stops the scheduler; the returned context is done once any
// in-flight sweep has finished.
func (w *SettlementWorker) Stop() context.Context {
	return w.cron.Stop()
}

// Sweep settles every due job and returns how many were settled. Each job
// flips its PENDING transfer log to SETTLED with a fresh settlement reference.
func (w *SettlementWorker) Sweep(ctx context.Context) int {
	jobs, err := w.repo.FindDueSettlementJobs(ctx, time.Now().UTC(), settlementSweepBatchSize)
	if err != nil {
		log.Printf("level=error component=settlement msg=\"due job scan failed\" err=%v", err)
		return 0
	}

	settled := 0
	for _, job := range jobs {
		if err := w.settle(ctx, job); err != nil {
			log.Printf("level=warn component=settlement msg=\"settlement failed\" job_id=%s transfer_log_id=%s err=%v",
				job.ID, job.TransferLogID, err)
			continue
		}
		settled++
	}
	return settled
}

func (w *SettlementWorker) settle(ctx context.Context, job domain.SettlementJob) error {
	settlementRef := "STL_" + uuid.NewString()

	err := w.repo.UpdateTransferLogBackendStatus(ctx, job.TransferLogID, domain.BackendStatusSettled, settlementRef)
	if err != nil {
		// A log that is no longer PENDING (already settled, or parked as
		// UNRESOLVED by an operator) just retires its job.
		if errors.Is(err, store.ErrTransferLogNotFound) {
			return w.repo.MarkSettlementJobDone(ctx, job.ID)
		}
		return err
	}
	if err := w.repo.MarkSettlementJobDone(ctx, job.ID); err != nil {
		return err
	}

	log.Printf("level=info component=settlement msg=\"transfer settled\" transfer_log_id=%s settlement_ref=%s",
		job.TransferLogID, settlementRef)

	if w.events != nil {
		event := domain.TransferSettledEvent{
			TransferLogID: job.TransferLogID,
			SettlementRef: settlementRef,
			Timestamp:     time.Now().UTC(),
		}
		if err := w.events.Publish(ctx, EventExchange, "transfer.settled", event); err != nil {
			log.Printf("level=warn component=settlement msg=\"transfer.settled publish failed\" transfer_log_id=%s err=%v",
				job.TransferLogID, err)
		}
	}
	return nil
}
