package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wematrust/transfer-service/internal/domain"
	"github.com/wematrust/transfer-service/internal/store"
)

type settlementRepo struct {
	store.Repository

	jobs []domain.SettlementJob

	statusUpdates  map[uuid.UUID]string
	settlementRefs map[uuid.UUID]string
	doneJobs       map[uuid.UUID]bool
	updateErr      error
}

func newSettlementRepo(jobs ...domain.SettlementJob) *settlementRepo {
	return &settlementRepo{
		jobs:           jobs,
		statusUpdates:  make(map[uuid.UUID]string),
		settlementRefs: make(map[uuid.UUID]string),
		doneJobs:       make(map[uuid.UUID]bool),
	}
}

func (r *settlementRepo) FindDueSettlementJobs(ctx context.Context, now time.Time, limit int) ([]domain.SettlementJob, error) {
	due := make([]domain.SettlementJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		if !job.DueAt.After(now) && !r.doneJobs[job.ID] {
			due = append(due, job)
		}
	}
	return due, nil
}

func (r *settlementRepo) UpdateTransferLogBackendStatus(ctx context.Context, logID uuid.UUID, status, settlementRef string) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.statusUpdates[logID] = status
	r.settlementRefs[logID] = settlementRef
	return nil
}

func (r *settlementRepo) MarkSettlementJobDone(ctx context.Context, jobID uuid.UUID) error {
	r.doneJobs[jobID] = true
	return nil
}

func dueJob(logID uuid.UUID, dueAt time.Time) domain.SettlementJob {
	return domain.SettlementJob{
		ID:            uuid.New(),
		TransferLogID: logID,
		DueAt:         dueAt,
		Status:        domain.SettlementJobScheduled,
	}
}

func TestSweep_SettlesDueJobs(t *testing.T) {
	logID := uuid.New()
	job := dueJob(logID, time.Now().UTC().Add(-time.Second))
	repo := newSettlementRepo(job)
	worker := NewSettlementWorker(repo, nil, "@every 1s")

	settled := worker.Sweep(context.Background())

	assert.Equal(t, 1, settled)
	assert.Equal(t, domain.BackendStatusSettled, repo.statusUpdates[logID])
	assert.True(t, strings.HasPrefix(repo.settlementRefs[logID], "STL_"))
	assert.True(t, repo.doneJobs[job.ID])
}

func TestSweep_NothingDue(t *testing.T) {
	job := dueJob(uuid.New(), time.Now().UTC().Add(time.Hour))
	repo := newSettlementRepo(job)
	worker := NewSettlementWorker(repo, nil, "@every 1s")

	assert.Equal(t, 0, worker.Sweep(context.Background()))
	assert.Empty(t, repo.statusUpdates)
	assert.False(t, repo.doneJobs[job.ID])
}

// A job whose log is no longer PENDING (already settled, or parked as
// UNRESOLVED) is retired without error so it does not loop forever.
func TestSweep_RetiresJobWhenLogNoLongerPending(t *testing.T) {
	job := dueJob(uuid.New(), time.Now().UTC().Add(-time.Second))
	repo := newSettlementRepo(job)
	repo.updateErr = store.ErrTransferLogNotFound
	worker := NewSettlementWorker(repo, nil, "@every 1s")

	settled := worker.Sweep(context.Background())

	assert.Equal(t, 1, settled)
	assert.True(t, repo.doneJobs[job.ID])
	assert.Empty(t, repo.statusUpdates)
}

func TestSweep_RepeatedSweepIsIdempotent(t *testing.T) {
	logID := uuid.New()
	job := dueJob(logID, time.Now().UTC().Add(-time.Second))
	repo := newSettlementRepo(job)
	worker := NewSettlementWorker(repo, nil, "@every 1s")

	require.Equal(t, 1, worker.Sweep(context.Background()))
	assert.Equal(t, 0, worker.Sweep(context.Background()))
}
