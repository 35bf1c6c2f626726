/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the transfer-service. By defining an interface,
 * we decouple the application's business logic from the specific database
 * implementation, making the code more modular and easier to test.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wematrust/transfer-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// User and account lookups
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	FindUserByAccountNumber(ctx context.Context, accountNumber string) (*domain.User, error)

	// Partner bank registry and prefunded float pools
	GetPartnerBank(ctx context.Context, name string) (*domain.PartnerBank, error)
	GetAllPrefundedAccounts(ctx context.Context) ([]domain.PrefundedAccount, error)
	UpdatePrefundedAccountBalance(ctx context.Context, id string, balance int64) error

	// Transaction and balance mutations
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	UpdateAccountBalance(ctx context.Context, id string, balance int64) error

	// Transfer logs
	CreateTransferLog(ctx context.Context, log *domain.TransferLog) error
	UpdateTransferLogBackendStatus(ctx context.Context, logID uuid.UUID, status string, settlementRef string) error
	GetTransferLogByRef(ctx context.Context, txnRef string) (*domain.TransferLog, error)

	// RecordTransfer applies every mutation of one transfer attempt in a
	// single database transaction: the optional prefunded pool debit, both
	// transaction legs, both balance updates, the transfer log, and the
	// settlement job when one is due. It returns the post-mutation sender
	// and recipient balances.
	RecordTransfer(ctx context.Context, params RecordTransferParams) (senderBalance, recipientBalance int64, err error)

	// Transaction history
	FindTransactionsByTxnRef(ctx context.Context, txnRef string) ([]domain.Transaction, error)
	FindTransactionsByUserID(ctx context.Context, userID string) ([]domain.Transaction, error)

	// Deferred settlement jobs
	FindDueSettlementJobs(ctx context.Context, now time.Time, limit int) ([]domain.SettlementJob, error)
	MarkSettlementJobDone(ctx context.Context, jobID uuid.UUID) error
}

// RecordTransferParams carries everything RecordTransfer writes atomically.
type RecordTransferParams struct {
	Debit  *domain.Transaction
	Credit *domain.Transaction

	SenderAccountID    string
	RecipientAccountID string
	Amount             int64

	// PrefundedAccountID is set for inter-bank transfers; the pool is
	// debited by Amount inside the same transaction.
	PrefundedAccountID *string

	Log *domain.TransferLog

	// SettlementDueAt is nil when the destination bank is problematic;
	// no settlement job is scheduled in that case.
	SettlementDueAt *time.Time
}
