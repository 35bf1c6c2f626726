/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the necessary SQL queries to interact with the database tables
 * related to users, accounts, partner banks, prefunded float pools, transactions,
 * transfer logs, and settlement jobs.
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wematrust/transfer-service/internal/domain"
)

var (
	ErrUserNotFound               = errors.New("user not found")
	ErrAccountNotFound            = errors.New("account not found")
	ErrPartnerBankNotFound        = errors.New("partner bank not found")
	ErrTransferLogNotFound        = errors.New("transfer log not found")
	ErrInsufficientFunds          = errors.New("insufficient funds")
	ErrInsufficientPrefundedFunds = errors.New("insufficient prefunded funds")
	ErrSettlementJobNotFound      = errors.New("settlement job not found")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetUser retrieves a user by their identifier.
func (r *PostgresRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, name, account_id FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Name, &user.AccountID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetAccount retrieves a ledger account by its identifier.
func (r *PostgresRepository) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	var account domain.Account
	query := `SELECT id, account_number, balance FROM accounts WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&account.ID, &account.AccountNumber, &account.Balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindUserByAccountNumber resolves the owner of a ledger account number.
func (r *PostgresRepository) FindUserByAccountNumber(ctx context.Context, accountNumber string) (*domain.User, error) {
	var user domain.User
	query := `
		SELECT u.id, u.name, u.account_id
		FROM users u
		JOIN accounts a ON a.id = u.account_id
		WHERE a.account_number = $1
	`
	err := r.db.QueryRow(ctx, query, accountNumber).Scan(&user.ID, &user.Name, &user.AccountID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetPartnerBank looks a destination bank up in the partner registry by name.
func (r *PostgresRepository) GetPartnerBank(ctx context.Context, name string) (*domain.PartnerBank, error) {
	var bank domain.PartnerBank
	query := `SELECT id, name, status FROM partner_banks WHERE lower(btrim(name)) = lower(btrim($1))`
	err := r.db.QueryRow(ctx, query, name).Scan(&bank.ID, &bank.Name, &bank.Status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPartnerBankNotFound
		}
		return nil, err
	}
	return &bank, nil
}

// GetAllPrefundedAccounts lists every prefunded float pool.
func (r *PostgresRepository) GetAllPrefundedAccounts(ctx context.Context) ([]domain.PrefundedAccount, error) {
	rows, err := r.db.Query(ctx, `SELECT id, bank_id, balance FROM prefunded_accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.PrefundedAccount
	for rows.Next() {
		var acc domain.PrefundedAccount
		if err := rows.Scan(&acc.ID, &acc.BankID, &acc.Balance); err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// UpdatePrefundedAccountBalance sets a prefunded pool to an absolute balance.
func (r *PostgresRepository) UpdatePrefundedAccountBalance(ctx context.Context, id string, balance int64) error {
	result, err := r.db.Exec(ctx, `UPDATE prefunded_accounts SET balance = $1, updated_at = NOW() WHERE id = $2`, balance, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// CreateTransaction inserts one transaction leg.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	return insertTransaction(ctx, r.db, tx)
}

// UpdateAccountBalance sets a ledger account to an absolute balance.
func (r *PostgresRepository) UpdateAccountBalance(ctx context.Context, id string, balance int64) error {
	result, err := r.db.Exec(ctx, `UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2`, balance, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// CreateTransferLog inserts a transfer log row.
func (r *PostgresRepository) CreateTransferLog(ctx context.Context, log *domain.TransferLog) error {
	return insertTransferLog(ctx, r.db, log)
}

// UpdateTransferLogBackendStatus flips the backend settlement status of a
// transfer log. Only PENDING logs can transition to SETTLED; stale or
// replayed settlement attempts are reported as not found.
func (r *PostgresRepository) UpdateTransferLogBackendStatus(ctx context.Context, logID uuid.UUID, status string, settlementRef string) error {
	query := `
		UPDATE transfer_logs
		SET backend_status = $1, settlement_ref = NULLIF($2, ''), updated_at = NOW()
		WHERE id = $3
		  AND ($1 <> $4 OR backend_status = $5)
	`
	result, err := r.db.Exec(ctx, query, status, settlementRef, logID, domain.BackendStatusSettled, domain.BackendStatusPending)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTransferLogNotFound
	}
	return nil
}

// GetTransferLogByRef retrieves a transfer log by its shared transfer reference.
func (r *PostgresRepository) GetTransferLogByRef(ctx context.Context, txnRef string) (*domain.TransferLog, error) {
	var l domain.TransferLog
	query := `
		SELECT id, txn_ref, sender_user_id, sender_name, sender_account,
		       recipient_user_id, recipient_name, recipient_account, recipient_bank,
		       amount, transfer_type, instant_status, backend_status, settlement_ref,
		       prefunded_account_used, prefunded_account_balance, notes, created_at, updated_at
		FROM transfer_logs
		WHERE txn_ref = $1
	`
	err := r.db.QueryRow(ctx, query, txnRef).Scan(
		&l.ID, &l.TxnRef, &l.SenderUserID, &l.SenderName, &l.SenderAccount,
		&l.RecipientUserID, &l.RecipientName, &l.RecipientAccount, &l.RecipientBank,
		&l.Amount, &l.TransferType, &l.InstantStatus, &l.BackendStatus, &l.SettlementRef,
		&l.PrefundedAccountUsed, &l.PrefundedAccountBalance, &l.Notes, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTransferLogNotFound
		}
		return nil, err
	}
	return &l, nil
}

// RecordTransfer applies every mutation of one transfer attempt atomically.
// Balance movements use conditional updates so a concurrent transfer racing
// on the same account or pool fails cleanly instead of losing an update.
func (r *PostgresRepository) RecordTransfer(ctx context.Context, params RecordTransferParams) (int64, int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback(ctx)

	if params.PrefundedAccountID != nil {
		result, err := tx.Exec(ctx,
			`UPDATE prefunded_accounts SET balance = balance - $1, updated_at = NOW() WHERE id = $2 AND balance >= $1`,
			params.Amount, *params.PrefundedAccountID,
		)
		if err != nil {
			return 0, 0, err
		}
		if result.RowsAffected() == 0 {
			return 0, 0, ErrInsufficientPrefundedFunds
		}
	}

	if err := insertTransaction(ctx, tx, params.Debit); err != nil {
		return 0, 0, fmt.Errorf("failed to insert debit transaction: %w", err)
	}
	if err := insertTransaction(ctx, tx, params.Credit); err != nil {
		return 0, 0, fmt.Errorf("failed to insert credit transaction: %w", err)
	}

	var senderBalance int64
	err = tx.QueryRow(ctx,
		`UPDATE accounts SET balance = balance - $1, updated_at = NOW() WHERE id = $2 AND balance >= $1 RETURNING balance`,
		params.Amount, params.SenderAccountID,
	).Scan(&senderBalance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, 0, ErrInsufficientFunds
		}
		return 0, 0, err
	}

	var recipientBalance int64
	err = tx.QueryRow(ctx,
		`UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE id = $2 RETURNING balance`,
		params.Amount, params.RecipientAccountID,
	).Scan(&recipientBalance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, 0, ErrAccountNotFound
		}
		return 0, 0, err
	}

	if err := insertTransferLog(ctx, tx, params.Log); err != nil {
		return 0, 0, fmt.Errorf("failed to insert transfer log: %w", err)
	}

	if params.SettlementDueAt != nil {
		_, err = tx.Exec(ctx,
			`INSERT INTO settlement_jobs (id, transfer_log_id, due_at, status, created_at) VALUES ($1, $2, $3, $4, NOW())`,
			uuid.New(), params.Log.ID, *params.SettlementDueAt, domain.SettlementJobScheduled,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to insert settlement job: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return senderBalance, recipientBalance, nil
}

// FindTransactionsByTxnRef retrieves both legs of a transfer, debit first.
func (r *PostgresRepository) FindTransactionsByTxnRef(ctx context.Context, txnRef string) ([]domain.Transaction, error) {
	query := transactionSelect + ` WHERE txn_ref = $1 ORDER BY type`
	return r.queryTransactions(ctx, query, txnRef)
}

// FindTransactionsByUserID retrieves a user's transactions, newest first.
func (r *PostgresRepository) FindTransactionsByUserID(ctx context.Context, userID string) ([]domain.Transaction, error) {
	query := transactionSelect + ` WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryTransactions(ctx, query, userID)
}

// FindDueSettlementJobs returns scheduled jobs whose due time has elapsed.
func (r *PostgresRepository) FindDueSettlementJobs(ctx context.Context, now time.Time, limit int) ([]domain.SettlementJob, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, transfer_log_id, due_at, status, created_at
		FROM settlement_jobs
		WHERE status = $1 AND due_at <= $2
		ORDER BY due_at
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, domain.SettlementJobScheduled, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.SettlementJob
	for rows.Next() {
		var job domain.SettlementJob
		if err := rows.Scan(&job.ID, &job.TransferLogID, &job.DueAt, &job.Status, &job.CreatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// MarkSettlementJobDone transitions a scheduled job to done. The status guard
// makes the sweep idempotent when two workers pick up the same job.
func (r *PostgresRepository) MarkSettlementJobDone(ctx context.Context, jobID uuid.UUID) error {
	result, err := r.db.Exec(ctx,
		`UPDATE settlement_jobs SET status = $1 WHERE id = $2 AND status = $3`,
		domain.SettlementJobDone, jobID, domain.SettlementJobScheduled,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrSettlementJobNotFound
	}
	return nil
}

const transactionSelect = `
	SELECT id, user_id, txn_ref, type, amount, to_account, from_bank, COALESCE(note, '') AS note, status, created_at
	FROM transactions`

func (r *PostgresRepository) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		err := rows.Scan(&t.ID, &t.UserID, &t.TxnRef, &t.Type, &t.Amount, &t.ToAccount, &t.FromBank, &t.Note, &t.Status, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// dbExecutor covers both the pool and an open pgx transaction, so the insert
// helpers serve the standalone repository methods and RecordTransfer alike.
type dbExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertTransaction(ctx context.Context, db dbExecutor, tx *domain.Transaction) error {
	_, err := db.Exec(ctx,
		`INSERT INTO transactions (id, user_id, txn_ref, type, amount, to_account, from_bank, note, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`,
		tx.ID, tx.UserID, tx.TxnRef, tx.Type, tx.Amount, tx.ToAccount, tx.FromBank, tx.Note, tx.Status,
	)
	return err
}

func insertTransferLog(ctx context.Context, db dbExecutor, log *domain.TransferLog) error {
	_, err := db.Exec(ctx,
		`INSERT INTO transfer_logs (
			id, txn_ref, sender_user_id, sender_name, sender_account,
			recipient_user_id, recipient_name, recipient_account, recipient_bank,
			amount, transfer_type, instant_status, backend_status, settlement_ref,
			prefunded_account_used, prefunded_account_balance, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())`,
		log.ID, log.TxnRef, log.SenderUserID, log.SenderName, log.SenderAccount,
		log.RecipientUserID, log.RecipientName, log.RecipientAccount, log.RecipientBank,
		log.Amount, log.TransferType, log.InstantStatus, log.BackendStatus, log.SettlementRef,
		log.PrefundedAccountUsed, log.PrefundedAccountBalance, log.Notes,
	)
	return err
}
