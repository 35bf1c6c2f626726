/**
 * @description
 * This file defines the core domain models for the transfer-service.
 * These structs represent the main entities and data transfer objects (DTOs)
 * used throughout the service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Amounts are stored as `int64` to represent the value in the smallest currency
 *   unit (kobo), which avoids floating-point inaccuracies with financial data.
 * - Transfer and settlement references are UUID-backed rather than timestamp
 *   strings so concurrent requests cannot collide.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Bank operational statuses reported by the partner bank registry.
const (
	BankStatusUp   = "UP"
	BankStatusSlow = "SLOW"
	BankStatusDown = "DOWN"
)

// Transfer classification.
const (
	TransferTypeIntraBank = "INTRA_BANK"
	TransferTypeInterBank = "INTER_BANK"
)

// Instant credit status. The receiving ledger is credited synchronously, so
// every transfer that reaches the mutation stage carries this status.
const InstantStatusCredited = "CREDITED"

// Backend settlement statuses for a transfer log.
const (
	BackendStatusPending    = "PENDING"
	BackendStatusUnresolved = "UNRESOLVED"
	BackendStatusSettled    = "SETTLED"
)

// Transaction direction and terminal state.
const (
	TransactionTypeDebit     = "debit"
	TransactionTypeCredit    = "credit"
	TransactionStatusSuccess = "success"
)

// Settlement job states.
const (
	SettlementJobScheduled = "scheduled"
	SettlementJobDone      = "done"
)

// User represents a customer of the home institution. AccountID is nil for
// users that have not completed account provisioning.
type User struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AccountID *string `json:"account_id,omitempty"`
}

// Account represents a ledger account held at the home institution.
type Account struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number"`
	Balance       int64  `json:"balance"` // in kobo
}

// PartnerBank is an entry in the partner bank registry. A destination bank
// that does not appear in the registry is treated as the home institution.
type PartnerBank struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// PrefundedAccount is a float pool held against one partner bank, used to
// instantly satisfy inter-bank transfers ahead of real settlement.
type PrefundedAccount struct {
	ID      string `json:"id"`
	BankID  string `json:"bank_id"`
	Balance int64  `json:"balance"` // in kobo
}

// Transaction is one leg of a transfer. Exactly one debit and one credit
// share a TxnRef.
type Transaction struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	TxnRef    string    `json:"txn_ref"`
	Type      string    `json:"type"` // 'debit' or 'credit'
	Amount    int64     `json:"amount"`
	ToAccount *string   `json:"to_account,omitempty"`
	FromBank  string    `json:"from_bank"`
	Note      string    `json:"note"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// TransferLog tracks the instant credit and the asynchronous backend
// settlement of one transfer attempt.
type TransferLog struct {
	ID                      uuid.UUID `json:"id"`
	TxnRef                  string    `json:"txn_ref"`
	SenderUserID            string    `json:"sender_user_id"`
	SenderName              string    `json:"sender_name"`
	SenderAccount           string    `json:"sender_account"`
	RecipientUserID         string    `json:"recipient_user_id"`
	RecipientName           string    `json:"recipient_name"`
	RecipientAccount        string    `json:"recipient_account"`
	RecipientBank           string    `json:"recipient_bank"`
	Amount                  int64     `json:"amount"`
	TransferType            string    `json:"transfer_type"`
	InstantStatus           string    `json:"instant_status"`
	BackendStatus           string    `json:"backend_status"`
	SettlementRef           *string   `json:"settlement_ref,omitempty"`
	PrefundedAccountUsed    *string   `json:"prefunded_account_used,omitempty"`
	PrefundedAccountBalance *int64    `json:"prefunded_account_balance,omitempty"`
	Notes                   string    `json:"notes"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// SettlementJob is a durable deferred settlement entry. Jobs are written in
// the same database transaction as the transfer log they settle, so a process
// restart cannot drop a pending settlement.
type SettlementJob struct {
	ID            uuid.UUID `json:"id"`
	TransferLogID uuid.UUID `json:"transfer_log_id"`
	DueAt         time.Time `json:"due_at"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// TransferInitiatedEvent is published when a transfer has been recorded.
type TransferInitiatedEvent struct {
	TxnRef          string    `json:"txn_ref"`
	SenderUserID    string    `json:"sender_user_id"`
	RecipientUserID string    `json:"recipient_user_id"`
	Amount          int64     `json:"amount"`
	TransferType    string    `json:"transfer_type"`
	BackendStatus   string    `json:"backend_status"`
	Timestamp       time.Time `json:"timestamp"`
}

// TransferSettledEvent is published when a deferred settlement completes.
type TransferSettledEvent struct {
	TransferLogID uuid.UUID `json:"transfer_log_id"`
	SettlementRef string    `json:"settlement_ref"`
	Timestamp     time.Time `json:"timestamp"`
}
