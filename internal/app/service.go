/**
 * @description
 * This file contains the core business logic for the transfer-service. The `Service`
 * struct orchestrates a funds transfer end to end: resolving both parties,
 * classifying the transfer against the partner bank registry, debiting the
 * prefunded float pool for inter-bank destinations, recording both ledger legs
 * atomically, and scheduling the deferred backend settlement.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For collision-resistant transfer references.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For publishing transfer events.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/wematrust/transfer-service/internal/domain"
	"github.com/wematrust/transfer-service/internal/store"
	"github.com/wematrust/transfer-service/pkg/rabbitmq"
)

var (
	ErrSenderNotFound               = errors.New("sender account not found")
	ErrRecipientNotFound            = errors.New("recipient account not found")
	ErrInsufficientBalance          = errors.New("insufficient balance")
	ErrInsufficientPrefundedBalance = errors.New("insufficient prefunded account balance")
)

// EventExchange is the durable topic exchange transfer events are published to.
const EventExchange = "wematrust.events"

// Service provides the core business logic for transfers.
type Service struct {
	repo            store.Repository
	events          rabbitmq.Publisher
	homeBankID      string
	settlementDelay time.Duration
}

// NewService creates a new transfer service instance.
func NewService(repo store.Repository, events rabbitmq.Publisher, homeBankID string, settlementDelay time.Duration) *Service {
	return &Service{
		repo:            repo,
		events:          events,
		homeBankID:      homeBankID,
		settlementDelay: settlementDelay,
	}
}

// TransferResult describes a completed transfer: both ledger legs, the
// transfer log, and the post-mutation balances of both accounts.
type TransferResult struct {
	Debit  *domain.Transaction
	Credit *domain.Transaction
	Log    *domain.TransferLog

	SenderAccountID    string
	SenderBalance      int64
	RecipientAccountID string
	RecipientBalance   int64
}

// ProcessTransfer handles the logic for a validated transfer request.
func (s *Service) ProcessTransfer(ctx context.Context, req domain.TransferRequest) (*TransferResult, error) {
	amount := req.Amount.Int64()

	// 1. Resolve sender: user record, then the linked ledger account.
	sender, err := s.repo.GetUser(ctx, req.FromUserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrSenderNotFound
		}
		return nil, fmt.Errorf("failed to find sender: %w", err)
	}
	if sender.AccountID == nil {
		return nil, ErrSenderNotFound
	}
	senderAccount, err := s.repo.GetAccount(ctx, *sender.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, ErrSenderNotFound
		}
		return nil, fmt.Errorf("failed to find sender account: %w", err)
	}

	// 2. Resolve recipient by account number.
	recipient, err := s.repo.FindUserByAccountNumber(ctx, req.ToAccountNumber)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, fmt.Errorf("failed to find recipient: %w", err)
	}
	if recipient.AccountID == nil {
		return nil, ErrRecipientNotFound
	}
	recipientAccount, err := s.repo.GetAccount(ctx, *recipient.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, fmt.Errorf("failed to find recipient account: %w", err)
	}

	// 3. Balance pre-check. The conditional update inside RecordTransfer is
	// what actually guards against a concurrent debit racing past this read.
	if senderAccount.Balance < amount {
		return nil, ErrInsufficientBalance
	}

	txnRef := "WT_" + uuid.NewString()

	// 4. Routing: a destination bank missing from the partner registry is the
	// home institution, settled purely on the internal ledger.
	var (
		recipientBankID = s.homeBankID
		bankStatus      = domain.BankStatusUp
		intraBank       = false
	)
	bank, err := s.repo.GetPartnerBank(ctx, req.FromBank)
	switch {
	case errors.Is(err, store.ErrPartnerBankNotFound):
		intraBank = true
	case err != nil:
		return nil, fmt.Errorf("failed to look up partner bank: %w", err)
	default:
		recipientBankID = bank.ID
		if bank.Status != "" {
			bankStatus = bank.Status
		}
	}
	problematicBank := bankStatus == domain.BankStatusSlow || bankStatus == domain.BankStatusDown

	// 5. Inter-bank transfers draw on the prefunded pool held against the
	// destination bank. The pool is debited even when that bank is SLOW or
	// DOWN; the discrepancy is reconciled during backend settlement.
	var (
		prefundedAccountID      *string
		prefundedAccountBalance *int64
	)
	if !intraBank {
		pools, err := s.repo.GetAllPrefundedAccounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list prefunded accounts: %w", err)
		}
		for i := range pools {
			if pools[i].BankID == recipientBankID && pools[i].Balance >= amount {
				id := pools[i].ID
				remaining := pools[i].Balance - amount
				prefundedAccountID = &id
				prefundedAccountBalance = &remaining
				break
			}
		}
		if prefundedAccountID == nil {
			return nil, ErrInsufficientPrefundedBalance
		}
	}

	// 6. Build both ledger legs. Both are marked successful immediately; the
	// instant credit does not wait for backend settlement.
	debitNote := req.Note
	if debitNote == "" {
		debitNote = fmt.Sprintf("Transfer to %s", req.ToAccountNumber)
	}
	creditNote := req.Note
	if creditNote == "" {
		creditNote = fmt.Sprintf("Transfer from %s", senderAccount.AccountNumber)
	}
	debit := &domain.Transaction{
		ID:        uuid.New(),
		UserID:    sender.ID,
		TxnRef:    txnRef,
		Type:      domain.TransactionTypeDebit,
		Amount:    amount,
		ToAccount: &req.ToAccountNumber,
		FromBank:  s.homeBankID,
		Note:      debitNote,
		Status:    domain.TransactionStatusSuccess,
	}
	credit := &domain.Transaction{
		ID:       uuid.New(),
		UserID:   recipient.ID,
		TxnRef:   txnRef,
		Type:     domain.TransactionTypeCredit,
		Amount:   amount,
		FromBank: s.homeBankID,
		Note:     creditNote,
		Status:   domain.TransactionStatusSuccess,
	}

	transferType := domain.TransferTypeInterBank
	logNotes := fmt.Sprintf("Instant transfer - Prefunded account used (Bank: %s)", bankStatus)
	if intraBank {
		transferType = domain.TransferTypeIntraBank
		logNotes = "Instant transfer - Internal ledger"
	}
	backendStatus := domain.BackendStatusPending
	if problematicBank {
		backendStatus = domain.BackendStatusUnresolved
	}
	transferLog := &domain.TransferLog{
		ID:                      uuid.New(),
		TxnRef:                  txnRef,
		SenderUserID:            sender.ID,
		SenderName:              sender.Name,
		SenderAccount:           senderAccount.AccountNumber,
		RecipientUserID:         recipient.ID,
		RecipientName:           recipient.Name,
		RecipientAccount:        recipientAccount.AccountNumber,
		RecipientBank:           recipientBankID,
		Amount:                  amount,
		TransferType:            transferType,
		InstantStatus:           domain.InstantStatusCredited,
		BackendStatus:           backendStatus,
		PrefundedAccountUsed:    prefundedAccountID,
		PrefundedAccountBalance: prefundedAccountBalance,
		Notes:                   logNotes,
	}

	// 7. Deferred settlement is only scheduled for healthy banks; UNRESOLVED
	// logs wait for manual reconciliation and never settle on their own.
	var settlementDueAt *time.Time
	if !problematicBank {
		due := time.Now().UTC().Add(s.settlementDelay)
		settlementDueAt = &due
	}

	senderBalance, recipientBalance, err := s.repo.RecordTransfer(ctx, store.RecordTransferParams{
		Debit:              debit,
		Credit:             credit,
		SenderAccountID:    senderAccount.ID,
		RecipientAccountID: recipientAccount.ID,
		Amount:             amount,
		PrefundedAccountID: prefundedAccountID,
		Log:                transferLog,
		SettlementDueAt:    settlementDueAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInsufficientFunds):
			return nil, ErrInsufficientBalance
		case errors.Is(err, store.ErrInsufficientPrefundedFunds):
			return nil, ErrInsufficientPrefundedBalance
		}
		return nil, fmt.Errorf("failed to record transfer: %w", err)
	}

	log.Printf("level=info component=app msg=\"instant transfer\" txn_ref=%s sender=%s recipient=%s amount=%d transfer_type=%s backend_status=%s",
		txnRef, sender.ID, recipient.ID, amount, transferType, backendStatus)

	if s.events != nil {
		event := domain.TransferInitiatedEvent{
			TxnRef:          txnRef,
			SenderUserID:    sender.ID,
			RecipientUserID: recipient.ID,
			Amount:          amount,
			TransferType:    transferType,
			BackendStatus:   backendStatus,
			Timestamp:       time.Now().UTC(),
		}
		if err := s.events.Publish(ctx, EventExchange, "transfer.initiated", event); err != nil {
			log.Printf("level=warn component=app msg=\"transfer.initiated publish failed\" txn_ref=%s err=%v", txnRef, err)
		}
	}

	return &TransferResult{
		Debit:              debit,
		Credit:             credit,
		Log:                transferLog,
		SenderAccountID:    senderAccount.ID,
		SenderBalance:      senderBalance,
		RecipientAccountID: recipientAccount.ID,
		RecipientBalance:   recipientBalance,
	}, nil
}

// GetTransferDetails retrieves a transfer log and both of its ledger legs.
func (s *Service) GetTransferDetails(ctx context.Context, txnRef string) (*domain.TransferLog, []domain.Transaction, error) {
	transferLog, err := s.repo.GetTransferLogByRef(ctx, txnRef)
	if err != nil {
		return nil, nil, err
	}
	transactions, err := s.repo.FindTransactionsByTxnRef(ctx, txnRef)
	if err != nil {
		return nil, nil, err
	}
	return transferLog, transactions, nil
}

// GetUserTransactions retrieves a user's transaction history, newest first.
func (s *Service) GetUserTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return s.repo.FindTransactionsByUserID(ctx, userID)
}
