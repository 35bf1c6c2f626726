/**
 * @description
 * This file contains the HTTP handlers for the transfer-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wematrust/transfer-service/internal/app"
	"github.com/wematrust/transfer-service/internal/domain"
	"github.com/wematrust/transfer-service/internal/store"
)

// TransferHandlers holds the application service that handlers will use.
type TransferHandlers struct {
	service *app.Service
}

// NewTransferHandlers creates a new instance of TransferHandlers.
func NewTransferHandlers(service *app.Service) *TransferHandlers {
	return &TransferHandlers{service: service}
}

// transferLogSummary is the compact view of a transfer log returned from the
// transfer endpoint. Key casing mirrors what the web clients already consume.
type transferLogSummary struct {
	ID            string `json:"id"`
	InstantStatus string `json:"instantStatus"`
	BackendStatus string `json:"backendStatus"`
	TransferType  string `json:"transferType"`
}

type balanceSummary struct {
	ID      string `json:"id"`
	Balance int64  `json:"balance"`
}

// transferResponse is the success payload for a completed transfer.
type transferResponse struct {
	Success           bool                `json:"success"`
	Message           string              `json:"message"`
	DebitTransaction  *domain.Transaction `json:"debitTransaction"`
	CreditTransaction *domain.Transaction `json:"creditTransaction"`
	TransferLog       transferLogSummary  `json:"transferLog"`
	NewBalances       struct {
		Sender    balanceSummary `json:"sender"`
		Recipient balanceSummary `json:"recipient"`
	} `json:"newBalances"`
}

// CreateTransferHandler handles requests to move funds between two accounts.
func (h *TransferHandlers) CreateTransferHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=create_transfer outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if fieldErrs := req.Validate(); len(fieldErrs) > 0 {
		log.Printf("level=warn component=api endpoint=create_transfer outcome=reject reason=validation_failed fields=%d", len(fieldErrs))
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": fieldErrs})
		return
	}

	result, err := h.service.ProcessTransfer(r.Context(), req)
	if err != nil {
		log.Printf("level=warn component=api endpoint=create_transfer outcome=failed from_user_id=%s err=%v", req.FromUserID, err)
		switch {
		case errors.Is(err, app.ErrSenderNotFound):
			h.writeError(w, http.StatusNotFound, "Sender account not found")
		case errors.Is(err, app.ErrRecipientNotFound):
			h.writeError(w, http.StatusNotFound, "Recipient account not found")
		case errors.Is(err, app.ErrInsufficientBalance):
			h.writeError(w, http.StatusBadRequest, "Insufficient balance")
		case errors.Is(err, app.ErrInsufficientPrefundedBalance):
			h.writeError(w, http.StatusBadRequest, "Insufficient prefunded account balance")
		default:
			h.writeError(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	response := transferResponse{
		Success:           true,
		Message:           fmt.Sprintf("Transfer of %d successful", result.Log.Amount),
		DebitTransaction:  result.Debit,
		CreditTransaction: result.Credit,
		TransferLog: transferLogSummary{
			ID:            result.Log.ID.String(),
			InstantStatus: result.Log.InstantStatus,
			BackendStatus: result.Log.BackendStatus,
			TransferType:  result.Log.TransferType,
		},
	}
	response.NewBalances.Sender = balanceSummary{ID: result.SenderAccountID, Balance: result.SenderBalance}
	response.NewBalances.Recipient = balanceSummary{ID: result.RecipientAccountID, Balance: result.RecipientBalance}

	h.writeJSON(w, http.StatusOK, response)
}

// GetTransferHandler handles requests to fetch one transfer by its reference.
func (h *TransferHandlers) GetTransferHandler(w http.ResponseWriter, r *http.Request) {
	txnRef := strings.TrimSpace(chi.URLParam(r, "reference"))
	if txnRef == "" {
		h.writeError(w, http.StatusBadRequest, "Transfer reference is required")
		return
	}

	transferLog, transactions, err := h.service.GetTransferDetails(r.Context(), txnRef)
	if err != nil {
		if errors.Is(err, store.ErrTransferLogNotFound) {
			h.writeError(w, http.StatusNotFound, "Transfer not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_transfer outcome=failed txn_ref=%s err=%v", txnRef, err)
		h.writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"transferLog":  transferLog,
		"transactions": transactions,
	})
}

// ListUserTransactionsHandler handles requests for a user's transaction history.
func (h *TransferHandlers) ListUserTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userId"))
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	transactions, err := h.service.GetUserTransactions(r.Context(), userID)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_transactions outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}

	h.writeJSON(w, http.StatusOK, transactions)
}

// writeJSON is a helper for writing JSON responses.
func (h *TransferHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *TransferHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
