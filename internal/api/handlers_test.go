package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wematrust/transfer-service/internal/app"
	"github.com/wematrust/transfer-service/internal/domain"
	"github.com/wematrust/transfer-service/internal/store"
)

// handlerRepo is a minimal in-memory Repository for exercising the HTTP layer
// end to end through the real service and router.
type handlerRepo struct {
	store.Repository

	users        map[string]*domain.User
	accounts     map[string]*domain.Account
	transferLogs map[string]*domain.TransferLog
	transactions []domain.Transaction
}

func newHandlerRepo() *handlerRepo {
	return &handlerRepo{
		users:        make(map[string]*domain.User),
		accounts:     make(map[string]*domain.Account),
		transferLogs: make(map[string]*domain.TransferLog),
	}
}

func (r *handlerRepo) addUser(id, name, accountID, accountNumber string, balance int64) {
	r.users[id] = &domain.User{ID: id, Name: name, AccountID: &accountID}
	r.accounts[accountID] = &domain.Account{ID: accountID, AccountNumber: accountNumber, Balance: balance}
}

func (r *handlerRepo) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (r *handlerRepo) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, ok := r.accounts[id]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return account, nil
}

func (r *handlerRepo) FindUserByAccountNumber(ctx context.Context, accountNumber string) (*domain.User, error) {
	for _, user := range r.users {
		if user.AccountID == nil {
			continue
		}
		if acc, ok := r.accounts[*user.AccountID]; ok && acc.AccountNumber == accountNumber {
			return user, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (r *handlerRepo) GetPartnerBank(ctx context.Context, name string) (*domain.PartnerBank, error) {
	return nil, store.ErrPartnerBankNotFound
}

func (r *handlerRepo) GetAllPrefundedAccounts(ctx context.Context) ([]domain.PrefundedAccount, error) {
	return nil, nil
}

func (r *handlerRepo) RecordTransfer(ctx context.Context, params store.RecordTransferParams) (int64, int64, error) {
	sender := r.accounts[params.SenderAccountID]
	if sender.Balance < params.Amount {
		return 0, 0, store.ErrInsufficientFunds
	}
	sender.Balance -= params.Amount
	recipient := r.accounts[params.RecipientAccountID]
	recipient.Balance += params.Amount
	r.transferLogs[params.Log.TxnRef] = params.Log
	r.transactions = append(r.transactions, *params.Debit, *params.Credit)
	return sender.Balance, recipient.Balance, nil
}

func (r *handlerRepo) GetTransferLogByRef(ctx context.Context, txnRef string) (*domain.TransferLog, error) {
	transferLog, ok := r.transferLogs[txnRef]
	if !ok {
		return nil, store.ErrTransferLogNotFound
	}
	return transferLog, nil
}

func (r *handlerRepo) FindTransactionsByTxnRef(ctx context.Context, txnRef string) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, tx := range r.transactions {
		if tx.TxnRef == txnRef {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *handlerRepo) FindTransactionsByUserID(ctx context.Context, userID string) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, tx := range r.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func newTestRouter(repo store.Repository) http.Handler {
	service := app.NewService(repo, nil, "WemaTrust", 3*time.Second)
	return TransferRoutes(NewTransferHandlers(service), RouterConfig{AllowedOrigins: []string{"*"}})
}

func postTransfer(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/transfers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateTransfer_EmptyBodyReturnsFieldErrors(t *testing.T) {
	router := newTestRouter(newHandlerRepo())

	rec := postTransfer(t, router, `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var payload struct {
		Error []domain.FieldError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Len(t, payload.Error, 4)
}

func TestCreateTransfer_MalformedJSON(t *testing.T) {
	router := newTestRouter(newHandlerRepo())

	rec := postTransfer(t, router, `{"amount":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request body")
}

func TestCreateTransfer_SenderNotFound(t *testing.T) {
	repo := newHandlerRepo()
	repo.addUser("user-2", "Bayo", "acc-2", "2222222222", 1000)
	router := newTestRouter(repo)

	rec := postTransfer(t, router, `{"fromUserId":"ghost","toAccountNumber":"2222222222","amount":500,"fromBank":"WemaTrust"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sender account not found")
}

func TestCreateTransfer_RecipientNotFound(t *testing.T) {
	repo := newHandlerRepo()
	repo.addUser("user-1", "Ada", "acc-1", "1111111111", 5000)
	router := newTestRouter(repo)

	rec := postTransfer(t, router, `{"fromUserId":"user-1","toAccountNumber":"9999999999","amount":500,"fromBank":"WemaTrust"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Recipient account not found")
}

func TestCreateTransfer_InsufficientBalance(t *testing.T) {
	repo := newHandlerRepo()
	repo.addUser("user-1", "Ada", "acc-1", "1111111111", 100)
	repo.addUser("user-2", "Bayo", "acc-2", "2222222222", 1000)
	router := newTestRouter(repo)

	rec := postTransfer(t, router, `{"fromUserId":"user-1","toAccountNumber":"2222222222","amount":500,"fromBank":"WemaTrust"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Insufficient balance")
}

func TestCreateTransfer_Success(t *testing.T) {
	repo := newHandlerRepo()
	repo.addUser("user-1", "Ada", "acc-1", "1111111111", 5000)
	repo.addUser("user-2", "Bayo", "acc-2", "2222222222", 1000)
	router := newTestRouter(repo)

	rec := postTransfer(t, router, `{"fromUserId":"user-1","toAccountNumber":"2222222222","amount":2000,"fromBank":"WemaTrust"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Success     bool   `json:"success"`
		Message     string `json:"message"`
		TransferLog struct {
			InstantStatus string `json:"instantStatus"`
			BackendStatus string `json:"backendStatus"`
			TransferType  string `json:"transferType"`
		} `json:"transferLog"`
		NewBalances struct {
			Sender    struct{ Balance int64 } `json:"sender"`
			Recipient struct{ Balance int64 } `json:"recipient"`
		} `json:"newBalances"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

	assert.True(t, payload.Success)
	assert.Equal(t, "Transfer of 2000 successful", payload.Message)
	assert.Equal(t, domain.InstantStatusCredited, payload.TransferLog.InstantStatus)
	assert.Equal(t, domain.BackendStatusPending, payload.TransferLog.BackendStatus)
	assert.Equal(t, domain.TransferTypeIntraBank, payload.TransferLog.TransferType)
	assert.Equal(t, int64(3000), payload.NewBalances.Sender.Balance)
	assert.Equal(t, int64(3000), payload.NewBalances.Recipient.Balance)
}

func TestGetTransfer_ReturnsLogAndBothLegs(t *testing.T) {
	repo := newHandlerRepo()
	repo.addUser("user-1", "Ada", "acc-1", "1111111111", 5000)
	repo.addUser("user-2", "Bayo", "acc-2", "2222222222", 1000)
	router := newTestRouter(repo)

	rec := postTransfer(t, router, `{"fromUserId":"user-1","toAccountNumber":"2222222222","amount":2000,"fromBank":"WemaTrust"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		DebitTransaction struct {
			TxnRef string `json:"txn_ref"`
		} `json:"debitTransaction"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.DebitTransaction.TxnRef)

	getReq := httptest.NewRequest(http.MethodGet, "/transfers/"+created.DebitTransaction.TxnRef, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)

	var detail struct {
		TransferLog  domain.TransferLog   `json:"transferLog"`
		Transactions []domain.Transaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &detail))
	assert.Equal(t, created.DebitTransaction.TxnRef, detail.TransferLog.TxnRef)
	assert.Len(t, detail.Transactions, 2)
}

func TestGetTransfer_UnknownReference(t *testing.T) {
	router := newTestRouter(newHandlerRepo())

	req := httptest.NewRequest(http.MethodGet, "/transfers/WT_missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Transfer not found")
}

func TestListUserTransactions_EmptyHistoryIsEmptyArray(t *testing.T) {
	router := newTestRouter(newHandlerRepo())

	req := httptest.NewRequest(http.MethodGet, "/users/user-1/transactions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(newHandlerRepo())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerAuthMiddleware_RejectsMissingToken(t *testing.T) {
	repo := newHandlerRepo()
	service := app.NewService(repo, nil, "WemaTrust", 3*time.Second)
	router := TransferRoutes(NewTransferHandlers(service), RouterConfig{
		AllowedOrigins: []string{"*"},
		JWTSecret:      "test-secret",
	})

	req := httptest.NewRequest(http.MethodPost, "/transfers", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
