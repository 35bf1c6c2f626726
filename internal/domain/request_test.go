package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRequest(t *testing.T, body string) TransferRequest {
	t.Helper()
	var req TransferRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req
}

func TestValidate_EmptyRequestReportsEveryField(t *testing.T) {
	req := decodeRequest(t, `{}`)

	errs := req.Validate()
	require.Len(t, errs, 4)

	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field] = fe.Message
	}
	assert.Equal(t, "From user ID is required", fields["fromUserId"])
	assert.Equal(t, "Account number must be 10 digits", fields["toAccountNumber"])
	assert.Equal(t, "Amount must be positive", fields["amount"])
	assert.Equal(t, "Destination bank is required", fields["fromBank"])
}

func TestValidate_AccountNumberMustBeTenDigits(t *testing.T) {
	req := decodeRequest(t, `{"fromUserId":"user-1","toAccountNumber":"123456789","amount":100,"fromBank":"Sterling"}`)

	errs := req.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, "toAccountNumber", errs[0].Field)
}

func TestValidate_ValidRequestHasNoErrors(t *testing.T) {
	req := decodeRequest(t, `{"fromUserId":"user-1","toAccountNumber":"0123456789","amount":2000,"fromBank":"Sterling","note":"rent"}`)

	assert.Empty(t, req.Validate())
	assert.Equal(t, int64(2000), req.Amount.Int64())
}

func TestAmount_CoercesNumericStrings(t *testing.T) {
	req := decodeRequest(t, `{"amount":"2000"}`)
	assert.True(t, req.Amount.Positive())
	assert.Equal(t, int64(2000), req.Amount.Int64())
}

func TestAmount_AcceptsWholeFloats(t *testing.T) {
	req := decodeRequest(t, `{"amount":2000.0}`)
	assert.True(t, req.Amount.Positive())
	assert.Equal(t, int64(2000), req.Amount.Int64())
}

func TestAmount_RejectsFractionalValues(t *testing.T) {
	req := decodeRequest(t, `{"amount":2000.5}`)
	assert.False(t, req.Amount.Positive())
}

func TestAmount_RejectsGarbageAndNonPositive(t *testing.T) {
	for _, body := range []string{
		`{"amount":"abc"}`,
		`{"amount":0}`,
		`{"amount":-500}`,
		`{"amount":null}`,
	} {
		req := decodeRequest(t, body)
		assert.False(t, req.Amount.Positive(), "body: %s", body)
	}
}
