package transfer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/gemwallet/internal/logging"
	"github.com/congo-pay/gemwallet/internal/notification"
	"github.com/congo-pay/gemwallet/internal/wallet"
)

type testNotifier struct {
	sent []notification.Message
	err  error
}

func (n *testNotifier) Send(_ context.Context, msg notification.Message) error {
	n.sent = append(n.sent, msg)
	return n.err
}

func newServiceFixture(t *testing.T, notifier notification.Notifier) (*Service, *wallet.MemoryStore) {
	t.Helper()
	store := wallet.NewMemoryStore()
	addWallet(t, store, giverUser, 10, 2000)
	addWallet(t, store, recipientUser, 10, 2000)
	retrier := NewRetrier(NewExecutor(store, logging.Discard()), DefaultRetryPolicy(), logging.Discard(), nil)
	return NewService(retrier, notifier, logging.Discard()), store
}

func TestServiceTransferNotifiesOnCommit(t *testing.T) {
	notifier := &testNotifier{}
	svc, store := newServiceFixture(t, notifier)

	require.NoError(t, svc.Transfer(context.Background(), softTransfer(100)))
	require.EqualValues(t, 1900, balances(t, store, giverUser).SoftCurrency)
	require.EqualValues(t, 2100, balances(t, store, recipientUser).SoftCurrency)

	require.Len(t, notifier.sent, 1)
	require.Equal(t, notification.KindTransferCompleted, notifier.sent[0].Kind)
	require.Equal(t, Completed{Currency: "softCurrency", GiverID: giverUser, RecipientID: recipientUser, Amount: 100}, notifier.sent[0].Payload)
}

func TestServiceTransferIgnoresNotifierFailure(t *testing.T) {
	notifier := &testNotifier{err: errors.New("broker down")}
	svc, store := newServiceFixture(t, notifier)

	require.NoError(t, svc.Transfer(context.Background(), softTransfer(100)))
	require.EqualValues(t, 1900, balances(t, store, giverUser).SoftCurrency)
}

func TestServiceRejectsSelfTransfer(t *testing.T) {
	notifier := &testNotifier{}
	svc, _ := newServiceFixture(t, notifier)

	req := softTransfer(10)
	req.RecipientID = req.GiverID
	require.ErrorIs(t, svc.Transfer(context.Background(), req), ErrSelfTransfer)
	require.Empty(t, notifier.sent)
}

func TestServiceFailureSkipsNotification(t *testing.T) {
	notifier := &testNotifier{}
	svc, _ := newServiceFixture(t, notifier)

	require.ErrorIs(t, svc.Transfer(context.Background(), softTransfer(5000)), ErrInsufficientFunds)
	require.Empty(t, notifier.sent)
}

func TestHandlerStatusMapping(t *testing.T) {
	svc, _ := newServiceFixture(t, nil)
	app := fiber.New()
	app.Post("/transfers", NewHandler(svc).Create)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"ok", `{"sender_id":"giver-user-0001","receiver_id":"recipient-user-0001","amount":100,"currency":"softCurrency"}`, http.StatusOK},
		{"missing fields", `{"sender_id":"giver-user-0001","amount":100}`, http.StatusBadRequest},
		{"bad currency", `{"sender_id":"giver-user-0001","receiver_id":"recipient-user-0001","amount":1,"currency":"gold"}`, http.StatusBadRequest},
		{"bad amount", `{"sender_id":"giver-user-0001","receiver_id":"recipient-user-0001","amount":0,"currency":"softCurrency"}`, http.StatusBadRequest},
		{"self", `{"sender_id":"giver-user-0001","receiver_id":"giver-user-0001","amount":1,"currency":"softCurrency"}`, http.StatusBadRequest},
		{"unknown user", `{"sender_id":"giver-user-0001","receiver_id":"unknown-user-01","amount":1,"currency":"softCurrency"}`, http.StatusNotFound},
		{"insufficient", `{"sender_id":"giver-user-0001","receiver_id":"recipient-user-0001","amount":99999,"currency":"softCurrency"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodPost, "/transfers", strings.NewReader(tc.body))
			req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestStatusFor(t *testing.T) {
	require.Equal(t, http.StatusConflict, StatusFor(fail(ErrLockAcquisitionFailed, nil)))
	require.Equal(t, http.StatusServiceUnavailable, StatusFor(&Error{Kind: KindMaxRetryExceeded, MaxAttempts: 3}))
	require.Equal(t, http.StatusInternalServerError, StatusFor(ErrUpdateRecipientWalletFailed))
	require.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("unexpected")))
}
