package transfer

import (
	"context"
	"log/slog"
	"time"

	"github.com/congo-pay/gemwallet/internal/notification"
)

// Service is the entry point used by request handlers.
type Service struct {
	runner   Runner
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService wires a retrying transfer service over runner.
func NewService(runner Runner, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{runner: runner, notifier: notifier, logger: logger}
}

// Completed is the payload published after a transfer commits.
type Completed struct {
	Currency    string `json:"currency"`
	GiverID     string `json:"giver_id"`
	RecipientID string `json:"recipient_id"`
	Amount      int64  `json:"amount"`
}

// Transfer moves req.Amount of req.Currency from the giver to the recipient.
// A nil error means both wallets were updated in one committed transaction.
func (s *Service) Transfer(ctx context.Context, req Request) error {
	if req.GiverID == req.RecipientID {
		return ErrSelfTransfer
	}
	if err := s.runner.Execute(ctx, req); err != nil {
		s.logger.Error("transfer failed",
			slog.String("kind", KindOf(err).String()),
			slog.String("giver_id", req.GiverID),
			slog.String("recipient_id", req.RecipientID),
			slog.Any("error", err),
		)
		return err
	}

	if s.notifier != nil {
		err := s.notifier.Send(ctx, notification.Message{
			Kind: notification.KindTransferCompleted,
			Key:  req.GiverID,
			Payload: Completed{
				Currency:    string(req.Currency),
				GiverID:     req.GiverID,
				RecipientID: req.RecipientID,
				Amount:      req.Amount,
			},
			OccurredAt: time.Now().UTC(),
		})
		if err != nil {
			s.logger.Warn("transfer notification not delivered", slog.Any("error", err))
		}
	}
	return nil
}
