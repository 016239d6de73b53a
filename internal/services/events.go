package services

import (
	"context"

	interf "github.com/glkeru/barbershop/internal/interfaces"
	model "github.com/glkeru/barbershop/internal/models"
	"go.uber.org/zap"
)

// Subscriber reacts to a confirmed booking inside the confirming transaction.
type Subscriber func(ctx context.Context, tx interf.Tx, ev model.BookingConfirmedEvent) error

// Dispatcher delivers booking events to the modules that registered for them.
type Dispatcher struct {
	logger      *zap.Logger
	subscribers []Subscriber
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

func (d *Dispatcher) Subscribe(s Subscriber) {
	d.subscribers = append(d.subscribers, s)
}

// BookingConfirmed runs each subscriber in its own savepoint. A failing subscriber is
// rolled back and logged, the booking itself still commits.
func (d *Dispatcher) BookingConfirmed(ctx context.Context, tx interf.Tx, ev model.BookingConfirmedEvent) {
	for _, s := range d.subscribers {
		err := tx.Savepoint(ctx, func(sp interf.Tx) error {
			return s(ctx, sp, ev)
		})
		if err != nil {
			d.logger.Error("booking subscriber failed",
				zap.String("booking", ev.BookingID.String()),
				zap.String("user", ev.UserID),
				zap.Error(err))
		}
	}
}
