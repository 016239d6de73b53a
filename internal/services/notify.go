package services

import (
	"context"
	"time"

	interf "github.com/glkeru/barbershop/internal/interfaces"
	model "github.com/glkeru/barbershop/internal/models"
	"go.uber.org/zap"
)

// NotificationService registers devices and delivers queued pushes to them.
type NotificationService struct {
	logger  *zap.Logger
	devices interf.DeviceStorage
	sender  interf.PushSender
}

// sender is only needed by the delivery worker
func NewNotificationService(logger *zap.Logger, devices interf.DeviceStorage, sender interf.PushSender) *NotificationService {
	return &NotificationService{logger, devices, sender}
}

func (s *NotificationService) RegisterDevice(ctx context.Context, userID, token, platform string) error {
	if token == "" {
		return model.ErrValidation.WithMessage("token is required")
	}
	switch platform {
	case "ios", "android":
	default:
		return model.ErrValidation.WithMessage("platform must be ios or android")
	}
	return s.devices.SaveDevice(ctx, model.Device{
		UserID:    userID,
		Token:     token,
		Platform:  platform,
		UpdatedAt: time.Now(),
	})
}

// Deliver sends the notification to every device of the user.
// Returns the number of devices reached; per-device failures are only logged.
func (s *NotificationService) Deliver(ctx context.Context, n model.Notification) (int, error) {
	devices, err := s.devices.GetDevices(ctx, n.UserID)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, d := range devices {
		err = s.sender.Send(ctx, d.Token, n.Title, n.Body, n.Data)
		if err != nil {
			s.logger.Warn("push failed",
				zap.String("user", n.UserID),
				zap.String("platform", d.Platform),
				zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

// BookingNotification turns a booking event into the push for its owner.
func BookingNotification(ev model.BookingEvent) (model.Notification, bool) {
	when := ev.Start.Format("02.01.2006 15:04")
	data := map[string]string{"type": ev.Type, "bookingId": ev.BookingID.String()}
	switch ev.Type {
	case model.EventBookingConfirmed:
		return model.Notification{
			UserID: ev.UserID,
			Title:  "Appointment confirmed",
			Body:   "See you on " + when + ".",
			Data:   data,
		}, true
	case model.EventBookingCanceled:
		return model.Notification{
			UserID: ev.UserID,
			Title:  "Appointment canceled",
			Body:   "Your appointment on " + when + " was canceled.",
			Data:   data,
		}, true
	}
	return model.Notification{}, false
}
