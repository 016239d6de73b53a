package services

import (
	"context"
	"errors"
	"strings"
	"time"

	interf "github.com/glkeru/barbershop/internal/interfaces"
	model "github.com/glkeru/barbershop/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingOptions struct {
	CancelCutoff time.Duration
	LocalCancel  bool
	Region       string
}

// BookingService runs the reserve/confirm protocol against the scheduling provider.
type BookingService struct {
	logger     *zap.Logger
	db         interf.BookingStorage
	provider   interf.SchedulingProvider
	cache      interf.CacheStorage
	publisher  interf.EventPublisher
	dispatcher *Dispatcher
	opts       BookingOptions
	now        func() time.Time
}

// cache and publisher may be nil
func NewBookingService(logger *zap.Logger, db interf.BookingStorage, provider interf.SchedulingProvider, cache interf.CacheStorage, publisher interf.EventPublisher, dispatcher *Dispatcher, opts BookingOptions) *BookingService {
	return &BookingService{
		logger:     logger,
		db:         db,
		provider:   provider,
		cache:      cache,
		publisher:  publisher,
		dispatcher: dispatcher,
		opts:       opts,
		now:        time.Now,
	}
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	kindBranch  = "branch"
	kindService = "service"
)

type ReserveRequest struct {
	BranchID   string `json:"branchId"`
	ServiceID  string `json:"serviceId"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	ResourceID string `json:"resourceId,omitempty"`
}

// Фаза 1: временная бронь у провайдера
func (s *BookingService) Reserve(ctx context.Context, userID string, req ReserveRequest) (model.Reservation, error) {
	if req.BranchID == "" || req.ServiceID == "" {
		return model.Reservation{}, model.ErrBookingValidation.WithMessage("branchId and serviceId are required")
	}
	if _, err := slotStart(req.Date, req.Time); err != nil {
		return model.Reservation{}, model.ErrBookingValidation.WithMessage("date must be YYYY-MM-DD and time HH:MM")
	}

	hold, err := s.provider.CreateReservation(ctx, model.ProviderReservationRequest{
		CompanyID:  req.BranchID,
		ServiceID:  req.ServiceID,
		Date:       req.Date,
		Time:       req.Time,
		ResourceID: req.ResourceID,
	})
	if err != nil {
		return model.Reservation{}, err
	}

	r := model.Reservation{
		ID:                  uuid.New(),
		UserID:              userID,
		BranchID:            req.BranchID,
		ServiceID:           req.ServiceID,
		ResourceID:          req.ResourceID,
		ReservedDate:        req.Date,
		ReservedTime:        req.Time,
		TimifyReservationID: hold.ReservationID,
		TimifySecret:        hold.Secret,
		ExpiresAt:           hold.ExpiresAt,
		CreatedAt:           s.now(),
	}
	err = s.db.CreateReservation(ctx, r)
	if err != nil {
		return model.Reservation{}, err
	}
	s.logger.Info("slot reserved",
		zap.String("user", userID),
		zap.String("reservation", r.ID.String()),
		zap.Time("expires", r.ExpiresAt))
	return r, nil
}

// Confirm turns a held reservation into a booking. Nothing is written locally
// unless the provider confirmed.
func (s *BookingService) Confirm(ctx context.Context, userID string, reservationID uuid.UUID) (model.Booking, error) {
	r, err := s.db.GetReservation(ctx, reservationID)
	if err != nil {
		return model.Booking{}, err
	}
	if r.UserID != userID {
		return model.Booking{}, model.ErrForbidden
	}
	now := s.now()
	if r.UsedAt != nil {
		return model.Booking{}, model.ErrBookingValidation.WithMessage("reservation already used")
	}
	if !r.ExpiresAt.After(now) {
		return model.Booking{}, model.ErrBookingValidation.WithMessage("reservation expired")
	}
	start, err := slotStart(r.ReservedDate, r.ReservedTime)
	if err != nil {
		return model.Booking{}, model.ErrBookingValidation.WithMessage("reservation has invalid slot")
	}

	appt, err := s.provider.ConfirmAppointment(ctx, model.ProviderConfirmRequest{
		CompanyID:          r.BranchID,
		ReservationID:      r.TimifyReservationID,
		Secret:             r.TimifySecret,
		ExternalCustomerID: userID,
		Region:             s.opts.Region,
	})
	if err != nil {
		return model.Booking{}, err
	}

	b := model.Booking{
		ID:                  uuid.New(),
		UserID:              userID,
		BranchID:            r.BranchID,
		ServiceID:           r.ServiceID,
		ResourceID:          r.ResourceID,
		StartDateTime:       start,
		TimifyAppointmentID: appt.AppointmentID,
		Status:              model.BookingConfirmed,
		CreatedAt:           now,
	}
	err = s.db.WithinTx(ctx, func(tx interf.Tx) error {
		if err := tx.ConsumeReservation(ctx, r.ID, now); err != nil {
			return err
		}
		if err := tx.CreateBooking(ctx, b); err != nil {
			return err
		}
		if s.dispatcher != nil {
			s.dispatcher.BookingConfirmed(ctx, tx, model.BookingConfirmedEvent{
				BookingID: b.ID,
				UserID:    b.UserID,
				BranchID:  b.BranchID,
				ServiceID: b.ServiceID,
				Start:     b.StartDateTime,
			})
		}
		return nil
	})
	if err != nil {
		// провайдер уже подтвердил, локально записи нет
		s.logger.Error("booking not stored after provider confirm",
			zap.String("reservation", r.ID.String()),
			zap.String("appointment", appt.AppointmentID),
			zap.Error(err))
		return model.Booking{}, err
	}
	s.logger.Info("booking confirmed",
		zap.String("user", userID),
		zap.String("booking", b.ID.String()))

	s.publish(ctx, model.EventBookingConfirmed, b)
	return b, nil
}

// CancelBooking flips the local status only, the provider is not called.
func (s *BookingService) CancelBooking(ctx context.Context, userID string, bookingID uuid.UUID) (model.Booking, error) {
	if !s.opts.LocalCancel {
		return model.Booking{}, model.ErrCancelNotAvailable
	}
	b, err := s.db.GetBooking(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if b.UserID != userID {
		return model.Booking{}, model.ErrForbidden
	}
	if b.Status != model.BookingConfirmed {
		return model.Booking{}, model.ErrBookingNotCancelable.WithMessage("booking is not confirmed")
	}
	now := s.now()
	if !b.StartDateTime.After(now) {
		return model.Booking{}, model.ErrBookingNotCancelable.WithMessage("booking already started")
	}
	if b.StartDateTime.Sub(now) < s.opts.CancelCutoff {
		return model.Booking{}, model.ErrBookingNotCancelable.WithMessage("too late to cancel")
	}

	err = s.db.CancelBooking(ctx, b.ID)
	if err != nil {
		return model.Booking{}, err
	}
	b.Status = model.BookingCanceled
	s.logger.Info("booking canceled",
		zap.String("user", userID),
		zap.String("booking", b.ID.String()))

	s.publish(ctx, model.EventBookingCanceled, b)
	return b, nil
}

func (s *BookingService) publish(ctx context.Context, typ string, b model.Booking) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishBooking(ctx, model.BookingEvent{
		Type:      typ,
		BookingID: b.ID,
		UserID:    b.UserID,
		BranchID:  b.BranchID,
		ServiceID: b.ServiceID,
		Start:     b.StartDateTime,
	})
	if err != nil {
		s.logger.Warn("booking event not published",
			zap.String("type", typ),
			zap.String("booking", b.ID.String()),
			zap.Error(err))
	}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type BookingPage struct {
	Items      []model.Booking `json:"items"`
	NextCursor string          `json:"nextCursor,omitempty"`
}

// ListBookings pages by (start, id); ascending for upcoming, descending otherwise.
func (s *BookingService) ListBookings(ctx context.Context, userID, status, cursor string, limit int) (BookingPage, error) {
	if status == "" {
		status = model.FilterUpcoming
	}
	switch status {
	case model.FilterUpcoming, model.FilterPast, model.FilterAll:
	default:
		return BookingPage{}, model.ErrValidation.WithMessage("status must be upcoming, past or all")
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	q := model.BookingQuery{UserID: userID, Status: status, Now: s.now(), Limit: limit + 1}
	if cursor != "" {
		c, err := DecodeCursor(cursor)
		if err != nil {
			return BookingPage{}, err
		}
		q.After = &c
	}

	items, err := s.db.ListBookings(ctx, q)
	if err != nil {
		return BookingPage{}, err
	}
	page := BookingPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[limit-1]
		page.NextCursor = EncodeCursor(model.Cursor{Start: last.StartDateTime, ID: last.ID})
	}
	if page.Items == nil {
		page.Items = []model.Booking{}
	}
	s.resolveNames(ctx, page.Items)
	return page, nil
}

func EncodeCursor(c model.Cursor) string {
	return c.Start.UTC().Format(time.RFC3339Nano) + "|" + c.ID.String()
}

func DecodeCursor(s string) (model.Cursor, error) {
	ts, id, ok := strings.Cut(s, "|")
	if !ok {
		return model.Cursor{}, model.ErrValidation.WithMessage("invalid cursor")
	}
	start, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return model.Cursor{}, model.ErrValidation.WithMessage("invalid cursor")
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return model.Cursor{}, model.ErrValidation.WithMessage("invalid cursor")
	}
	return model.Cursor{Start: start, ID: uid}, nil
}

// Имена филиалов и услуг: cache-aside, без TTL.
// Ошибки провайдера не ломают список, имена просто остаются пустыми.
func (s *BookingService) resolveNames(ctx context.Context, items []model.Booking) {
	var branches map[string]string
	services := map[string]map[string]string{}

	for i := range items {
		b := &items[i]

		name, ok := s.cachedName(ctx, kindBranch, b.BranchID)
		if !ok {
			if branches == nil {
				branches = s.loadBranches(ctx)
			}
			name = branches[b.BranchID]
		}
		b.BranchName = name

		name, ok = s.cachedName(ctx, kindService, b.ServiceID)
		if !ok {
			m, loaded := services[b.BranchID]
			if !loaded {
				m = s.loadServices(ctx, b.BranchID)
				services[b.BranchID] = m
			}
			name = m[b.ServiceID]
		}
		b.ServiceName = name
	}
}

func (s *BookingService) cachedName(ctx context.Context, kind, id string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	name, err := s.cache.GetName(ctx, kind, id)
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}

func (s *BookingService) storeName(ctx context.Context, kind, id, name string) {
	if s.cache == nil || name == "" {
		return
	}
	err := s.cache.SetName(ctx, kind, id, name)
	if err != nil {
		s.logger.Warn("name cache", zap.String("kind", kind), zap.Error(err))
	}
}

func (s *BookingService) loadBranches(ctx context.Context) map[string]string {
	m := map[string]string{}
	list, err := s.provider.ListCompanies(ctx)
	if err != nil {
		s.logger.Warn("branch names", zap.Error(err))
		return m
	}
	for _, b := range list {
		m[b.ID] = b.Name
		s.storeName(ctx, kindBranch, b.ID, b.Name)
	}
	return m
}

func (s *BookingService) loadServices(ctx context.Context, branchID string) map[string]string {
	m := map[string]string{}
	list, err := s.provider.ListServices(ctx, branchID)
	if err != nil {
		s.logger.Warn("service names", zap.String("branch", branchID), zap.Error(err))
		return m
	}
	for _, sv := range list {
		m[sv.ID] = sv.Name
		s.storeName(ctx, kindService, sv.ID, sv.Name)
	}
	return m
}

// справочники провайдера, заодно прогревают кэш имен
func (s *BookingService) ListBranches(ctx context.Context) ([]model.Branch, error) {
	list, err := s.provider.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range list {
		s.storeName(ctx, kindBranch, b.ID, b.Name)
	}
	return list, nil
}

func (s *BookingService) ListServices(ctx context.Context, branchID string) ([]model.Service, error) {
	list, err := s.provider.ListServices(ctx, branchID)
	if err != nil {
		return nil, err
	}
	for _, sv := range list {
		s.storeName(ctx, kindService, sv.ID, sv.Name)
	}
	return list, nil
}

func (s *BookingService) Availability(ctx context.Context, branchID, serviceID, from, to, resourceID string) ([]model.Slot, error) {
	if branchID == "" || serviceID == "" {
		return nil, model.ErrBookingValidation.WithMessage("branchId and serviceId are required")
	}
	for _, d := range []string{from, to} {
		if _, err := time.Parse(dateLayout, d); err != nil {
			return nil, model.ErrBookingValidation.WithMessage("from and to must be YYYY-MM-DD")
		}
	}
	return s.provider.GetAvailability(ctx, branchID, serviceID, from, to, resourceID)
}

// slotStart reads the provider's local date and time as UTC.
func slotStart(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, time.UTC)
	if err != nil {
		return time.Time{}, errors.Join(model.ErrBookingValidation, err)
	}
	return t, nil
}
