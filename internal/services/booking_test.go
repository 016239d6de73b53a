package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glkeru/barbershop/internal/db/memory"
	model "github.com/glkeru/barbershop/internal/models"
	"github.com/glkeru/barbershop/internal/qrcode"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type bookingFixture struct {
	svc       *BookingService
	store     *memory.Store
	provider  *MockSchedulingProvider
	publisher *MockEventPublisher
	now       *time.Time
}

func newBooking(t *testing.T, opts BookingOptions) bookingFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := memory.New()
	provider := NewMockSchedulingProvider(ctrl)
	publisher := NewMockEventPublisher(ctrl)

	legacy := NewLegacyService(zap.NewNop(), store, qrcode.NewHasher("pepper"), 10, 5*time.Minute)
	d := NewDispatcher(zap.NewNop())
	d.Subscribe(legacy.OnBookingConfirmed)

	svc := NewBookingService(zap.NewNop(), store, provider, store, publisher, d, opts)
	now := testNow
	svc.now = func() time.Time { return now }
	return bookingFixture{svc: svc, store: store, provider: provider, publisher: publisher, now: &now}
}

var slotReq = ReserveRequest{BranchID: "b1", ServiceID: "svc1", Date: "2026-05-10", Time: "14:30"}

func (f bookingFixture) reserve(t *testing.T, userID string) model.Reservation {
	t.Helper()
	f.provider.EXPECT().CreateReservation(gomock.Any(), model.ProviderReservationRequest{
		CompanyID: "b1", ServiceID: "svc1", Date: "2026-05-10", Time: "14:30",
	}).Return(model.ProviderReservation{ReservationID: "tr1", Secret: "sec", ExpiresAt: testNow.Add(10 * time.Minute)}, nil)

	r, err := f.svc.Reserve(context.Background(), userID, slotReq)
	require.NoError(t, err)
	return r
}

func TestReserveAndConfirm(t *testing.T) {
	f := newBooking(t, BookingOptions{Region: "eu"})
	ctx := context.Background()

	r := f.reserve(t, "u1")
	require.Equal(t, "tr1", r.TimifyReservationID)
	require.Equal(t, testNow.Add(10*time.Minute), r.ExpiresAt)

	f.provider.EXPECT().ConfirmAppointment(gomock.Any(), model.ProviderConfirmRequest{
		CompanyID:          "b1",
		ReservationID:      "tr1",
		Secret:             "sec",
		ExternalCustomerID: "u1",
		Region:             "eu",
	}).Return(model.ProviderAppointment{AppointmentID: "appt1"}, nil)

	var published model.BookingEvent
	f.publisher.EXPECT().PublishBooking(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev model.BookingEvent) error {
		published = ev
		return nil
	})

	b, err := f.svc.Confirm(ctx, "u1", r.ID)
	require.NoError(t, err)
	require.Equal(t, model.BookingConfirmed, b.Status)
	require.Equal(t, "appt1", b.TimifyAppointmentID)
	require.Equal(t, time.Date(2026, 5, 10, 14, 30, 0, 0, time.UTC), b.StartDateTime)
	require.Equal(t, model.EventBookingConfirmed, published.Type)
	require.Equal(t, b.ID, published.BookingID)

	stored, err := f.store.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.UsedAt)
	_, err = f.store.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	stamps, _ := f.store.GetStamps(ctx, "u1")
	require.Equal(t, 1, stamps)

	// повторное подтверждение не доходит до провайдера
	_, err = f.svc.Confirm(ctx, "u1", r.ID)
	require.ErrorIs(t, err, model.ErrBookingValidation)
	stamps, _ = f.store.GetStamps(ctx, "u1")
	require.Equal(t, 1, stamps)
}

func TestConfirmExpiredReservation(t *testing.T) {
	f := newBooking(t, BookingOptions{})
	ctx := context.Background()
	r := f.reserve(t, "u1")

	*f.now = f.now.Add(10 * time.Minute)
	_, err := f.svc.Confirm(ctx, "u1", r.ID)
	require.ErrorIs(t, err, model.ErrBookingValidation)

	page, err := f.svc.ListBookings(ctx, "u1", model.FilterAll, "", 0)
	require.NoError(t, err)
	require.Empty(t, page.Items)
	stamps, _ := f.store.GetStamps(ctx, "u1")
	require.Equal(t, 0, stamps)
}

func TestConfirmProviderFailure(t *testing.T) {
	f := newBooking(t, BookingOptions{})
	ctx := context.Background()
	r := f.reserve(t, "u1")

	f.provider.EXPECT().ConfirmAppointment(gomock.Any(), gomock.Any()).
		Return(model.ProviderAppointment{}, model.ErrSlotUnavailable)

	_, err := f.svc.Confirm(ctx, "u1", r.ID)
	require.ErrorIs(t, err, model.ErrSlotUnavailable)

	stored, err := f.store.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	require.Nil(t, stored.UsedAt)
	page, err := f.svc.ListBookings(ctx, "u1", model.FilterAll, "", 0)
	require.NoError(t, err)
	require.Empty(t, page.Items)
}

func TestConfirmForeignReservation(t *testing.T) {
	f := newBooking(t, BookingOptions{})
	r := f.reserve(t, "u1")

	_, err := f.svc.Confirm(context.Background(), "u2", r.ID)
	require.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.svc.Confirm(context.Background(), "u1", uuid.New())
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestConfirmPublishFailureKeepsBooking(t *testing.T) {
	f := newBooking(t, BookingOptions{})
	ctx := context.Background()
	r := f.reserve(t, "u1")

	f.provider.EXPECT().ConfirmAppointment(gomock.Any(), gomock.Any()).Return(model.ProviderAppointment{AppointmentID: "a"}, nil)
	f.publisher.EXPECT().PublishBooking(gomock.Any(), gomock.Any()).Return(errors.New("kafka down"))

	b, err := f.svc.Confirm(ctx, "u1", r.ID)
	require.NoError(t, err)
	_, err = f.store.GetBooking(ctx, b.ID)
	require.NoError(t, err)
}

func TestReserveValidation(t *testing.T) {
	f := newBooking(t, BookingOptions{})
	for _, req := range []ReserveRequest{
		{ServiceID: "svc1", Date: "2026-05-10", Time: "14:30"},
		{BranchID: "b1", Date: "2026-05-10", Time: "14:30"},
		{BranchID: "b1", ServiceID: "svc1", Date: "10.05.2026", Time: "14:30"},
		{BranchID: "b1", ServiceID: "svc1", Date: "2026-05-10", Time: "2pm"},
	} {
		_, err := f.svc.Reserve(context.Background(), "u1", req)
		require.ErrorIs(t, err, model.ErrBookingValidation, req)
	}
}

func TestReserveProviderError(t *testing.T) {
	f := newBooking(t, BookingOptions{})
	f.provider.EXPECT().CreateReservation(gomock.Any(), gomock.Any()).Return(model.ProviderReservation{}, model.ErrProvider)

	_, err := f.svc.Reserve(context.Background(), "u1", slotReq)
	require.ErrorIs(t, err, model.ErrProvider)
}

func seedBooking(store *memory.Store, userID string, start time.Time, status string) model.Booking {
	b := model.Booking{
		ID:            uuid.New(),
		UserID:        userID,
		BranchID:      "b1",
		ServiceID:     "svc1",
		StartDateTime: start,
		Status:        status,
		CreatedAt:     testNow,
	}
	store.SaveBooking(b)
	return b
}

func TestCancelBooking(t *testing.T) {
	f := newBooking(t, BookingOptions{LocalCancel: true, CancelCutoff: time.Hour})
	ctx := context.Background()

	soon := seedBooking(f.store, "u1", testNow.Add(30*time.Minute), model.BookingConfirmed)
	later := seedBooking(f.store, "u1", testNow.Add(90*time.Minute), model.BookingConfirmed)
	past := seedBooking(f.store, "u1", testNow.Add(-time.Hour), model.BookingConfirmed)

	_, err := f.svc.CancelBooking(ctx, "u1", soon.ID)
	require.ErrorIs(t, err, model.ErrBookingNotCancelable)
	_, err = f.svc.CancelBooking(ctx, "u1", past.ID)
	require.ErrorIs(t, err, model.ErrBookingNotCancelable)
	_, err = f.svc.CancelBooking(ctx, "u2", later.ID)
	require.ErrorIs(t, err, model.ErrForbidden)

	f.publisher.EXPECT().PublishBooking(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev model.BookingEvent) error {
		require.Equal(t, model.EventBookingCanceled, ev.Type)
		require.Equal(t, later.ID, ev.BookingID)
		return nil
	})
	b, err := f.svc.CancelBooking(ctx, "u1", later.ID)
	require.NoError(t, err)
	require.Equal(t, model.BookingCanceled, b.Status)

	stored, err := f.store.GetBooking(ctx, later.ID)
	require.NoError(t, err)
	require.Equal(t, model.BookingCanceled, stored.Status)

	_, err = f.svc.CancelBooking(ctx, "u1", later.ID)
	require.ErrorIs(t, err, model.ErrBookingNotCancelable)
}

func TestCancelDisabled(t *testing.T) {
	f := newBooking(t, BookingOptions{CancelCutoff: time.Hour})
	b := seedBooking(f.store, "u1", testNow.Add(48*time.Hour), model.BookingConfirmed)

	_, err := f.svc.CancelBooking(context.Background(), "u1", b.ID)
	require.ErrorIs(t, err, model.ErrCancelNotAvailable)
}

func TestListBookingsPages(t *testing.T) {
	f := newBooking(t, BookingOptions{})
	ctx := context.Background()

	var upcoming []model.Booking
	for i := range 5 {
		upcoming = append(upcoming, seedBooking(f.store, "u1", testNow.Add(time.Duration(i+1)*24*time.Hour), model.BookingConfirmed))
	}
	old := seedBooking(f.store, "u1", testNow.Add(-24*time.Hour), model.BookingConfirmed)
	canceled := seedBooking(f.store, "u1", testNow.Add(72*time.Hour+time.Minute), model.BookingCanceled)
	seedBooking(f.store, "u2", testNow.Add(24*time.Hour), model.BookingConfirmed)

	// имена берутся у провайдера один раз, дальше из кэша
	f.provider.EXPECT().ListCompanies(gomock.Any()).Return([]model.Branch{{ID: "b1", Name: "Downtown"}}, nil)
	f.provider.EXPECT().ListServices(gomock.Any(), "b1").Return([]model.Service{{ID: "svc1", Name: "Haircut"}}, nil)

	var (
		got    []uuid.UUID
		cursor string
		pages  int
	)
	for {
		page, err := f.svc.ListBookings(ctx, "u1", "", cursor, 2)
		require.NoError(t, err)
		pages++
		for _, b := range page.Items {
			require.Equal(t, "Downtown", b.BranchName)
			require.Equal(t, "Haircut", b.ServiceName)
			got = append(got, b.ID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	require.Equal(t, 3, pages)
	want := make([]uuid.UUID, 0, len(upcoming))
	for _, b := range upcoming {
		want = append(want, b.ID)
	}
	require.Equal(t, want, got)

	page, err := f.svc.ListBookings(ctx, "u1", model.FilterPast, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, canceled.ID, page.Items[0].ID)
	require.Equal(t, old.ID, page.Items[1].ID)
	require.Empty(t, page.NextCursor)

	page, err = f.svc.ListBookings(ctx, "u1", model.FilterAll, "", 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 7)
}

func TestListBookingsInvalidInput(t *testing.T) {
	f := newBooking(t, BookingOptions{})
	ctx := context.Background()

	_, err := f.svc.ListBookings(ctx, "u1", "soon", "", 0)
	require.ErrorIs(t, err, model.ErrValidation)
	for _, c := range []string{"nope", "2026-05-04T12:00:00Z|x", "yesterday|" + uuid.NewString()} {
		_, err = f.svc.ListBookings(ctx, "u1", "", c, 0)
		require.ErrorIs(t, err, model.ErrValidation, c)
	}
}

func TestListBookingsWithoutNames(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := memory.New()
	provider := NewMockSchedulingProvider(ctrl)
	cache := NewMockCacheStorage(ctrl)
	svc := NewBookingService(zap.NewNop(), store, provider, cache, nil, nil, BookingOptions{})
	svc.now = func() time.Time { return testNow }
	seedBooking(store, "u1", testNow.Add(time.Hour), model.BookingConfirmed)

	cache.EXPECT().GetName(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("redis down")).Times(2)
	provider.EXPECT().ListCompanies(gomock.Any()).Return(nil, model.ErrProvider)
	provider.EXPECT().ListServices(gomock.Any(), "b1").Return(nil, model.ErrProvider)

	page, err := svc.ListBookings(context.Background(), "u1", "", "", 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Empty(t, page.Items[0].BranchName)
	require.Empty(t, page.Items[0].ServiceName)
}

func TestCursorRoundTrip(t *testing.T) {
	c := model.Cursor{Start: time.Date(2026, 5, 10, 14, 30, 0, 123, time.FixedZone("X", 3600)), ID: uuid.New()}
	got, err := DecodeCursor(EncodeCursor(c))
	require.NoError(t, err)
	require.True(t, c.Start.Equal(got.Start))
	require.Equal(t, c.ID, got.ID)
}

func TestDirectoriesWarmCache(t *testing.T) {
	f := newBooking(t, BookingOptions{})
	ctx := context.Background()
	f.provider.EXPECT().ListCompanies(gomock.Any()).Return([]model.Branch{{ID: "b1", Name: "Downtown"}}, nil)
	f.provider.EXPECT().ListServices(gomock.Any(), "b1").Return([]model.Service{{ID: "svc1", Name: "Haircut", Price: 25}}, nil)

	_, err := f.svc.ListBranches(ctx)
	require.NoError(t, err)
	_, err = f.svc.ListServices(ctx, "b1")
	require.NoError(t, err)

	name, err := f.store.GetName(ctx, kindBranch, "b1")
	require.NoError(t, err)
	require.Equal(t, "Downtown", name)
	name, err = f.store.GetName(ctx, kindService, "svc1")
	require.NoError(t, err)
	require.Equal(t, "Haircut", name)
}

func TestAvailability(t *testing.T) {
	f := newBooking(t, BookingOptions{})
	ctx := context.Background()

	_, err := f.svc.Availability(ctx, "b1", "svc1", "2026-05-10", "tomorrow", "")
	require.ErrorIs(t, err, model.ErrBookingValidation)
	_, err = f.svc.Availability(ctx, "", "svc1", "2026-05-10", "2026-05-11", "")
	require.ErrorIs(t, err, model.ErrBookingValidation)

	slots := []model.Slot{{Date: "2026-05-10", Times: []string{"09:00", "09:30"}}}
	f.provider.EXPECT().GetAvailability(gomock.Any(), "b1", "svc1", "2026-05-10", "2026-05-11", "r1").Return(slots, nil)
	got, err := f.svc.Availability(ctx, "b1", "svc1", "2026-05-10", "2026-05-11", "r1")
	require.NoError(t, err)
	require.Equal(t, slots, got)
}
