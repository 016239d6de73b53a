// Package timify is the client of the Timify booking API.
package timify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	model "github.com/glkeru/barbershop/internal/models"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timify_requests_total",
			Help: "Кол-во запросов к Timify",
		},
		[]string{"op", "code"},
	)

	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timify_retries_total",
			Help: "Кол-во повторов запросов к Timify",
		},
		[]string{"op"},
	)
)

const requestIDHeader = "X-Request-ID"

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

type Client struct {
	logger *zap.Logger
	http   *http.Client
	opts   Options
}

func NewClient(logger *zap.Logger, opts Options) *Client {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{
		logger: logger,
		http:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		opts:   opts,
	}
}

// do sends one logical call with retries. The caller's cancellation is detached,
// only the client timeout bounds the call.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in any, out any) error {
	ctx = context.WithoutCancel(ctx)
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	ctx, span := otel.Tracer("timify").Start(ctx, "timify."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return err
		}
	}
	u := c.opts.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	reqID := uuid.NewString()
	span.SetAttributes(attribute.String("request.id", reqID))

	attempt := func() (response, error) {
		resp, err := c.send(ctx, method, u, reqID, body)
		requestsTotal.WithLabelValues(op, strconv.Itoa(resp.status)).Inc()
		if err != nil {
			// таймаут клиента не повторяем
			if errors.Is(err, context.DeadlineExceeded) {
				return resp, backoff.Permanent(err)
			}
			return resp, err
		}
		if resp.status >= 500 || resp.status == http.StatusTooManyRequests {
			return resp, &retryableStatus{resp.status}
		}
		return resp, nil
	}
	notify := func(err error, _ time.Duration) {
		retriesTotal.WithLabelValues(op).Inc()
		c.logger.Warn("timify retry",
			zap.String("op", op),
			zap.String("request_id", reqID),
			zap.Error(err))
	}

	resp, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.opts.Backoff)),
		backoff.WithMaxTries(uint(max(c.opts.MaxRetries, 0))+1),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify))
	var rs *retryableStatus
	if errors.As(err, &rs) {
		// повторы исчерпаны, ответ разбирается по статусу
		err = nil
	}
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}
	status, raw := resp.status, resp.raw

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("timify unreachable",
			zap.String("op", op),
			zap.String("request_id", reqID),
			zap.Error(err))
		return model.ErrProvider
	}
	span.SetAttributes(attribute.Int("http.status", status))

	if status < 200 || status > 299 {
		span.SetStatus(codes.Error, "status "+strconv.Itoa(status))
		// тело ответа провайдера только в лог
		c.logger.Error("timify error",
			zap.String("op", op),
			zap.String("request_id", reqID),
			zap.Int("status", status),
			zap.ByteString("body", raw))
		return mapStatus(status)
	}

	if out != nil {
		err = json.Unmarshal(raw, out)
		if err != nil {
			c.logger.Error("timify response",
				zap.String("op", op),
				zap.String("request_id", reqID),
				zap.Error(err),
				zap.ByteString("body", raw))
			return model.ErrProvider
		}
	}
	return nil
}

type response struct {
	status int
	raw    []byte
}

// 5xx и 429, повторяются
type retryableStatus struct {
	status int
}

func (e *retryableStatus) Error() string {
	return "timify status " + strconv.Itoa(e.status)
}

func (c *Client) send(ctx context.Context, method, u, reqID string, body []byte) (response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return response{}, backoff.Permanent(err)
	}
	req.Header.Set(requestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, err
	}
	return response{resp.StatusCode, raw}, nil
}

func mapStatus(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return model.ErrBookingValidation
	case http.StatusNotFound, http.StatusConflict:
		return model.ErrSlotUnavailable
	}
	return model.ErrProvider
}

// Ответы API

type envelope[T any] struct {
	Data T `json:"data"`
}

type company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type service struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Duration int     `json:"duration"`
	Price    float64 `json:"price"`
}

type calendarDay struct {
	Day   string   `json:"day"`
	Times []string `json:"times"`
}

type availability struct {
	Calendar []calendarDay `json:"calendar"`
}

type reservationRequest struct {
	CompanyID   string   `json:"company_id"`
	ServiceID   string   `json:"service_id"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	ResourceIDs []string `json:"resource_ids,omitempty"`
}

type reservation struct {
	ReservationID string    `json:"reservation_id"`
	Secret        string    `json:"secret"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type confirmRequest struct {
	CompanyID          string `json:"company_id"`
	ReservationID      string `json:"reservation_id"`
	Secret             string `json:"secret"`
	ExternalCustomerID string `json:"external_customer_id"`
	Region             string `json:"region,omitempty"`
}

type appointment struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *Client) ListCompanies(ctx context.Context) ([]model.Branch, error) {
	var resp envelope[[]company]
	err := c.do(ctx, "companies", http.MethodGet, "/companies", nil, nil, &resp)
	if err != nil {
		return nil, err
	}
	out := make([]model.Branch, 0, len(resp.Data))
	for _, v := range resp.Data {
		out = append(out, model.Branch{ID: v.ID, Name: v.Name})
	}
	return out, nil
}

func (c *Client) ListServices(ctx context.Context, companyID string) ([]model.Service, error) {
	var resp envelope[[]service]
	q := url.Values{"company_id": {companyID}}
	err := c.do(ctx, "services", http.MethodGet, "/booker-services/services", q, nil, &resp)
	if err != nil {
		return nil, err
	}
	out := make([]model.Service, 0, len(resp.Data))
	for _, v := range resp.Data {
		out = append(out, model.Service{ID: v.ID, Name: v.Name, Duration: v.Duration, Price: v.Price})
	}
	return out, nil
}

func (c *Client) GetAvailability(ctx context.Context, companyID, serviceID, from, to, resourceID string) ([]model.Slot, error) {
	q := url.Values{
		"company_id":  {companyID},
		"service_ids": {serviceID},
		"start_date":  {from},
		"end_date":    {to},
	}
	if resourceID != "" {
		q.Set("resource_ids", resourceID)
	}
	var resp envelope[availability]
	err := c.do(ctx, "availability", http.MethodGet, "/booker-services/availabilities", q, nil, &resp)
	if err != nil {
		return nil, err
	}
	out := make([]model.Slot, 0, len(resp.Data.Calendar))
	for _, d := range resp.Data.Calendar {
		out = append(out, model.Slot{Date: d.Day, Times: d.Times})
	}
	return out, nil
}

func (c *Client) CreateReservation(ctx context.Context, req model.ProviderReservationRequest) (model.ProviderReservation, error) {
	in := reservationRequest{
		CompanyID: req.CompanyID,
		ServiceID: req.ServiceID,
		Date:      req.Date,
		Time:      req.Time,
	}
	if req.ResourceID != "" {
		in.ResourceIDs = []string{req.ResourceID}
	}
	var resp envelope[reservation]
	err := c.do(ctx, "reserve", http.MethodPost, "/booker-services/reservations", nil, in, &resp)
	if err != nil {
		return model.ProviderReservation{}, err
	}
	if resp.Data.ReservationID == "" || resp.Data.Secret == "" || resp.Data.ExpiresAt.IsZero() {
		c.logger.Error("timify reservation without id, secret or expiry")
		return model.ProviderReservation{}, model.ErrProvider
	}
	return model.ProviderReservation{
		ReservationID: resp.Data.ReservationID,
		Secret:        resp.Data.Secret,
		ExpiresAt:     resp.Data.ExpiresAt,
	}, nil
}

func (c *Client) ConfirmAppointment(ctx context.Context, req model.ProviderConfirmRequest) (model.ProviderAppointment, error) {
	in := confirmRequest{
		CompanyID:          req.CompanyID,
		ReservationID:      req.ReservationID,
		Secret:             req.Secret,
		ExternalCustomerID: req.ExternalCustomerID,
		Region:             req.Region,
	}
	var resp envelope[appointment]
	err := c.do(ctx, "confirm", http.MethodPost, "/booker-services/appointments/confirm", nil, in, &resp)
	if err != nil {
		return model.ProviderAppointment{}, err
	}
	return model.ProviderAppointment{AppointmentID: resp.Data.ID, Status: resp.Data.Status}, nil
}
