package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventix/internal/config"
	"github.com/Shivanand-hulikatti/eventix/internal/logging"
	"github.com/Shivanand-hulikatti/eventix/internal/metrics"
	"github.com/Shivanand-hulikatti/eventix/internal/model"
	"github.com/Shivanand-hulikatti/eventix/internal/policy"
	"github.com/Shivanand-hulikatti/eventix/internal/repository"
	"github.com/Shivanand-hulikatti/eventix/internal/storage"
	"github.com/Shivanand-hulikatti/eventix/internal/token"
)

const (
	eventID    = "6f1c2a0e-4b8d-4c1e-9a57-3d2f8e1b0c11"
	attendeeID = "a3e9d7b2-5c41-4f08-8e6a-0b7c9d2e4f13"
	missingID  = "00000000-0000-4000-8000-000000000000"
)

type stubAuth struct {
	signUp func(model.SignUpRequest) (*model.Identity, error)
}

func (s *stubAuth) SignUp(_ context.Context, req model.SignUpRequest) (*model.Identity, error) {
	if s.signUp != nil {
		return s.signUp(req)
	}
	return &model.Identity{ID: "new", Email: req.Email, Metadata: req.Data}, nil
}
func (s *stubAuth) SignIn(context.Context, model.SignInRequest) (*model.TokenResponse, error) {
	return nil, errors.New("not used")
}
func (s *stubAuth) SignOut(context.Context, *token.Claims) error { return nil }
func (s *stubAuth) CurrentUser(_ context.Context, id string) (*model.Identity, error) {
	return &model.Identity{ID: id}, nil
}
func (s *stubAuth) UpdateUser(_ context.Context, id string, req model.UpdateUserRequest) (*model.Identity, error) {
	return &model.Identity{ID: id, Metadata: model.UserMetadata{FullName: req.Data.FullName}}, nil
}

type stubProfiles struct{}

func (stubProfiles) Get(_ context.Context, p policy.Principal, id string) (*model.Profile, error) {
	if err := policy.CanReadProfile(p, id); err != nil {
		return nil, err
	}
	return &model.Profile{ID: id, UserType: p.Role}, nil
}
func (stubProfiles) UpdateFullName(_ context.Context, _ policy.Principal, id string, req model.UpdateProfileRequest) (*model.Profile, error) {
	return &model.Profile{ID: id, FullName: req.FullName}, nil
}

type stubEvents struct {
	list []model.Event
}

func (s *stubEvents) Create(_ context.Context, p policy.Principal, in model.EventInput) (*model.Event, error) {
	if err := policy.CanCreateEvent(p); err != nil {
		return nil, err
	}
	return &model.Event{ID: "ev-new", OrganizerID: p.UserID, Title: in.Title, Capacity: in.Capacity, SeatsLeft: in.Capacity}, nil
}
func (s *stubEvents) Update(context.Context, policy.Principal, string, model.EventInput) (*model.Event, error) {
	return nil, repository.ErrCapacityBelowBooked
}
func (s *stubEvents) Delete(context.Context, policy.Principal, string) error { return nil }
func (s *stubEvents) Get(_ context.Context, id string) (*model.Event, error) {
	if id == missingID {
		return nil, repository.ErrNotFound
	}
	return &model.Event{ID: id}, nil
}
func (s *stubEvents) List(context.Context, string) ([]model.Event, error) { return s.list, nil }
func (s *stubEvents) ListMine(context.Context, policy.Principal) ([]model.Event, error) {
	return nil, errors.New("connection reset")
}
func (s *stubEvents) Stats(context.Context, policy.Principal) (model.DashboardStats, error) {
	return model.DashboardStats{TotalEvents: 1}, nil
}
func (s *stubEvents) Bookings(context.Context, policy.Principal, string) ([]model.Booking, error) {
	return nil, nil
}

type stubBookings struct {
	createErr error
	found     *model.Booking
}

func (s *stubBookings) Create(_ context.Context, p policy.Principal, in model.BookingInsert) (*model.Booking, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if err := policy.CanInsertBooking(p, in); err != nil {
		return nil, err
	}
	return &model.Booking{ID: "b1", EventID: in.EventID, AttendeeID: in.AttendeeID, Tickets: in.Tickets, Status: in.Status}, nil
}
func (s *stubBookings) FindOne(context.Context, policy.Principal, string, string) (*model.Booking, error) {
	return s.found, nil
}
func (s *stubBookings) ListMine(context.Context, policy.Principal) ([]model.Booking, error) {
	return nil, nil
}

type testServer struct {
	*httptest.Server
	tokens   *token.Manager
	bookings *stubBookings
	events   *stubEvents
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	tokens, err := token.NewManager(config.AuthConfig{Secret: "test", Issuer: "eventix", TokenTTL: time.Hour}, nil)
	require.NoError(t, err)
	bucket, err := storage.New(config.StorageConfig{
		Root: t.TempDir(), PublicBaseURL: "http://example.test/storage/public", MaxImageBytes: 1 << 20, ThumbWidth: 64,
	}, storage.EventImages, logging.Discard())
	require.NoError(t, err)

	ts := &testServer{tokens: tokens, bookings: &stubBookings{}, events: &stubEvents{}}
	router := NewRouter(Deps{
		Auth:     &stubAuth{},
		Profiles: stubProfiles{},
		Events:   ts.events,
		Bookings: ts.bookings,
		Tokens:   tokens,
		Images:   bucket,
		Metrics:  metrics.New(),
		Server:   config.ServerConfig{AuthRatePerSec: 1, AuthRateBurst: 2, AllowedOrigins: []string{"http://localhost:5173"}},
		Log:      logging.Discard(),
	})
	ts.Server = httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) tokenFor(t *testing.T, id string, role model.Role) string {
	t.Helper()
	raw, _, err := ts.tokens.Issue(model.Identity{ID: id, Email: id + "@example.com"}, role)
	require.NoError(t, err)
	return raw
}

func (ts *testServer) do(t *testing.T, method, path, bearer string, body any) (*http.Response, []byte) {
	t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case []byte:
		rdr = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, rdr)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func decodeError(t *testing.T, body []byte) model.ErrorResponse {
	t.Helper()
	var e model.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestListEventsNeverNull(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/events", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestGetEventNotFound(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/events/"+missingID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, model.CodeNotFound, decodeError(t, body).Code)
}

func TestMalformedIDs(t *testing.T) {
	ts := newTestServer(t)
	org := ts.tokenFor(t, "org-1", model.RoleOrganizer)
	for _, path := range []string{"/events/abc", "/events/abc/bookings"} {
		resp, body := ts.do(t, http.MethodGet, path, org, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Equal(t, model.CodeNotFound, decodeError(t, body).Code, path)
	}

	raw := ts.tokenFor(t, attendeeID, model.RoleAttendee)
	resp, body := ts.do(t, http.MethodPost, "/bookings", raw, model.BookingInsert{
		EventID: "abc", AttendeeID: attendeeID, Tickets: 1, Status: model.BookingConfirmed,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeError(t, body)
	assert.Equal(t, model.CodeInvalidInput, e.Code)
	assert.Equal(t, "invalid input: event_id is not a valid id", e.Error)

	resp, _ = ts.do(t, http.MethodGet, "/bookings/lookup?event_id=abc&attendee_id="+attendeeID, raw, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/bookings"},
		{http.MethodGet, "/bookings"},
		{http.MethodGet, "/events/mine"},
		{http.MethodGet, "/auth/user"},
		{http.MethodGet, "/profiles/x"},
	} {
		resp, body := ts.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, tc.path)
		assert.Equal(t, model.CodeUnauthorized, decodeError(t, body).Code, tc.path)
	}

	resp, _ := ts.do(t, http.MethodGet, "/bookings", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRevokedTokenRejected(t *testing.T) {
	ts := newTestServer(t)
	raw := ts.tokenFor(t, attendeeID, model.RoleAttendee)
	claims, err := ts.tokens.Parse(context.Background(), raw)
	require.NoError(t, err)
	require.NoError(t, ts.tokens.Revoke(context.Background(), claims))

	resp, _ := ts.do(t, http.MethodGet, "/auth/user", raw, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBookingErrorCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"capacity", repository.ErrNotEnoughSeats, http.StatusConflict, model.CodeInsufficientCapacity},
		{"duplicate", repository.ErrAlreadyBooked, http.StatusConflict, model.CodeUniqueViolation},
		{"policy", policy.ErrPolicy, http.StatusForbidden, model.CodePolicyViolation},
		{"invalid", model.ErrInvalidInput, http.StatusBadRequest, model.CodeInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.bookings.createErr = tc.err
			raw := ts.tokenFor(t, attendeeID, model.RoleAttendee)

			resp, body := ts.do(t, http.MethodPost, "/bookings", raw, model.BookingInsert{
				EventID: eventID, AttendeeID: attendeeID, Tickets: 1, Status: model.BookingConfirmed,
			})
			assert.Equal(t, tc.status, resp.StatusCode)
			e := decodeError(t, body)
			assert.Equal(t, tc.code, e.Code)
			assert.Equal(t, tc.err.Error(), e.Error)
		})
	}
}

func TestBookingCreated(t *testing.T) {
	ts := newTestServer(t)
	raw := ts.tokenFor(t, attendeeID, model.RoleAttendee)
	resp, body := ts.do(t, http.MethodPost, "/bookings", raw, model.BookingInsert{
		EventID: eventID, AttendeeID: attendeeID, Tickets: 2, Status: model.BookingConfirmed,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var b model.Booking
	require.NoError(t, json.Unmarshal(body, &b))
	assert.Equal(t, 2, b.Tickets)
}

func TestBookingRejectsUnknownFields(t *testing.T) {
	ts := newTestServer(t)
	raw := ts.tokenFor(t, attendeeID, model.RoleAttendee)
	resp, _ := ts.do(t, http.MethodPost, "/bookings", raw,
		[]byte(`{"event_id":"`+eventID+`","attendee_id":"`+attendeeID+`","tickets":1,"status":"confirmed","seats_left":0}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLookupReturnsZeroOrOneRow(t *testing.T) {
	ts := newTestServer(t)
	raw := ts.tokenFor(t, attendeeID, model.RoleAttendee)

	resp, body := ts.do(t, http.MethodGet, "/bookings/lookup?event_id="+eventID+"&attendee_id="+attendeeID, raw, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	ts.bookings.found = &model.Booking{ID: "b1", EventID: eventID, AttendeeID: attendeeID, Tickets: 1}
	_, body = ts.do(t, http.MethodGet, "/bookings/lookup?event_id="+eventID+"&attendee_id="+attendeeID, raw, nil)
	var rows []model.Booking
	require.NoError(t, json.Unmarshal(body, &rows))
	assert.Len(t, rows, 1)

	resp, _ = ts.do(t, http.MethodGet, "/bookings/lookup?event_id="+eventID, raw, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownErrorIsInternal(t *testing.T) {
	ts := newTestServer(t)
	raw := ts.tokenFor(t, "org-1", model.RoleOrganizer)
	resp, body := ts.do(t, http.MethodGet, "/events/mine", raw, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	e := decodeError(t, body)
	assert.Equal(t, model.CodeInternal, e.Code)
	assert.NotContains(t, e.Error, "connection reset")
}

func TestAuthRateLimited(t *testing.T) {
	ts := newTestServer(t)
	req := model.SignUpRequest{Email: "a@b.co", Password: "secret1",
		Data: model.UserMetadata{FullName: "A", UserType: model.RoleAttendee}}

	var last int
	for i := 0; i < 3; i++ {
		resp, _ := ts.do(t, http.MethodPost, "/auth/signup", "", req)
		last = resp.StatusCode
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestUploadAndServeImage(t *testing.T) {
	ts := newTestServer(t)
	var img bytes.Buffer
	require.NoError(t, imaging.Encode(&img, imaging.New(32, 32, color.White), imaging.PNG))

	org := ts.tokenFor(t, "org-1", model.RoleOrganizer)
	resp, body := ts.do(t, http.MethodPost, "/storage/event-images/org-1/1.png", org, img.Bytes())
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var up model.UploadResponse
	require.NoError(t, json.Unmarshal(body, &up))
	assert.Equal(t, "event-images/org-1/1.png", up.Key)
	assert.True(t, strings.HasSuffix(up.PublicURL, "/event-images/org-1/1.png"))

	resp, body = ts.do(t, http.MethodGet, "/storage/public/event-images/org-1/1.png", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, img.Bytes(), body)

	resp, body = ts.do(t, http.MethodGet, "/storage/public/event-images/org-1", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, model.CodeNotFound, decodeError(t, body).Code)

	resp, _ = ts.do(t, http.MethodPost, "/storage/event-images/org-2/1.png", org, img.Bytes())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	att := ts.tokenFor(t, "att-1", model.RoleAttendee)
	resp, _ = ts.do(t, http.MethodPost, "/storage/event-images/att-1/1.png", att, img.Bytes())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/storage/event-images/org-1/1.png", org, img.Bytes())
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
