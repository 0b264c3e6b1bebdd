package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventix/internal/booking"
	"github.com/Shivanand-hulikatti/eventix/internal/logging"
	"github.com/Shivanand-hulikatti/eventix/internal/model"
	"github.com/Shivanand-hulikatti/eventix/internal/session"
)

type backendErr struct{ code, msg string }

func (e *backendErr) Error() string     { return e.msg }
func (e *backendErr) ErrorCode() string { return e.code }

// fakeAuth delivers auth events on a separate goroutine, like the real
// client's initial session.
type fakeAuth struct {
	mu       sync.Mutex
	ident    *model.Identity
	accounts map[string]*model.Identity
	listener func(model.AuthEvent, *model.Identity)
	signUps  []model.SignUpRequest
}

func (f *fakeAuth) OnAuthStateChange(fn func(model.AuthEvent, *model.Identity)) func() {
	f.mu.Lock()
	f.listener = fn
	f.mu.Unlock()
	go func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.listener != nil {
			f.listener(model.AuthInitialSession, f.ident)
		}
	}()
	return func() {
		f.mu.Lock()
		f.listener = nil
		f.mu.Unlock()
	}
}

func (f *fakeAuth) emit(ev model.AuthEvent, ident *model.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listener != nil {
		f.listener(ev, ident)
	}
}

func (f *fakeAuth) SignIn(_ context.Context, email, _ string) (*model.Identity, error) {
	ident, ok := f.accounts[email]
	if !ok {
		return nil, &backendErr{model.CodeUnauthorized, "invalid login credentials"}
	}
	f.mu.Lock()
	f.ident = ident
	f.mu.Unlock()
	f.emit(model.AuthSignedIn, ident)
	return ident, nil
}

func (f *fakeAuth) SignUp(_ context.Context, req model.SignUpRequest) (*model.Identity, error) {
	f.signUps = append(f.signUps, req)
	return &model.Identity{ID: "new", Email: req.Email, Metadata: req.Data}, nil
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.mu.Lock()
	f.ident = nil
	f.mu.Unlock()
	f.emit(model.AuthSignedOut, nil)
	return nil
}

func (f *fakeAuth) UpdateUser(_ context.Context, name string) (*model.Identity, error) {
	return &model.Identity{Metadata: model.UserMetadata{FullName: name}}, nil
}

type fakeAPI struct {
	mu        sync.Mutex
	profiles  map[string]*model.Profile
	events    map[string]*model.Event
	existing  *model.Booking
	insertErr error
	inserts   []model.BookingInsert
	created   []model.EventInput
	updated   []model.EventInput
	deleted   []string
	uploads   []string
	stats     model.DashboardStats
	mine      []model.Booking
}

func (f *fakeAPI) GetProfile(_ context.Context, id string) (*model.Profile, error) {
	return f.profiles[id], nil
}

func (f *fakeAPI) UpdateProfile(_ context.Context, id, name string) (*model.Profile, error) {
	return &model.Profile{ID: id, FullName: name}, nil
}

func (f *fakeAPI) InsertBooking(_ context.Context, in model.BookingInsert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts = append(f.inserts, in)
	return f.insertErr
}

func (f *fakeAPI) FindBooking(context.Context, string, string) (*model.Booking, error) {
	return f.existing, nil
}

func (f *fakeAPI) ListEvents(context.Context, string) ([]model.Event, error) {
	out := make([]model.Event, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, *ev)
	}
	return out, nil
}

func (f *fakeAPI) GetEvent(_ context.Context, id string) (*model.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, &backendErr{model.CodeNotFound, "not found"}
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeAPI) ListMyEvents(context.Context) ([]model.Event, error) { return f.ListEvents(context.Background(), "") }

func (f *fakeAPI) Stats(context.Context) (model.DashboardStats, error) { return f.stats, nil }

func (f *fakeAPI) CreateEvent(_ context.Context, in model.EventInput) (*model.Event, error) {
	f.created = append(f.created, in)
	return &model.Event{ID: "ev-new", Title: in.Title}, nil
}

func (f *fakeAPI) UpdateEvent(_ context.Context, id string, in model.EventInput) (*model.Event, error) {
	f.updated = append(f.updated, in)
	return &model.Event{ID: id, Title: in.Title}, nil
}

func (f *fakeAPI) DeleteEvent(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) EventBookings(context.Context, string) ([]model.Booking, error) { return nil, nil }

func (f *fakeAPI) ListMyBookings(context.Context) ([]model.Booking, error) { return f.mine, nil }

func (f *fakeAPI) Upload(_ context.Context, p string, r io.Reader, _ bool) (*model.UploadResponse, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	f.uploads = append(f.uploads, p)
	return &model.UploadResponse{Path: p}, nil
}

func (f *fakeAPI) PublicURL(p string) string { return "http://storage.test/" + p }

var (
	attendeeIdent  = &model.Identity{ID: "att-1", Email: "ann@example.com"}
	organizerIdent = &model.Identity{ID: "org-1", Email: "olga@example.com"}
	fixedNow       = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
)

type harness struct {
	app    *App
	api    *fakeAPI
	auth   *fakeAuth
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newHarness(t *testing.T, signedIn *model.Identity, stdin string) *harness {
	t.Helper()
	api := &fakeAPI{
		profiles: map[string]*model.Profile{
			"att-1": {ID: "att-1", FullName: "Ann", UserType: model.RoleAttendee},
			"org-1": {ID: "org-1", FullName: "Olga", UserType: model.RoleOrganizer},
		},
		events: map[string]*model.Event{
			"ev-1": {
				ID: "ev-1", OrganizerID: "org-1", Title: "Go Meetup", Location: "Berlin",
				EventDate: fixedNow.Add(72 * time.Hour), Capacity: 10, SeatsLeft: 3,
			},
		},
	}
	auth := &fakeAuth{
		ident: signedIn,
		accounts: map[string]*model.Identity{
			attendeeIdent.Email:  attendeeIdent,
			organizerIdent.Email: organizerIdent,
		},
	}
	log := logging.Discard()
	store := session.New(auth, api, session.WithLogger(log))
	store.Initialize()
	t.Cleanup(store.Close)

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	app := NewApp(api, store, booking.NewWriter(api, booking.WithLogger(log)),
		WithIO(strings.NewReader(stdin), out, errOut),
		WithLogger(log),
		WithClock(func() time.Time { return fixedNow }),
	)
	return &harness{app: app, api: api, auth: auth, out: out, errOut: errOut}
}

func (h *harness) run(args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.app.Root().Execute(ctx, args)
}

func TestEventsListIsPublic(t *testing.T) {
	h := newHarness(t, nil, "")
	require.NoError(t, h.run("events", "list"))
	assert.Contains(t, h.out.String(), "Go Meetup")
	assert.Contains(t, h.out.String(), "3 / 10 left")
}

func TestBookAsAttendee(t *testing.T) {
	h := newHarness(t, attendeeIdent, "")
	require.NoError(t, h.run("book", "ev-1", "--tickets", "2"))

	require.Len(t, h.api.inserts, 1)
	assert.Equal(t, model.BookingInsert{
		EventID: "ev-1", AttendeeID: "att-1", Tickets: 2, Status: model.BookingConfirmed,
	}, h.api.inserts[0])
	assert.Contains(t, h.out.String(), "Booked 2 tickets for Go Meetup.")
	assert.Contains(t, h.out.String(), "Seats left: 1")
}

func TestBookClampsToSeatsLeft(t *testing.T) {
	h := newHarness(t, attendeeIdent, "")
	require.NoError(t, h.run("book", "ev-1", "-n", "5"))

	require.Len(t, h.api.inserts, 1)
	assert.Equal(t, 3, h.api.inserts[0].Tickets)
	assert.Contains(t, h.out.String(), "Only 3 seats were left")
}

func TestBookAlreadyBooked(t *testing.T) {
	h := newHarness(t, attendeeIdent, "")
	h.api.existing = &model.Booking{ID: "b-1", EventID: "ev-1", AttendeeID: "att-1", Tickets: 1}

	require.NoError(t, h.run("book", "ev-1"))
	assert.Empty(t, h.api.inserts)
	assert.Contains(t, h.out.String(), "already booked")
}

func TestBookSurfacesBackendMessage(t *testing.T) {
	h := newHarness(t, attendeeIdent, "")
	h.api.insertErr = &backendErr{model.CodePolicyViolation, "new row violates row-level security policy"}

	err := h.run("book", "ev-1")
	var we *booking.WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "new row violates row-level security policy", err.Error())
}

func TestBookSoldOutFromBackend(t *testing.T) {
	h := newHarness(t, attendeeIdent, "")
	h.api.insertErr = &backendErr{model.CodeInsufficientCapacity, "not enough seats available"}

	err := h.run("book", "ev-1")
	assert.ErrorIs(t, err, booking.ErrSoldOut)
}

func TestBookAsOrganizerIsDenied(t *testing.T) {
	h := newHarness(t, organizerIdent, "")
	err := h.run("book", "ev-1")
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Empty(t, h.api.inserts)
}

func TestProtectedCommandRedirectsToLogin(t *testing.T) {
	h := newHarness(t, nil, "")
	err := h.run("book", "ev-1")
	require.ErrorIs(t, err, ErrLoginRequired)
	assert.Contains(t, err.Error(), `eventix login --return "book ev-1"`)
	assert.Empty(t, h.api.inserts)
}

func TestLoginRunsReturnCommand(t *testing.T) {
	h := newHarness(t, nil, "")
	require.NoError(t, h.run("login", "--email", "ANN@example.com", "--password", "secret1", "--return", "bookings"))
	assert.Contains(t, h.out.String(), "Welcome back, Ann!")
	assert.Contains(t, h.out.String(), "My bookings")
}

func TestLoginRejectsShortPassword(t *testing.T) {
	h := newHarness(t, nil, "")
	err := h.run("login", "--email", "ann@example.com", "--password", "123")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestSignupPromptsAndValidates(t *testing.T) {
	h := newHarness(t, nil, "secret1\nsecret2\n")
	err := h.run("signup", "--email", "new@example.com", "--name", "New Person", "--role", "attend")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Empty(t, h.auth.signUps)

	h = newHarness(t, nil, "secret1\nsecret1\n")
	require.NoError(t, h.run("signup", "--email", "new@example.com", "--name", "New Person", "--role", "organize"))
	require.Len(t, h.auth.signUps, 1)
	assert.Equal(t, model.RoleOrganizer, h.auth.signUps[0].Data.UserType)
	assert.Equal(t, "New Person", h.auth.signUps[0].Data.FullName)
}

func TestSignupRejectsUnknownRole(t *testing.T) {
	h := newHarness(t, nil, "")
	err := h.run("signup", "--email", "a@example.com", "--name", "A", "--role", "admin", "--password", "secret1")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestDashboard(t *testing.T) {
	h := newHarness(t, organizerIdent, "")
	h.api.stats = model.DashboardStats{TotalEvents: 1, TotalBookings: 7, SeatsAvailable: 3}

	require.NoError(t, h.run("dashboard"))
	assert.Contains(t, h.out.String(), "Organizer dashboard")
	assert.Contains(t, h.out.String(), "Total bookings")
	assert.Contains(t, h.out.String(), "Go Meetup")
}

func TestDashboardDeniedForAttendee(t *testing.T) {
	h := newHarness(t, attendeeIdent, "")
	assert.ErrorIs(t, h.run("dashboard"), ErrAccessDenied)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestEventsCreateWithImage(t *testing.T) {
	h := newHarness(t, organizerIdent, "")
	img := writeFile(t, "cover.PNG", pngHeader)

	require.NoError(t, h.run("events", "create",
		"--title", "Launch", "--date", "2026-05-01 18:30", "--location", "Lisbon",
		"--capacity", "50", "--image", img))

	require.Len(t, h.api.uploads, 1)
	assert.Equal(t, fmt.Sprintf("org-1/%d.png", fixedNow.UnixMilli()), h.api.uploads[0])
	require.Len(t, h.api.created, 1)
	require.NotNil(t, h.api.created[0].ImagePath)
	assert.Equal(t, h.api.uploads[0], *h.api.created[0].ImagePath)
	assert.Equal(t, 50, h.api.created[0].Capacity)
}

func TestEventsCreateRejectsNonImage(t *testing.T) {
	h := newHarness(t, organizerIdent, "")
	txt := writeFile(t, "notes.txt", []byte("hello there"))

	err := h.run("events", "create",
		"--title", "Launch", "--date", "2026-05-01", "--location", "Lisbon",
		"--capacity", "50", "--image", txt)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Empty(t, h.api.uploads)
	assert.Empty(t, h.api.created)
}

func TestEventsCreateRejectsOversizedImage(t *testing.T) {
	h := newHarness(t, organizerIdent, "")
	h.app.maxImageBytes = 8
	img := writeFile(t, "big.png", pngHeader)

	err := h.run("events", "create",
		"--title", "Launch", "--date", "2026-05-01", "--location", "Lisbon",
		"--capacity", "50", "--image", img)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Empty(t, h.api.uploads)
}

func TestEventsEditKeepsImageAndUnsetFields(t *testing.T) {
	h := newHarness(t, organizerIdent, "")
	require.NoError(t, h.run("events", "edit", "ev-1", "--title", "Go Meetup #2"))

	require.Len(t, h.api.updated, 1)
	in := h.api.updated[0]
	assert.Equal(t, "Go Meetup #2", in.Title)
	assert.Equal(t, "Berlin", in.Location)
	assert.Equal(t, 10, in.Capacity)
	assert.Nil(t, in.ImagePath)
}

func TestEventsEditOthersEventIsDenied(t *testing.T) {
	h := newHarness(t, organizerIdent, "")
	h.api.events["ev-1"].OrganizerID = "someone-else"
	assert.ErrorIs(t, h.run("events", "edit", "ev-1", "--title", "x"), ErrAccessDenied)
	assert.Empty(t, h.api.updated)
}

func TestEventsDeleteAsksForConfirmation(t *testing.T) {
	h := newHarness(t, organizerIdent, "n\n")
	require.NoError(t, h.run("events", "delete", "ev-1"))
	assert.Empty(t, h.api.deleted)

	h = newHarness(t, organizerIdent, "y\n")
	require.NoError(t, h.run("events", "delete", "ev-1"))
	assert.Equal(t, []string{"ev-1"}, h.api.deleted)
}

func TestEventsShowForAttendee(t *testing.T) {
	h := newHarness(t, attendeeIdent, "")
	h.api.existing = &model.Booking{ID: "b-1", Tickets: 2}
	require.NoError(t, h.run("events", "show", "ev-1"))
	assert.Contains(t, h.out.String(), "Go Meetup")
	assert.Contains(t, h.out.String(), "You have booked 2 tickets")
}

func TestProfileEditRejectsEmptyName(t *testing.T) {
	h := newHarness(t, attendeeIdent, "")
	assert.ErrorIs(t, h.run("profile", "edit", "--name", "  "), model.ErrInvalidInput)
	require.NoError(t, h.run("profile", "edit", "--name", "Ann Lee"))
	assert.Contains(t, h.out.String(), "Profile updated.")
}

func TestWhoami(t *testing.T) {
	h := newHarness(t, nil, "")
	require.NoError(t, h.run("whoami"))
	assert.Contains(t, h.out.String(), "Not signed in.")

	h = newHarness(t, organizerIdent, "")
	require.NoError(t, h.run("whoami"))
	assert.Contains(t, h.out.String(), "Olga")
	assert.Contains(t, h.out.String(), "Organizer")
}

func TestLogout(t *testing.T) {
	h := newHarness(t, attendeeIdent, "")
	require.NoError(t, h.run("logout"))
	assert.Nil(t, h.app.session.Snapshot().Identity)
}

func TestUnknownCommandSuggests(t *testing.T) {
	h := newHarness(t, nil, "")
	err := h.run("evnts")
	require.Error(t, err)
	err = h.run("dash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "dashboard"`)
}
