// Package cli is the terminal view layer of the Eventix client. Each
// command renders one of the application's views; protected views go
// through the authorization guard before anything is fetched.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/Shivanand-hulikatti/eventix/internal/booking"
	"github.com/Shivanand-hulikatti/eventix/internal/guard"
	"github.com/Shivanand-hulikatti/eventix/internal/model"
	"github.com/Shivanand-hulikatti/eventix/internal/session"
)

var (
	// ErrLoginRequired is returned by a protected command when nobody is
	// signed in.
	ErrLoginRequired = errors.New("you need to sign in first")
	// ErrAccessDenied is returned when the signed-in user has the wrong role.
	ErrAccessDenied = errors.New("access denied")
)

// API is the data surface the views read and write. *sdk.Client satisfies it.
type API interface {
	session.ProfileSource
	booking.Backend

	ListEvents(ctx context.Context, category string) ([]model.Event, error)
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListMyEvents(ctx context.Context) ([]model.Event, error)
	Stats(ctx context.Context) (model.DashboardStats, error)
	CreateEvent(ctx context.Context, in model.EventInput) (*model.Event, error)
	UpdateEvent(ctx context.Context, id string, in model.EventInput) (*model.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	EventBookings(ctx context.Context, id string) ([]model.Booking, error)
	ListMyBookings(ctx context.Context) ([]model.Booking, error)
	Upload(ctx context.Context, path string, r io.Reader, upsert bool) (*model.UploadResponse, error)
	PublicURL(path string) string
}

// App holds what every view needs.
type App struct {
	api     API
	session *session.Store
	writer  *booking.Writer
	log     logrus.FieldLogger

	out    io.Writer
	errOut io.Writer
	in     *bufio.Reader
	inFile *os.File
	now    func() time.Time
	// maxImageBytes mirrors the server's upload limit so oversized files
	// are rejected before they are sent.
	maxImageBytes int64
}

type AppOption func(*App)

// WithIO replaces stdin, stdout and stderr.
func WithIO(in io.Reader, out, errOut io.Writer) AppOption {
	return func(a *App) {
		a.in = bufio.NewReader(in)
		a.inFile, _ = in.(*os.File)
		a.out = out
		a.errOut = errOut
	}
}

func WithLogger(l logrus.FieldLogger) AppOption { return func(a *App) { a.log = l } }

func WithClock(now func() time.Time) AppOption { return func(a *App) { a.now = now } }

func WithMaxImageBytes(n int64) AppOption { return func(a *App) { a.maxImageBytes = n } }

func NewApp(api API, store *session.Store, writer *booking.Writer, opts ...AppOption) *App {
	a := &App{
		api:           api,
		session:       store,
		writer:        writer,
		log:           logrus.StandardLogger(),
		out:           os.Stdout,
		errOut:        os.Stderr,
		in:            bufio.NewReader(os.Stdin),
		inFile:        os.Stdin,
		now:           time.Now,
		maxImageBytes: 5 << 20,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Root builds the command tree.
func (a *App) Root() *Command {
	return &Command{
		Name:    "eventix",
		Summary: "Browse events, book tickets, and manage the events you organize.",
		out:     a.errOut,
		Subcommands: []*Command{
			a.signupCommand(),
			a.loginCommand(),
			a.logoutCommand(),
			a.whoamiCommand(),
			a.eventsCommand(),
			a.bookCommand(),
			a.bookingsCommand(),
			a.dashboardCommand(),
			a.profileCommand(),
		},
	}
}

// protect renders a protected view. It re-evaluates the guard each time the
// session changes until the guard stops asking to wait.
func (a *App) protect(ctx context.Context, required model.Role, location string, view func(session.State) error) error {
	waited := false
	for {
		st := a.session.Snapshot()
		d := guard.Decide(st, required, location)
		switch d.Kind {
		case guard.Wait:
			if !waited {
				fmt.Fprintln(a.errOut, mutedStyle.Render("Loading session..."))
				waited = true
			}
			if _, err := a.session.WaitResolved(ctx); err != nil {
				return err
			}
		case guard.RedirectToLogin:
			return fmt.Errorf("%w: run 'eventix login --return %q'", ErrLoginRequired, d.ReturnPath)
		case guard.Deny:
			return fmt.Errorf("%w: this page is for %s only; run 'eventix events list' to browse events",
				ErrAccessDenied, roleLabel(required))
		default:
			return view(st)
		}
	}
}

// resolved waits for the session without requiring anyone to be signed in.
func (a *App) resolved(ctx context.Context) (session.State, error) {
	return a.session.WaitResolved(ctx)
}

// readSecret reads a password with echo disabled when stdin is a terminal,
// and a plain line otherwise.
func (a *App) readSecret(label string) (string, error) {
	fmt.Fprint(a.errOut, label)
	if a.inFile != nil && term.IsTerminal(int(a.inFile.Fd())) {
		b, err := term.ReadPassword(int(a.inFile.Fd()))
		fmt.Fprintln(a.errOut)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	return a.readLine()
}

func (a *App) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *App) confirm(question string) (bool, error) {
	fmt.Fprintf(a.errOut, "%s [y/N]: ", question)
	answer, err := a.readLine()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

func roleLabel(r model.Role) string {
	switch r {
	case model.RoleOrganizer:
		return "organizers"
	case model.RoleAttendee:
		return "attendees"
	default:
		return "signed-in users"
	}
}
