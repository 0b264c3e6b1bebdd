package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
	"github.com/Shivanand-hulikatti/eventix/internal/session"
	"github.com/Shivanand-hulikatti/eventix/internal/storage"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q must look like 2026-05-01 18:30", model.ErrInvalidInput, s)
}

func oneArg(args []string, what string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("%w: expected exactly one %s", model.ErrInvalidInput, what)
	}
	return args[0], nil
}

func (a *App) eventsCommand() *Command {
	return &Command{
		Name:    "events",
		Summary: "Browse and manage events",
		Subcommands: []*Command{
			a.eventsListCommand(),
			a.eventsShowCommand(),
			a.eventsCreateCommand(),
			a.eventsEditCommand(),
			a.eventsDeleteCommand(),
			a.eventsBookingsCommand(),
		},
	}
}

func (a *App) eventsListCommand() *Command {
	var category string
	return &Command{
		Name:    "list",
		Summary: "List upcoming events",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("list")
			fs.StringVar(&category, "category", "", "only show events in this category")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			events, err := a.api.ListEvents(ctx, strings.TrimSpace(category))
			if err != nil {
				return err
			}
			renderEventTable(a.out, events)
			return nil
		},
	}
}

func (a *App) eventsShowCommand() *Command {
	return &Command{
		Name:    "show",
		Summary: "Show one event and whether you have booked it",
		Usage:   "eventix events show <event-id>",
		Run: func(ctx context.Context, args []string) error {
			id, err := oneArg(args, "event id")
			if err != nil {
				return err
			}
			st, err := a.resolved(ctx)
			if err != nil {
				return err
			}

			var (
				ev       *model.Event
				existing *model.Booking
			)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				ev, err = a.api.GetEvent(gctx, id)
				return err
			})
			if st.IsAttendee() {
				g.Go(func() error {
					var err error
					existing, err = a.writer.CheckExisting(gctx, id, st.Identity.ID)
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			imageURL := ""
			if ev.ImagePath != "" {
				imageURL = a.api.PublicURL(ev.ImagePath)
			}
			renderEvent(a.out, *ev, imageURL, a.now())
			fmt.Fprintln(a.out)
			switch {
			case existing != nil:
				fmt.Fprintln(a.out, successStyle.Render(fmt.Sprintf("You have booked %d %s for this event.",
					existing.Tickets, plural(existing.Tickets, "ticket", "tickets"))))
			case st.IsAttendee() && !ev.SoldOut():
				fmt.Fprintf(a.out, "Book with 'eventix book %s --tickets 1'.\n", ev.ID)
			case st.Identity == nil:
				fmt.Fprintln(a.out, mutedStyle.Render(fmt.Sprintf("Sign in as an attendee to book: eventix login --return %q", "book "+ev.ID)))
			}
			return nil
		},
	}
}

// eventForm holds the event flags shared by create and edit.
type eventForm struct {
	fs                                        *pflag.FlagSet
	title, description, date, location, image string
	category                                  string
	capacity                                  int
}

func (f *eventForm) flags(name string) *pflag.FlagSet {
	fs := newFlagSet(name)
	fs.StringVar(&f.title, "title", "", "event title")
	fs.StringVar(&f.description, "description", "", "event description")
	fs.StringVar(&f.date, "date", "", "start time, e.g. 2026-05-01 18:30")
	fs.StringVar(&f.location, "location", "", "venue")
	fs.IntVar(&f.capacity, "capacity", 0, "number of seats (1 to 100,000)")
	fs.StringVar(&f.category, "category", "", "category, e.g. music or tech")
	fs.StringVar(&f.image, "image", "", "path to a cover image (max 5 MB)")
	f.fs = fs
	return fs
}

// apply overwrites in with every flag the user set.
func (f *eventForm) apply(in *model.EventInput) error {
	changed := func(name string) bool { return f.fs.Changed(name) }
	if changed("title") {
		in.Title = f.title
	}
	if changed("description") {
		in.Description = f.description
	}
	if changed("date") {
		t, err := parseDate(f.date)
		if err != nil {
			return err
		}
		in.EventDate = t
	}
	if changed("location") {
		in.Location = f.location
	}
	if changed("capacity") {
		in.Capacity = f.capacity
	}
	if changed("category") {
		in.Category = f.category
	}
	in.Normalize()
	return in.Validate()
}

// uploadImage checks the file locally and stores it under the user's
// folder, returning the object path.
func (a *App) uploadImage(ctx context.Context, userID, file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > a.maxImageBytes {
		return "", fmt.Errorf("%w: image is %s; the limit is %s", model.ErrInvalidInput,
			humanize.Bytes(uint64(len(data))), humanize.Bytes(uint64(a.maxImageBytes)))
	}
	if ct := http.DetectContentType(data); !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("%w: %s is not an image (%s)", model.ErrInvalidInput, filepath.Base(file), ct)
	}

	p := storage.ObjectPath(userID, filepath.Base(file), a.now())
	if _, err := a.api.Upload(ctx, p, bytes.NewReader(data), false); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return p, nil
}

func (a *App) eventsCreateCommand() *Command {
	var form eventForm
	return &Command{
		Name:    "create",
		Summary: "Create an event (organizers)",
		Usage:   "eventix events create --title <t> --date <when> --location <where> --capacity <n> [--image <file>]",
		Flags:   func() *pflag.FlagSet { return form.flags("create") },
		Run: func(ctx context.Context, _ []string) error {
			return a.protect(ctx, model.RoleOrganizer, "events create", func(st session.State) error {
				var in model.EventInput
				if err := form.apply(&in); err != nil {
					return err
				}
				if form.image != "" {
					p, err := a.uploadImage(ctx, st.Identity.ID, form.image)
					if err != nil {
						return err
					}
					in.ImagePath = &p
				}
				ev, err := a.api.CreateEvent(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, successStyle.Render("Event created: "+ev.Title))
				fmt.Fprintf(a.out, "ID: %s\n", ev.ID)
				return nil
			})
		},
	}
}

func (a *App) eventsEditCommand() *Command {
	var form eventForm
	return &Command{
		Name:    "edit",
		Summary: "Edit one of your events (organizers)",
		Usage:   "eventix events edit <event-id> [--title ...] [--image <file>]",
		Flags:   func() *pflag.FlagSet { return form.flags("edit") },
		Run: func(ctx context.Context, args []string) error {
			id, err := oneArg(args, "event id")
			if err != nil {
				return err
			}
			return a.protect(ctx, model.RoleOrganizer, "events edit "+id, func(st session.State) error {
				ev, err := a.api.GetEvent(ctx, id)
				if err != nil {
					return err
				}
				if ev.OrganizerID != st.Identity.ID {
					return fmt.Errorf("%w: you can only edit your own events", ErrAccessDenied)
				}

				in := model.EventInput{
					Title:       ev.Title,
					Description: ev.Description,
					EventDate:   ev.EventDate,
					Location:    ev.Location,
					Capacity:    ev.Capacity,
					Category:    ev.Category,
				}
				if err := form.apply(&in); err != nil {
					return err
				}
				// The stored image is only replaced when a new one is given.
				if form.image != "" {
					p, err := a.uploadImage(ctx, st.Identity.ID, form.image)
					if err != nil {
						return err
					}
					in.ImagePath = &p
				}
				updated, err := a.api.UpdateEvent(ctx, id, in)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, successStyle.Render("Event updated: "+updated.Title))
				return nil
			})
		},
	}
}

func (a *App) eventsDeleteCommand() *Command {
	var yes bool
	return &Command{
		Name:    "delete",
		Summary: "Delete one of your events (organizers)",
		Usage:   "eventix events delete <event-id> [--yes]",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("delete")
			fs.BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			id, err := oneArg(args, "event id")
			if err != nil {
				return err
			}
			return a.protect(ctx, model.RoleOrganizer, "events delete "+id, func(session.State) error {
				if !yes {
					ok, err := a.confirm("Are you sure you want to delete this event?")
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(a.out, "Cancelled.")
						return nil
					}
				}
				if err := a.api.DeleteEvent(ctx, id); err != nil {
					return err
				}
				fmt.Fprintln(a.out, successStyle.Render("Event deleted."))
				return nil
			})
		},
	}
}

func (a *App) eventsBookingsCommand() *Command {
	return &Command{
		Name:    "bookings",
		Summary: "List the bookings for one of your events (organizers)",
		Usage:   "eventix events bookings <event-id>",
		Run: func(ctx context.Context, args []string) error {
			id, err := oneArg(args, "event id")
			if err != nil {
				return err
			}
			return a.protect(ctx, model.RoleOrganizer, "events bookings "+id, func(session.State) error {
				var (
					ev       *model.Event
					bookings []model.Booking
				)
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() (err error) {
					ev, err = a.api.GetEvent(gctx, id)
					return err
				})
				g.Go(func() (err error) {
					bookings, err = a.api.EventBookings(gctx, id)
					return err
				})
				if err := g.Wait(); err != nil {
					return err
				}
				renderEventBookings(a.out, *ev, bookings, a.now())
				return nil
			})
		},
	}
}
