package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/eventix/internal/booking"
	"github.com/Shivanand-hulikatti/eventix/internal/model"
	"github.com/Shivanand-hulikatti/eventix/internal/session"
)

func (a *App) bookCommand() *Command {
	var tickets int
	return &Command{
		Name:    "book",
		Summary: "Book tickets for an event (attendees)",
		Usage:   "eventix book <event-id> [--tickets n]",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("book")
			fs.IntVarP(&tickets, "tickets", "n", 1, "number of tickets")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			id, err := oneArg(args, "event id")
			if err != nil {
				return err
			}
			return a.protect(ctx, model.RoleAttendee, "book "+id, func(st session.State) error {
				var ev *model.Event
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() (err error) {
					ev, err = a.api.GetEvent(gctx, id)
					return err
				})
				g.Go(func() error {
					_, err := a.writer.CheckExisting(gctx, id, st.Identity.ID)
					return err
				})
				if err := g.Wait(); err != nil {
					return err
				}

				n, err := a.writer.Book(ctx, ev, st, tickets)
				switch {
				case err == nil:
					msg := fmt.Sprintf("Booked %d %s for %s.", n, plural(n, "ticket", "tickets"), ev.Title)
					fmt.Fprintln(a.out, successStyle.Render(msg))
					if n < tickets {
						fmt.Fprintln(a.out, warnStyle.Render(fmt.Sprintf("Only %d seats were left, so your request was reduced.", n)))
					}
					fmt.Fprintf(a.out, "Seats left: %d\n", ev.SeatsLeft)
					return nil
				case errors.Is(err, booking.ErrAlreadyBooked):
					fmt.Fprintln(a.out, warnStyle.Render("You have already booked this event."))
					return nil
				default:
					return err
				}
			})
		},
	}
}

func (a *App) bookingsCommand() *Command {
	return &Command{
		Name:    "bookings",
		Summary: "List your bookings (attendees)",
		Run: func(ctx context.Context, _ []string) error {
			return a.protect(ctx, model.RoleAttendee, "bookings", func(session.State) error {
				bookings, err := a.api.ListMyBookings(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, titleStyle.Render("My bookings"))
				renderMyBookings(a.out, bookings, a.now())
				return nil
			})
		},
	}
}

func (a *App) dashboardCommand() *Command {
	return &Command{
		Name:    "dashboard",
		Summary: "Your events and how they are selling (organizers)",
		Run: func(ctx context.Context, _ []string) error {
			return a.protect(ctx, model.RoleOrganizer, "dashboard", func(session.State) error {
				var (
					stats  model.DashboardStats
					events []model.Event
				)
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() (err error) {
					stats, err = a.api.Stats(gctx)
					return err
				})
				g.Go(func() (err error) {
					events, err = a.api.ListMyEvents(gctx)
					return err
				})
				if err := g.Wait(); err != nil {
					return err
				}
				sort.SliceStable(events, func(i, j int) bool {
					return events[i].EventDate.Before(events[j].EventDate)
				})

				fmt.Fprintln(a.out, titleStyle.Render("Organizer dashboard"))
				renderStats(a.out, stats)
				fmt.Fprintln(a.out)
				renderEventTable(a.out, events)
				return nil
			})
		},
	}
}

func (a *App) profileCommand() *Command {
	var name string
	return &Command{
		Name:    "profile",
		Summary: "Show or edit your profile",
		Subcommands: []*Command{
			{
				Name:    "show",
				Summary: "Show your profile",
				Run: func(ctx context.Context, _ []string) error {
					return a.protect(ctx, "", "profile show", func(st session.State) error {
						renderProfile(a.out, st.Identity, st.Profile, a.now())
						return nil
					})
				},
			},
			{
				Name:    "edit",
				Summary: "Change your display name",
				Usage:   "eventix profile edit --name <full name>",
				Flags: func() *pflag.FlagSet {
					fs := newFlagSet("edit")
					fs.StringVar(&name, "name", "", "new full name")
					return fs
				},
				Run: func(ctx context.Context, _ []string) error {
					return a.protect(ctx, "", "profile edit", func(session.State) error {
						if err := a.session.UpdateName(ctx, name); err != nil {
							return err
						}
						fmt.Fprintln(a.out, successStyle.Render("Profile updated."))
						return nil
					})
				},
			},
		},
	}
}
