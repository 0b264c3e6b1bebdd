package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	badgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

const dateLayout = "Mon, Jan 2 2006 15:04"

// RenderError formats a command failure for stderr.
func RenderError(err error) string {
	return errorStyle.Render("Error: ") + err.Error()
}

func cell(s string, width int) string {
	return lipgloss.NewStyle().Width(width).MaxWidth(width).Render(s)
}

func row(cols ...string) string {
	return strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cols...), " ")
}

func when(t, now time.Time) string {
	return t.Local().Format(dateLayout) + " " + mutedStyle.Render("("+humanize.RelTime(t, now, "ago", "from now")+")")
}

func seats(ev model.Event) string {
	if ev.SoldOut() {
		return warnStyle.Render("sold out")
	}
	return fmt.Sprintf("%s / %s left", humanize.Comma(int64(ev.SeatsLeft)), humanize.Comma(int64(ev.Capacity)))
}

func renderEventTable(w io.Writer, events []model.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No events found."))
		return
	}
	fmt.Fprintln(w, row(
		headerStyle.Render(cell("ID", 38)),
		headerStyle.Render(cell("TITLE", 28)),
		headerStyle.Render(cell("DATE", 24)),
		headerStyle.Render(cell("LOCATION", 20)),
		headerStyle.Render("SEATS"),
	))
	for _, ev := range events {
		fmt.Fprintln(w, row(
			mutedStyle.Render(cell(ev.ID, 38)),
			cell(ev.Title, 28),
			cell(ev.EventDate.Local().Format("Jan 2 2006 15:04"), 24),
			cell(ev.Location, 20),
			seats(ev),
		))
	}
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d %s", len(events), plural(len(events), "event", "events"))))
}

func renderEvent(w io.Writer, ev model.Event, imageURL string, now time.Time) {
	fmt.Fprintln(w, titleStyle.Render(ev.Title))
	if ev.Category != "" {
		fmt.Fprintln(w, badgeStyle.Render("#"+ev.Category))
	}
	fmt.Fprintf(w, "When:      %s\n", when(ev.EventDate, now))
	fmt.Fprintf(w, "Where:     %s\n", ev.Location)
	fmt.Fprintf(w, "Seats:     %s\n", seats(ev))
	if imageURL != "" {
		fmt.Fprintf(w, "Image:     %s\n", imageURL)
	}
	if ev.Description != "" {
		fmt.Fprintf(w, "\n%s\n", ev.Description)
	}
}

func renderMyBookings(w io.Writer, bookings []model.Booking, now time.Time) {
	if len(bookings) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("You have not booked any events yet. Run 'eventix events list' to find one."))
		return
	}
	fmt.Fprintln(w, row(
		headerStyle.Render(cell("EVENT", 28)),
		headerStyle.Render(cell("DATE", 24)),
		headerStyle.Render(cell("LOCATION", 20)),
		headerStyle.Render(cell("TICKETS", 9)),
		headerStyle.Render(cell("STATUS", 11)),
		headerStyle.Render("BOOKED"),
	))
	for _, b := range bookings {
		title, date, location := b.EventID, "", ""
		if b.Event != nil {
			title = b.Event.Title
			date = b.Event.EventDate.Local().Format("Jan 2 2006 15:04")
			location = b.Event.Location
		}
		fmt.Fprintln(w, row(
			cell(title, 28),
			cell(date, 24),
			cell(location, 20),
			cell(fmt.Sprint(b.Tickets), 9),
			cell(string(b.Status), 11),
			mutedStyle.Render(humanize.RelTime(b.CreatedAt, now, "ago", "from now")),
		))
	}
}

func renderEventBookings(w io.Writer, ev model.Event, bookings []model.Booking, now time.Time) {
	fmt.Fprintln(w, titleStyle.Render("Bookings for "+ev.Title))
	if len(bookings) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No bookings yet."))
		return
	}
	total := 0
	for _, b := range bookings {
		fmt.Fprintln(w, row(
			cell(b.AttendeeID, 38),
			cell(fmt.Sprintf("%d %s", b.Tickets, plural(b.Tickets, "ticket", "tickets")), 12),
			cell(string(b.Status), 11),
			mutedStyle.Render(humanize.RelTime(b.CreatedAt, now, "ago", "from now")),
		))
		if b.Status == model.BookingConfirmed {
			total += b.Tickets
		}
	}
	fmt.Fprintf(w, "%s confirmed of %s\n", humanize.Comma(int64(total)), humanize.Comma(int64(ev.Capacity)))
}

func renderStats(w io.Writer, s model.DashboardStats) {
	box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	stat := func(label string, n int) string {
		return box.Render(titleStyle.Render(humanize.Comma(int64(n))) + "\n" + mutedStyle.Render(label))
	}
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top,
		stat("Total events", s.TotalEvents),
		stat("Total bookings", s.TotalBookings),
		stat("Seats available", s.SeatsAvailable),
	))
}

func renderProfile(w io.Writer, ident *model.Identity, p *model.Profile, now time.Time) {
	name := ident.Metadata.FullName
	if p != nil && p.FullName != "" {
		name = p.FullName
	}
	fmt.Fprintln(w, titleStyle.Render(name))
	fmt.Fprintf(w, "Email:     %s\n", ident.Email)
	if p != nil {
		fmt.Fprintf(w, "Role:      %s\n", roleName(p.UserType))
	} else {
		fmt.Fprintf(w, "Role:      %s\n", mutedStyle.Render("unknown (profile not loaded)"))
	}
	if !ident.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Joined:    %s\n", humanize.RelTime(ident.CreatedAt, now, "ago", "from now"))
	}
}

func roleName(r model.Role) string {
	switch r {
	case model.RoleOrganizer:
		return "Organizer"
	case model.RoleAttendee:
		return "Attendee"
	default:
		return string(r)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
