package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
)

var (
	organizer = Principal{UserID: "org-1", Role: model.RoleOrganizer}
	attendee  = Principal{UserID: "att-1", Role: model.RoleAttendee}
	anonymous = Principal{}
)

func TestProfileOwnership(t *testing.T) {
	assert.NoError(t, CanReadProfile(attendee, "att-1"))
	assert.ErrorIs(t, CanReadProfile(attendee, "org-1"), ErrPolicy)
	assert.ErrorIs(t, CanWriteProfile(anonymous, ""), ErrPolicy)
}

func TestEventWrites(t *testing.T) {
	ev := &model.Event{ID: "ev-1", OrganizerID: "org-1"}

	assert.NoError(t, CanCreateEvent(organizer))
	assert.ErrorIs(t, CanCreateEvent(attendee), ErrPolicy)

	assert.NoError(t, CanModifyEvent(organizer, ev))
	other := Principal{UserID: "org-2", Role: model.RoleOrganizer}
	assert.ErrorIs(t, CanModifyEvent(other, ev), ErrPolicy)
	assert.ErrorIs(t, CanModifyEvent(attendee, ev), ErrPolicy)
}

func TestBookingInsert(t *testing.T) {
	own := model.BookingInsert{EventID: "ev-1", AttendeeID: "att-1", Tickets: 1}
	assert.NoError(t, CanInsertBooking(attendee, own))

	forged := model.BookingInsert{EventID: "ev-1", AttendeeID: "someone-else", Tickets: 1}
	assert.ErrorIs(t, CanInsertBooking(attendee, forged), ErrPolicy)

	asOrganizer := model.BookingInsert{EventID: "ev-1", AttendeeID: "org-1", Tickets: 1}
	assert.ErrorIs(t, CanInsertBooking(organizer, asOrganizer), ErrPolicy)
}

func TestBookingRead(t *testing.T) {
	ev := &model.Event{ID: "ev-1", OrganizerID: "org-1"}
	b := &model.Booking{EventID: "ev-1", AttendeeID: "att-1"}

	assert.NoError(t, CanReadBooking(attendee, b, nil))
	assert.NoError(t, CanReadBooking(organizer, b, ev))
	stranger := Principal{UserID: "att-2", Role: model.RoleAttendee}
	assert.ErrorIs(t, CanReadBooking(stranger, b, ev), ErrPolicy)
}

func TestUploadPrefix(t *testing.T) {
	assert.NoError(t, CanUpload(organizer, "org-1/1700000000000.png"))
	assert.ErrorIs(t, CanUpload(organizer, "org-2/1700000000000.png"), ErrPolicy)
	assert.ErrorIs(t, CanUpload(organizer, "org-1/"), ErrPolicy)
	assert.ErrorIs(t, CanUpload(attendee, "att-1/x.png"), ErrPolicy)
}
