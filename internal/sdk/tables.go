package sdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
)

// ImageBucket is the bucket event banners are stored in.
const ImageBucket = "event-images"

// GetProfile fetches a profile row by id.
func (c *Client) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	if err := c.do(ctx, http.MethodGet, "/profiles/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	role, err := model.ParseRole(string(p.UserType))
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", id, err)
	}
	p.UserType = role
	return &p, nil
}

func (c *Client) UpdateProfile(ctx context.Context, id, fullName string) (*model.Profile, error) {
	var p model.Profile
	req := model.UpdateProfileRequest{FullName: fullName}
	if err := c.do(ctx, http.MethodPatch, "/profiles/"+url.PathEscape(id), req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListEvents returns all events by date, optionally filtered by category.
func (c *Client) ListEvents(ctx context.Context, category string) ([]model.Event, error) {
	path := "/events"
	if category != "" {
		path += "?" + url.Values{"category": {category}}.Encode()
	}
	var events []model.Event
	if err := c.do(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	var ev model.Event
	if err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(id), nil, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// ListMyEvents returns the caller's own events.
func (c *Client) ListMyEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := c.do(ctx, http.MethodGet, "/events/mine", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) Stats(ctx context.Context) (model.DashboardStats, error) {
	var st model.DashboardStats
	err := c.do(ctx, http.MethodGet, "/events/stats", nil, &st)
	return st, err
}

func (c *Client) CreateEvent(ctx context.Context, in model.EventInput) (*model.Event, error) {
	var ev model.Event
	if err := c.do(ctx, http.MethodPost, "/events", in, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id string, in model.EventInput) (*model.Event, error) {
	var ev model.Event
	if err := c.do(ctx, http.MethodPatch, "/events/"+url.PathEscape(id), in, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/events/"+url.PathEscape(id), nil, nil)
}

// EventBookings lists the bookings of one of the caller's events.
func (c *Client) EventBookings(ctx context.Context, id string) ([]model.Booking, error) {
	var list []model.Booking
	if err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(id)+"/bookings", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// InsertBooking writes one booking row.
func (c *Client) InsertBooking(ctx context.Context, in model.BookingInsert) error {
	return c.do(ctx, http.MethodPost, "/bookings", in, nil)
}

// FindBooking returns the booking for the pair, or nil when there is none.
func (c *Client) FindBooking(ctx context.Context, eventID, attendeeID string) (*model.Booking, error) {
	q := url.Values{"event_id": {eventID}, "attendee_id": {attendeeID}}
	var rows []model.Booking
	if err := c.do(ctx, http.MethodGet, "/bookings/lookup?"+q.Encode(), nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListMyBookings returns the caller's bookings with event summaries, newest
// first.
func (c *Client) ListMyBookings(ctx context.Context) ([]model.Booking, error) {
	var list []model.Booking
	if err := c.do(ctx, http.MethodGet, "/bookings", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Upload stores r at path in the image bucket.
func (c *Client) Upload(ctx context.Context, path string, r io.Reader, upsert bool) (*model.UploadResponse, error) {
	header := http.Header{"X-Upsert": {strconv.FormatBool(upsert)}}
	var resp model.UploadResponse
	err := c.send(ctx, http.MethodPost, "/storage/"+ImageBucket+"/"+escapePath(path), r,
		"application/octet-stream", header, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// PublicURL is the download URL of path. Nothing is fetched.
func (c *Client) PublicURL(path string) string {
	return c.baseURL + "/storage/public/" + ImageBucket + "/" + escapePath(path)
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
