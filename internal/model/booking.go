package model

import "time"

// BookingStatus enumerates the lifecycle states of a booking.
// A booking is created in STARTING (immediate bookings) or
// RESERVED (scheduled bookings) and never physically deleted;
// CLOSED and FAILED are terminal.
type BookingStatus string

const (
    StatusReserved  BookingStatus = "RESERVED"
    StatusReserving BookingStatus = "RESERVING"
    StatusStarting  BookingStatus = "STARTING"
    StatusRunning   BookingStatus = "RUNNING"
    StatusClosing   BookingStatus = "CLOSING"
    StatusClosed    BookingStatus = "CLOSED"
    StatusFailed    BookingStatus = "FAILED"
)

// ActiveStatuses are the states in which a booking occupies a
// server slot and blocks new bookings for the same user.
var ActiveStatuses = []BookingStatus{StatusStarting, StatusRunning, StatusClosing}

// PendingStatuses are the states of a not-yet-started reservation.
// They block new reservations for the same user.
var PendingStatuses = []BookingStatus{StatusReserved, StatusReserving}

// IsActive reports whether s counts toward the per-user and
// per-tier active booking limits.
func (s BookingStatus) IsActive() bool {
    return s == StatusStarting || s == StatusRunning || s == StatusClosing
}

// IsPending reports whether s is a reservation waiting to start.
func (s BookingStatus) IsPending() bool {
    return s == StatusReserved || s == StatusReserving
}

// IsTerminal reports whether the booking can never change state again.
func (s BookingStatus) IsTerminal() bool {
    return s == StatusClosed || s == StatusFailed
}

// MessageRef points at a status notification that was posted for a
// booking so it can later be edited in place instead of posting a
// new message.  Channel and ID are opaque to this service.
type MessageRef struct {
    Channel string `json:"channel"`
    ID      string `json:"id"`
}

// BookingMessages groups the notification references stored on a
// booking.  Start is the "starting" notification, Close the
// "stopping" one.  Either may be absent.
type BookingMessages struct {
    Start *MessageRef `json:"start,omitempty"`
    Close *MessageRef `json:"close,omitempty"`
}

// Booking is the central entity: a user's claim on a provisioned
// game server instance, tracked through its whole lifecycle.
//
// Fields:
//  ID         – primary key identifier, store assigned.
//  CreatedAt  – creation timestamp.
//  ReservedAt – requested start time, set only for scheduled bookings.
//  BookingFor – user who receives the server.
//  BookingBy  – user who initiated the request (may equal BookingFor).
//  Region     – catalog region key, immutable after creation.
//  Tier       – catalog tier key within the region, immutable.
//  Variant    – game mode preset key, immutable.
//  Server     – provisioned server identifier, set exactly once at the
//               STARTING transition and never cleared.
//  Status     – current lifecycle state.
//  Messages   – references to the start/close status notifications.
type Booking struct {
    ID         uint64          // bookings.id
    CreatedAt  time.Time       // bookings.created_at
    ReservedAt *time.Time      // bookings.reserved_at (nullable)
    BookingFor string          // bookings.booking_for
    BookingBy  string          // bookings.booking_by
    Region     string          // bookings.region
    Tier       string          // bookings.tier
    Variant    string          // bookings.variant
    Server     string          // bookings.server (empty until provisioned)
    Status     BookingStatus   // bookings.status
    Messages   BookingMessages // bookings.messages (JSON column)
}
