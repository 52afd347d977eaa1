package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "time"

    "github.com/iliyamo/game-server-booking/internal/model"
)

// BookingRepo provides data access to the bookings table.  Bookings are
// the lifecycle records of provisioned game servers; they are inserted
// once and then only their status, server id and message references
// change.  Records are never deleted, the table doubles as history.
// All timestamp fields are stored in UTC.
//
// Columns: id, created_at, reserved_at (nullable), booking_for,
// booking_by, region, tier, variant, server, status, messages (JSON).
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for callers that need transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = `id, created_at, reserved_at, booking_for, booking_by, region, tier, variant, server, status, messages`

// activeCondition matches the states in which a booking occupies a
// server slot: STARTING, RUNNING or CLOSING.
const activeCondition = `status IN ('STARTING','RUNNING','CLOSING')`

// pendingCondition matches not-yet-started reservations.
const pendingCondition = `status IN ('RESERVED','RESERVING')`

// Create inserts a new booking and populates the generated ID and
// creation timestamp on the provided record.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
    if b.CreatedAt.IsZero() {
        b.CreatedAt = time.Now().UTC()
    }
    messages, err := json.Marshal(b.Messages)
    if err != nil {
        return err
    }
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO bookings (created_at, reserved_at, booking_for, booking_by, region, tier, variant, server, status, messages)
         VALUES (?,?,?,?,?,?,?,?,?,?)`,
        b.CreatedAt, b.ReservedAt, b.BookingFor, b.BookingBy, b.Region, b.Tier, b.Variant, b.Server, string(b.Status), messages)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return nil
}

// GetByID fetches a booking by its primary key.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    return r.queryOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
}

// GetByServer fetches the booking holding the given server id.  Server
// ids are assigned at most once per booking, so this is unique among
// non-terminal records.
func (r *BookingRepo) GetByServer(ctx context.Context, serverID string) (*model.Booking, error) {
    return r.queryOne(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE server = ? ORDER BY created_at DESC LIMIT 1`, serverID)
}

// ListActiveByUser returns the user's active bookings (STARTING, RUNNING
// or CLOSING).  The engine treats more than one as an invariant breach.
func (r *BookingRepo) ListActiveByUser(ctx context.Context, user string) ([]*model.Booking, error) {
    return r.queryMany(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE booking_for = ? AND `+activeCondition, user)
}

// ListPendingByUser returns the user's pending reservations (RESERVED or
// RESERVING).
func (r *BookingRepo) ListPendingByUser(ctx context.Context, user string) ([]*model.Booking, error) {
    return r.queryMany(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE booking_for = ? AND `+pendingCondition, user)
}

// ListActive returns all active bookings across regions.
func (r *BookingRepo) ListActive(ctx context.Context) ([]*model.Booking, error) {
    return r.queryMany(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE `+activeCondition)
}

// ListActiveByRegion returns all active bookings in a region.
func (r *BookingRepo) ListActiveByRegion(ctx context.Context, region string) ([]*model.Booking, error) {
    return r.queryMany(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE region = ? AND `+activeCondition, region)
}

// CountActiveByRegionTier counts the active bookings occupying a tier.
// This read feeds the advisory capacity check: it is check-then-act, not
// atomic, so two simultaneous requests can both pass and together exceed
// the limit by one.
func (r *BookingRepo) CountActiveByRegionTier(ctx context.Context, region, tier string) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM bookings WHERE region = ? AND tier = ? AND `+activeCondition,
        region, tier).Scan(&n)
    return n, err
}

// ListReserved returns all bookings waiting in RESERVED, for the
// reservation sweeper.
func (r *BookingRepo) ListReserved(ctx context.Context) ([]*model.Booking, error) {
    return r.queryMany(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE status = ?`, string(model.StatusReserved))
}

// ListByUser returns the user's bookings, newest first, capped at limit.
// Used by admin history views.
func (r *BookingRepo) ListByUser(ctx context.Context, user string, limit int) ([]*model.Booking, error) {
    return r.queryMany(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE booking_for = ? ORDER BY created_at DESC LIMIT ?`,
        user, limit)
}

// ListByRegion returns a region's bookings, newest first, capped at limit.
func (r *BookingRepo) ListByRegion(ctx context.Context, region string, limit int) ([]*model.Booking, error) {
    return r.queryMany(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE region = ? ORDER BY created_at DESC LIMIT ?`,
        region, limit)
}

// UpdateStatus unconditionally moves a booking to the given status.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET status = ? WHERE id = ?`, string(status), id)
    return err
}

// UpdateStatusIf moves a booking from one status to another only when it
// is still in the expected state, and reports whether the flip happened.
// The reservation sweeper uses this as its mutual-exclusion device for
// the RESERVED→RESERVING transition.
func (r *BookingRepo) UpdateStatusIf(ctx context.Context, id uint64, from, to model.BookingStatus) (bool, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`,
        string(to), id, string(from))
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

// MarkStarting records a successful provisioning call: the booking moves
// to STARTING with its server id and start notification reference set.
// The server id is written exactly once here and never cleared.
func (r *BookingRepo) MarkStarting(ctx context.Context, id uint64, serverID string, messages model.BookingMessages) error {
    raw, err := json.Marshal(messages)
    if err != nil {
        return err
    }
    _, err = r.db.ExecContext(ctx,
        `UPDATE bookings SET status = ?, server = ?, messages = ? WHERE id = ?`,
        string(model.StatusStarting), serverID, raw, id)
    return err
}

// StoreMessages replaces the notification references of a booking.
func (r *BookingRepo) StoreMessages(ctx context.Context, id uint64, messages model.BookingMessages) error {
    raw, err := json.Marshal(messages)
    if err != nil {
        return err
    }
    _, err = r.db.ExecContext(ctx,
        `UPDATE bookings SET messages = ? WHERE id = ?`, raw, id)
    return err
}

func (r *BookingRepo) queryOne(ctx context.Context, query string, args ...any) (*model.Booking, error) {
    b, err := scanBooking(r.db.QueryRowContext(ctx, query, args...))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrBookingNotFound
    }
    return b, err
}

func (r *BookingRepo) queryMany(ctx context.Context, query string, args ...any) ([]*model.Booking, error) {
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var bookings []*model.Booking
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        bookings = append(bookings, b)
    }
    return bookings, rows.Err()
}

type rowScanner interface {
    Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
    var (
        b          model.Booking
        reservedAt sql.NullTime
        server     sql.NullString
        status     string
        messages   []byte
    )
    err := row.Scan(&b.ID, &b.CreatedAt, &reservedAt, &b.BookingFor, &b.BookingBy,
        &b.Region, &b.Tier, &b.Variant, &server, &status, &messages)
    if err != nil {
        return nil, err
    }
    if reservedAt.Valid {
        t := reservedAt.Time
        b.ReservedAt = &t
    }
    if server.Valid {
        b.Server = server.String
    }
    b.Status = model.BookingStatus(status)
    if len(messages) > 0 {
        if err := json.Unmarshal(messages, &b.Messages); err != nil {
            return nil, err
        }
    }
    return &b, nil
}
