package booking

import (
    "context"
    "fmt"
    "log"
    "time"

    "github.com/iliyamo/game-server-booking/internal/model"
    "github.com/iliyamo/game-server-booking/internal/provision"
)

// adminHistoryLimit caps the historical bookings shown in admin
// summaries.
const adminHistoryLimit = 10

// AdminService wraps the engine with operator-facing validation and
// status summaries.  Admin booking skips the reservation, access and
// region-resolution checks of the user path; the region/tier were
// already resolved by the command layer.
type AdminService struct {
    engine *Engine
}

// NewAdminService returns an AdminService over the given engine.
func NewAdminService(engine *Engine) *AdminService { return &AdminService{engine: engine} }

// ValidateBookRequest checks an admin booking request: the target user
// must have no active booking and the tier must have a free slot.
func (s *AdminService) ValidateBookRequest(ctx context.Context, opts Options) error {
    log.Printf("booking: validating admin request from %s for %s at %s",
        opts.BookingBy.ID, opts.BookingFor.ID, opts.Region)

    active, err := s.engine.store.ListActiveByUser(ctx, opts.BookingFor.ID)
    if err != nil {
        return err
    }
    if len(active) != 0 {
        return Warn(msgAdminAlreadyExists)
    }

    region := s.engine.catalog.Region(opts.Region)
    tier := s.engine.catalog.Tier(opts.Region, opts.Tier)
    if region == nil || tier == nil {
        return Warn(msgTierUnknown)
    }
    count, err := s.engine.store.CountActiveByRegionTier(ctx, region.Key, opts.Tier)
    if err != nil {
        return err
    }
    if count >= tier.Limit {
        return Warnf(msgReachedLimit, region.Name)
    }
    return nil
}

// BookingSummary is one line of an admin listing.
type BookingSummary struct {
    ID         uint64     `json:"id"`
    BookingFor string     `json:"booking_for"`
    Region     string     `json:"region"`
    Tier       string     `json:"tier"`
    Status     string     `json:"status"`
    CreatedAt  time.Time  `json:"created_at"`
    ReservedAt *time.Time `json:"reserved_at,omitempty"`
}

func summarize(bookings []*model.Booking) []BookingSummary {
    out := make([]BookingSummary, 0, len(bookings))
    for _, b := range bookings {
        out = append(out, BookingSummary{
            ID:         b.ID,
            BookingFor: b.BookingFor,
            Region:     b.Region,
            Tier:       b.Tier,
            Status:     string(b.Status),
            CreatedAt:  b.CreatedAt,
            ReservedAt: b.ReservedAt,
        })
    }
    return out
}

// Overview lists all currently active bookings.
func (s *AdminService) Overview(ctx context.Context) ([]BookingSummary, error) {
    active, err := s.engine.store.ListActive(ctx)
    if err != nil {
        return nil, err
    }
    return summarize(active), nil
}

// UserStatus summarizes one user: their active bookings plus recent
// history, newest first.
type UserStatus struct {
    User    string           `json:"user"`
    Total   int              `json:"total"`
    Active  []BookingSummary `json:"active"`
    History []BookingSummary `json:"history"`
}

// StatusForUser builds the admin view of a user's bookings.
func (s *AdminService) StatusForUser(ctx context.Context, user string) (*UserStatus, error) {
    history, err := s.engine.store.ListByUser(ctx, user, adminHistoryLimit)
    if err != nil {
        return nil, err
    }
    active, err := s.engine.store.ListActiveByUser(ctx, user)
    if err != nil {
        return nil, err
    }
    return &UserStatus{
        User:    user,
        Total:   len(history),
        Active:  summarize(active),
        History: summarize(history),
    }, nil
}

// RegionStatus summarizes one region's bookings.
type RegionStatus struct {
    Region  string           `json:"region"`
    Name    string           `json:"name"`
    Active  []BookingSummary `json:"active"`
    History []BookingSummary `json:"history"`
}

// StatusForRegion builds the admin view of a region's bookings.
func (s *AdminService) StatusForRegion(ctx context.Context, region string) (*RegionStatus, error) {
    key := s.engine.catalog.ResolveRegion(region)
    if key == "" {
        return nil, Warn(msgRegionUnknown)
    }
    history, err := s.engine.store.ListByRegion(ctx, key, adminHistoryLimit)
    if err != nil {
        return nil, err
    }
    active, err := s.engine.store.ListActiveByRegion(ctx, key)
    if err != nil {
        return nil, err
    }
    return &RegionStatus{
        Region:  key,
        Name:    s.engine.catalog.RegionName(key),
        Active:  summarize(active),
        History: summarize(history),
    }, nil
}

// BookingDetail is the full admin view of one booking, including the
// provisioning service's current server record when one exists.
type BookingDetail struct {
    BookingSummary
    Server  string `json:"server,omitempty"`
    Running bool   `json:"running"`
    Address string `json:"address,omitempty"`
    Connect string `json:"connect,omitempty"`
}

// DetailFor builds the full view of a booking, polling the gateway for
// its server state when a server id is present.
func (s *AdminService) DetailFor(ctx context.Context, booking *model.Booking) (*BookingDetail, error) {
    detail := &BookingDetail{BookingSummary: summarize([]*model.Booking{booking})[0], Server: booking.Server}
    if booking.Server == "" {
        return detail, nil
    }
    server, err := s.engine.gateway.GetServerInfo(ctx, booking.Server)
    if err != nil {
        return nil, err
    }
    detail.Running = server.Status.Live()
    if detail.Running {
        detail.Address = fmt.Sprintf("%s:%d", server.IP, server.Port)
        detail.Connect = ConnectDetails(booking, server)
    }
    return detail, nil
}

// TierUsage reports how many active bookings occupy a tier against its
// limit.
type TierUsage struct {
    Limit            int  `json:"limit"`
    InUse            int  `json:"inUse"`
    AllowReservation bool `json:"allowReservation"`
}

// RegionUsage is the per-tier usage of one region.
type RegionUsage struct {
    Name  string               `json:"name"`
    Tiers map[string]TierUsage `json:"tiers"`
}

// Usage computes the per-tier active-booking counts for one region, or
// for every region when the key is empty.  Backs the status command.
func (e *Engine) Usage(ctx context.Context, region string) (map[string]RegionUsage, error) {
    active, err := e.store.ListActive(ctx)
    if err != nil {
        return nil, err
    }

    var keys []string
    if region != "" {
        key := e.catalog.ResolveRegion(region)
        if key == "" {
            return nil, Warn(msgRegionUnknown)
        }
        keys = []string{key}
    } else {
        // hidden regions stay bookable by key but are left out of
        // the listing
        for _, key := range e.catalog.RegionKeys() {
            if e.catalog.Region(key).Hidden {
                continue
            }
            keys = append(keys, key)
        }
    }

    usage := make(map[string]RegionUsage, len(keys))
    for _, key := range keys {
        cfg := e.catalog.Region(key)
        tiers := make(map[string]TierUsage, len(cfg.Tiers))
        for name, tier := range cfg.Tiers {
            inUse := 0
            for _, b := range active {
                if b.Region == key && b.Tier == name {
                    inUse++
                }
            }
            tiers[name] = TierUsage{
                Limit:            tier.Limit,
                InUse:            inUse,
                AllowReservation: tier.AllowReservation,
            }
        }
        usage[key] = RegionUsage{Name: cfg.Name, Tiers: tiers}
    }
    return usage, nil
}

// RconCommand relays one remote command to the user's running server.
// Timeouts surface as plain errors and are not retried.
func (e *Engine) RconCommand(ctx context.Context, user, command string) (string, error) {
    active, err := e.store.ListActiveByUser(ctx, user)
    if err != nil {
        return "", err
    }
    if len(active) == 0 {
        return "", Warn(msgNoBooking)
    }
    booking := active[0]
    if booking.Status != model.StatusRunning {
        return "", Warn(msgNoDetailsStarting)
    }
    server, err := e.gateway.GetServerInfo(ctx, booking.Server)
    if err != nil {
        return "", err
    }
    addr := fmt.Sprintf("%s:%d", server.IP, server.Port)
    return provision.ExecRconCommand(ctx, addr, server.Data.RconPassword, command)
}
