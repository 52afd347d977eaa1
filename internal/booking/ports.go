// Package booking implements the booking lifecycle engine: request
// validation, creation, teardown, reservation sweeping and reconciliation
// of asynchronous provisioning callbacks.
package booking

import (
    "context"
    "time"

    "github.com/iliyamo/game-server-booking/internal/catalog"
    "github.com/iliyamo/game-server-booking/internal/model"
    "github.com/iliyamo/game-server-booking/internal/notify"
    "github.com/iliyamo/game-server-booking/internal/provision"
)

// Store is the booking record store the engine drives.  Implemented by
// repository.BookingRepo; tests substitute an in-memory fake.
type Store interface {
    Create(ctx context.Context, b *model.Booking) error
    GetByID(ctx context.Context, id uint64) (*model.Booking, error)
    GetByServer(ctx context.Context, serverID string) (*model.Booking, error)
    ListActiveByUser(ctx context.Context, user string) ([]*model.Booking, error)
    ListPendingByUser(ctx context.Context, user string) ([]*model.Booking, error)
    ListActive(ctx context.Context) ([]*model.Booking, error)
    ListActiveByRegion(ctx context.Context, region string) ([]*model.Booking, error)
    CountActiveByRegionTier(ctx context.Context, region, tier string) (int, error)
    ListReserved(ctx context.Context) ([]*model.Booking, error)
    ListByUser(ctx context.Context, user string, limit int) ([]*model.Booking, error)
    ListByRegion(ctx context.Context, region string, limit int) ([]*model.Booking, error)
    UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) error
    UpdateStatusIf(ctx context.Context, id uint64, from, to model.BookingStatus) (bool, error)
    MarkStarting(ctx context.Context, id uint64, serverID string, messages model.BookingMessages) error
    StoreMessages(ctx context.Context, id uint64, messages model.BookingMessages) error
}

// Gateway is the provisioning service contract the engine depends on.
// Implemented by provision.Client.
type Gateway interface {
    CreateServer(ctx context.Context, req *provision.Server) (*provision.Server, error)
    CloseServer(ctx context.Context, id string) error
    GetServerInfo(ctx context.Context, id string) (*provision.Server, error)
}

// Preferences supplies per-user server customization values.  Implemented
// by repository.PreferenceRepo.
type Preferences interface {
    Get(ctx context.Context, user, key string) (string, bool, error)
    GetBool(ctx context.Context, user, key string) (bool, bool, error)
}

// MemberResolver recovers a member (user id plus role identifiers) from
// a bare user id, for entry points with no authenticated caller such as
// the reservation sweeper.  Implemented over the user repository.
type MemberResolver interface {
    ResolveMember(ctx context.Context, id string) (catalog.Member, error)
}

// Publisher receives lifecycle events for downstream consumers.  May be
// nil-implemented; publish failures never fail a booking operation.
type Publisher interface {
    PublishLifecycle(ctx context.Context, ev LifecycleEvent) error
}

// LifecycleEvent describes one booking state change.
type LifecycleEvent struct {
    BookingID uint64    `json:"booking_id"`
    User      string    `json:"user"`
    Region    string    `json:"region"`
    Tier      string    `json:"tier"`
    Variant   string    `json:"variant"`
    Server    string    `json:"server,omitempty"`
    Status    string    `json:"status"`
    At        time.Time `json:"at"`
}

// Notifier is re-exported here so engine consumers only import this
// package.
type Notifier = notify.Notifier
