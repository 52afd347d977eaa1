package booking

import (
    "context"
    "errors"
    "log"
    "time"

    "github.com/iliyamo/game-server-booking/internal/catalog"
    "github.com/iliyamo/game-server-booking/internal/model"
    "github.com/iliyamo/game-server-booking/internal/notify"
    "github.com/iliyamo/game-server-booking/internal/provision"
)

// SweepInterval is how often due reservations are promoted into
// provisioning.  It must stay short relative to the minimum reservation
// lead time.
const SweepInterval = 30 * time.Second

// RunSweeper drives SweepReservations on a fixed interval until the
// context is cancelled.
func (e *Engine) RunSweeper(ctx context.Context) {
    ticker := time.NewTicker(SweepInterval)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            if err := e.SweepReservations(ctx); err != nil {
                log.Printf("booking: reservation sweep failed: %v", err)
            }
        }
    }
}

// SweepReservations promotes due reservations into active provisioning.
// A reservation is due when now >= reservedAt - earlyStart.  The
// RESERVED→RESERVING flip is a conditional update, so a reservation
// picked up by an overlapping tick is skipped here rather than
// provisioned twice.
func (e *Engine) SweepReservations(ctx context.Context) error {
    reserved, err := e.store.ListReserved(ctx)
    if err != nil {
        return err
    }

    for _, booking := range reserved {
        tier := e.catalog.Tier(booking.Region, booking.Tier)
        if tier == nil || booking.ReservedAt == nil {
            log.Printf("booking: reservation %d has no usable tier config, skipping", booking.ID)
            continue
        }
        due := booking.ReservedAt.Add(-time.Duration(tier.EarlyStart) * time.Second)
        if e.now().Before(due) {
            continue
        }

        flipped, err := e.store.UpdateStatusIf(ctx, booking.ID, model.StatusReserved, model.StatusReserving)
        if err != nil {
            return err
        }
        if !flipped {
            continue
        }
        booking.Status = model.StatusReserving
        e.processReservation(ctx, booking, tier)
    }
    return nil
}

// processReservation runs the provider-selection-and-provisioning
// sequence for one due reservation.  On total failure the record stays
// in RESERVING with an error notification and no automatic retry;
// recovering it needs operator intervention.
func (e *Engine) processReservation(ctx context.Context, booking *model.Booking, tier *catalog.Tier) {
    log.Printf("booking: processing reservation %d", booking.ID)

    statusMsg, err := e.notifier.Send(ctx, e.usersChannel, booking.BookingFor, notify.Info, textStarting)
    if err != nil {
        log.Printf("booking: failed to announce reservation %d: %v", booking.ID, err)
    }

    variant := e.catalog.Variant(booking.Variant)
    size := ""
    if variant != nil {
        size = variant.ProviderSize
    }
    providers := tier.Provider.Candidates(size)
    if len(providers) == 0 {
        log.Printf("booking: reservation %d has no provider candidates", booking.ID)
        e.edit(ctx, statusMsg, notify.Error, textStartFailed)
        return
    }

    member := e.resolveMember(ctx, booking.BookingFor)
    for i, provider := range providers {
        final := i == len(providers)-1

        req, err := e.buildServerRequest(ctx, member, booking.Region, booking.Tier, provider, booking.Variant)
        if err != nil {
            log.Printf("booking: reservation %d request assembly failed: %v", booking.ID, err)
            e.edit(ctx, statusMsg, notify.Error, textStartFailed)
            return
        }

        server, err := e.gateway.CreateServer(ctx, req)
        if err == nil {
            messages := model.BookingMessages{Start: statusMsg}
            if err := e.store.MarkStarting(ctx, booking.ID, server.ID, messages); err != nil {
                log.Printf("booking: reservation %d failed to persist server %s: %v", booking.ID, server.ID, err)
                e.edit(ctx, statusMsg, notify.Error, textStartFailed)
                return
            }
            booking.Status = model.StatusStarting
            booking.Server = server.ID
            e.publish(ctx, booking)
            return
        }

        log.Printf("booking: reservation %d server create via %s failed: %v", booking.ID, provider, err)
        if errors.Is(err, provision.ErrOverloaded) {
            if final {
                e.edit(ctx, statusMsg, notify.Error, textProviderOverloaded)
            }
            continue
        }
        e.edit(ctx, statusMsg, notify.Error, textStartFailed)
        return
    }
}
