package booking

import (
    "context"
    "testing"
    "time"

    "github.com/iliyamo/game-server-booking/internal/model"
    "github.com/iliyamo/game-server-booking/internal/provision"
)

func reservationAt(env *testEnv, at time.Time) *model.Booking {
    b := &model.Booking{
        BookingFor: "alice",
        BookingBy:  "alice",
        Region:     "sydney",
        Tier:       "free",
        Variant:    "standard",
        ReservedAt: &at,
        Status:     model.StatusReserved,
    }
    env.store.Create(context.Background(), b)
    return b
}

func TestSweepReservations(t *testing.T) {
    ctx := context.Background()

    t.Run("leaves reservations that are not yet due", func(t *testing.T) {
        env := newTestEnv(t)
        // earlyStart is 300s, so a reservation an hour out is untouched
        b := reservationAt(env, env.now.Add(time.Hour))
        if err := env.engine.SweepReservations(ctx); err != nil {
            t.Fatalf("unexpected error: %v", err)
        }
        after, _ := env.store.GetByID(ctx, b.ID)
        if after.Status != model.StatusReserved {
            t.Fatalf("expected RESERVED, got %s", after.Status)
        }
        if len(env.gateway.createReqs) != 0 {
            t.Fatalf("gateway must not be touched")
        }
    })

    t.Run("provisions inside the early-start window", func(t *testing.T) {
        env := newTestEnv(t)
        b := reservationAt(env, env.now.Add(4*time.Minute))
        if err := env.engine.SweepReservations(ctx); err != nil {
            t.Fatalf("unexpected error: %v", err)
        }
        after, _ := env.store.GetByID(ctx, b.ID)
        if after.Status != model.StatusStarting {
            t.Fatalf("expected STARTING, got %s", after.Status)
        }
        if after.Server != "srv-1" {
            t.Fatalf("server id not recorded: %q", after.Server)
        }
        if after.Messages.Start == nil {
            t.Fatalf("start notification reference not stored")
        }
        if len(env.notifier.sends) != 1 || env.notifier.sends[0].text != textStarting {
            t.Fatalf("expected one starting notification, got %+v", env.notifier.sends)
        }
        if len(env.events.events) != 1 || env.events.events[0].Status != string(model.StatusStarting) {
            t.Fatalf("expected one STARTING event, got %+v", env.events.events)
        }
    })

    t.Run("provisions an overdue reservation", func(t *testing.T) {
        env := newTestEnv(t)
        b := reservationAt(env, env.now.Add(-time.Hour))
        if err := env.engine.SweepReservations(ctx); err != nil {
            t.Fatalf("unexpected error: %v", err)
        }
        after, _ := env.store.GetByID(ctx, b.ID)
        if after.Status != model.StatusStarting {
            t.Fatalf("expected STARTING, got %s", after.Status)
        }
    })

    t.Run("skips a reservation another sweep already claimed", func(t *testing.T) {
        env := newTestEnv(t)
        b := reservationAt(env, env.now)
        env.store.denyFlip = true
        if err := env.engine.SweepReservations(ctx); err != nil {
            t.Fatalf("unexpected error: %v", err)
        }
        after, _ := env.store.GetByID(ctx, b.ID)
        if after.Status != model.StatusReserved {
            t.Fatalf("status must be unchanged, got %s", after.Status)
        }
        if len(env.gateway.createReqs) != 0 {
            t.Fatalf("claimed reservation must not be provisioned twice")
        }
    })

    t.Run("falls through full providers and stays reserving on total overload", func(t *testing.T) {
        env := newTestEnv(t)
        b := reservationAt(env, env.now)
        env.gateway.createErrs = []error{provision.ErrOverloaded, provision.ErrOverloaded}
        if err := env.engine.SweepReservations(ctx); err != nil {
            t.Fatalf("unexpected error: %v", err)
        }
        if len(env.gateway.createReqs) != 2 {
            t.Fatalf("expected both providers tried, got %d", len(env.gateway.createReqs))
        }
        after, _ := env.store.GetByID(ctx, b.ID)
        if after.Status != model.StatusReserving {
            t.Fatalf("expected RESERVING, got %s", after.Status)
        }
        if got := env.notifier.lastEdit(t); got.text != textProviderOverloaded {
            t.Fatalf("wrong edit: %+v", got)
        }
    })

    t.Run("stops on a hard provisioning failure", func(t *testing.T) {
        env := newTestEnv(t)
        b := reservationAt(env, env.now)
        env.gateway.createErrs = []error{&provision.APIError{Status: 500}, nil}
        if err := env.engine.SweepReservations(ctx); err != nil {
            t.Fatalf("unexpected error: %v", err)
        }
        if len(env.gateway.createReqs) != 1 {
            t.Fatalf("hard failure must stop the loop, got %d calls", len(env.gateway.createReqs))
        }
        after, _ := env.store.GetByID(ctx, b.ID)
        if after.Status != model.StatusReserving {
            t.Fatalf("expected RESERVING, got %s", after.Status)
        }
        if got := env.notifier.lastEdit(t); got.text != textStartFailed {
            t.Fatalf("wrong edit: %+v", got)
        }
    })

    t.Run("skips reservations whose tier no longer exists", func(t *testing.T) {
        env := newTestEnv(t)
        at := env.now
        b := &model.Booking{BookingFor: "alice", Region: "gone", Tier: "free",
            ReservedAt: &at, Status: model.StatusReserved}
        env.store.Create(ctx, b)
        if err := env.engine.SweepReservations(ctx); err != nil {
            t.Fatalf("unexpected error: %v", err)
        }
        after, _ := env.store.GetByID(ctx, b.ID)
        if after.Status != model.StatusReserved {
            t.Fatalf("status must be unchanged, got %s", after.Status)
        }
    })
}
