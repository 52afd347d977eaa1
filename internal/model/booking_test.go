package model

import "testing"

func TestBookingStatusClassification(t *testing.T) {
    t.Run("active states", func(t *testing.T) {
        for _, s := range []BookingStatus{StatusStarting, StatusRunning, StatusClosing} {
            if !s.IsActive() {
                t.Fatalf("expected %s to be active", s)
            }
            if s.IsPending() {
                t.Fatalf("did not expect %s to be pending", s)
            }
        }
    })

    t.Run("pending states", func(t *testing.T) {
        for _, s := range []BookingStatus{StatusReserved, StatusReserving} {
            if !s.IsPending() {
                t.Fatalf("expected %s to be pending", s)
            }
            if s.IsActive() {
                t.Fatalf("did not expect %s to be active", s)
            }
        }
    })

    t.Run("terminal states", func(t *testing.T) {
        for _, s := range []BookingStatus{StatusClosed, StatusFailed} {
            if !s.IsTerminal() {
                t.Fatalf("expected %s to be terminal", s)
            }
            if s.IsActive() || s.IsPending() {
                t.Fatalf("terminal state %s should be neither active nor pending", s)
            }
        }
    })
}
