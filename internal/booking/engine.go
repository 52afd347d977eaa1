package booking

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/iliyamo/game-server-booking/internal/catalog"
    "github.com/iliyamo/game-server-booking/internal/model"
    "github.com/iliyamo/game-server-booking/internal/notify"
    "github.com/iliyamo/game-server-booking/internal/provision"
    "github.com/iliyamo/game-server-booking/internal/timeutil"
)

// Options carries one validated booking request through the engine.
// BookingFor receives the server; BookingBy initiated the request and is
// the member access restrictions are evaluated against.
type Options struct {
    BookingFor catalog.Member
    BookingBy  catalog.Member
    Region     string
    Tier       string
    Variant    string
    ReserveAt  *time.Time
}

// Defaults are the server customization values applied when a user has
// not overridden them (or may not).
type Defaults struct {
    Hostname string
    TvName   string
}

// Engine drives the booking lifecycle.  All entry points (commands, the
// provisioning callback, the reservation sweeper) run through it; they
// are serialized only by the record store's per-row consistency, not by
// any in-process lock.
type Engine struct {
    catalog      *catalog.Catalog
    store        Store
    gateway      Gateway
    notifier     Notifier
    prefs        Preferences
    members      MemberResolver
    events       Publisher
    usersChannel string
    defaults     Defaults
    now          func() time.Time
}

// NewEngine wires an engine.  members and events may be nil;
// usersChannel is the channel status notifications are posted to.
func NewEngine(cat *catalog.Catalog, store Store, gateway Gateway, notifier Notifier, prefs Preferences, members MemberResolver, events Publisher, usersChannel string, defaults Defaults) *Engine {
    return &Engine{
        catalog:      cat,
        store:        store,
        gateway:      gateway,
        notifier:     notifier,
        prefs:        prefs,
        members:      members,
        events:       events,
        usersChannel: usersChannel,
        defaults:     defaults,
        now:          time.Now,
    }
}

// resolveMember recovers the member record for a user id, degrading to a
// role-less member when no resolver is wired or lookup fails.
func (e *Engine) resolveMember(ctx context.Context, id string) catalog.Member {
    if e.members == nil {
        return catalog.Member{ID: id}
    }
    member, err := e.members.ResolveMember(ctx, id)
    if err != nil {
        log.Printf("booking: failed to resolve member %s: %v", id, err)
        return catalog.Member{ID: id}
    }
    return member
}

// Catalog exposes the engine's catalog to command handlers.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Store exposes the record store for read-only status surfaces.
func (e *Engine) Store() Store { return e.store }

// Gateway exposes the provisioning client for passthrough surfaces
// (server info, demos, logs).
func (e *Engine) Gateway() Gateway { return e.gateway }

// ValidateBookRequest runs the pre-creation checks in order; the first
// failure wins and is returned as a WarningMessage.  The capacity check
// reads the store but is advisory only: two simultaneous requests can
// both pass it and together exceed the limit by one.
func (e *Engine) ValidateBookRequest(ctx context.Context, opts Options) error {
    active, err := e.store.ListActiveByUser(ctx, opts.BookingFor.ID)
    if err != nil {
        return err
    }
    if len(active) != 0 {
        return Warn(msgAlreadyExists)
    }

    pending, err := e.store.ListPendingByUser(ctx, opts.BookingFor.ID)
    if err != nil {
        return err
    }
    if len(pending) != 0 {
        return Warn(msgReservationExists)
    }

    region := e.catalog.Region(opts.Region)
    if region == nil {
        return Warn(msgRegionUnknown)
    }

    if !e.catalog.CanUserAccessRegion(opts.Region, opts.BookingBy) {
        return Warnf(msgRegionRestricted, region.Name)
    }

    tier := e.catalog.Tier(opts.Region, opts.Tier)
    if tier == nil {
        return Warn(msgTierUnknown)
    }

    count, err := e.store.CountActiveByRegionTier(ctx, region.Key, opts.Tier)
    if err != nil {
        return err
    }
    if count >= tier.Limit {
        return Warnf(msgReachedLimit, region.Name)
    }

    if opts.ReserveAt != nil && !tier.AllowReservation {
        return Warn(msgReserveNotAllowed)
    }

    return nil
}

// CreateBookingRequest creates a booking for an already-validated
// request.  With ReserveAt set, the booking is persisted in RESERVED and
// a confirmation with the relative start time is posted; otherwise the
// provider candidates are tried in order until one accepts.
func (e *Engine) CreateBookingRequest(ctx context.Context, opts Options) error {
    region := e.catalog.Region(opts.Region)
    tier := e.catalog.Tier(opts.Region, opts.Tier)
    if region == nil || tier == nil {
        return Warn(msgRegionUnknown)
    }
    if opts.Variant == "" {
        opts.Variant = e.catalog.DefaultVariant()
    }

    log.Printf("booking: request from %s for %s at %s (%s) [%s]",
        opts.BookingBy.ID, opts.BookingFor.ID, region.Key, opts.Tier, opts.Variant)

    if opts.ReserveAt != nil {
        reservedAt := opts.ReserveAt.UTC()
        booking := &model.Booking{
            CreatedAt:  e.now().UTC(),
            ReservedAt: &reservedAt,
            BookingFor: opts.BookingFor.ID,
            BookingBy:  opts.BookingBy.ID,
            Region:     region.Key,
            Tier:       opts.Tier,
            Variant:    opts.Variant,
            Status:     model.StatusReserved,
        }
        if err := e.store.Create(ctx, booking); err != nil {
            return err
        }
        e.publish(ctx, booking)

        relative := timeutil.FormatRelative(reservedAt, e.now())
        if relative == "" {
            relative = "1 min"
        }
        _, err := e.notifier.Send(ctx, e.usersChannel, opts.BookingFor.ID, notify.Info,
            fmt.Sprintf(textReserveCreated, relative))
        return err
    }

    statusMsg, err := e.notifier.Send(ctx, e.usersChannel, opts.BookingFor.ID, notify.Info, textStarting)
    if err != nil {
        return err
    }

    variant := e.catalog.Variant(opts.Variant)
    size := ""
    if variant != nil {
        size = variant.ProviderSize
    }
    providers := tier.Provider.Candidates(size)
    if len(providers) == 0 {
        log.Printf("booking: no provider candidates for %s/%s (size %q)", region.Key, opts.Tier, size)
        e.edit(ctx, statusMsg, notify.Error, textStartFailed)
        return nil
    }

    for i, provider := range providers {
        final := i == len(providers)-1
        if done := e.provisionBooking(ctx, opts, region.Key, provider, statusMsg, final); done {
            break
        }
    }
    return nil
}

// provisionBooking attempts one provider.  It returns true when the loop
// should stop: either the booking was created, or the failure is not the
// kind the next candidate could absorb.  A capacity rejection from a
// non-final candidate is silent; from the final one it edits the status
// notification to an overload error.
func (e *Engine) provisionBooking(ctx context.Context, opts Options, region, provider string, statusMsg *model.MessageRef, final bool) bool {
    req, err := e.buildServerRequest(ctx, opts.BookingFor, region, opts.Tier, provider, opts.Variant)
    if err != nil {
        log.Printf("booking: failed to assemble server request: %v", err)
        e.edit(ctx, statusMsg, notify.Error, textStartFailed)
        return true
    }

    server, err := e.gateway.CreateServer(ctx, req)
    if err == nil {
        booking := &model.Booking{
            CreatedAt:  e.now().UTC(),
            BookingFor: opts.BookingFor.ID,
            BookingBy:  opts.BookingBy.ID,
            Region:     region,
            Tier:       opts.Tier,
            Variant:    opts.Variant,
            Server:     server.ID,
            Status:     model.StatusStarting,
        }
        if statusMsg != nil {
            booking.Messages.Start = statusMsg
        }
        if err := e.store.Create(ctx, booking); err != nil {
            log.Printf("booking: failed to persist booking for server %s: %v", server.ID, err)
            e.edit(ctx, statusMsg, notify.Error, textStartFailed)
            return true
        }
        e.publish(ctx, booking)
        return true
    }

    log.Printf("booking: server create via %s failed: %v", provider, err)

    switch {
    case errors.Is(err, provision.ErrOverloaded):
        if final {
            e.edit(ctx, statusMsg, notify.Error, textProviderOverloaded)
        }
        return false
    case errors.Is(err, provision.ErrForbidden):
        e.edit(ctx, statusMsg, notify.Error, textClientForbidden)
        return true
    default:
        e.edit(ctx, statusMsg, notify.Error, textStartFailed)
        return true
    }
}

// buildServerRequest assembles the create request: close thresholds
// resolved variant-over-tier with service defaults, then the user's
// preference overrides applied only where the catalog's setting specs
// allow.
func (e *Engine) buildServerRequest(ctx context.Context, member catalog.Member, region, tier, provider, variant string) (*provision.Server, error) {
    tierCfg := e.catalog.Tier(region, tier)
    if tierCfg == nil {
        return nil, fmt.Errorf("unknown tier %s/%s", region, tier)
    }
    variantCfg := e.catalog.Variant(variant)
    if variantCfg == nil {
        variantCfg = &catalog.Variant{}
    }

    req := &provision.Server{
        Game:     e.catalog.Game(),
        Region:   region,
        Provider: provider,
        Data: provision.ServerData{
            CloseMinPlayers: firstNonZero(variantCfg.MinPlayers, tierCfg.MinPlayers, 2),
            CloseIdleTime:   firstNonZero(variantCfg.IdleTime, tierCfg.IdleTime, 900),
            CloseWaitTime:   firstNonZero(variantCfg.WaitTime, tierCfg.WaitTime, 300),
            Password:        "*",
            RconPassword:    "*",
            ServerName:      e.defaults.Hostname,
            TvName:          e.defaults.TvName,
            Map:             variantCfg.Map,
            GitRepository:   variantCfg.GitRepo,
            GitDeployKey:    variantCfg.GitKey,
        },
    }

    if e.catalog.SettingAllowed(model.PrefServerPassword, member) {
        if v, ok, err := e.prefs.Get(ctx, member.ID, model.PrefServerPassword); err != nil {
            return nil, err
        } else if ok {
            req.Data.Password = v
        }
    }
    if e.catalog.SettingAllowed(model.PrefServerRconPassword, member) {
        if v, ok, err := e.prefs.Get(ctx, member.ID, model.PrefServerRconPassword); err != nil {
            return nil, err
        } else if ok {
            req.Data.RconPassword = v
        }
    }
    if e.catalog.SettingAllowed(model.PrefServerValveSdr, member) {
        if v, ok, err := e.prefs.GetBool(ctx, member.ID, model.PrefServerValveSdr); err != nil {
            return nil, err
        } else if ok {
            req.Data.SdrEnable = v
        }
    }
    if e.catalog.SettingAllowed(model.PrefServerHostname, member) {
        if v, ok, err := e.prefs.Get(ctx, member.ID, model.PrefServerHostname); err != nil {
            return nil, err
        } else if ok && v != "" {
            req.Data.ServerName = v
        }
    }
    if e.catalog.SettingAllowed(model.PrefServerTvName, member) {
        if v, ok, err := e.prefs.Get(ctx, member.ID, model.PrefServerTvName); err != nil {
            return nil, err
        } else if ok && v != "" {
            req.Data.TvName = v
        }
    }

    // map and git overrides are not access gated
    if v, ok, err := e.prefs.Get(ctx, member.ID, model.PrefServerMap); err != nil {
        return nil, err
    } else if ok && v != "" {
        req.Data.Map = v
    }
    if v, ok, err := e.prefs.Get(ctx, member.ID, model.PrefServerGitRepo); err != nil {
        return nil, err
    } else if ok && v != "" {
        req.Data.GitRepository = v
    }
    if v, ok, err := e.prefs.Get(ctx, member.ID, model.PrefServerGitKey); err != nil {
        return nil, err
    } else if ok && v != "" {
        req.Data.GitDeployKey = v
    }

    return req, nil
}

// DestroyUserBooking tears down the user's active booking.  STARTING
// bookings cannot be torn down; the admin path gets its own wording for
// both the not-found and the ongoing case.
func (e *Engine) DestroyUserBooking(ctx context.Context, user string, forSomeoneElse bool) error {
    log.Printf("booking: closing request for %s", user)

    active, err := e.store.ListActiveByUser(ctx, user)
    if err != nil {
        return err
    }
    if len(active) == 0 {
        if forSomeoneElse {
            return Warnf(msgAdminNoBooking, user)
        }
        return Warn(msgNoBooking)
    }

    booking := active[0]
    if booking.Status == model.StatusStarting {
        if forSomeoneElse {
            return Warnf(msgAdminOngoing, user)
        }
        return Warn(msgOngoing)
    }
    return e.destroyBooking(ctx, booking)
}

// destroyBooking requests teardown from the gateway and reconciles the
// well-known rejections: already-gone closes the booking immediately,
// close-in-progress leaves state untouched with an explanatory warning,
// anything else leaves state untouched so a retry remains possible.
func (e *Engine) destroyBooking(ctx context.Context, booking *model.Booking) error {
    statusMsg, err := e.notifier.Send(ctx, e.usersChannel, booking.BookingFor, notify.Info, textStopping)
    if err != nil {
        return err
    }

    err = e.gateway.CloseServer(ctx, booking.Server)
    if err == nil {
        booking.Status = model.StatusClosing
        booking.Messages.Close = statusMsg
        if err := e.store.UpdateStatus(ctx, booking.ID, model.StatusClosing); err != nil {
            return err
        }
        if err := e.store.StoreMessages(ctx, booking.ID, booking.Messages); err != nil {
            return err
        }
        e.publish(ctx, booking)
        return nil
    }

    log.Printf("booking: server close for %s failed: %v", booking.Server, err)

    switch {
    case errors.Is(err, provision.ErrAlreadyClosed):
        booking.Status = model.StatusClosed
        if err := e.store.UpdateStatus(ctx, booking.ID, model.StatusClosed); err != nil {
            return err
        }
        e.publish(ctx, booking)
        e.edit(ctx, statusMsg, notify.Success, textStopSuccess)
        return nil
    case errors.Is(err, provision.ErrCloseInProgress):
        e.edit(ctx, statusMsg, notify.Warning, textCloseElsewhere)
        return nil
    default:
        e.edit(ctx, statusMsg, notify.Error, textStopFailed)
        return nil
    }
}

// CancelReservation cancels the user's pending reservation.
func (e *Engine) CancelReservation(ctx context.Context, user string) error {
    pending, err := e.store.ListPendingByUser(ctx, user)
    if err != nil {
        return err
    }
    if len(pending) == 0 {
        return Warn(msgNoReservation)
    }
    reservation := pending[0]
    if err := e.store.UpdateStatus(ctx, reservation.ID, model.StatusClosed); err != nil {
        return err
    }
    reservation.Status = model.StatusClosed
    e.publish(ctx, reservation)
    return nil
}

// PreferredRegion returns the user's stored booking region, or empty
// when no preference is set or the stored key is no longer in the
// catalog.
func (e *Engine) PreferredRegion(ctx context.Context, user string) string {
    v, ok, err := e.prefs.Get(ctx, user, model.PrefBookingRegion)
    if err != nil || !ok {
        return ""
    }
    if e.catalog.ResolveRegion(v) == "" {
        return ""
    }
    return v
}

// SendBookingDetails re-delivers connection details for the user's
// running booking.  Details are withheld while the server is still
// starting.
func (e *Engine) SendBookingDetails(ctx context.Context, user string) error {
    active, err := e.store.ListActiveByUser(ctx, user)
    if err != nil {
        return err
    }
    if len(active) == 0 {
        return Warn(msgResendNoBooking)
    }
    booking := active[0]
    if booking.Status == model.StatusStarting {
        return Warn(msgNoDetailsStarting)
    }

    server, err := e.gateway.GetServerInfo(ctx, booking.Server)
    if err != nil {
        return err
    }
    e.deliverConnectDetails(ctx, booking, server, nil)
    return nil
}

// HandleServerStatusChange is the reconciliation entry point for the
// provisioning callback.  Unknown server ids fail with
// repository.ErrBookingNotFound through the store; everything else
// degrades to notification edits.
func (e *Engine) HandleServerStatusChange(ctx context.Context, server *provision.Server, status provision.ServerStatus) error {
    status = provision.ParseServerStatus(string(status))
    log.Printf("booking: server %s status %s callback", server.ID, status)

    booking, err := e.store.GetByServer(ctx, server.ID)
    if err != nil {
        return err
    }

    // a repeated idle callback while already running is a no-op
    if status == provision.ServerIdle && booking.Status == model.StatusRunning {
        return nil
    }

    switch status {
    case provision.ServerIdle:
        if booking.Status == model.StatusStarting {
            if err := e.store.UpdateStatus(ctx, booking.ID, model.StatusRunning); err != nil {
                return err
            }
            booking.Status = model.StatusRunning
            e.publish(ctx, booking)
        }
    case provision.ServerClosed, provision.ServerFailed:
        if err := e.store.UpdateStatus(ctx, booking.ID, model.StatusClosed); err != nil {
            return err
        }
        booking.Status = model.StatusClosed
        e.publish(ctx, booking)
    default:
        return nil
    }

    var ref *model.MessageRef
    switch status {
    case provision.ServerIdle:
        ref = booking.Messages.Start
    case provision.ServerClosed:
        ref = booking.Messages.Close
    case provision.ServerFailed:
        ref = booking.Messages.Start
        if ref == nil {
            ref = booking.Messages.Close
        }
    }

    switch status {
    case provision.ServerIdle:
        e.deliverConnectDetails(ctx, booking, server, ref)
        e.editOrSend(ctx, ref, booking.BookingFor, notify.Success, textStartSuccess)
    case provision.ServerClosed:
        e.editOrSend(ctx, ref, booking.BookingFor, notify.Success, textStopSuccess)
    case provision.ServerFailed:
        e.editOrSend(ctx, ref, booking.BookingFor, notify.Error, textServerFailed)
    }
    return nil
}

// deliverConnectDetails DMs the connection details to the user.  A
// refused DM downgrades the status notification to an explanatory error;
// any other delivery failure gets the generic wording.
func (e *Engine) deliverConnectDetails(ctx context.Context, booking *model.Booking, server *provision.Server, statusMsg *model.MessageRef) {
    err := e.notifier.SendDM(ctx, booking.BookingFor, notify.Success, ConnectDetails(booking, server))
    if err == nil {
        return
    }
    log.Printf("booking: DM to %s failed: %v", booking.BookingFor, err)
    text := textDMFailed
    if errors.Is(err, notify.ErrDMRefused) {
        text = textDMRefused
    }
    e.editOrSend(ctx, statusMsg, booking.BookingFor, notify.Error, text)
}

// ConnectDetails renders the plain-text connection block for a running
// server: connect string, RCON string and SourceTV string, with the SDR
// variants when the server runs behind a relay.
func ConnectDetails(booking *model.Booking, server *provision.Server) string {
    connect := fmt.Sprintf("connect %s:%d;", server.IP, server.Port)
    if server.Data.SdrEnable {
        connect = fmt.Sprintf("connect %s:%d;", server.Data.SdrIP, server.Data.SdrPort)
    }
    if server.Data.Password != "" {
        connect += fmt.Sprintf(" password \"%s\";", server.Data.Password)
    }

    rcon := connect
    if server.Data.SdrEnable {
        rcon += fmt.Sprintf(" rcon_address \"\"; rcon_address %s:%d;", server.IP, server.Port)
    }
    if server.Data.RconPassword != "" {
        rcon += fmt.Sprintf(" rcon_password \"%s\";", server.Data.RconPassword)
    }

    tvPort := server.TvPort
    if tvPort == 0 {
        tvPort = server.Data.TvPort
    }
    tv := fmt.Sprintf("connect %s:%d;", server.IP, tvPort)
    if server.Data.SdrEnable {
        tv = fmt.Sprintf("connect %s:%d;", server.Data.SdrIP, server.Data.SdrTvPort)
    }
    if server.Data.TvPassword != "" {
        tv += fmt.Sprintf(" password \"%s\";", server.Data.TvPassword)
    }

    text := "Your server is ready\n" +
        "Connect with RCON:\n" + rcon + "\n" +
        "Connect:\n" + connect + "\n" +
        "SourceTV:\n" + tv + "\n" +
        fmt.Sprintf("Region: %s  Variant: %s", server.Region, booking.Variant)
    if server.Data.SdrEnable {
        text += fmt.Sprintf("\nOriginal address (do not share): %s:%d", server.IP, server.Port)
    }
    return text
}

// editOrSend edits the referenced notification, falling back to a fresh
// channel message when the reference is missing or the message is gone.
func (e *Engine) editOrSend(ctx context.Context, ref *model.MessageRef, user string, severity notify.Severity, text string) {
    if ref != nil {
        if _, err := e.notifier.Edit(ctx, *ref, severity, text); err == nil {
            return
        } else if !errors.Is(err, notify.ErrMessageGone) {
            log.Printf("booking: failed to edit notification %s/%s: %v", ref.Channel, ref.ID, err)
        }
    }
    if _, err := e.notifier.Send(ctx, e.usersChannel, user, severity, text); err != nil {
        log.Printf("booking: failed to notify %s: %v", user, err)
    }
}

func (e *Engine) edit(ctx context.Context, ref *model.MessageRef, severity notify.Severity, text string) {
    if ref == nil {
        return
    }
    if _, err := e.notifier.Edit(ctx, *ref, severity, text); err != nil {
        log.Printf("booking: failed to edit notification %s/%s: %v", ref.Channel, ref.ID, err)
    }
}

func (e *Engine) publish(ctx context.Context, booking *model.Booking) {
    if e.events == nil {
        return
    }
    ev := LifecycleEvent{
        BookingID: booking.ID,
        User:      booking.BookingFor,
        Region:    booking.Region,
        Tier:      booking.Tier,
        Variant:   booking.Variant,
        Server:    booking.Server,
        Status:    string(booking.Status),
        At:        e.now().UTC(),
    }
    if err := e.events.PublishLifecycle(ctx, ev); err != nil {
        log.Printf("booking: failed to publish lifecycle event: %v", err)
    }
}

func firstNonZero(values ...int) int {
    for _, v := range values {
        if v != 0 {
            return v
        }
    }
    return 0
}
