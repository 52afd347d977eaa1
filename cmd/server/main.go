package main // entry point

import (
    "context"
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/game-server-booking/internal/booking"
    "github.com/iliyamo/game-server-booking/internal/catalog"
    "github.com/iliyamo/game-server-booking/internal/config"
    "github.com/iliyamo/game-server-booking/internal/database"
    "github.com/iliyamo/game-server-booking/internal/handler"
    "github.com/iliyamo/game-server-booking/internal/middleware"
    "github.com/iliyamo/game-server-booking/internal/notify"
    "github.com/iliyamo/game-server-booking/internal/provision"
    "github.com/iliyamo/game-server-booking/internal/queue"
    "github.com/iliyamo/game-server-booking/internal/repository"
    "github.com/iliyamo/game-server-booking/internal/router"
)

func main() {
    // .env is optional; real deployments set the environment directly
    _ = godotenv.Load()
    cfg := config.Load()

    cat, err := catalog.Load(cfg.CatalogPath)
    if err != nil {
        log.Fatalf("catalog: %v", err)
    }

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Printf("redis unavailable; preferences and rate limiting degraded")
    }

    bookings := repository.NewBookingRepo(db)
    users := repository.NewUserRepo(db)
    prefs := repository.NewPreferenceRepo(rdb)

    gateway := provision.NewClient(cfg.GatewayHost, cfg.GatewaySecret, cfg.CallbackURL)
    notifier := notify.NewRelay(cfg.RelayURL, cfg.RelayToken)
    events := queue.NewPublisher(cfg.RabbitURL)

    engine := booking.NewEngine(cat, bookings, gateway, notifier, prefs, users, events,
        cfg.UsersChannel, booking.Defaults{Hostname: cfg.DefaultHostname, TvName: cfg.DefaultTvName})
    admin := booking.NewAdminService(engine)

    go engine.RunSweeper(context.Background())
    go func() {
        if err := queue.StartLifecycleConsumer(cfg.RabbitURL); err != nil {
            log.Printf("lifecycle consumer stopped: %v", err)
        }
    }()

    e := echo.New()
    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
    router.Register(e, router.Handlers{
        Auth:       handler.NewAuthHandler(cfg, users),
        Booking:    handler.NewBookingHandler(engine, gateway),
        Status:     handler.NewStatusHandler(engine),
        Preference: handler.NewPreferenceHandler(prefs, cat),
        Admin:      handler.NewAdminHandler(engine, admin, users),
        Callback:   handler.NewCallbackHandler(engine, cfg.GatewaySecret),
    }, cfg.JWTSecret, cfg.AdminRole, limiter)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
