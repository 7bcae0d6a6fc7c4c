package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/campussports/facility-booking/internal/config"
	"github.com/campussports/facility-booking/internal/database"
	"github.com/campussports/facility-booking/internal/handler"
	"github.com/campussports/facility-booking/internal/queue"
	"github.com/campussports/facility-booking/internal/repository"
	"github.com/campussports/facility-booking/internal/router"
	"github.com/campussports/facility-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	// Occupancy relay.  Without a broker the service still runs; the
	// dashboards just poll instead of refetching on events.
	var notifier service.Notifier = service.NopNotifier{}
	if cfg.AMQPURL != "" {
		notifier = queue.NewRelay(cfg.AMQPURL)
		go func() {
			if err := queue.StartOccupancyConsumer(); err != nil {
				log.Printf("occupancy consumer: %v", err)
			}
		}()
	}

	store := repository.NewSQLStore(db)
	reservations := service.NewReservationService(store, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go service.NewSweeper(reservations, cfg.SweepInterval).Run(ctx)

	api := &router.API{
		Auth:       handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)),
		Facilities: handler.NewFacilityHandler(repository.NewFacilityRepo(db)),
		Bookings:   handler.NewBookingHandler(reservations, repository.NewBookingRepo(db)),
		Gym:        handler.NewGymHandler(repository.NewGymLogRepo(db)),
		Matches:    handler.NewMatchHandler(repository.NewMatchRepo(db), notifier),
		Invites:    handler.NewInviteHandler(repository.NewInviteRepo(db)),
		JWTSecret:  cfg.JWTSecret,
		Redis:      rdb,
		CacheCfg:   config.LoadCacheConfig(),
		RateCfg:    config.LoadRateLimitConfig(),
	}

	e := echo.New()
	e.HideBanner = true
	api.Register(e)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
