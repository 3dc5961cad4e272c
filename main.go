package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "schoolbus/internal/config"
	intdb "schoolbus/internal/db"
	"schoolbus/internal/events"
	router "schoolbus/internal/http"
	h "schoolbus/internal/http/handlers"
	"schoolbus/internal/metrics"
	"schoolbus/internal/repositories"
	"schoolbus/internal/services"
	"schoolbus/internal/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	env, err := intconfig.LoadEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	db, err := intconfig.ConnectDB(env)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer intconfig.CloseDB()

	dialect := intdb.Dialect(env.DBDriver)
	if env.DBAutoMigrate {
		if err := repositories.InitSchema(db, dialect); err != nil {
			log.Fatalf("schema init failed: %v", err)
		}
	}

	var collector *metrics.Collector
	if env.MetricsEnabled {
		collector = metrics.NewCollector()
	}

	var publisher services.EventPublisher = events.Noop{}
	if env.NATSURL != "" {
		var pm events.PublisherMetrics
		if collector != nil {
			pm = collector
		}
		natsPub, err := events.NewNATSPublisher(env.NATSURL, env.NATSSubjectPrefix, pm)
		if err != nil {
			// Events are best effort; the API stays up without them.
			log.Printf("[EVENTS] action=disabled err=%v", err)
		} else {
			defer natsPub.Close()
			publisher = natsPub
		}
	}

	clock := utils.CivilClock{Location: env.Location}
	routeStops := repositories.NewCachedRouteStops(
		repositories.RouteStopsRepository{DB: db, Dialect: dialect},
		env.RouteCacheSize,
		env.RouteCacheTTL,
	)
	schedule := services.ScheduleService{
		Trips:      repositories.TripsRepository{DB: db, Dialect: dialect},
		Attendance: repositories.AttendanceRepository{DB: db, Dialect: dialect},
		RouteStops: routeStops,
		Clock:      clock,
		Location:   env.Location,
		Events:     publisher,
	}
	if collector != nil {
		schedule.Metrics = collector
	}

	r := router.NewRouter(env, router.Deps{
		System: h.SystemHandler{DB: db, Dialect: dialect},
		Auth: h.AuthHandler{
			Drivers: repositories.DriversRepository{DB: db, Dialect: dialect},
			Secret:  []byte(env.JWTSecret),
			TTL:     env.JWTTTL,
			Clock:   clock,
		},
		Schedule: h.ScheduleHandler{
			Schedule: schedule,
			Manifest: services.ManifestService{Schedule: schedule},
			Clock:    clock,
		},
		Metrics: collector,
	})

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on http://localhost%s (tz=%s)", env.AppAddr, env.Timezone)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}

	log.Println("Server stopped cleanly.")
}
