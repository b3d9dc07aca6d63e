package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"valetbay/internal/api"
	"valetbay/internal/auth"
	"valetbay/internal/db"
	"valetbay/internal/repository"
	"valetbay/internal/service"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v82"
)

func main() {
	godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	database, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := database.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	var cache *service.AvailabilityCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		cache = service.NewAvailabilityCache(redis.NewClient(opts), 2*time.Minute)
	}

	bookingRepo := repository.NewBookingRepository(database)
	scheduleRepo := repository.NewScheduleRepository(database)
	locationRepo := repository.NewLocationRepository(database)
	userRepo := repository.NewUserRepository(database)
	jobRepo := repository.NewJobRepository(database)

	sender := service.NewSenderService()
	scheduleSvc := service.NewScheduleService(scheduleRepo, locationRepo, cache)
	availabilitySvc := service.NewAvailabilityService(bookingRepo, locationRepo, scheduleSvc, cache)
	bookingSvc := service.NewBookingService(bookingRepo, locationRepo, scheduleSvc, sender, cache)
	authSvc := service.NewAuthService(userRepo)
	paymentSvc := service.NewPaymentService(bookingRepo, service.NewStripeService())
	bookingSvc.Payments = paymentSvc
	jobSvc := service.NewJobService(jobRepo, locationRepo, sender)

	bookingHandler := api.NewBookingHandler(bookingSvc, availabilitySvc, locationRepo)
	adminHandler := api.NewAdminHandler(bookingSvc, scheduleSvc, locationRepo)
	authHandler := api.NewAuthHandler(authSvc)
	stripeHandler := api.NewStripeHandler(os.Getenv("STRIPE_WEBHOOK_SECRET"), paymentSvc)

	r := mux.NewRouter()

	// Public endpoints, gated by the embed API-key pre-check.
	public := r.PathPrefix("/api").Subrouter()
	public.Use(auth.APIKeyMiddleware)
	public.Handle("/availability", http.HandlerFunc(bookingHandler.GetAvailability)).Methods("POST")
	public.Handle("/locations", http.HandlerFunc(bookingHandler.ListLocations)).Methods("GET")
	public.Handle("/bookings", auth.OptionalAuth(http.HandlerFunc(bookingHandler.CreateBooking))).Methods("POST")
	public.Handle("/bookings/{id}", auth.OptionalAuth(http.HandlerFunc(bookingHandler.GetBooking))).Methods("GET")
	public.Handle("/bookings/{id}", auth.OptionalAuth(http.HandlerFunc(bookingHandler.CancelBooking))).Methods("DELETE")
	public.Handle("/bookings/{id}/status", auth.RequireAuth(http.HandlerFunc(bookingHandler.UpdateStatus))).Methods("POST")
	public.Handle("/bookings/{id}/checkout", auth.OptionalAuth(http.HandlerFunc(stripeHandler.CreateCheckout))).Methods("POST")
	public.Handle("/my/bookings", auth.RequireAuth(http.HandlerFunc(bookingHandler.ListMyBookings))).Methods("GET")
	public.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	public.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	public.HandleFunc("/stripe/webhook", stripeHandler.HandleWebhook).Methods("POST")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.RequireRoles(db.RoleAdmin))
	admin.HandleFunc("/bookings", adminHandler.ListBookings).Methods("GET")
	admin.HandleFunc("/locations", adminHandler.CreateLocation).Methods("POST")
	admin.HandleFunc("/locations/{id}", adminHandler.UpdateLocation).Methods("PUT")
	admin.HandleFunc("/locations/{id}", adminHandler.DeactivateLocation).Methods("DELETE")
	admin.HandleFunc("/schedules", adminHandler.UpsertSchedule).Methods("POST")
	admin.HandleFunc("/schedules/{location_id}", adminHandler.ListSchedules).Methods("GET")
	admin.HandleFunc("/schedules/{location_id}/{day}", adminHandler.DeleteSchedule).Methods("DELETE")

	c := cron.New()
	c.AddFunc("@every 10m", func() {
		if err := jobSvc.ExpireStalePendingBookings(); err != nil {
			log.Printf("Cron Job error: %v", err)
		}
	})
	c.AddFunc("@hourly", func() {
		if err := jobSvc.SendUpcomingReminders(); err != nil {
			log.Printf("Cron Job error: %v", err)
		}
	})
	c.Start()
	defer c.Stop()

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-API-Key"}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, handlers.LoggingHandler(os.Stdout, corsHandler(r))))
}
