package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Harrypapa1/patchwork-trades-backend/controllers"
	"github.com/Harrypapa1/patchwork-trades-backend/database"
	"github.com/Harrypapa1/patchwork-trades-backend/middleware"
	"github.com/Harrypapa1/patchwork-trades-backend/repository"
	"github.com/Harrypapa1/patchwork-trades-backend/services"
	"github.com/Harrypapa1/patchwork-trades-backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}
	//seeding admin user
	ctx := context.Background()
	usersCol := database.OpenCollection("users")
	if err := utils.SeedAdminUser(ctx, usersCol); err != nil {
		log.Fatal(err)
	}

	bookingRepo := repository.NewMongoBookingRepository(database.OpenCollection("bookings"))
	jobRepo := repository.NewMongoJobRepository(database.OpenCollection("active_jobs"))
	commentRepo := repository.NewMongoCommentRepository(database.OpenCollection("booking_comments"))
	profileRepo := repository.NewMongoProfileRepository(
		database.OpenCollection("customers"),
		database.OpenCollection("tradesmen"),
	)

	lock := services.NewSystemLock()
	notifier := services.NewEmailNotifier()
	frontendURL := os.Getenv("FRONTEND_URL")

	bookingService := services.NewBookingService(bookingRepo, jobRepo, commentRepo, profileRepo, lock, notifier, frontendURL)
	jobService := services.NewJobService(jobRepo, commentRepo, profileRepo, lock, notifier, frontendURL)
	paymentService := services.NewPaymentService(bookingRepo, jobRepo, commentRepo, lock, notifier, frontendURL)

	r := gin.New()
	v := utils.NewImageValidator()

	origins := os.Getenv("ALLOWED_ORIGINS")
	log.Printf("Env config origins list: %q", origins)
	allowedOrigins := map[string]bool{}
	for _, origin := range strings.Split(origins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}
	log.Printf("Allowed origins: %v", allowedOrigins)
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	r.POST("/auth/register", controllers.Register())
	r.POST("/auth/login", controllers.Login())
	r.POST("/auth/refresh", controllers.Refresh())
	r.POST("/auth/logout", controllers.Logout())

	r.GET("/tradesmen", controllers.GetTradesmen())
	r.GET("/tradesmen/slug/:slug", controllers.GetTradesmanBySlug())

	r.POST("/webhooks/payment", controllers.PaymentWebhook(paymentService))

	authed := r.Group("/")
	authed.Use(middleware.AuthMiddleware())
	{
		authed.POST("/bookings", controllers.CreateBooking(bookingService, v))
		authed.GET("/bookings", controllers.GetMyBookings())
		authed.GET("/bookings/:id", controllers.GetBooking())
		authed.POST("/bookings/:id/quote", controllers.OfferQuote(bookingService))
		authed.POST("/bookings/:id/counter", controllers.CounterOffer(bookingService))
		authed.POST("/bookings/:id/accept", controllers.AcceptQuote(bookingService))
		authed.POST("/bookings/:id/reject", controllers.RejectQuote(bookingService))

		authed.GET("/jobs", controllers.GetMyJobs())
		authed.GET("/jobs/:id", controllers.GetJob())
		authed.PATCH("/jobs/:id/status", controllers.UpdateJobStatus(jobService))
		authed.POST("/jobs/:id/cancel", controllers.CancelJob(jobService))
		authed.POST("/jobs/:id/review", controllers.SubmitReview(jobService))
		authed.POST("/jobs/:id/completion-photos", controllers.UploadCompletionPhotos(v))

		authed.GET("/comments", controllers.GetComments())
		authed.POST("/comments", controllers.AddComment())

		authed.POST("/auth/password", controllers.ChangeMyPassword())
		authed.POST("/admin/users/:id/deactivate", controllers.DeactivateUser())
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	// A held guard must not survive the process.
	lock.ForceRelease()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}
