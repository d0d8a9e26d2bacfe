package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/tsukikage-sato/contact-web/config"
	"github.com/tsukikage-sato/contact-web/internal/handlers"
	"github.com/tsukikage-sato/contact-web/internal/middleware"
	"github.com/tsukikage-sato/contact-web/internal/services"
	"github.com/tsukikage-sato/contact-web/pkg/formendpoint"
	"github.com/tsukikage-sato/contact-web/pkg/httpclient"
	"github.com/tsukikage-sato/contact-web/pkg/jwt"
	"github.com/tsukikage-sato/contact-web/pkg/logger"
	"github.com/tsukikage-sato/contact-web/pkg/metrics"
	"github.com/tsukikage-sato/contact-web/pkg/profiling"
	"github.com/tsukikage-sato/contact-web/pkg/recaptcha"
	"github.com/tsukikage-sato/contact-web/pkg/tracing"
)

const (
	formBodyLimit = 64 * 1024
	shutdownGrace = 5 * time.Second
)

// registerPageRoutes registers the server-rendered contact page
func registerPageRoutes(router *gin.Engine, sessionMW gin.HandlerFunc, pageRateLimiter, submitRateLimiter *middleware.RateLimiter, contactHandler *handlers.ContactHandler) {
	router.StaticFS("/static", handlers.StaticFS())

	page := router.Group("/contact")
	page.Use(sessionMW)
	page.GET("", pageRateLimiter.Middleware(), contactHandler.ContactPage)
	page.POST("", submitRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(formBodyLimit), contactHandler.SubmitForm)
	page.POST("/dismiss", pageRateLimiter.Middleware(), contactHandler.DismissError)

	router.GET("/contact/thank-you", pageRateLimiter.Middleware(), contactHandler.ThankYou)
}

// registerAPIRoutes registers the JSON contact API
func registerAPIRoutes(group *gin.RouterGroup, sessionMW gin.HandlerFunc, generalRateLimiter, submitRateLimiter *middleware.RateLimiter, contactHandler *handlers.ContactHandler) {
	contact := group.Group("/contact")
	contact.Use(sessionMW)
	contact.POST("", submitRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(formBodyLimit), contactHandler.Submit)
	contact.POST("/dismiss", generalRateLimiter.Middleware(), contactHandler.Dismiss)
	contact.GET("/status", generalRateLimiter.Middleware(), contactHandler.Status)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting contact service",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	tracerShutdown, err := tracing.InitTracer(
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
		cfg.Observability.AlloyEndpoint,
	)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	stopProfiler, err := profiling.InitProfiler(
		cfg.Profiling,
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
	)
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer stopProfiler()

	if !cfg.ReCAPTCHA.Enabled() {
		logger.Warn("RECAPTCHA_SECRET_KEY not set, browser tokens are forwarded unverified")
	}

	// Delivery has its own deadline; the client timeout only backs it up
	endpointTimeout := time.Duration(cfg.FormEndpoint.TimeoutSeconds) * time.Second
	httpClient := httpclient.NewStandardClient(endpointTimeout + 5*time.Second)

	endpoint := formendpoint.NewClient(cfg.FormEndpoint.URL, endpointTimeout, httpClient)
	verifier := recaptcha.NewVerifier(cfg.ReCAPTCHA.SecretKey, cfg.ReCAPTCHA.MinScore, httpClient)
	contactService := services.NewContactService(cfg, endpoint, verifier, httpClient)
	defer contactService.Close()

	tokenManager := jwt.NewTokenManager(cfg.Session.Secret, cfg.Session.Issuer, time.Duration(cfg.Session.TTLMinutes)*time.Minute)
	sessionMW := middleware.ContactSessionMiddleware(tokenManager, cfg.Session.CookieDomain, cfg.Session.CookieSecure)

	contactHandler := handlers.NewContactHandler(contactService, cfg.Contact.CompanyName, cfg.ReCAPTCHA.Action)
	healthHandler := handlers.NewHealthHandler(contactService.ActiveSessions)

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	if err := handlers.LoadTemplates(router); err != nil {
		logger.Fatal("Failed to load page templates", zap.Error(err))
	}

	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	rootCtx, stopLimiters := context.WithCancel(context.Background())
	defer stopLimiters()
	generalRateLimiter := middleware.NewRateLimiter(rootCtx, 20, 40)
	pageRateLimiter := middleware.NewRateLimiter(rootCtx, 5, 20)
	submitRateLimiter := middleware.NewRateLimiter(rootCtx, 0.05, 3) // 3 per minute, burst of 3

	registerPageRoutes(router, sessionMW, pageRateLimiter, submitRateLimiter, contactHandler)

	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	api := router.Group("/api")
	api.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "traceparent", "tracestate"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true, // session cookie
		MaxAge:           12 * time.Hour,
	}))
	api.GET("/healthcheck", generalRateLimiter.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	registerAPIRoutes(api.Group("/v1"), sessionMW, generalRateLimiter, submitRateLimiter, contactHandler)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      endpointTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
