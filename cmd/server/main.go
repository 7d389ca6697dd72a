package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditapp "github.com/fleetrent/backend/internal/application/audit"
	"github.com/fleetrent/backend/internal/application/authz"
	fleetapp "github.com/fleetrent/backend/internal/application/fleet"
	identityapp "github.com/fleetrent/backend/internal/application/identity"
	rentalapp "github.com/fleetrent/backend/internal/application/rental"
	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/fleetrent/backend/internal/infrastructure/auth"
	"github.com/fleetrent/backend/internal/infrastructure/config"
	"github.com/fleetrent/backend/internal/infrastructure/logger"
	"github.com/fleetrent/backend/internal/infrastructure/persistence"
	"github.com/fleetrent/backend/internal/interfaces/http/handler"
	"github.com/fleetrent/backend/internal/interfaces/http/middleware"
	"github.com/fleetrent/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting FleetRent Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Redis backs the token blacklist and the company-mode markers.
	// Both degrade to in-process stores when Redis is unreachable so a
	// cache outage never takes the API down.
	var (
		blacklist   auth.TokenBlacklist
		markerStore auth.ImpersonationStore
	)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable, using in-memory token blacklist and company-mode store",
			zap.String("addr", cfg.Redis.Addr()),
			zap.Error(err),
		)
		blacklist = auth.NewInMemoryTokenBlacklist()
		markerStore = auth.NewInMemoryImpersonationStore()
	} else {
		log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		markerStore = auth.NewRedisImpersonationStore(redisClient)
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
	}
	cancelPing()

	// Initialize repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	membershipRepo := persistence.NewGormMembershipRepository(db.DB)
	vehicleRepo := persistence.NewGormVehicleRepository(db.DB)
	bookingRepo := persistence.NewGormBookingRepository(db.DB)
	contractRepo := persistence.NewGormContractRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)

	// Initialize application services
	jwtService := auth.NewJWTService(cfg.JWT)
	recorder := auditapp.NewRecorder(auditRepo, log)

	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	registrationService := identityapp.NewRegistrationService(userRepo, companyRepo, membershipRepo, log)
	scopeResolver := identityapp.NewScopeResolver(userRepo, companyRepo, membershipRepo, log)

	gate := authz.NewGate(scopeResolver, companyRepo, markerStore, log)
	companyModeService := authz.NewCompanyModeService(companyRepo, markerStore, cfg.Impersonation.MarkerTTL, log)

	vehicleService := fleetapp.NewVehicleService(vehicleRepo, recorder, log)
	bookingService := rentalapp.NewBookingService(bookingRepo, vehicleRepo, recorder, log)
	contractWorkflow := rentalapp.NewContractWorkflow(contractRepo, vehicleRepo, bookingRepo, paymentRepo, recorder, log)
	paymentService := rentalapp.NewPaymentService(paymentRepo, contractRepo, recorder, log)

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService, registrationService)
	vehicleHandler := handler.NewVehicleHandler(vehicleService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	contractHandler := handler.NewContractHandler(contractWorkflow, paymentService)
	companyHandler := handler.NewCompanyHandler(registrationService, companyRepo)
	adminHandler := handler.NewAdminHandler(companyModeService, recorder, companyRepo)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes.
	// Public endpoints are listed as skip paths; everything else needs
	// a valid access token before the permission gate even runs.
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/auth/register",
			"/api/v1/auth/register-company",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Permission gate variants. The gate resolves the caller's role
	// and company scope from the database on every request; the JWT
	// middleware above only proves identity.
	anyRole := middleware.RequireRoles(gate,
		identity.RoleAdmin, identity.RoleOwner, identity.RoleManager, identity.RoleClient)
	staffOnly := middleware.RequireRoles(gate,
		identity.RoleAdmin, identity.RoleOwner, identity.RoleManager)
	ownerOnly := middleware.RequireRoles(gate, identity.RoleAdmin, identity.RoleOwner)
	clientOnly := middleware.RequireRoles(gate, identity.RoleClient)
	adminOnly := middleware.RequireRoles(gate, identity.RoleAdmin)

	// Auth routes (login/refresh/register are public via skip paths)
	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.RefreshToken)
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/register-company", authHandler.RegisterCompany)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.PUT("/password", authHandler.ChangePassword)
	authRoutes.GET("/me", anyRole, authHandler.Me)

	// Fleet routes: company staff manage their own vehicles
	vehicleRoutes := router.NewDomainGroup("fleet", "/vehicles")
	vehicleRoutes.Use(staffOnly)
	vehicleRoutes.POST("", vehicleHandler.Create)
	vehicleRoutes.GET("", vehicleHandler.List)
	vehicleRoutes.GET("/:id", vehicleHandler.Get)
	vehicleRoutes.PUT("/:id", vehicleHandler.Update)
	vehicleRoutes.POST("/:id/maintenance", vehicleHandler.SendToMaintenance)
	vehicleRoutes.POST("/:id/return", vehicleHandler.ReturnToService)
	vehicleRoutes.POST("/:id/retire", vehicleHandler.Retire)

	// Booking routes: clients place, staff confirm, either side cancels
	bookingRoutes := router.NewDomainGroup("booking", "/bookings")
	bookingRoutes.POST("", clientOnly, bookingHandler.Create)
	bookingRoutes.GET("", anyRole, bookingHandler.List)
	bookingRoutes.POST("/:id/confirm", staffOnly, bookingHandler.Confirm)
	bookingRoutes.POST("/:id/cancel", anyRole, bookingHandler.Cancel)

	// Contract routes: staff drive the workflow, clients read their own
	contractRoutes := router.NewDomainGroup("contract", "/contracts")
	contractRoutes.POST("", staffOnly, contractHandler.Create)
	contractRoutes.GET("", anyRole, contractHandler.List)
	contractRoutes.GET("/:id", anyRole, contractHandler.Get)
	contractRoutes.POST("/:id/close", staffOnly, contractHandler.Close)
	contractRoutes.POST("/:id/cancel", staffOnly, contractHandler.Cancel)
	contractRoutes.GET("/:id/payments", staffOnly, contractHandler.ListPayments)

	// Payment routes
	paymentRoutes := router.NewDomainGroup("payment", "/payments")
	paymentRoutes.Use(staffOnly)
	paymentRoutes.POST("/:id/settle", contractHandler.SettlePayment)
	paymentRoutes.POST("/:id/void", contractHandler.VoidPayment)

	// Company routes: the caller's own company
	companyRoutes := router.NewDomainGroup("company", "/companies")
	companyRoutes.GET("/me", staffOnly, companyHandler.Get)
	companyRoutes.GET("/me/managers", staffOnly, companyHandler.ListManagers)
	companyRoutes.POST("/me/managers", ownerOnly, companyHandler.AddManager)
	companyRoutes.DELETE("/me/managers/:id", ownerOnly, companyHandler.RemoveManager)

	// Admin routes: platform staff only, except the audit listing
	// which company staff may read for their own company
	adminRoutes := router.NewDomainGroup("admin", "/admin")
	adminRoutes.POST("/company-mode", adminOnly, adminHandler.EnterCompanyMode)
	adminRoutes.DELETE("/company-mode", adminOnly, adminHandler.LeaveCompanyMode)
	adminRoutes.GET("/company-mode", adminOnly, adminHandler.CurrentCompanyMode)
	adminRoutes.GET("/companies", adminOnly, adminHandler.ListCompanies)
	adminRoutes.GET("/audit", staffOnly, adminHandler.ListAudit)
	adminRoutes.POST("/audit/clear", adminOnly, adminHandler.ClearAudit)

	// System routes (public via skip paths)
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	// Register all domain groups
	r.Register(authRoutes).
		Register(vehicleRoutes).
		Register(bookingRoutes).
		Register(contractRoutes).
		Register(paymentRoutes).
		Register(companyRoutes).
		Register(adminRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
