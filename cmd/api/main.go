package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classroll/internal/attendance"
	"classroll/internal/auth"
	"classroll/internal/config"
	"classroll/internal/directory"
	"classroll/internal/httpmiddleware"
	"classroll/internal/metrics"
	"classroll/internal/queue"
	"classroll/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, using environment variables")
	}
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	redisClient := store.NewRedis(cfg.RedisAddr)

	var (
		db      *store.DB
		recs    attendance.RecordStore
		dir     directory.Directory
		q       queue.Queue
		dataErr error
	)
	if cfg.StoreBackend == "memory" {
		recs = attendance.NewMemoryStore()
		memDir := directory.NewMemory()
		seedDevAdmin(memDir)
		dir = memDir
		q = queue.NewInMemory(64)
	} else {
		db, dataErr = store.NewDB(cfg.DatabaseURL)
		if dataErr != nil {
			log.Printf("warning: db not reachable: %v", dataErr)
		}
		defer func() {
			if db != nil {
				_ = db.Close()
			}
		}()
		recs = attendance.NewPostgresStore(db.Client)
		dir = directory.NewPostgres(db.Client)
		if cfg.QueueBackend == "memory" {
			q = queue.NewInMemory(64)
		} else {
			q = queue.NewRedisQueue(redisClient.Client, "classroll:marks")
		}
	}

	svc := attendance.NewService(recs, dir)
	gate := auth.NewRoleGate(dir, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
	refreshTokens := auth.NewRefreshStore(redisClient.Client, "classroll:refresh:")

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewWindowLimiter(cfg.RateLimitPerMin, time.Minute).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := cfg.StoreBackend == "memory" || db != nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/auth/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
			Role     string `json:"role" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := dir.UserByEmail(c.Request.Context(), req.Email)
		if err != nil || !user.CheckPassword(req.Password) {
			metrics.AuthFailures.Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		session, err := gate.Authorize(c.Request.Context(), user.ID, directory.Role(req.Role))
		if err != nil {
			var authErr *auth.AuthorizationError
			if errors.As(err, &authErr) {
				metrics.AuthFailures.Inc()
				c.JSON(http.StatusForbidden, gin.H{"error": "role not granted"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "authorization failed"})
			return
		}

		if err := refreshTokens.Save(c.Request.Context(), session.Tokens.RefreshToken, session.UserID, session.Tokens.RefreshExp); err != nil {
			log.Printf("refresh token save failed: %v", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"access_token":  session.Tokens.AccessToken,
			"refresh_token": session.Tokens.RefreshToken,
			"expires_at":    session.Tokens.AccessExp.Unix(),
			"role":          session.Role,
		})
	})

	r.POST("/v1/auth/refresh", func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		claims, err := auth.Parse(req.RefreshToken, cfg.JWTSigningKey, cfg.JWTIssuer)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		userID, err := refreshTokens.Take(c.Request.Context(), req.RefreshToken)
		if err != nil || userID != claims.Subject {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		// Rotation re-runs the role gate, so a role change since login
		// invalidates the session here.
		session, err := gate.Authorize(c.Request.Context(), userID, claims.Role)
		if err != nil {
			metrics.AuthFailures.Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session no longer authorized"})
			return
		}
		if err := refreshTokens.Save(c.Request.Context(), session.Tokens.RefreshToken, session.UserID, session.Tokens.RefreshExp); err != nil {
			log.Printf("refresh token save failed: %v", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"access_token":  session.Tokens.AccessToken,
			"refresh_token": session.Tokens.RefreshToken,
			"expires_at":    session.Tokens.AccessExp.Unix(),
		})
	})

	r.POST("/v1/users",
		auth.Require(gate, cfg.JWTSigningKey, cfg.JWTIssuer, directory.RoleHOD),
		func(c *gin.Context) {
			var req struct {
				Email        string `json:"email" binding:"required,email"`
				Name         string `json:"name" binding:"required"`
				Role         string `json:"role" binding:"required"`
				Password     string `json:"password" binding:"required,min=8"`
				EnrollmentID string `json:"enrollment_id"`
				Course       string `json:"course"`
				EmployeeID   string `json:"employee_id"`
				Department   string `json:"department"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			role := directory.Role(req.Role)
			if !role.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
				return
			}
			hash, err := directory.HashPassword(req.Password)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "password hash failed"})
				return
			}
			user, err := dir.Create(c.Request.Context(), directory.User{
				Email:        req.Email,
				Name:         req.Name,
				Role:         role,
				EnrollmentID: req.EnrollmentID,
				Course:       req.Course,
				EmployeeID:   req.EmployeeID,
				Department:   req.Department,
				PasswordHash: hash,
			})
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "user create failed"})
				return
			}
			c.JSON(http.StatusCreated, user)
		})

	r.POST("/v1/attendance",
		auth.Require(gate, cfg.JWTSigningKey, cfg.JWTIssuer, directory.RoleTeacher, directory.RoleHOD),
		func(c *gin.Context) {
			var req struct {
				StudentID string `json:"student_id" binding:"required"`
				Date      string `json:"date" binding:"required"`
				Status    string `json:"status" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			day, err := time.Parse("2006-01-02", req.Date)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
				return
			}

			claims, _ := auth.ClaimsFrom(c)
			rec, err := svc.Mark(c.Request.Context(), req.StudentID, day, attendance.Status(req.Status), claims.Subject)
			if err != nil {
				c.JSON(statusFor(err), gin.H{"error": err.Error()})
				return
			}

			metrics.MarksTotal.WithLabelValues(string(rec.Status)).Inc()
			if err := q.Publish(c.Request.Context(), queue.Message{Type: "mark", StudentID: rec.StudentID}); err != nil {
				log.Printf("queue publish failed: %v", err)
			}

			c.JSON(http.StatusOK, rec)
		})

	r.GET("/v1/attendance",
		auth.Require(gate, cfg.JWTSigningKey, cfg.JWTIssuer),
		func(c *gin.Context) {
			from, to, err := parseRange(c.Query("from"), c.Query("to"))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			claims, _ := auth.ClaimsFrom(c)
			studentID := c.Query("student_id")
			// Students only ever see their own records.
			if claims.Role == directory.RoleStudent {
				studentID = claims.Subject
			}

			records, err := svc.Range(c.Request.Context(), studentID, from, to)
			if err != nil {
				c.JSON(statusFor(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"records": records})
		})

	r.GET("/v1/students/:id/summary",
		auth.Require(gate, cfg.JWTSigningKey, cfg.JWTIssuer),
		func(c *gin.Context) {
			studentID := c.Param("id")
			claims, _ := auth.ClaimsFrom(c)
			if claims.Role == directory.RoleStudent && claims.Subject != studentID {
				metrics.AuthFailures.Inc()
				c.JSON(http.StatusForbidden, gin.H{"error": "students may only view their own summary"})
				return
			}

			defaultWindow := c.Query("from") == "" && c.Query("to") == ""
			if defaultWindow {
				if cached := cachedSummary(c.Request.Context(), redisClient, studentID); cached != nil {
					metrics.SummaryCacheHits.Inc()
					c.Data(http.StatusOK, "application/json", cached)
					return
				}
			}

			from, to, err := summaryRange(c.Query("from"), c.Query("to"), cfg.SummaryWindow)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			sum, err := svc.Summary(c.Request.Context(), studentID, from, to)
			if err != nil {
				c.JSON(statusFor(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, sum)
		})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var validationErr *attendance.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, attendance.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("from must be YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("to must be YYYY-MM-DD")
	}
	return from, to, nil
}

// summaryRange defaults to the trailing windowDays ending today.
func summaryRange(fromStr, toStr string, windowDays int) (time.Time, time.Time, error) {
	if fromStr == "" && toStr == "" {
		to := time.Now().UTC()
		return to.AddDate(0, 0, -windowDays), to, nil
	}
	return parseRange(fromStr, toStr)
}

func cachedSummary(ctx context.Context, redisClient *store.Redis, studentID string) []byte {
	if redisClient == nil || redisClient.Client == nil {
		return nil
	}
	payload, err := redisClient.Client.Get(ctx, "classroll:summary:"+studentID).Bytes()
	if err != nil {
		return nil
	}
	return payload
}

// seedDevAdmin gives the in-memory backend a usable account.
func seedDevAdmin(dir *directory.MemoryDirectory) {
	hash, err := directory.HashPassword("admin-dev-password")
	if err != nil {
		return
	}
	_, _ = dir.Create(context.Background(), directory.User{
		ID:           "dev-admin",
		Email:        "admin@classroll.local",
		Name:         "Dev Admin",
		Role:         directory.RoleHOD,
		EmployeeID:   "HOD-0",
		Department:   "dev",
		PasswordHash: hash,
	})
	log.Println("memory store: seeded admin@classroll.local / admin-dev-password")
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
