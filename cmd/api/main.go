package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vibecheck/internal/auth"
	"vibecheck/internal/cloudinary"
	"vibecheck/internal/config"
	"vibecheck/internal/httpmiddleware"
	"vibecheck/internal/idcard"
	"vibecheck/internal/ledger"
	"vibecheck/internal/metrics"
	"vibecheck/internal/profilegen"
	"vibecheck/internal/queue"
	"vibecheck/internal/roster"
	"vibecheck/internal/scan"
	"vibecheck/internal/state"
	"vibecheck/internal/store"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx := context.Background()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Printf("warning: db not reachable, falling back to in-memory snapshots: %v", err)
		db = nil
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	var snaps store.Snapshots
	if db != nil {
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
		snaps = store.NewPGSnapshots(db.Client)
	} else {
		snaps = store.NewMemSnapshots()
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "vibecheck:scans")
	}

	school := state.NewStore(snaps)
	if err := school.Load(ctx); err != nil {
		return err
	}
	users := auth.NewUserStore(snaps)
	if err := users.Load(ctx); err != nil {
		return err
	}

	profiles := profilegen.New(cfg.ProfileServiceURL, cfg.ProfileSkip)

	// Cloudinary client (nil when not configured)
	var cdnClient *cloudinary.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cdnClient = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	r := gin.New()

	// Recovery middleware
	r.Use(gin.Recovery())

	// Custom logger
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	// CORS middleware
	r.Use(corsMiddleware())

	// Security headers
	r.Use(securityHeaders())

	// Rate limiting
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		ctx := c.Request.Context()
		c.JSON(healthReport(ctx, redisClient.Healthy(ctx), db))
	})

	r.POST("/v1/auth/signup", func(c *gin.Context) {
		var req struct {
			Email      string `json:"email" binding:"required"`
			Password   string `json:"password" binding:"required"`
			SchoolName string `json:"schoolName"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		user, err := users.SignUp(c.Request.Context(), req.Email, req.Password, req.SchoolName)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, auth.ErrEmailTaken) {
				status = http.StatusConflict
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		session, err := auth.Issue(user.ID, user.Email, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.SessionTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"token":      session.Token,
			"expires_at": session.ExpiresAt.Unix(),
			"user":       gin.H{"id": user.ID, "email": user.Email, "schoolName": user.SchoolName},
		})
	})

	r.POST("/v1/auth/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		user, err := users.Authenticate(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		session, err := auth.Issue(user.ID, user.Email, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.SessionTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"token":      session.Token,
			"expires_at": session.ExpiresAt.Unix(),
			"user":       gin.H{"id": user.ID, "email": user.Email, "schoolName": user.SchoolName},
		})
	})

	authGroup := r.Group("/v1", auth.SessionAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	cooldown := httpmiddleware.NewScanCooldown(cfg.ScanCooldown)
	authGroup.POST("/scans", cooldown.GinMiddleware(), func(c *gin.Context) {
		var req struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		res, err := school.RecordScan(c.Request.Context(), req.Token, time.Now())
		if err != nil {
			log.Printf("scan persist failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "scan could not be recorded"})
			return
		}

		metrics.ScansTotal.WithLabelValues(scanOutcome(res)).Inc()

		if body, err := json.Marshal(res.Feedback); err == nil {
			if err := q.Publish(c.Request.Context(), queue.Message{Type: queue.TypeScan, Body: body}); err != nil {
				log.Printf("queue publish failed: %v", err)
			}
		}

		resp := gin.H{"feedback": res.Feedback}
		if res.Record != nil {
			resp["record"] = res.Record
		}
		c.JSON(http.StatusOK, resp)
	})

	authGroup.GET("/students", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"students": school.Roster().Students})
	})

	authGroup.POST("/students", func(c *gin.Context) {
		var st roster.Student
		if err := c.ShouldBindJSON(&st); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fillStudentDefaults(&st)
		if err := school.AddStudent(c.Request.Context(), st); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, roster.ErrDuplicateID) {
				status = http.StatusConflict
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, st)
	})

	authGroup.DELETE("/students/:id", func(c *gin.Context) {
		removed, err := school.RemoveStudent(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !removed {
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	authGroup.POST("/students/generate", func(c *gin.Context) {
		var req struct {
			Count int `json:"count"`
		}
		_ = c.ShouldBindJSON(&req)

		generated, err := profiles.Generate(c.Request.Context(), req.Count)
		if err != nil {
			log.Printf("profile generate failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "profile service failed"})
			return
		}

		created := make([]roster.Student, 0, len(generated))
		for _, p := range generated {
			st := roster.Student{
				Name:       p.Name,
				RollNumber: p.RollNumber,
				GRNumber:   p.GRNumber,
				Grade:      p.Grade,
				Section:    p.Section,
				Gender:     p.Gender,
			}
			fillStudentDefaults(&st)
			if err := school.AddStudent(c.Request.Context(), st); err != nil {
				log.Printf("generated student rejected: %v", err)
				continue
			}
			created = append(created, st)
		}
		c.JSON(http.StatusCreated, gin.H{"students": created})
	})

	authGroup.POST("/students/extract", func(c *gin.Context) {
		var req struct {
			Image string `json:"image" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		profile, err := profiles.ExtractFromCard(c.Request.Context(), req.Image)
		if err != nil {
			log.Printf("card extract failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "card extraction failed"})
			return
		}
		c.JSON(http.StatusOK, profile)
	})

	authGroup.GET("/teachers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"teachers": school.Roster().Teachers})
	})

	authGroup.POST("/teachers", func(c *gin.Context) {
		var t roster.Teacher
		if err := c.ShouldBindJSON(&t); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fillTeacherDefaults(&t)
		if err := school.AddTeacher(c.Request.Context(), t); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, roster.ErrDuplicateID) {
				status = http.StatusConflict
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, t)
	})

	authGroup.PUT("/teachers/:id", func(c *gin.Context) {
		var t roster.Teacher
		if err := c.ShouldBindJSON(&t); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		t.ID = c.Param("id")
		if err := school.UpdateTeacher(c.Request.Context(), t); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, t)
	})

	authGroup.DELETE("/teachers/:id", func(c *gin.Context) {
		removed, err := school.RemoveTeacher(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !removed {
			c.JSON(http.StatusNotFound, gin.H{"error": "teacher not found"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	authGroup.GET("/classes", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"classes": school.Classes()})
	})

	authGroup.POST("/classes", func(c *gin.Context) {
		var cls roster.ClassSection
		if err := c.ShouldBindJSON(&cls); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if cls.Grade == "" || cls.Section == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "grade and section required"})
			return
		}
		if cls.ID == "" {
			cls.ID = uuid.NewString()
		}
		if err := school.AddClass(c.Request.Context(), cls); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, cls)
	})

	authGroup.DELETE("/classes/:id", func(c *gin.Context) {
		removed, err := school.RemoveClass(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !removed {
			c.JSON(http.StatusNotFound, gin.H{"error": "class not found"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	authGroup.GET("/school", func(c *gin.Context) {
		c.JSON(http.StatusOK, school.School())
	})

	authGroup.PUT("/school", func(c *gin.Context) {
		var details state.SchoolDetails
		if err := c.ShouldBindJSON(&details); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := school.SetSchool(c.Request.Context(), details); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, school.School())
	})

	authGroup.GET("/analytics/daily", func(c *gin.Context) {
		date := c.DefaultQuery("date", ledger.DateOf(time.Now()))
		c.JSON(http.StatusOK, school.DailySnapshot(date))
	})

	authGroup.GET("/analytics/summaries", func(c *gin.Context) {
		now := time.Now()
		since, until := now.AddDate(0, 0, -6), now
		if v := c.Query("since"); v != "" {
			parsed, err := time.ParseInLocation(ledger.DateLayout, v, time.Local)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "since must be YYYY-MM-DD"})
				return
			}
			since = parsed
		}
		if v := c.Query("until"); v != "" {
			parsed, err := time.ParseInLocation(ledger.DateLayout, v, time.Local)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "until must be YYYY-MM-DD"})
				return
			}
			until = parsed
		}
		c.JSON(http.StatusOK, gin.H{"summaries": school.DailySummaries(since, until)})
	})

	authGroup.GET("/analytics/classes", func(c *gin.Context) {
		date := c.DefaultQuery("date", ledger.DateOf(time.Now()))
		c.JSON(http.StatusOK, gin.H{"standings": school.ClassPerformance(date)})
	})

	authGroup.GET("/analytics/insights", func(c *gin.Context) {
		c.JSON(http.StatusOK, school.Insights())
	})

	authGroup.GET("/people/:id/card.png", func(c *gin.Context) {
		id := c.Param("id")
		if _, ok := school.Roster().Find(id); !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
			return
		}
		size := idcard.DefaultSize
		if v := c.Query("size"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				size = parsed
			}
		}
		png, err := idcard.QRPNG(id, size)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	})

	// Avatar upload accepts a base64 data URL or multipart file and returns
	// the hosted URL to store on the person record.
	authGroup.POST("/avatars", func(c *gin.Context) {
		if cdnClient == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
			return
		}

		contentType := c.ContentType()
		var result *cloudinary.UploadResult
		var err error

		switch {
		case strings.Contains(contentType, "multipart/form-data"):
			file, header, ferr := c.Request.FormFile("file")
			if ferr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
				return
			}
			defer file.Close()
			data, ferr := io.ReadAll(file)
			if ferr != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
				return
			}
			result, err = cdnClient.UploadBytes(data, header.Filename)

		default:
			var body struct {
				Data string `json:"data" binding:"required"`
			}
			if berr := c.ShouldBindJSON(&body); berr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "provide {\"data\": \"<base64 data URL>\"}"})
				return
			}
			result, err = cdnClient.UploadBase64(body.Data)
		}

		if err != nil {
			log.Printf("cloudinary upload failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"url":       result.SecureURL,
			"public_id": result.PublicID,
			"width":     result.Width,
			"height":    result.Height,
			"bytes":     result.Bytes,
		})
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// healthReport summarizes dependency health. A nil db means the server is
// deliberately running on the in-memory snapshot fallback; that mode is
// reported as storage "memory" but never degrades liveness.
func healthReport(ctx context.Context, redisHealthy bool, db *store.DB) (int, gin.H) {
	storage := "memory"
	dbHealthy := true
	if db != nil {
		storage = "postgres"
		dbHealthy = db.Client.PingContext(ctx) == nil
	}

	status, label := http.StatusOK, "ok"
	if !redisHealthy || !dbHealthy {
		status, label = http.StatusServiceUnavailable, "degraded"
	}
	return status, gin.H{"status": label, "redis": redisHealthy, "db": dbHealthy, "storage": storage}
}

// scanOutcome maps a scan result to its metrics label.
func scanOutcome(res scan.Result) string {
	switch res.Outcome {
	case scan.OutcomeLate:
		return metrics.OutcomeLate
	case scan.OutcomePresent:
		return metrics.OutcomePresent
	case scan.OutcomeUnknown:
		return metrics.OutcomeUnknown
	default:
		return metrics.OutcomeDuplicate
	}
}

// fillStudentDefaults assigns the id, timestamps and a fallback avatar.
func fillStudentDefaults(st *roster.Student) {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if st.CreatedAt == 0 {
		st.CreatedAt = time.Now().UnixMilli()
	}
	if st.AvatarURL == "" {
		st.AvatarURL = "https://ui-avatars.com/api/?name=" + url.QueryEscape(st.Name) + "&background=e2e8f0&color=64748b"
	}
}

// fillTeacherDefaults assigns the id, timestamps and a fallback avatar.
func fillTeacherDefaults(t *roster.Teacher) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().UnixMilli()
	}
	if t.AvatarURL == "" {
		t.AvatarURL = "https://ui-avatars.com/api/?name=" + url.QueryEscape(t.Name) + "&background=f97316&color=fff"
	}
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
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Station-ID")
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
