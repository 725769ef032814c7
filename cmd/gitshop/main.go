package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"

	"gitshop/internal/config"
	"gitshop/internal/documents"
	"gitshop/internal/events"
	"gitshop/internal/http/handlers"
	applog "gitshop/internal/log"
	"gitshop/internal/mail"
	"gitshop/internal/metrics"
	"gitshop/internal/redisx"
	"gitshop/internal/repos"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env loaded: %v", err)
	}
	cfg := config.Load()
	applog.SetService(cfg.ServiceName)

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()

	// ---------- Collaborators ----------
	var store documents.Store = documents.NewLocalStore(cfg.UploadDir)
	if cfg.GCSBucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			log.Fatalf("gcs client: %v", err)
		}
		defer client.Close()
		store = documents.NewGCSStore(client, cfg.GCSBucket)
		log.Printf("[documents] gs://%s", cfg.GCSBucket)
	} else {
		log.Printf("[documents] local %s", cfg.UploadDir)
	}

	m := metrics.NewServerMetrics(cfg.ServiceName)
	opts := handlers.Options{
		Docs:      documents.NewInvoiceGenerator(store),
		DocStore:  store,
		OnOutcome: m.CheckoutOutcome,
	}

	var producer *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.ServiceName, 256)
		producer.Start()
		opts.Events = producer
	}

	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("[warn] redis %s unreachable, idempotency disabled: %v", cfg.RedisAddr, err)
		} else {
			opts.Idem = redisx.NewIdempotency(rdb)
		}
	}

	if cfg.SendGridAPIKey != "" {
		n, err := mail.NewOrderNotifier(mail.NewSendGridClient(cfg.SendGridAPIKey, cfg.MailFrom))
		if err != nil {
			log.Fatalf("mail templates: %v", err)
		}
		opts.Notify = n
	}

	deps := handlers.NewDeps(db, cfg, opts)

	app := fiber.New(fiber.Config{
		AppName:      cfg.ServiceName,
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    1 << 20, // 1 MiB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key, X-Csrf-Token",
		AllowCredentials: true,
	}))
	app.Use(m.Middleware())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/healthz" || p == "/metrics"
		},
	}))
	app.Use(handlers.CSRF())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			applog.Error(c, "healthz.db", err, nil)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
		}
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	handlers.Mount(app, deps)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Printf("[server] shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("[server] shutdown: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("[server] listen: %v", err)
	}
	if producer != nil {
		producer.Close()
		producer.WaitClosed()
	}
}
