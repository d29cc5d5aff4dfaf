package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/mxi-labs/presale/app/controllers"
	"github.com/mxi-labs/presale/app/repository"
	"github.com/mxi-labs/presale/internal/pkg/apischema"
	"github.com/mxi-labs/presale/internal/pkg/auditarchive"
	"github.com/mxi-labs/presale/internal/pkg/cache"
	"github.com/mxi-labs/presale/internal/pkg/database"
	"github.com/mxi-labs/presale/internal/pkg/env"
	"github.com/mxi-labs/presale/internal/pkg/okx"
	"github.com/mxi-labs/presale/internal/pkg/payment"
	"github.com/mxi-labs/presale/internal/pkg/ratelimit"
	"github.com/mxi-labs/presale/internal/pkg/router"
	"github.com/mxi-labs/presale/internal/pkg/statistics"
)

func main() {
	app, sweeper := NewApplication()
	sweeper.Start()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		sweeper.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	if err != nil {
		log.Fatal(err)
	}
}

func NewApplication() (*fiber.App, *payment.ExpirySweeper) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/presale to project root
		"../../../", // Fallback
	}
	basePath := "./"
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs"); err == nil {
			basePath = path
			break
		}
	}

	verifier := okx.NewClientFromEnv()
	if !verifier.IsConfigured() {
		log.Println("OKX credentials not configured, deposits go to manual review")
	}

	service := payment.NewServiceFromDB(repository.GetGlobalFactory().DB(), verifier)

	metrics := statistics.NewProvider(repository.GetGlobalRepositories().PresaleMetrics, cache.GetClient())
	service.SetMetricsHook(metrics.Invalidate)

	archiveCfg, err := auditarchive.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid audit archive configuration: %v", err)
	}
	if archiveCfg.IsEnabled() {
		archiver, err := auditarchive.NewClient(archiveCfg)
		if err != nil {
			log.Fatalf("Failed to initialize audit archive: %v", err)
		}
		service.SetArchiver(archiver)
	}

	sweeper := payment.NewExpirySweeper(service, env.GetDuration("PAYMENT_EXPIRY_SWEEP_INTERVAL", payment.DefaultSweepInterval))

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 64 * 1024,
	})

	// recovery, request ids and logging
	app.Use(recover.New(), requestid.New(), logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "change-me"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	schema, err := apischema.Load(openAPICfg.FilePath)
	if err != nil {
		log.Fatalf("Failed to load OpenAPI document: %v", err)
	}
	verificationSchema, err := schema.Operation(fiber.MethodPost, "/payment-verification")
	if err != nil {
		log.Fatalf("Failed to build request validation: %v", err)
	}

	// ROUTER
	router.InstallRouter(app, router.Dependencies{
		Payments:       controllers.NewPaymentController(service, metrics),
		AuthSecret:     env.GetEnv("AUTH_JWT_SECRET", ""),
		LimiterStorage: ratelimit.NewStorage(),
		RequestSchema:  verificationSchema,
	})

	return app, sweeper
}
