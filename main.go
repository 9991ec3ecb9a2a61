package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"vibin-quest-system/handlers"
	"vibin-quest-system/middleware"
	"vibin-quest-system/models"
	"vibin-quest-system/services"
	"vibin-quest-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.QuestProfile{},
		&models.ClaimAuthorization{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	signerKey := os.Getenv("CLAIM_SIGNER_KEY")
	if signerKey == "" {
		log.Fatal("CLAIM_SIGNER_KEY environment variable not set")
	}
	signer, err := services.NewClaimSigner(signerKey)
	if err != nil {
		log.Fatal("failed to initialize claim signer:", err)
	}

	tokenDecimals := 18
	if v := os.Getenv("TOKEN_DECIMALS"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 0 || d > 36 {
			log.Fatal("TOKEN_DECIMALS must be a small non-negative integer")
		}
		tokenDecimals = d
	}

	statsService := services.NewStatsService(db)
	referralService := services.NewReferralService(db)
	claimService := services.NewClaimService(db, signer, services.NewClaimGuard(), tokenDecimals)

	if v := os.Getenv("CLAIM_COOLDOWN_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			log.Fatal("CLAIM_COOLDOWN_DAYS must be a non-negative integer")
		}
		claimService.Cooldown = time.Duration(days) * 24 * time.Hour
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// On-chain settlement feed: TokensClaimed events finalize pending claims
	chainListener := workers.NewChainListener(claimService)
	go workers.PollTokensClaimed(ctx, chainListener, 15*time.Second)

	claimService.StartExpiryScheduler()

	handlers.SetupEngagementRoutes(app, statsService, referralService)
	handlers.SetupClaimRoutes(app, claimService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ TokensClaimed polling running (every 15s)")
	log.Println("✅ Claim expiry sweep running (every 10m)")
	log.Printf("✅ Claim signer address: %s", signer.Address().Hex())
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
