package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"findchain-api/config"
	"findchain-api/contracts"
	"findchain-api/handlers"
	"findchain-api/middleware"
	"findchain-api/models"
	"findchain-api/services"
	"findchain-api/utils"
	"findchain-api/workers"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	contractABI, err := contracts.Load(cfg.Chain.ABIPath)
	if err != nil {
		log.Fatal("failed to load contract ABI: ", err)
	}

	rpc, err := ethclient.DialContext(ctx, cfg.Chain.RPCURL)
	if err != nil {
		log.Fatal("failed to connect to chain RPC: ", err)
	}
	defer rpc.Close()

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}

	if err := db.AutoMigrate(
		&models.ChainEvent{},
		&models.ChainCursor{},
		&models.UserPoints{},
		&models.PointsEvent{},
	); err != nil {
		log.Fatal("failed to migrate database: ", err)
	}

	var proofStore services.ProofStore
	switch cfg.Proofs.Backend {
	case "r2":
		r2, err := utils.NewR2Client(ctx, cfg.Proofs.R2AccountID, cfg.Proofs.R2AccessKey, cfg.Proofs.R2AccessSecret, cfg.Proofs.R2Bucket, cfg.Proofs.CDNBaseURL)
		if err != nil {
			log.Fatal("failed to initialize R2 client: ", err)
		}
		proofStore = services.NewR2ProofStore(r2)
	default:
		proofStore = services.NewPinataClient(cfg.Proofs.PinataAPIURL, cfg.Proofs.GatewayURL, cfg.Proofs.PinataJWT)
	}

	chainReader, err := services.NewEthChainReader(rpc, cfg.Chain.ContractAddress, contractABI)
	if err != nil {
		log.Fatal("failed to initialize chain reader: ", err)
	}
	nftIndexer := services.NewAlchemyClient(cfg.Indexer.BaseURL, cfg.Indexer.APIKey, cfg.Indexer.PageSize)
	imeiClient := services.NewIMEIClient(cfg.IMEI.BaseURL, cfg.IMEI.APIKey, cfg.IMEI.SuccessSentinel, cfg.IMEI.Timeout)

	indexService := services.NewChainIndexService(db)
	pointsService := services.NewPointsService(db)
	deviceService := services.NewDeviceService(chainReader, nftIndexer, imeiClient, indexService, cfg.Chain.ContractAddress, cfg.FanOutLimit)
	claimService := services.NewClaimService(chainReader, indexService, cfg.FanOutLimit)
	proofService := services.NewProofService(proofStore)
	txBuilder := services.NewTxBuilder(contractABI, cfg.Chain.ContractAddress, cfg.Chain.Network, chainReader, rpc)

	if cfg.Sync.Enabled {
		indexer := workers.NewChainIndexWorker(rpc, contractABI, cfg.Chain.ContractAddress, indexService, chainReader, pointsService)
		indexer.BlockWindow = cfg.Sync.BlockWindow
		indexer.Confirmations = cfg.Sync.Confirmations
		indexer.StartBlock = cfg.Sync.StartBlock

		if _, err := services.StartScheduler(ctx, services.ScheduledJob{
			Name:     "chain-event-index",
			Interval: cfg.Sync.Interval,
			Run:      indexer.RunOnce,
		}); err != nil {
			log.Fatal("failed to start scheduler: ", err)
		}
	}

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Server.BodyLimitBytes,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Server.AllowedOriginsList(), ","),
		AllowMethods: "GET,POST,OPTIONS,HEAD",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-Wallet-Address",
		MaxAge:       86400, // 24 hours
	}))
	app.Use(middleware.GatewayAuthMiddleware(cfg.Server.GatewayToken, "/health"))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"network":  cfg.Chain.Network.Name,
			"chainId":  cfg.Chain.Network.ChainID,
			"contract": cfg.Chain.ContractAddress,
		})
	})

	handlers.SetupDeviceRoutes(app, deviceService, chainReader)
	handlers.SetupBountyRoutes(app, deviceService, claimService, proofService, txBuilder)
	handlers.SetupTxRoutes(app, txBuilder, cfg.Chain.ReceiptTimeout)
	handlers.SetupPointsRoutes(app, pointsService)

	go func() {
		if err := app.Listen(cfg.Server.Addr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on %s", cfg.Server.Addr)
	log.Printf("✅ Chain %s (%d), contract %s", cfg.Chain.Network.Name, cfg.Chain.Network.ChainID, cfg.Chain.ContractAddress)
	log.Printf("✅ Proof store: %s", cfg.Proofs.Backend)
	if cfg.Sync.Enabled {
		log.Printf("✅ Chain event index running (every %s)", cfg.Sync.Interval)
	}
	log.Printf("✅ CORS configured for origins: %s", cfg.Server.AllowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
