package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"supplier-service/internal/ai/gemini"
	"supplier-service/internal/config"
	"supplier-service/internal/database/minio"
	"supplier-service/internal/database/postgres"
	"supplier-service/internal/database/redis"
	"supplier-service/internal/event"
	"supplier-service/internal/extraction"
	"supplier-service/internal/handlers"
	"supplier-service/internal/repository"
	"supplier-service/internal/services"
	"supplier-service/internal/worker"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

func setupLogging() (*os.File, error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Recovered from panic: %v\n", r)
		}
	}()

	logDir := filepath.Join("/supplier", "log", "supplier_service")
	fmt.Println("Log directory:", logDir)
	err := os.MkdirAll(logDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	if _, err := os.Stat(logFile); err == nil {
		absPath, err := filepath.Abs(logFile)
		if err != nil {
			fmt.Printf("Failed to get absolute path of log file: %v\n", err)
		} else {
			fmt.Printf("Log file exists at absolute path: %s\n", absPath)
		}
	} else if os.IsNotExist(err) {
		fmt.Println("Log file does not exist (it will be created)")
	} else {
		fmt.Printf("Error checking log file existence: %v\n", err)
	}

	// slog's default handler also writes through the standard logger, so
	// both logging paths land in the same file.
	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

// buildExtractor turns the comma separated GEMINI_KEYS value into one client
// per key so OCR calls can fail over between quotas.
func buildExtractor(cfg config.GeminiAPIConfig) *extraction.GeminiExtractor {
	var clients []gemini.GeminiClient
	for _, key := range strings.Split(cfg.APIKeys, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		client, err := gemini.NewGenAIClient(key, cfg.FlashName, cfg.ProName)
		if err != nil {
			log.Printf("Failed to initialize Gemini client: %v", err)
			continue
		}
		clients = append(clients, *client)
	}
	if len(clients) == 0 {
		log.Printf("No Gemini API keys configured, document text extraction will report errors")
	}
	return extraction.NewGeminiExtractor(gemini.NewGeminiClientSelector(clients))
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	cfg := config.New()

	log.Printf("Connecting to PostgreSQL with: host=%s, port=%s, user=%s, dbname=%s",
		cfg.PostgresCfg.Host, cfg.PostgresCfg.Port, cfg.PostgresCfg.Username, cfg.PostgresCfg.DBname)
	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		log.Printf("error connect to database: %s", err)
		go postgres.RetryConnectOnFailed(30*time.Second, &db, cfg.PostgresCfg)
	}

	redisClient, err := redis.NewRedisClient(cfg.RedisCfg.Host, cfg.RedisCfg.Port, cfg.RedisCfg.Password, cfg.RedisCfg.DB)
	if err != nil {
		log.Printf("error connect to redis, risk cache disabled: %s", err)
		redisClient = nil
	}

	minioClient, err := minio.NewMinioClient(cfg.MinioCfg)
	if err != nil {
		log.Fatalf("Failed to initialize MinIO: %v", err)
	}

	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		log.Printf("error connect to rabbitmq, status events disabled: %s", err)
	}
	var publisher *event.StatusPublisher
	if rabbitConn != nil {
		publisher, err = event.NewStatusPublisher(rabbitConn)
		if err != nil {
			log.Printf("Failed to start status publisher: %v", err)
			publisher = nil
		}
	}

	supplierRepo := repository.NewSupplierRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	assessmentRepo := repository.NewRiskAssessmentRepository(db)

	extractor := buildExtractor(cfg.GeminiAPICfg)
	verificationService := services.NewDocumentVerificationService(extractor, cfg.WorkerCfg.ExtractionTimeout)
	riskService := services.NewRiskAssessmentService(supplierRepo, documentRepo, assessmentRepo, redisClient, cfg.WorkerCfg.RiskCacheTTL)

	var statusPublisher services.StatusEventPublisher
	if publisher != nil {
		statusPublisher = publisher
	}
	workflowService := services.NewWorkflowService(workflowRepo, supplierRepo, statusPublisher)
	supplierService := services.NewSupplierService(supplierRepo, documentRepo, assessmentRepo, workflowService)

	pool := worker.NewWorkingPool("supplier-jobs", cfg.WorkerCfg.PoolSize, cfg.WorkerCfg.QueueSize, cfg.WorkerCfg.JobTimeout)
	documentService := services.NewDocumentService(
		documentRepo,
		supplierRepo,
		minioClient,
		minio.Storage.SupplierDocuments,
		verificationService,
		riskService,
		pool,
	)

	pool.RegisterJob(services.VerifyDocumentJob, func(ctx context.Context, params map[string]any) error {
		raw, _ := params["document_id"].(string)
		documentID, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid document_id %q: %w", raw, err)
		}
		return documentService.VerifyStoredDocument(ctx, documentID)
	})
	pool.RegisterJob(services.ReassessSuppliersJob, func(ctx context.Context, params map[string]any) error {
		return riskService.ReassessApprovedSuppliers(ctx)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var managerWg sync.WaitGroup
	managerWg.Add(1)
	go pool.Start(ctx, &managerWg)

	scheduler := worker.NewJobScheduler("risk-reassessment", cfg.WorkerCfg.ReassessInterval, pool)
	scheduler.AddJob(worker.ScheduledJob{Type: services.ReassessSuppliersJob})
	go scheduler.Run(ctx)

	app := fiber.New(fiber.Config{
		BodyLimit: services.MaxDocumentSize + 1024*1024,
	})

	handlers.NewHealthHandler(db, redisClient, minioClient, publisher, pool).Register(app)
	handlers.NewSupplierHandler(supplierService, workflowService).Register(app)
	handlers.NewDocumentHandler(documentService).Register(app)
	handlers.NewWorkflowHandler(workflowService).Register(app)
	handlers.NewRiskHandler(riskService).Register(app)

	shutdownChan := make(chan os.Signal, 1)
	doneChan := make(chan bool, 1)

	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := app.Listen(fmt.Sprintf("0.0.0.0:%s", cfg.Port)); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
		doneChan <- true
	}()

	<-shutdownChan
	log.Println("Shutting down server...")

	cancel()
	managerWg.Wait()
	if publisher != nil {
		publisher.Stop()
	}
	if rabbitConn != nil {
		rabbitConn.Close()
	}
}
