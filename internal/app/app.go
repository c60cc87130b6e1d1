package app

import (
	"fmt"

	"github.com/vcscsvcscs/bp-insights/internal/analysis"
	"github.com/vcscsvcscs/bp-insights/internal/audit"
	"github.com/vcscsvcscs/bp-insights/internal/azure"
	"github.com/vcscsvcscs/bp-insights/internal/config"
	"github.com/vcscsvcscs/bp-insights/internal/export"
	"github.com/vcscsvcscs/bp-insights/internal/pdf"
	"github.com/vcscsvcscs/bp-insights/internal/repository"
	"github.com/vcscsvcscs/bp-insights/internal/security"
	"github.com/vcscsvcscs/bp-insights/internal/service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// App holds the wired components shared by the HTTP server and the CLI
type App struct {
	Repo     repository.ReadingRepository
	Engine   *analysis.Engine
	Sink     export.Sink
	PDF      *pdf.PDFGenerator
	XLSX     *export.XLSXGenerator
	Readings *service.ReadingService
	Analysis *service.AnalysisService
	Reports  *service.ReportService
}

// NewLogger builds the zap logger for the configured environment, level and format
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Server.Environment == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	switch cfg.Logging.Format {
	case "json", "console":
		zcfg.Encoding = cfg.Logging.Format
	}

	return zcfg.Build()
}

// NewEngine builds the analysis engine from the classifier settings
func NewEngine(cfg config.ClassifierConfig) *analysis.Engine {
	return analysis.NewEngine(analysis.NewClassifier(analysis.ClassifierOptions{
		CrisisFirst:     cfg.CrisisFirst,
		CrisisSystolic:  cfg.CrisisSystolic,
		CrisisDiastolic: cfg.CrisisDiastolic,
		CrisisInclusive: cfg.CrisisInclusive,
	}))
}

// NewRepository opens the file-backed reading store, encrypted when a key is configured
func NewRepository(cfg config.StorageConfig, logger *zap.Logger) (repository.ReadingRepository, error) {
	key, err := cfg.Key()
	if err != nil {
		return nil, err
	}

	var encryptor *security.Encryptor
	if key != nil {
		encryptor, err = security.NewEncryptor(key)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize encryption: %w", err)
		}
	}

	logger.Info("reading store opened",
		zap.String("path", cfg.Path),
		zap.Bool("encrypted", encryptor != nil),
	)
	return repository.NewFileReadingRepository(cfg.Path, encryptor, logger), nil
}

// NewSink selects Azure Blob Storage when credentials are set, else a local directory
func NewSink(cfg config.ExportConfig, logger *zap.Logger) (export.Sink, error) {
	if cfg.Azure.Enabled() {
		client, err := azure.NewBlobStorageClient(cfg.Azure.AccountName, cfg.Azure.AccountKey, cfg.Azure.Container, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize blob storage client: %w", err)
		}
		logger.Info("exports stored in azure blob storage", zap.String("container", cfg.Azure.Container))
		return client, nil
	}

	logger.Info("exports stored on local disk", zap.String("directory", cfg.Directory))
	return export.NewDirSink(cfg.Directory, logger), nil
}

// New wires the repository, engine, generators and services from cfg
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	repo, err := NewRepository(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	sink, err := NewSink(cfg.Export, logger)
	if err != nil {
		return nil, err
	}

	return NewWithRepository(cfg, repo, sink, logger), nil
}

// NewWithRepository wires the services around an existing repository and sink
func NewWithRepository(cfg *config.Config, repo repository.ReadingRepository, sink export.Sink, logger *zap.Logger) *App {
	engine := NewEngine(cfg.Classifier)
	auditLogger := audit.NewLogger(logger)
	pdfGen := pdf.NewPDFGenerator(logger)
	xlsxGen := export.NewXLSXGenerator(logger)

	analysisService := service.NewAnalysisService(repo, engine, cfg.Analysis.DefaultDays, logger)

	return &App{
		Repo:     repo,
		Engine:   engine,
		Sink:     sink,
		PDF:      pdfGen,
		XLSX:     xlsxGen,
		Readings: service.NewReadingService(repo, engine, auditLogger, logger),
		Analysis: analysisService,
		Reports:  service.NewReportService(analysisService, pdfGen, xlsxGen, sink, auditLogger, logger),
	}
}
