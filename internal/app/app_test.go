package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/bp-insights/internal/azure"
	"github.com/vcscsvcscs/bp-insights/internal/config"
	"github.com/vcscsvcscs/bp-insights/internal/export"
	"github.com/vcscsvcscs/bp-insights/internal/security"
	"github.com/vcscsvcscs/bp-insights/pkg/model"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server:  config.ServerConfig{Port: "8080", Environment: "test"},
		Storage: config.StorageConfig{Path: filepath.Join(dir, "readings.json")},
		Classifier: config.ClassifierConfig{
			CrisisSystolic:  180,
			CrisisDiastolic: 120,
			CrisisInclusive: true,
		},
		Analysis: config.AnalysisConfig{DefaultDays: 7},
		Export:   config.ExportConfig{Directory: filepath.Join(dir, "exports")},
		Logging:  config.LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestNew_WiresLocalStack(t *testing.T) {
	// Arrange
	cfg := testConfig(t)

	// Act
	a, err := New(cfg, zap.NewNop())

	// Assert
	require.NoError(t, err)
	assert.IsType(t, &export.DirSink{}, a.Sink)

	reading := &model.Reading{Systolic: 128, Diastolic: 78}
	require.NoError(t, a.Readings.AddReading(context.Background(), reading))
	assert.FileExists(t, cfg.Storage.Path)
}

func TestNew_EncryptedStore(t *testing.T) {
	cfg := testConfig(t)
	key, err := security.GenerateKey()
	require.NoError(t, err)
	cfg.Storage.EncryptionKey = key

	a, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, a.Readings.AddReading(context.Background(), &model.Reading{Systolic: 120, Diastolic: 80}))

	cfg.Storage.EncryptionKey = ""
	plain, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	_, err = plain.Repo.List(context.Background())
	assert.Error(t, err)
}

func TestNewSink_Azure(t *testing.T) {
	sink, err := NewSink(config.ExportConfig{
		Azure: config.AzureExportConfig{AccountName: "account", AccountKey: "dGVzdGtleQ==", Container: "exports"},
	}, zap.NewNop())

	require.NoError(t, err)
	assert.IsType(t, &azure.BlobStorageClient{}, sink)
}

func TestNewEngine_CrisisFirst(t *testing.T) {
	engine := NewEngine(config.ClassifierConfig{
		CrisisFirst:     true,
		CrisisSystolic:  180,
		CrisisDiastolic: 120,
		CrisisInclusive: true,
	})

	assert.Equal(t, model.CategoryHypertensiveCrisis, engine.Classifier().Classify(190, 100).Category)
}

func TestNewLogger(t *testing.T) {
	cfg := testConfig(t)

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	cfg.Logging.Level = "loud"
	_, err = NewLogger(cfg)
	assert.Error(t, err)
}
