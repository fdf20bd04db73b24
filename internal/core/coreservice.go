package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/putao520/qrcodesdk/internal/backend/cache"
	"github.com/putao520/qrcodesdk/internal/backend/database"
	"github.com/putao520/qrcodesdk/internal/qrcode"
	"gopkg.in/yaml.v3"
)

type CoreService struct {
	config          *ServiceConfig
	codec           *qrcode.Codec
	databaseService database.DatabaseService
	cache           cache.Cache
	// fingerprint is the encoded qrcode config; it leads every cache key.
	fingerprint []byte
}

func NewCoreService(ctx context.Context, config *ServiceConfig) (*CoreService, error) {
	codec, err := qrcode.New(config.QRCode, qrcode.WithLogger(slog.Default()))
	if err != nil {
		return nil, err
	}

	databaseService, err := getDatabaseService(config)
	if err != nil {
		return nil, err
	}

	fingerprint, err := yaml.Marshal(codec.Config())
	if err != nil {
		_ = databaseService.Close()
		return nil, fmt.Errorf("failed to fingerprint qrcode config: %w", err)
	}

	imageCache, err := getCache(ctx, config)
	if err != nil {
		_ = databaseService.Close()
		return nil, err
	}

	return &CoreService{
		config:          config,
		codec:           codec,
		databaseService: databaseService,
		cache:           imageCache,
		fingerprint:     fingerprint,
	}, nil
}

// Render returns the encoded QR image, served from cache when possible.
func (service *CoreService) Render(ctx context.Context, content string, logo []byte, compress bool) ([]byte, error) {
	key := cache.Key(service.fingerprint, []byte(content), logo, []byte{boolByte(compress)})

	if data, ok, err := service.cache.Get(ctx, key); err != nil {
		slog.Warn("CoreService: cache lookup failed", "error", err)
	} else if ok {
		slog.Debug("CoreService: cache hit", "key", key)
		return data, nil
	}

	var buf bytes.Buffer
	err := service.codec.Encode(&buf, qrcode.EncodeRequest{Content: content, Logo: logo, Compress: compress})
	if err != nil {
		return nil, err
	}
	data := buf.Bytes()

	if err := service.cache.Set(ctx, key, data); err != nil {
		slog.Warn("CoreService: cache fill failed", "error", err)
	}
	return data, nil
}

// Generate renders content and persists the result.
func (service *CoreService) Generate(ctx context.Context, content string, logo []byte, compress bool) (*database.Code, error) {
	data, err := service.Render(ctx, content, logo, compress)
	if err != nil {
		return nil, err
	}

	format := string(service.codec.Format())
	id, err := service.databaseService.CreateCode(content, format, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store code: %w", err)
	}
	slog.Info("CoreService: code generated", "id", id, "bytes", len(data), "compress", compress)

	return &database.Code{ID: id, Content: content, Format: format, Image: data}, nil
}

// GetCode returns nil, nil when id is unknown.
func (service *CoreService) GetCode(id string) (*database.Code, error) {
	return service.databaseService.GetCodeByID(id)
}

// ListCodes returns all stored codes without their image bytes.
func (service *CoreService) ListCodes() ([]*database.Code, error) {
	return service.databaseService.GetCodes("id", "content", "format", "created_at")
}

func (service *CoreService) DeleteCode(id string) error {
	return service.databaseService.DeleteCode(id)
}

// Decode reads the QR code in an encoded image.
func (service *CoreService) Decode(data []byte) (string, bool) {
	return service.codec.DecodeBytes(data)
}

func (service *CoreService) MimeType() string {
	return service.codec.MimeType()
}

func (service *CoreService) Close() error {
	return errors.Join(service.databaseService.Close(), service.cache.Close())
}

func getDatabaseService(config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return databaseService, nil
}

func getCache(ctx context.Context, config *ServiceConfig) (cache.Cache, error) {
	if config.Cache.Addr == "" {
		slog.Info("cache disabled, no redis address configured")
		return cache.NopCache{}, nil
	}
	redisCache, err := cache.NewRedisCache(ctx, cache.RedisOptions{
		Addr:     config.Cache.Addr,
		Password: config.Cache.Password,
		DB:       config.Cache.DB,
		Prefix:   config.Cache.Prefix,
		TTL:      time.Duration(config.Cache.TTL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return redisCache, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
