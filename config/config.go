// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Unread   UnreadConfig
	Log      LogConfig
	CORS     CORSConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/unread.db)
}

// JWTConfig, JWT token ayarları.
type JWTConfig struct {
	Secret            string // Token imzalama anahtarı — GİZLİ TUTULMALI
	AccessTokenExpiry int    // Dakika cinsinden (varsayılan: 15)
}

// UnreadConfig, unread aggregator ayarları.
type UnreadConfig struct {
	// BatchSize: fallback yolunda aynı anda çalışan grup sayım sorgusu üst sınırı.
	BatchSize int
	// FastPath: false ise tek sorguluk aggregate hiç denenmez.
	FastPath bool
	// FastPathRetry: aggregate hata verdikten sonra tekrar denenmeden önce geçen süre.
	FastPathRetry time.Duration
	// FullRefreshInterval: kaçırılan event'lere karşı periyodik tam refresh (0 → kapalı).
	FullRefreshInterval time.Duration
	// Manuel refresh rate limit: RefreshWindow içinde RefreshLimit istek.
	RefreshLimit    int
	RefreshWindow   time.Duration
	RefreshCooldown time.Duration
}

// LogConfig, zap logger ayarları.
type LogConfig struct {
	Level       string
	Development bool
}

// CORSConfig, izin verilen origin listesi.
type CORSConfig struct {
	AllowedOrigins []string
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler — dosya yoksa sessizce devam eder.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getInt("SERVER_PORT", 9090)
	if err != nil {
		return nil, err
	}

	accessExpiry, err := getInt("JWT_ACCESS_EXPIRY_MINUTES", 15)
	if err != nil {
		return nil, err
	}

	batchSize, err := getInt("UNREAD_BATCH_SIZE", 5)
	if err != nil {
		return nil, err
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("invalid UNREAD_BATCH_SIZE: must be at least 1, got %d", batchSize)
	}

	fastPath, err := getBool("UNREAD_FAST_PATH", true)
	if err != nil {
		return nil, err
	}

	fastPathRetry, err := getInt("UNREAD_FAST_PATH_RETRY_SECONDS", 60)
	if err != nil {
		return nil, err
	}

	fullRefresh, err := getInt("UNREAD_FULL_REFRESH_MINUTES", 5)
	if err != nil {
		return nil, err
	}

	refreshLimit, err := getInt("UNREAD_REFRESH_LIMIT", 5)
	if err != nil {
		return nil, err
	}

	refreshWindow, err := getInt("UNREAD_REFRESH_WINDOW_SECONDS", 10)
	if err != nil {
		return nil, err
	}

	refreshCooldown, err := getInt("UNREAD_REFRESH_COOLDOWN_SECONDS", 30)
	if err != nil {
		return nil, err
	}

	logDev, err := getBool("LOG_DEVELOPMENT", false)
	if err != nil {
		return nil, err
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/unread.db"),
		},
		JWT: JWTConfig{
			Secret:            jwtSecret,
			AccessTokenExpiry: accessExpiry,
		},
		Unread: UnreadConfig{
			BatchSize:           batchSize,
			FastPath:            fastPath,
			FastPathRetry:       time.Duration(fastPathRetry) * time.Second,
			FullRefreshInterval: time.Duration(fullRefresh) * time.Minute,
			RefreshLimit:        refreshLimit,
			RefreshWindow:       time.Duration(refreshWindow) * time.Second,
			RefreshCooldown:     time.Duration(refreshCooldown) * time.Second,
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: logDev,
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
	}

	return cfg, nil
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// splitList, virgülle ayrılmış listeyi boşlukları temizleyerek böler.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
