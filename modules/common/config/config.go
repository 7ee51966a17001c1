package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 구조체 - 모든 환경변수를 담음
type Config struct {
	// Redis
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Supabase
	SupabaseURL            string
	SupabaseServiceKey     string
	SupabaseStorageBaseURL string

	// Synthesis Provider (submit/poll API)
	ProviderAPIURL         string
	ProviderAPIToken       string
	ProviderImageVersion   string
	ProviderCaptionVersion string
	ProviderVideoVersion   string

	// Google Maps Geocoding
	GoogleMapsAPIKey string

	// Server
	Port string

	// Credit
	ImageCreditPrice int
	VideoCreditPrice int

	// Poll Policy
	ImagePollInterval    time.Duration
	ImagePollMaxAttempts int
	VideoPollInterval    time.Duration
	VideoPollMaxAttempts int
}

var globalConfig *Config

// LoadConfig - 환경변수 로드
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	// Redis UseTLS 파싱
	useTLS := true // 기본값
	if tlsStr := os.Getenv("REDIS_USE_TLS"); tlsStr != "" {
		if parsed, err := strconv.ParseBool(tlsStr); err == nil {
			useTLS = parsed
		}
	}

	globalConfig = &Config{
		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   useTLS,

		// Supabase
		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:     getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBaseURL: getEnv("SUPABASE_STORAGE_BASE_URL", ""),

		// Provider
		ProviderAPIURL:         getEnv("PROVIDER_API_URL", "https://api.replicate.com"),
		ProviderAPIToken:       getEnv("PROVIDER_API_TOKEN", ""),
		ProviderImageVersion:   getEnv("PROVIDER_IMAGE_VERSION", ""),
		ProviderCaptionVersion: getEnv("PROVIDER_CAPTION_VERSION", ""),
		ProviderVideoVersion:   getEnv("PROVIDER_VIDEO_VERSION", ""),

		// Google Maps
		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),

		// Server
		Port: getEnv("PORT", "8080"),

		// Credit (이미지 1장 = 1 크레딧)
		ImageCreditPrice: getEnvInt("IMAGE_CREDIT_PRICE", 1),
		VideoCreditPrice: getEnvInt("VIDEO_CREDIT_PRICE", 5),

		// Poll Policy (이미지: 짧은 간격, 비디오: 긴 간격)
		ImagePollInterval:    time.Duration(getEnvInt("IMAGE_POLL_INTERVAL_MS", 2000)) * time.Millisecond,
		ImagePollMaxAttempts: getEnvInt("IMAGE_POLL_MAX_ATTEMPTS", 60),
		VideoPollInterval:    time.Duration(getEnvInt("VIDEO_POLL_INTERVAL_MS", 10000)) * time.Millisecond,
		VideoPollMaxAttempts: getEnvInt("VIDEO_POLL_MAX_ATTEMPTS", 90),
	}

	// 필수 환경변수 검증
	if err := globalConfig.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Redis: %s:%s (TLS: %v)", globalConfig.RedisHost, globalConfig.RedisPort, globalConfig.RedisUseTLS)
	log.Printf("   Supabase: %s", globalConfig.SupabaseURL)
	log.Printf("   Provider: %s", globalConfig.ProviderAPIURL)
	log.Printf("   Credit: %d per image, %d per video", globalConfig.ImageCreditPrice, globalConfig.VideoCreditPrice)

	return globalConfig, nil
}

// GetConfig - 로드된 설정 가져오기
func GetConfig() *Config {
	if globalConfig == nil {
		log.Fatal("❌ Config not loaded. Call LoadConfig() first.")
	}
	return globalConfig
}

// validate - 필수 환경변수 검증
func (c *Config) validate() error {
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if c.ProviderAPIToken == "" {
		return fmt.Errorf("PROVIDER_API_TOKEN is required")
	}
	return nil
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt - 정수 환경변수 가져오기 (기본값 지원)
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
