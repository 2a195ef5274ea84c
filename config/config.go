package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	ServerPort string

	// 链配置：工厂合约与签名私钥
	ChainRPCURL    string
	ChainID        int64
	FactoryAddress string
	PrivateKey     string // normalized to 0x prefix

	// 存储网络配置。签名私钥默认与链私钥相同，
	// 可通过 ARKIV_PRIVATE_KEY 单独覆盖
	ArkivRPCURL     string
	ArkivPrivateKey string

	// 邮件通知，密钥缺失时降级为控制台演示模式
	ResendAPIKey string
	ResendFrom   string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO配置，存放封面图与音频文件
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	MinioPublicURL string

	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvInt64 gets an environment variable as int64 or returns a default value.
func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	privateKey := NormalizePrivateKey(os.Getenv("PRIVATE_KEY"))

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		ChainRPCURL:    getEnv("CHAIN_RPC_URL", "https://sepolia-rpc.scroll.io/"),
		ChainID:        getEnvInt64("CHAIN_ID", 534351), // Scroll Sepolia
		FactoryAddress: os.Getenv("FACTORY_ADDRESS"),
		PrivateKey:     privateKey,

		ArkivRPCURL:     os.Getenv("ARKIV_RPC_URL"),
		ArkivPrivateKey: NormalizePrivateKey(getEnv("ARKIV_PRIVATE_KEY", privateKey)),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		ResendFrom:   getEnv("RESEND_FROM", "SplitTrack <notify@splittrack.fm>"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // no hardcoded default for passwords
		DBName:     getEnv("DB_NAME", "splittrack"),

		// Redis配置，使用默认值
		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "splittrack"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", true),
		MinioPublicURL: os.Getenv("MINIO_PUBLIC_URL"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}

// NormalizePrivateKey 保证私钥带0x前缀，空串原样返回
func NormalizePrivateKey(raw string) string {
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "0x") {
		return "0x" + raw
	}
	return raw
}

// ValidateSigning 校验链上写入所需的配置。
// 缺失或畸形时立即报错，绝不带着空钥匙或零地址继续执行。
func (c *Config) ValidateSigning() error {
	if c.PrivateKey == "" {
		return fmt.Errorf("PRIVATE_KEY is not set")
	}
	// 含0x前缀共66个字符
	if len(c.PrivateKey) != 66 {
		return fmt.Errorf("invalid PRIVATE_KEY length %d, expected 66 characters including the 0x prefix", len(c.PrivateKey))
	}
	if c.FactoryAddress == "" {
		return fmt.Errorf("FACTORY_ADDRESS is not set")
	}
	return nil
}

// ValidateStore 校验存储网络写入所需的配置
func (c *Config) ValidateStore() error {
	if c.ArkivRPCURL == "" {
		return fmt.Errorf("ARKIV_RPC_URL is not set")
	}
	if c.ArkivPrivateKey == "" {
		return fmt.Errorf("ARKIV_PRIVATE_KEY is not set and PRIVATE_KEY is empty")
	}
	if len(c.ArkivPrivateKey) != 66 {
		return fmt.Errorf("invalid ARKIV_PRIVATE_KEY length %d, expected 66 characters including the 0x prefix", len(c.ArkivPrivateKey))
	}
	return nil
}
