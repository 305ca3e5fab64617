package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// AdminUserID is the chat-platform user id allowed to run
	// administrative commands. Single admin, no delegation.
	AdminUserID string

	GatewayBaseURL string
	GatewayTimeout time.Duration

	PlayerRoleName       string
	AnnouncementsChannel string
	RoomChannelPrefix    string
	LogChannelPrefix     string

	VerificationCodeTTL time.Duration
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort: getEnv("API_PORT", "8080"),
		JWTKey:  []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:  time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "ctfbot_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		AdminUserID: getEnv("ADMIN_USER_ID", ""),

		GatewayBaseURL: getEnv("GATEWAY_BASE_URL", "http://localhost:9090"),
		GatewayTimeout: time.Duration(getEnvAsInt("GATEWAY_TIMEOUT_SECONDS", 10)) * time.Second,

		PlayerRoleName:       getEnv("PLAYER_ROLE_NAME", "CTF_PLAYER"),
		AnnouncementsChannel: getEnv("ANNOUNCEMENTS_CHANNEL", "ctf-announcements"),
		RoomChannelPrefix:    getEnv("ROOM_CHANNEL_PREFIX", "ctf-room"),
		LogChannelPrefix:     getEnv("LOG_CHANNEL_PREFIX", "ctf-flags"),

		VerificationCodeTTL: time.Duration(getEnvAsInt("VERIFICATION_CODE_TTL_MINUTES", 5)) * time.Minute,
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
