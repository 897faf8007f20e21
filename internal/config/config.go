package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Upstream UpstreamConfig
	Keys     APIKeys
	Voice    VoiceConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// UpstreamConfig points at the Mira core API that owns the user's
// mail/calendar/task data. Paths and payload shapes are its contract.
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

type APIKeys struct {
	OpenAI     string
	ElevenLabs string
	Geoapify   string
}

type VoiceConfig struct {
	STTModel           string
	LLMModel           string
	TTSVoice           string
	MinAudioBytes      int
	MinTranscriptChars int
	HistoryLimit       int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "mira.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", "default_secret"),
			AccessTokenTTL:  getEnvAsDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
			RefreshTokenTTL: getEnvAsDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		},
		Upstream: UpstreamConfig{
			BaseURL: getEnv("MIRA_API_BASE_URL", "http://localhost:8000"),
			Timeout: getEnvAsDuration("MIRA_API_TIMEOUT", 15*time.Second),
		},
		Keys: APIKeys{
			OpenAI:     getEnv("OPENAI_API_KEY", ""),
			ElevenLabs: getEnv("ELEVENLABS_API_KEY", ""),
			Geoapify:   getEnv("GEOAPIFY_API_KEY", ""),
		},
		Voice: VoiceConfig{
			STTModel:           getEnv("STT_MODEL", "whisper-1"),
			LLMModel:           getEnv("LLM_MODEL", "gpt-4o-mini"),
			TTSVoice:           getEnv("TTS_VOICE", "21m00Tcm4TlvDq8ikWAM"),
			MinAudioBytes:      getEnvAsInt("VOICE_MIN_AUDIO_BYTES", 4000),
			MinTranscriptChars: getEnvAsInt("VOICE_MIN_TRANSCRIPT_CHARS", 4),
			HistoryLimit:       getEnvAsInt("VOICE_HISTORY_LIMIT", 10),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
