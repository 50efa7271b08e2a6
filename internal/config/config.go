package config

import (
	"time"

	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/config"
)

// Config stores environment configuration for Lookout.
type Config struct {
	Port string

	ExtractionCacheTTL time.Duration
	ConversationTTL    time.Duration
	IntentCacheTTL     time.Duration
	InstructionsTTL    time.Duration
	MaxHistoryMessages int

	// AssistantName is used when a chat turn does not name one.
	AssistantName string
	// RedisURL switches the instruction store to Redis when set.
	RedisURL string

	BlockPrivateNetworks bool
	EscalateClientShells bool
	ChallengeDelay       time.Duration
	// BrowserBin overrides the Chromium the browser strategies launch.
	BrowserBin string
}

// LoadConfig loads the Lookout configuration from environment variables.
func LoadConfig() Config {
	maxHistory := config.GetEnvInt("MAX_HISTORY_MESSAGES", 20)
	if maxHistory <= 0 {
		maxHistory = 20
	}

	return Config{
		Port:                 config.GetEnv("PORT", "3000"),
		ExtractionCacheTTL:   config.GetEnvDuration("EXTRACTION_CACHE_TTL", time.Hour),
		ConversationTTL:      config.GetEnvDuration("CONVERSATION_TTL", 2*time.Hour),
		IntentCacheTTL:       config.GetEnvDuration("INTENT_CACHE_TTL", time.Hour),
		InstructionsTTL:      config.GetEnvDuration("INSTRUCTIONS_TTL", 24*time.Hour),
		MaxHistoryMessages:   maxHistory,
		AssistantName:        config.GetEnv("ASSISTANT_NAME", ""),
		RedisURL:             config.GetEnv("REDIS_URL", ""),
		BlockPrivateNetworks: config.GetEnvBool("FETCH_BLOCK_PRIVATE_NETWORKS", true),
		EscalateClientShells: config.GetEnvBool("FETCH_ESCALATE_CLIENT_SHELLS", false),
		ChallengeDelay:       config.GetEnvDuration("FETCH_CHALLENGE_DELAY", 5*time.Second),
		BrowserBin:           config.GetEnv("FETCH_BROWSER_BIN", ""),
	}
}
