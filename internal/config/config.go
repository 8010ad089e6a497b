package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			Port: 18790,
			Bind: "loopback",
		},
		LLM: LLMConfig{
			BaseURL:      "https://api.poe.com/v1",
			DefaultModel: "Claude-Sonnet-4",
			MaxTokens:    4000,
			ChatTimeout:  60,
		},
		Board: BoardConfig{
			Endpoint:        "https://api.monday.com/v2",
			DownloadTimeout: 120,
		},
		Knowledge: KnowledgeConfig{
			ChunkSize: 1200,
			TopK:      6,
		},
		Activity: ActivityConfig{
			Retention: 50,
		},
		Store: StoreConfig{
			Driver: "sqlite",
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleLevel: "info",
			ConsoleStyle: "pretty",
		},
	}
}
