package config

// Config is the root configuration for Boardflow.
type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway,omitempty"`
	LLM       LLMConfig       `yaml:"llm,omitempty"`
	Board     BoardConfig     `yaml:"board,omitempty"`
	Knowledge KnowledgeConfig `yaml:"knowledge,omitempty"`
	Activity  ActivityConfig  `yaml:"activity,omitempty"`
	Store     StoreConfig     `yaml:"store,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// GatewayConfig controls the HTTP server.
type GatewayConfig struct {
	Port           int        `yaml:"port,omitempty"`
	Bind           string     `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string     `yaml:"customBindHost,omitempty"`
	AllowedOrigins []string   `yaml:"allowedOrigins,omitempty"`
	TLS            GatewayTLS `yaml:"tls,omitempty"`
}

// GatewayTLS configures TLS for the gateway.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// LLMConfig configures the Poe completion API client. The APIKey here is
// a process-wide fallback; a key saved in a board's settings takes
// precedence per request.
type LLMConfig struct {
	APIKey       string `yaml:"apiKey,omitempty"`
	BaseURL      string `yaml:"baseUrl,omitempty"`
	DefaultModel string `yaml:"defaultModel,omitempty"`
	MaxTokens    int    `yaml:"maxTokens,omitempty"`
	ChatTimeout  int    `yaml:"chatTimeoutSeconds,omitempty"`
}

// BoardConfig configures the board API client.
type BoardConfig struct {
	Token           string `yaml:"token,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	DownloadTimeout int    `yaml:"downloadTimeoutSeconds,omitempty"` // source document fetches
}

// KnowledgeConfig controls document chunking and retrieval.
type KnowledgeConfig struct {
	ChunkSize int `yaml:"chunkSize,omitempty"` // characters per chunk
	TopK      int `yaml:"topK,omitempty"`      // chunks returned per query
}

// ActivityConfig controls the activity log.
type ActivityConfig struct {
	Retention int `yaml:"retention,omitempty"` // entries kept per board
}

// StoreConfig selects the storage backing.
type StoreConfig struct {
	Driver string `yaml:"driver,omitempty"` // "sqlite" | "memory"
	Path   string `yaml:"path,omitempty"`   // sqlite file, defaults under data dir
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleLevel string `yaml:"consoleLevel,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}
