package config

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// AnthropicConfig represents the configuration for the Anthropic backend
type AnthropicConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for the OpenAI backend
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	MaxBodySize int
}

// KnowledgeConfig represents the configuration for the knowledge base
type KnowledgeConfig struct {
	Index          string
	SQLitePath     string
	MySQLDSN       string
	PostgresDSN    string
	Embedder       string
	EmbeddingModel string
	ContextResults int
}

// AgentConfig represents the classification agent settings
type AgentConfig struct {
	ConfidenceThreshold float64
	EnableLearning      bool
}

// FeedbackConfig represents the feedback log settings
type FeedbackConfig struct {
	LogPath string
}

// ServerConfig represents the SMTP gateway settings
type ServerConfig struct {
	ListenAddress     string
	CategoryHeader    string
	ConfidenceHeader  string
	PriorityHeader    string
	ReviewHeader      string
	RelayEnabled      bool
	RelayAddress      string
	RelayPort         int
	TagSpamSubject    bool
	SpamSubjectPrefix string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetAnthropic returns the Anthropic configuration
func (c *Config) GetAnthropic() AnthropicConfig {
	return AnthropicConfig{
		APIKey:      c.GetString("anthropic.api_key"),
		Model:       c.GetString("anthropic.model"),
		MaxTokens:   c.GetInt("anthropic.max_tokens"),
		Temperature: float32(c.GetFloat64("anthropic.temperature")),
		MaxBodySize: c.GetInt("anthropic.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		Model:       c.GetString("openai.model"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetKnowledge returns the knowledge base configuration
func (c *Config) GetKnowledge() KnowledgeConfig {
	return KnowledgeConfig{
		Index:          c.GetString("knowledge.index"),
		SQLitePath:     c.GetString("knowledge.sqlite_path"),
		MySQLDSN:       c.GetString("knowledge.mysql_dsn"),
		PostgresDSN:    c.GetString("knowledge.postgres_dsn"),
		Embedder:       c.GetString("knowledge.embedder"),
		EmbeddingModel: c.GetString("knowledge.embedding_model"),
		ContextResults: c.GetInt("knowledge.context_results"),
	}
}

// GetAgent returns the agent configuration
func (c *Config) GetAgent() AgentConfig {
	return AgentConfig{
		ConfidenceThreshold: c.GetFloat64("agent.confidence_threshold"),
		EnableLearning:      c.GetBool("agent.enable_learning"),
	}
}

// GetFeedback returns the feedback log configuration
func (c *Config) GetFeedback() FeedbackConfig {
	return FeedbackConfig{
		LogPath: c.GetString("feedback.log_path"),
	}
}

// GetServer returns the SMTP gateway configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress:     c.GetString("server.listen_address"),
		CategoryHeader:    c.GetString("server.headers.category"),
		ConfidenceHeader:  c.GetString("server.headers.confidence"),
		PriorityHeader:    c.GetString("server.headers.priority"),
		ReviewHeader:      c.GetString("server.headers.review"),
		RelayEnabled:      c.GetBool("server.relay.enabled"),
		RelayAddress:      c.GetString("server.relay.address"),
		RelayPort:         c.GetInt("server.relay.port"),
		TagSpamSubject:    c.GetBool("server.tag_spam_subject"),
		SpamSubjectPrefix: c.GetString("server.spam_subject_prefix"),
	}
}
