package model

// ================ Config ================
type ConversationConfig struct {
	TypingDelay string `envconfig:"CONVERSATION_TYPING_DELAY" default:"500ms"`
	TTL         string `envconfig:"CONVERSATION_TTL" default:"15m"`
	Store       string `envconfig:"CONVERSATION_STORE" default:"memory"`
}

type BackendConfig struct {
	BaseURL string `envconfig:"BACKEND_BASE_URL" default:"http://localhost:8000"`
	Binding string `envconfig:"BACKEND_BINDING" default:"acp"`
}
