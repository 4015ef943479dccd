package config

import "os"

type Config struct {
	Port string

	GeminiAPIKey   string
	GeminiModel    string
	OpenAIAPIKey   string
	OpenAIModel    string
	DeepseekAPIKey string
	DeepseekModel  string

	YCOAuthToken string
	YCFolderID   string

	DatabaseURL string

	TelegramBotToken string
	WebhookURL       string

	ProvidersFile string
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads the environment. Provider keys stay optional on purpose: a
// missing or invalid key fails that provider's attempt and the chain
// advances, it never takes the process down.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8000"),

		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		DeepseekAPIKey: getEnv("DEEPSEEK_API_KEY", ""),
		DeepseekModel:  getEnv("DEEPSEEK_MODEL", "deepseek-chat"),

		YCOAuthToken: getEnv("YC_OAUTH_TOKEN", ""),
		YCFolderID:   getEnv("YC_FOLDER_ID", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		ProvidersFile: getEnv("PROVIDERS_FILE", ""),
	}
}
