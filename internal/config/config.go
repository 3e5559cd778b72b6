package config

import (
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Session   SessionConfig
	OAuth     OAuthConfig
	Frontend  FrontendConfig
	RateLimit RateLimitConfig
	Secure    SecureConfig
}

type ServerConfig struct {
	Port string
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	// URL enables the Redis session store when set; empty falls back to
	// the Mongo-backed store.
	URL string
}

type SessionConfig struct {
	// Secret signs the gothic cookie used by library-delegated providers.
	Secret string
	// MaxAgeSeconds is the sessionId cookie and store TTL.
	MaxAgeSeconds int
	// CookieSecure controls the Secure attribute; disable for local HTTP.
	CookieSecure bool
}

type OAuthConfig struct {
	CallbackBaseURL string
	Google          ProviderCredentials
	GitHub          ProviderCredentials
	LinkedIn        ProviderCredentials
}

type ProviderCredentials struct {
	ClientID     string
	ClientSecret string
}

type FrontendConfig struct {
	// URL is the browser app origin: success redirects land on
	// URL + "/profile", failures on URL + "?error=<code>".
	URL string
}

type RateLimitConfig struct {
	// RatePerIP like "100-M" (100/min). Empty disables.
	RatePerIP string
}

type SecureConfig struct {
	IsDevelopment bool
}

func Load() (*Config, error) {
	viper.AutomaticEnv()
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		viper.SetConfigFile(p)
		_ = viper.ReadInConfig()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Mongo: MongoConfig{
			URI:      getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnvOrDefault("MONGODB_DATABASE", "taskpilot"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Session: SessionConfig{
			Secret:        os.Getenv("SESSION_SECRET"),
			MaxAgeSeconds: viper.GetInt("SESSION_MAX_AGE"),
			CookieSecure:  getEnvOrDefault("SESSION_COOKIE_SECURE", "true") == "true",
		},
		OAuth: OAuthConfig{
			CallbackBaseURL: getEnvOrDefault("OAUTH_CALLBACK_BASE_URL", "http://localhost:8080"),
			Google: ProviderCredentials{
				ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
				ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			},
			GitHub: ProviderCredentials{
				ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
				ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			},
			LinkedIn: ProviderCredentials{
				ClientID:     os.Getenv("LINKEDIN_CLIENT_ID"),
				ClientSecret: os.Getenv("LINKEDIN_CLIENT_SECRET"),
			},
		},
		Frontend: FrontendConfig{
			URL: getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
		},
		RateLimit: RateLimitConfig{
			RatePerIP: os.Getenv("RATE_LIMIT_PER_IP"),
		},
		Secure: SecureConfig{
			IsDevelopment: getEnvOrDefault("SERVER_ENV", "development") == "development",
		},
	}
	if cfg.Session.MaxAgeSeconds <= 0 {
		cfg.Session.MaxAgeSeconds = 86400
	}
	return cfg, nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
