package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENV" default:"development"`
	DBConnectionString string `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`

	// Recommendation provider settings
	OpenAIAPIKey      string  `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIBaseURL     string  `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIModel       string  `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	OpenAIMaxTokens   int     `envconfig:"OPENAI_MAX_TOKENS" default:"200"`
	OpenAITemperature float64 `envconfig:"OPENAI_TEMPERATURE" default:"0.7"`
	OpenAITimeoutSec  int     `envconfig:"OPENAI_TIMEOUT_SEC" default:"30"`

	// Hard global budget for recommendation calls
	RecommendationMaxRequests int `envconfig:"RECOMMENDATION_MAX_REQUESTS" default:"250"`

	// Pub/Sub roster events. Publishing is disabled when GCP_PROJECT_ID is
	// empty, which is the usual local setup.
	GCPProjectID      string `envconfig:"GCP_PROJECT_ID" default:""`
	RosterEventsTopic string `envconfig:"ROSTER_EVENTS_TOPIC" default:"roster-events"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the app runs in a development environment.
// Destructive maintenance operations (usage reset) are gated on this.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
