package connectors

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	CustodyAPIKey    string `envconfig:"CUSTODY_API_KEY"`
	CustodyAPISecret string `envconfig:"CUSTODY_API_SECRET"`
	CustodyBaseURL   string `envconfig:"CUSTODY_BASE_URL" default:"http://localhost:9899"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
