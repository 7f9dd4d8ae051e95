package config

import (
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/minbarhq/minbar-api/logging"
)

// Config holds the project config values
type Config struct {
	URL                string
	DatabaseName       string
	BaseURL            string
	Port               string
	ContentProviderURL string
	TransformerURL     string
	LiveTokenSecret    string
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logging.New()

	return &Config{
		URL:                os.Getenv("DB_URI"),
		DatabaseName:       os.Getenv("DB_NAME"),
		BaseURL:            os.Getenv("BASE_URL"),
		Port:               os.Getenv("PORT"),
		ContentProviderURL: os.Getenv("CONTENT_PROVIDER_URL"),
		TransformerURL:     os.Getenv("TRANSFORMER_URL"),
		LiveTokenSecret:    os.Getenv("LIVE_TOKEN_SECRET"),
	}

}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
	return
}
