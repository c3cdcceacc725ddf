// Package nominatim is a minimal OpenStreetMap Nominatim geocoding client.
package nominatim

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/logger"
)

const (
	apiURL = "https://nominatim.openstreetmap.org"
	// Nominatim requires an identifying agent.
	userAgent = "spigell/talentscout (talentscout@spigell.dev)"
)

type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New returns a client for baseURL, or the public instance when it is empty.
func New(logger *zap.Logger, baseURL, agent string, timeout time.Duration) *Client {
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL == "" {
		baseURL = apiURL
	}
	if strings.TrimSpace(agent) == "" {
		agent = userAgent
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		APIURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		logger:    withLogger(logger),
		UserAgent: agent,
	}
}

func withLogger(log *zap.Logger) *zap.Logger {
	return logger.WithFields(log, zap.String("component", "nominatim"))
}
