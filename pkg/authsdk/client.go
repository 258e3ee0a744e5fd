package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// DefaultRefreshHeader is the header that carries the refresh token.
const DefaultRefreshHeader = "refreshtoken"

// SDKClient talks to the federation's authentication API. It holds no
// credentials of its own; callers pass them per request and own storage.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// RefreshHeader names the header used to send the refresh token on
	// /auth/refresh. Default: "refreshtoken"
	RefreshHeader string
}

// NewSDKClient creates a new client with a 10s transport timeout.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		RefreshHeader: DefaultRefreshHeader,
	}
}

func (c *SDKClient) refreshHeader() string {
	if c.RefreshHeader == "" {
		return DefaultRefreshHeader
	}
	return c.RefreshHeader
}
