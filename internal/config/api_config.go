package config

import (
	"strconv"
	"strings"
	"time"
)

// AuthMode selects which login flow the console presents.
type AuthMode string

const (
	AuthModeOTP      AuthMode = "otp"
	AuthModePassword AuthMode = "password"
)

const (
	apiBaseURLVar = "API_BASE_URL"
	apiTimeoutVar = "API_TIMEOUT"
	authModeVar   = "AUTH_MODE"
	pageSizeVar   = "LIST_PAGE_SIZE"
)

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL returns the marketplace REST API root, without a trailing slash.
func (API) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv(apiBaseURLVar, "http://localhost:8000/api/v1"), "/")
}

func (API) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(GetEnv(apiTimeoutVar, "15s"))
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

func (API) GetListPageSize() int {
	n, err := strconv.Atoi(GetEnv(pageSizeVar, "50"))
	if err != nil || n <= 0 || n > 100 {
		return 50 // the API caps limit at 100
	}
	return n
}

func (API) GetAuthMode() AuthMode {
	if strings.EqualFold(GetEnv(authModeVar, string(AuthModeOTP)), string(AuthModePassword)) {
		return AuthModePassword
	}
	return AuthModeOTP
}

func (API) GetLoginRole() string {
	return "admin"
}
