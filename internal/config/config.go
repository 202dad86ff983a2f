package config

import "time"

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
	TracingConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
	GetListPageSize() int
	GetAuthMode() AuthMode
	GetLoginRole() string
}

type SessionConfig interface {
	GetSessionFile() string
	GetSessionKey() string
}

type TracingConfig interface {
	GetTracingEnabled() bool
	GetTracingEndpoint() string
}

type mainConfig struct {
	EnvVars
	API
	Session
	Tracing
}

func New() Config {
	return mainConfig{}
}
