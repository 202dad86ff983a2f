package config

// InMemorySession is the SESSION_FILE value that keeps the operator session in memory only.
const InMemorySession = ":memory:"

type Session struct{}

var _ SessionConfig = Session{}

// GetSessionFile returns where the operator session is persisted.
func (Session) GetSessionFile() string {
	return GetEnv("SESSION_FILE", "./data/session.json")
}

// GetSessionKey returns an optional hex encoded 32 byte key used to seal the session file.
func (Session) GetSessionKey() string {
	return GetEnv("SESSION_KEY", "")
}
