package config

import "time"

type SessionConfig interface {
	GetHTTPTimeout() time.Duration
	GetIdleTimeout() time.Duration
	GetRefreshInterval() time.Duration
	GetPointerMoveThrottle() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetHTTPTimeout() time.Duration {
	return GetDurationEnv("HTTP_TIMEOUT", 30*time.Second)
}

// GetIdleTimeout is the inactivity threshold before the stay-logged-in prompt.
func (Session) GetIdleTimeout() time.Duration {
	return GetDurationEnv("IDLE_TIMEOUT", 30*time.Minute)
}

// GetRefreshInterval is the proactive refresh cadence. The issuer's access
// tokens last ~15 minutes, so 12 minutes leaves a 3 minute margin.
func (Session) GetRefreshInterval() time.Duration {
	return GetDurationEnv("REFRESH_INTERVAL", 12*time.Minute)
}

func (Session) GetPointerMoveThrottle() time.Duration {
	return GetDurationEnv("POINTER_MOVE_THROTTLE", 5*time.Second)
}
