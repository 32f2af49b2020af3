package services

import "time"

// ReconnectPolicy is linear backoff with a ceiling.
type ReconnectPolicy struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		BaseDelay: 2 * time.Second,
		MaxDelay:  10 * time.Second,
	}
}

// Delay returns min(BaseDelay*attempt, MaxDelay). Attempts below 1 are
// treated as the first attempt.
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// Guard the multiplication before it can overflow.
	if p.BaseDelay > 0 && time.Duration(attempt) > p.MaxDelay/p.BaseDelay {
		return p.MaxDelay
	}
	d := p.BaseDelay * time.Duration(attempt)
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
