package cooldown

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Policy allows up to MaxAttempts uses per Window. A policy with either field
// at zero is unlimited.
type Policy struct {
	MaxAttempts int
	Window      time.Duration
}

func NewPolicy(maxAttempts int, window time.Duration) Policy {
	return Policy{MaxAttempts: maxAttempts, Window: window}
}

func (p Policy) Unlimited() bool {
	return p.MaxAttempts <= 0 || p.Window <= 0
}

func (p Policy) String() string {
	if p.Unlimited() {
		return "unlimited"
	}
	return fmt.Sprintf("%d/%s", p.MaxAttempts, p.Window)
}

// ParsePolicy reads the "<attempts>/<window>" form used by flags, e.g. "2/30s".
// "0", "off" and "unlimited" disable the limit.
func ParsePolicy(s string) (Policy, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "0", "off", "unlimited":
		return Policy{}, nil
	}

	attempts, window, ok := strings.Cut(s, "/")
	if !ok {
		return Policy{}, fmt.Errorf("invalid rate limit %q: expected <attempts>/<window>", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(attempts))
	if err != nil || n < 0 {
		return Policy{}, fmt.Errorf("invalid rate limit %q: bad attempt count", s)
	}
	d, err := time.ParseDuration(strings.TrimSpace(window))
	if err != nil || d < 0 {
		return Policy{}, fmt.Errorf("invalid rate limit %q: bad window", s)
	}
	return NewPolicy(n, d), nil
}
