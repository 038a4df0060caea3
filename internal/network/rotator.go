package network

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

var ErrNoProxies = errors.New("no proxies available")

// throttleStatuses bench a proxy when a board answers with them.
var throttleStatuses = map[int]bool{
	403: true,
	407: true,
	429: true,
}

type proxyState struct {
	url         *url.URL
	bannedUntil time.Time
	uses        int
	bans        int
}

// ProxyStatus is a point-in-time view of one proxy.
type ProxyStatus struct {
	Proxy       string    `json:"proxy"`
	Uses        int       `json:"uses"`
	Bans        int       `json:"bans"`
	BannedUntil time.Time `json:"banned_until,omitempty"`
}

// Rotator hands out proxies round-robin, skipping any that are benched after
// a throttling response. It is shared by every adapter's client.
type Rotator struct {
	mu          sync.Mutex
	proxies     []*proxyState
	byKey       map[string]*proxyState
	next        int
	banDuration time.Duration
	now         func() time.Time
}

// NewRotator parses raw proxy URLs. Entries without a scheme are taken as
// http proxies; repeated entries are kept once.
func NewRotator(raw []string, banDuration time.Duration) (*Rotator, error) {
	r := &Rotator{
		byKey:       make(map[string]*proxyState, len(raw)),
		banDuration: banDuration,
		now:         time.Now,
	}
	for _, entry := range raw {
		u, err := parseProxy(entry)
		if err != nil {
			return nil, err
		}
		if _, dup := r.byKey[u.String()]; dup {
			continue
		}
		state := &proxyState{url: u}
		r.byKey[u.String()] = state
		r.proxies = append(r.proxies, state)
	}
	return r, nil
}

func parseProxy(entry string) (*url.URL, error) {
	entry = strings.TrimSpace(entry)
	if entry != "" && !strings.Contains(entry, "://") {
		entry = "http://" + entry
	}
	u, err := url.Parse(entry)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url %q: %w", entry, err)
	}
	if u.Host == "" || strings.ContainsAny(u.Host, " \t") {
		return nil, fmt.Errorf("invalid proxy url: %s", entry)
	}
	return u, nil
}

func (r *Rotator) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.proxies)
}

// Next returns the next proxy that is not benched, or ErrNoProxies when all
// of them are.
func (r *Rotator) Next() (*url.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for range r.proxies {
		state := r.proxies[r.next]
		r.next = (r.next + 1) % len(r.proxies)
		if now.Before(state.bannedUntil) {
			continue
		}
		state.uses++
		return state.url, nil
	}
	return nil, ErrNoProxies
}

// Report records the status a request through proxy came back with.
func (r *Rotator) Report(proxy *url.URL, status int) {
	if proxy == nil || !throttleStatuses[status] {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.byKey[proxy.String()]
	if !ok {
		return
	}
	state.bans++
	state.bannedUntil = r.now().Add(r.banDuration)
}

// Status lists every proxy in rotation order.
func (r *Rotator) Status() []ProxyStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	out := make([]ProxyStatus, 0, len(r.proxies))
	for _, state := range r.proxies {
		status := ProxyStatus{Proxy: state.url.String(), Uses: state.uses, Bans: state.bans}
		if now.Before(state.bannedUntil) {
			status.BannedUntil = state.bannedUntil
		}
		out = append(out, status)
	}
	return out
}
