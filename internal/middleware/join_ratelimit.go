package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bonfireapp/bonfire-backend/pkg/clientip"
	"golang.org/x/time/rate"
)

// Join endpoint rate limit: per-IP, 12 attempts/min with burst 6. This is
// transport-level throttling only; the authoritative limit is the per-user
// PIN lockout inside the join validator. Kept loose enough that a user
// retyping a code a few times never sees a 429 from here.

const (
	joinRPS          = 0.2 // 12/min
	joinBurst        = 6
	joinCleanupEvery = 5 * time.Minute
	joinLimiterTTL   = 30 * time.Minute
)

type joinLimiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

var (
	joinEntries   = make(map[string]*joinLimiterEntry)
	joinEntriesMu sync.Mutex
	joinCleanup   bool
)

func getJoinLimiter(ip string) *rate.Limiter {
	joinEntriesMu.Lock()
	defer joinEntriesMu.Unlock()
	startJoinCleanupOnce()

	e, ok := joinEntries[ip]
	if !ok {
		e = &joinLimiterEntry{
			limiter: rate.NewLimiter(rate.Limit(joinRPS), joinBurst),
		}
		joinEntries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func startJoinCleanupOnce() {
	if joinCleanup {
		return
	}
	joinCleanup = true
	go func() {
		ticker := time.NewTicker(joinCleanupEvery)
		defer ticker.Stop()
		for range ticker.C {
			joinEntriesMu.Lock()
			now := time.Now()
			for k, e := range joinEntries {
				if now.Sub(e.lastUse) > joinLimiterTTL {
					delete(joinEntries, k)
				}
			}
			joinEntriesMu.Unlock()
		}
	}()
}

// JoinRateLimit applies per-IP throttling only to POST /api/bonfires/join.
// Returns 429 with headers when exceeded.
func JoinRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasPrefix(r.URL.Path, "/api/bonfires/join") {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientip.RealClientIP(r)
		limiter := getJoinLimiter(ip)

		if !limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(joinBurst))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"Too many join attempts. Please slow down."}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
