// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const maxTrackedClients = 10_000

// clientLimiter allows each client [limit] requests per [window], refilled
// continuously. The least recently seen clients are forgotten first.
type clientLimiter struct {
	limit    int
	every    rate.Limit
	limiters *lru.Cache[string, *rate.Limiter]
}

func newClientLimiter(limit int, window time.Duration) (*clientLimiter, error) {
	limiters, err := lru.New[string, *rate.Limiter](maxTrackedClients)
	if err != nil {
		return nil, err
	}
	return &clientLimiter{
		limit:    limit,
		every:    rate.Every(window / time.Duration(limit)),
		limiters: limiters,
	}, nil
}

// reserve reports whether the client may proceed and, if not, how long it
// should wait.
func (l *clientLimiter) reserve(client string, now time.Time) (bool, time.Duration) {
	limiter, ok := l.limiters.Get(client)
	if !ok {
		limiter = rate.NewLimiter(l.every, l.limit)
		// Another request may have raced us; keep whichever was stored first.
		if prev, found, _ := l.limiters.PeekOrAdd(client, limiter); found {
			limiter = prev
		}
	}
	r := limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	r.CancelAt(now)
	return false, delay
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}
