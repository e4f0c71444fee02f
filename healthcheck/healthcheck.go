// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package healthcheck

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alexliesenfeld/health"
)

const (
	Path = "/health"

	sessionCheckName = "fhevm-session"
	gatewayCheckName = "fhevm-gateway"

	defaultCheckTimeout = 5 * time.Second
)

var ErrNotReady = errors.New("FHEVM session is not initialized")

// Pinger is satisfied by *gateway.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewChecker reports the service healthy while ready returns true and, when
// gateway is set, the gateway answers. extra options are applied last.
func NewChecker(ready func() bool, gateway Pinger, extra ...health.CheckerOption) health.Checker {
	opts := []health.CheckerOption{
		health.WithTimeout(defaultCheckTimeout),
		health.WithCheck(health.Check{
			Name: sessionCheckName,
			Check: func(context.Context) error {
				if !ready() {
					return ErrNotReady
				}
				return nil
			},
		}),
	}
	if gateway != nil {
		opts = append(opts, health.WithCheck(health.Check{
			Name:  gatewayCheckName,
			Check: gateway.Ping,
		}))
	}
	return health.NewChecker(append(opts, extra...)...)
}

func NewHandler(checker health.Checker) http.Handler {
	return health.NewHandler(checker)
}
