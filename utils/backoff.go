// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/luxfi/log"
)

// DefaultInitialInterval is the first retry delay of WithRetriesTimeout.
const DefaultInitialInterval = 500 * time.Millisecond

// WithRetriesTimeout runs operation with exponential backoff until it
// succeeds, returns a backoff.Permanent error, ctx is done, or timeout has
// elapsed.
func WithRetriesTimeout(
	ctx context.Context,
	logger log.Logger,
	operation backoff.Operation,
	timeout time.Duration,
	name string,
) error {
	return withRetries(ctx, logger, operation, timeout, DefaultInitialInterval, name)
}

func withRetries(
	ctx context.Context,
	logger log.Logger,
	operation backoff.Operation,
	timeout time.Duration,
	initial time.Duration,
	name string,
) error {
	expBackOff := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(initial),
		backoff.WithMaxElapsedTime(timeout),
	)
	notify := func(err error, next time.Duration) {
		logger.Debug("operation failed, retrying",
			"operation", name,
			"next", next,
			log.Err(err),
		)
	}
	return backoff.RetryNotify(operation, backoff.WithContext(expBackOff, ctx), notify)
}
