// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package healthcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexliesenfeld/health"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(context.Context) error { return p.err }

func status(t *testing.T, h http.Handler) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Path, nil))
	return rec.Code
}

func TestHealth(t *testing.T) {
	ready := atomic.NewBool(false)
	pinger := &fakePinger{}
	h := NewHandler(NewChecker(ready.Load, pinger, health.WithDisabledCache()))

	require.Equal(t, http.StatusServiceUnavailable, status(t, h))

	ready.Store(true)
	require.Equal(t, http.StatusOK, status(t, h))

	pinger.err = errors.New("gateway down")
	require.Equal(t, http.StatusServiceUnavailable, status(t, h))
}

func TestHealthWithoutGateway(t *testing.T) {
	h := NewHandler(NewChecker(func() bool { return true }, nil, health.WithDisabledCache()))
	require.Equal(t, http.StatusOK, status(t, h))
}
