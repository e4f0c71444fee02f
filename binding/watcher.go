// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package binding

import (
	"context"
	"sync"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/fhevm"
)

const DefaultWatchInterval = 4 * time.Second

// Wallet is a signer whose selected account can change outside the process,
// such as an external signer.
type Wallet interface {
	Accounts(ctx context.Context) ([]common.Address, error)
	ForAccount(account common.Address) fhevm.Signer
}

// Watcher reconfigures a host when the provider switches chains or the wallet
// switches accounts. While the host is not ready it keeps polling the
// provider and retries Configure, so a session that failed on one chain
// recovers once the provider reports a supported chain again.
type Watcher struct {
	host     *Host
	wallet   Wallet
	interval time.Duration
	log      log.Logger

	lock     sync.Mutex
	provider fhevm.Backend
}

// NewWatcher builds a Watcher. wallet may be nil to watch the chain only.
func NewWatcher(host *Host, wallet Wallet, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	return &Watcher{
		host:     host,
		wallet:   wallet,
		interval: interval,
		log:      host.log,
	}
}

// Run polls until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Poll(ctx); err != nil {
				w.log.Warn("failed to refresh FHEVM session", log.Err(err))
			}
		}
	}
}

// Poll checks the provider chain ID and the wallet account once and
// reconfigures the host if either changed, or if the host is not ready. It
// reports whether Configure ran. A host that was never configured is skipped.
func (w *Watcher) Poll(ctx context.Context) (bool, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	h := w.host.Handle()
	if h.Client == nil {
		return false, nil
	}
	cfg := w.host.Config()

	backend, err := w.providerFor(ctx, h)
	if err != nil {
		return false, err
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return false, err
	}

	// An unready host is always retried, on whichever chain the provider is on.
	changed := !h.Ready
	if want := h.Client.NetworkConfig().ChainID; !chainID.IsUint64() || chainID.Uint64() != want {
		network, ok := fhevm.NetworkByChainID(chainID.Uint64())
		if !ok {
			w.log.Warn("provider switched to an unsupported chain",
				log.Stringer("chainID", chainID),
			)
			return false, nil
		}
		w.log.Info("provider chain changed",
			log.Stringer("from", h.Network),
			log.Stringer("to", network),
		)
		cfg.Network = network
		// Gateway and key material belong to the previous network.
		cfg.GatewayURL = ""
		cfg.PublicKey = ""
		changed = true
	}

	if w.wallet != nil {
		accounts, err := w.wallet.Accounts(ctx)
		if err != nil {
			return false, err
		}
		current := common.Address{}
		if cfg.Signer != nil {
			current = cfg.Signer.Address()
		}
		if len(accounts) > 0 && accounts[0] != current {
			w.log.Info("wallet account changed",
				log.Stringer("from", current),
				log.Stringer("to", accounts[0]),
			)
			cfg.Signer = w.wallet.ForAccount(accounts[0])
			changed = true
		}
	}

	if !changed {
		return false, nil
	}
	return true, w.host.Configure(ctx, cfg)
}

// providerFor returns the provider of a ready session and remembers it. An
// unready session has no provider, so the last one seen is reused, or one is
// dialed from the session's RPC URL.
func (w *Watcher) providerFor(ctx context.Context, h Handle) (fhevm.Backend, error) {
	if h.Ready {
		backend, err := h.Client.Backend()
		if err != nil {
			return nil, err
		}
		w.provider = backend
		return backend, nil
	}
	if w.provider != nil {
		return w.provider, nil
	}
	dial := w.host.Config().Dialer
	if dial == nil {
		dial = fhevm.DialBackend
	}
	backend, err := dial(ctx, h.Client.NetworkConfig().RPCURL)
	if err != nil {
		return nil, err
	}
	w.provider = backend
	return backend, nil
}
