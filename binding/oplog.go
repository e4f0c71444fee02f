// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package binding

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/luxfi/ids"
)

const DefaultOpLogSize = 256

type EntryKind string

const (
	KindEncrypt       EntryKind = "encrypt"
	KindDecrypt       EntryKind = "decrypt"
	KindPublicDecrypt EntryKind = "public-decrypt"
	KindContractRead  EntryKind = "contract-read"
	KindContractWrite EntryKind = "contract-write"
	KindInit          EntryKind = "init"
)

type Entry struct {
	ID           ids.ID        `json:"id"`
	Kind         EntryKind     `json:"kind"`
	InputSummary string        `json:"inputSummary"`
	Started      time.Time     `json:"started"`
	Duration     time.Duration `json:"duration"`
	Success      bool          `json:"success"`
	Error        string        `json:"error,omitempty"`
}

// OpLog keeps the most recent operations in the order they finished. Once
// full, the oldest entry is dropped.
type OpLog struct {
	lock    sync.Mutex
	entries []Entry
	size    int
}

func NewOpLog(size int) *OpLog {
	if size <= 0 {
		size = DefaultOpLogSize
	}
	return &OpLog{
		entries: make([]Entry, 0, size),
		size:    size,
	}
}

// Append assigns e an ID and stores it.
func (l *OpLog) Append(e Entry) Entry {
	if e.ID == ids.Empty {
		e.ID = newEntryID()
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	if len(l.entries) == l.size {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.size-1]
	}
	l.entries = append(l.entries, e)
	return e
}

// Entries returns a copy of the log, oldest first.
func (l *OpLog) Entries() []Entry {
	l.lock.Lock()
	defer l.lock.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *OpLog) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.entries)
}

func (l *OpLog) Clear() {
	l.lock.Lock()
	l.entries = l.entries[:0]
	l.lock.Unlock()
}

func newEntryID() ids.ID {
	var id ids.ID
	_, _ = rand.Read(id[:])
	return id
}
