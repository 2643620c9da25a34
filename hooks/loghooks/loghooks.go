// Package loghooks reports cache events through a menucache.Logger.
// High-volume events are sampled and storage keys are redacted.
package loghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"

	"github.com/unkn0wn-root/menucache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery uint64
	RetryEvery    uint64
	// Log hits and misses at debug level.
	LogReads bool
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    menucache.Logger
	opts Options

	selfHealCtr atomic.Uint64
	retryCtr    atomic.Uint64
}

var _ menucache.Hooks = (*Hooks)(nil)

func New(l menucache.Logger, opts Options) *Hooks {
	if l == nil {
		l = menucache.NopLogger{}
	}
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Hit(kind string) {
	if h.opts.LogReads {
		h.l.Debug("menucache.hit", menucache.Fields{"kind": kind})
	}
}

func (h *Hooks) Miss(kind string) {
	if h.opts.LogReads {
		h.l.Debug("menucache.miss", menucache.Fields{"kind": kind})
	}
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("menucache.self_heal", menucache.Fields{"key": h.redact(storageKey), "reason": reason})
}

func (h *Hooks) ProviderSetRejected(storageKey string) {
	h.l.Warn("menucache.provider_set_rejected", menucache.Fields{"key": h.redact(storageKey)})
}

func (h *Hooks) GenSnapshotError(count int, err error) {
	h.l.Warn("menucache.gen_snapshot_error", menucache.Fields{"count": count, "err": err})
}

func (h *Hooks) GenBumpError(storageKey string, err error) {
	h.l.Warn("menucache.gen_bump_error", menucache.Fields{"key": h.redact(storageKey), "err": err})
}

func (h *Hooks) Retry(op string, attempt int, err error) {
	if !sample(h.opts.RetryEvery, &h.retryCtr) {
		return
	}
	h.l.Info("menucache.retry", menucache.Fields{"op": op, "attempt": attempt, "err": err})
}

func (h *Hooks) BackendFailure(op, storageKey string, err error) {
	h.l.Error("menucache.backend_failure", menucache.Fields{"op": op, "key": h.redact(storageKey), "err": err})
}

func (h *Hooks) InvalidateOutage(key string, bumpErr, delErr error) {
	h.l.Error("menucache.invalidate_outage", menucache.Fields{
		"key":      h.redact(key),
		"bump_err": bumpErr,
		"del_err":  delErr,
	})
}

func (h *Hooks) InvalidationDropped(key string, err error) {
	h.l.Warn("menucache.invalidation_dropped", menucache.Fields{"key": key, "err": err})
}

func (h *Hooks) Flushed(prefix string) {
	h.l.Info("menucache.flushed", menucache.Fields{"prefix": prefix})
}
