package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/tmnkosi/bankgate/internal/ledger"
	"github.com/tmnkosi/bankgate/internal/models"
	pkghttp "github.com/tmnkosi/bankgate/pkg/http"
	pkglogger "github.com/tmnkosi/bankgate/pkg/logger"
)

// maxPeekBytes bounds how much of the request body is read to extract the
// identity field for the attempt key.
const maxPeekBytes = 1 << 16

// ThrottleGuard wraps an authentication endpoint handler with the attempt
// ledger. It checks the lockout state for the request's attempt key before
// the handler runs, short-circuits with 429 while locked, and records the
// handler outcome afterwards. Separate guard instances protect login and
// registration with independent counters and tiers.
type ThrottleGuard struct {
	name     string
	ledger   *ledger.Ledger
	ipConfig *pkghttp.IPConfig
	audit    *pkglogger.AuditLogger
	logger   *slog.Logger
}

// NewThrottleGuard creates a guard over the given ledger. name identifies
// the protected endpoint in logs.
func NewThrottleGuard(name string, l *ledger.Ledger, ipConfig *pkghttp.IPConfig, audit *pkglogger.AuditLogger, logger *slog.Logger) *ThrottleGuard {
	return &ThrottleGuard{
		name:     name,
		ledger:   l,
		ipConfig: ipConfig,
		audit:    audit,
		logger:   logger,
	}
}

// identityEnvelope is the minimal body shape the guard peeks at.
type identityEnvelope struct {
	Identity string `json:"identity"`
}

// Protect wraps next with the pre-check / record cycle.
func (g *ThrottleGuard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := g.peekIdentity(r)
		origin := pkghttp.ExtractClientIP(r, g.ipConfig)
		key := ledger.Key(identity, origin)

		if err := g.ledger.Check(r.Context(), key); err != nil {
			if rl, ok := models.IsRateLimited(err); ok {
				count, _ := g.ledger.Count(r.Context(), key)
				g.audit.LogLockout(g.name, key, count, rl.RetryAfter)
				pkghttp.WriteRateLimited(w, rl.RetryAfter)
				return
			}
			// Never silently treat a store failure as "not locked"
			pkghttp.WriteStoreUnavailable(w)
			return
		}

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		g.record(r.Context(), key, ww.Status())
	})
}

// peekIdentity reads the identity field out of the JSON body without
// consuming it: the peeked prefix is chained with whatever remains unread,
// so the handler sees the full original body on every path. The request is
// never otherwise mutated; the attempt key is derived purely from the
// extracted identity and origin.
func (g *ThrottleGuard) peekIdentity(r *http.Request) string {
	if r.Body == nil {
		return ""
	}

	rest := r.Body
	peeked, err := io.ReadAll(io.LimitReader(rest, maxPeekBytes))
	r.Body = peekedBody{
		Reader: io.MultiReader(bytes.NewReader(peeked), rest),
		Closer: rest,
	}
	if err != nil {
		return ""
	}

	var envelope identityEnvelope
	if err := json.Unmarshal(peeked, &envelope); err != nil {
		// Malformed bodies still throttle per origin under the unknown identity
		return ""
	}
	return envelope.Identity
}

// peekedBody stitches the peeked prefix back in front of the unread body.
type peekedBody struct {
	io.Reader
	io.Closer
}

// record translates the handler's response status into a ledger update.
// 2xx clears the counter; 401 (bad credentials) and 409 (duplicate identity
// probing) count as failures. Recording runs on a context detached from the
// request so a client disconnect cannot lose it.
func (g *ThrottleGuard) record(ctx context.Context, key string, status int) {
	recordCtx := context.WithoutCancel(ctx)

	switch {
	case status >= 200 && status < 300:
		if err := g.ledger.RecordSuccess(recordCtx, key); err != nil {
			g.logger.Error("throttle guard failed to clear attempts",
				slog.String("endpoint", g.name),
				slog.String("attempt_key", key),
				slog.Any("error", err))
		}
	case status == http.StatusUnauthorized || status == http.StatusConflict:
		record, err := g.ledger.RecordFailure(recordCtx, key)
		if err != nil {
			g.logger.Error("throttle guard failed to record failure",
				slog.String("endpoint", g.name),
				slog.String("attempt_key", key),
				slog.Any("error", err))
			return
		}
		g.logger.Info("failed attempt recorded",
			slog.String("endpoint", g.name),
			slog.String("attempt_key", key),
			slog.Int("failure_count", record.FailureCount))
	}
}
