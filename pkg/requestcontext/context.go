// Package requestcontext provides transport-independent accessors for
// operation-scoped values.
//
// Collaborators (API layer, oracle gateway, tests) set values; the escrow core
// only reads them. The operation clock lives here so deadline handling can be
// driven deterministically:
//
//	ctx = requestcontext.WithTime(ctx, deadline.Add(time.Second))
//	status, err := engine.QueryStatus(ctx, campaignID)
package requestcontext

import (
	"context"
	"time"

	id "impactx/pkg/domain"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	actorKey       struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
	ContextKeyActor       = actorKey{}
)

// RequestID retrieves the correlation ID, or "" if not set.
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Actor returns the authenticated party on whose behalf the operation runs.
// Authentication itself happens outside the core.
func Actor(ctx context.Context) id.PartyID {
	if actor, ok := ctx.Value(ContextKeyActor).(id.PartyID); ok {
		return actor
	}
	return ""
}

// WithActor injects the calling party into the context.
func WithActor(ctx context.Context, actor id.PartyID) context.Context {
	return context.WithValue(ctx, ContextKeyActor, actor)
}

// Now returns the operation time if one was injected, otherwise the wall clock.
// Deadline checks use this value so one operation sees one instant.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the operation time.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
