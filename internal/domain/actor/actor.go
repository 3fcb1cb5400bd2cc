// Package actor identifies the caller a search runs on behalf of.
package actor

import "context"

// Actor is an authenticated caller.
type Actor struct {
	id        string
	superuser bool
}

// New creates an actor.
func New(id string, superuser bool) Actor {
	return Actor{id: id, superuser: superuser}
}

// ID returns the actor identifier.
func (a Actor) ID() string { return a.id }

// IsSuperuser reports whether the actor bypasses object permissions.
func (a Actor) IsSuperuser() bool { return a.superuser }

// IsAnonymous reports whether no actor was resolved.
func (a Actor) IsAnonymous() bool { return a.id == "" }

type ctxKey struct{}

// WithActor stores the actor in the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the actor stored in ctx.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}
