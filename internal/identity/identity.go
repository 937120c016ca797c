package identity

import "context"

// Actor is the attested identity of the caller of an operation. The transport
// layer is responsible for attestation; everything below it only compares
// actors for equality.
type Actor string

// Anonymous is the actor attached to unattested calls.
const Anonymous Actor = ""

func (a Actor) IsAnonymous() bool { return a == Anonymous }

func (a Actor) String() string { return string(a) }

type actorKey struct{}

// WithActor stores the attested caller identity on the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext retrieves the attested caller identity, or Anonymous when
// none was attached.
func ActorFromContext(ctx context.Context) Actor {
	if ctx == nil {
		return Anonymous
	}
	actor, _ := ctx.Value(actorKey{}).(Actor)
	return actor
}
