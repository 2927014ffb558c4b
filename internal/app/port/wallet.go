package port

import (
	"context"

	"honeyfarmers/internal/domain/entity"
)

// LiveSession is an authenticated wallet session able to sign and broadcast.
type LiveSession interface {
	Actor() string
	Permission() string
	ChainID() string
	// Endpoint is the single endpoint mutating actions are sent through.
	Endpoint() string
	Transact(ctx context.Context, actions []entity.Action) (*entity.TransactResult, error)
}

// SessionKit is the wallet session SDK bound to one chain.
type SessionKit interface {
	// Restore resumes a session. A nil summary restores whatever the kit has cached.
	// A nil session with a nil error means there was nothing to restore.
	Restore(ctx context.Context, summary *entity.SessionSummary) (LiveSession, error)
	Login(ctx context.Context) (LiveSession, error)
	Logout(ctx context.Context, session LiveSession) error
}

// SessionKitFactory builds a kit for a network through the given endpoint.
type SessionKitFactory func(ctx context.Context, profile entity.NetworkProfile, endpoint string) (SessionKit, error)
