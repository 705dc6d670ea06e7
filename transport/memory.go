package transport

import (
	"context"

	"github.com/google/uuid"

	"github.com/spacemeshos/hashcash/shared"
)

// Request asks a worker to search for a nonce.
// Ctx is the lifetime of the search, it is cancelled once any worker
// answered the request or the caller gave up.
type Request struct {
	Ctx       context.Context
	ID        uuid.UUID
	Hash      shared.Hash
	Threshold shared.Threshold
}

// Response carries a nonce found for the request with the same ID,
// or the error which stopped the worker searching for it.
type Response struct {
	ID    uuid.UUID
	Nonce shared.Nonce
	Err   error
}

// InMemory binds a solver front end with its workers by in-memory channels.
// Requests are shared by all workers, responses are shared by all requests
// and must be routed by ID.
type InMemory struct {
	requests  chan Request
	responses chan Response
}

func NewInMemory(size int) *InMemory {
	return &InMemory{
		requests:  make(chan Request, size),
		responses: make(chan Response, size),
	}
}

// Dispatch queues a request for the workers.
func (m *InMemory) Dispatch(ctx context.Context, req Request) error {
	select {
	case m.requests <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *InMemory) RegisterForRequests() <-chan Request {
	return m.requests
}

// NewNonce publishes a found nonce.
func (m *InMemory) NewNonce(ctx context.Context, resp Response) error {
	select {
	case m.responses <- resp:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *InMemory) RegisterForNonces() <-chan Response {
	return m.responses
}
