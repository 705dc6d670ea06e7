// Package rpc provides the implementation of the gRPC server of the hashcash
// service, which solves and verifies proofs of work on behalf of its callers.
package rpc
