//go:build !faiss || !cgo
// +build !faiss !cgo

package vector

import (
	"context"
	"errors"
)

const faissAvailable = false

var errFAISSUnavailable = errors.New("FAISS not available: build with -tags=faiss and install FAISS library")

// FAISSBackend is a stub that fails to build when FAISS is not compiled in.
// Build with -tags=faiss to enable FAISS support.
type FAISSBackend struct{}

// Type returns the index type identifier.
func (FAISSBackend) Type() IndexType { return IndexTypeFAISS }

// Build always fails without FAISS.
func (FAISSBackend) Build(ctx context.Context, space *SearchSpace) (Handle, error) {
	return nil, errFAISSUnavailable
}
