//go:build faiss && cgo
// +build faiss,cgo

package vector

/*
#cgo CFLAGS: -I/opt/homebrew/include -I/usr/local/include
#cgo LDFLAGS: -L/opt/homebrew/lib -L/usr/local/lib -lfaiss_c

#include <stdlib.h>
#include <faiss/c_api/Index_c.h>
#include <faiss/c_api/IndexFlat_c.h>
#include <faiss/c_api/error_c.h>
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"unsafe"
)

const faissAvailable = true

var errFAISSUnavailable = errors.New("FAISS not available")

// FAISSBackend builds a FAISS IndexFlatL2. FAISS labels are the item
// positions, so no id mapping is kept.
type FAISSBackend struct{}

// Type returns the index type identifier.
func (FAISSBackend) Type() IndexType { return IndexTypeFAISS }

// Build copies the matrix into a new FAISS index.
func (FAISSBackend) Build(ctx context.Context, space *SearchSpace) (Handle, error) {
	if err := requireVectors(space); err != nil {
		return nil, err
	}
	dims := space.Dimensions()
	var index *C.FaissIndexFlatL2
	if ret := C.faiss_IndexFlatL2_new_with(&index, C.idx_t(dims)); ret != 0 {
		return nil, fmt.Errorf("failed to create FAISS index: %s", faissLastError())
	}

	// Flatten vectors into contiguous array for FAISS
	n := space.Size()
	flat := make([]float32, n*dims)
	for i, v := range space.Vectors() {
		copy(flat[i*dims:(i+1)*dims], v)
	}
	if err := ctx.Err(); err != nil {
		C.faiss_Index_free(index)
		return nil, err
	}
	ret := C.faiss_Index_add(index, C.idx_t(n), (*C.float)(unsafe.Pointer(&flat[0])))
	if ret != 0 {
		C.faiss_Index_free(index)
		return nil, fmt.Errorf("failed to add vectors to FAISS index: %s", faissLastError())
	}

	h := &faissHandle{index: index, n: n, dims: dims}
	// Handles swapped out of an Index are not closed by it.
	runtime.SetFinalizer(h, func(h *faissHandle) { h.Close() })
	return h, nil
}

// faissLastError returns the last FAISS error message.
func faissLastError() string {
	cErr := C.faiss_get_last_error()
	if cErr == nil {
		return "unknown error"
	}
	return C.GoString(cErr)
}

type faissHandle struct {
	mu    sync.RWMutex
	index *C.FaissIndexFlatL2
	n     int
	dims  int
}

func (h *faissHandle) Search(query []float32, k int) ([]Neighbor, error) {
	k, err := checkQuery(query, h.dims, h.n, k)
	if err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.index == nil {
		return nil, fmt.Errorf("%w: FAISS index closed", ErrNotBuilt)
	}

	distances := make([]float32, k)
	labels := make([]int64, k)
	ret := C.faiss_Index_search(
		h.index,
		1, // nq (number of queries)
		(*C.float)(unsafe.Pointer(&query[0])),
		C.idx_t(k),
		(*C.float)(unsafe.Pointer(&distances[0])),
		(*C.idx_t)(unsafe.Pointer(&labels[0])),
	)
	if ret != 0 {
		return nil, fmt.Errorf("FAISS search failed: %s", faissLastError())
	}

	out := make([]Neighbor, 0, k)
	for i := 0; i < k; i++ {
		if labels[i] < 0 {
			continue
		}
		// IndexFlatL2 reports squared distances.
		out = append(out, Neighbor{Index: int(labels[i]), Distance: math.Sqrt(float64(distances[i]))})
	}
	sortNeighbors(out)
	return out, nil
}

func (h *faissHandle) Len() int        { return h.n }
func (h *faissHandle) Dimensions() int { return h.dims }

// Close frees the FAISS index resources.
func (h *faissHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index != nil {
		C.faiss_Index_free(h.index)
		h.index = nil
	}
	return nil
}
