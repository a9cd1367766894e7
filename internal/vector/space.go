package vector

import "fmt"

// Item is an indexed entity carrying a precomputed embedding. The search
// space never inspects anything else about it.
type Item interface {
	Vector() []float32
}

// SearchSpace holds index-aligned items and embeddings of one shared
// dimensionality. It is immutable once created or loaded; replace it wholesale
// to change the matrix.
type SearchSpace struct {
	items      []Item
	embeddings [][]float32
	dims       int
}

// Create builds a search space from items, taking each item's embedding in
// order. Every item must carry an embedding and all must share one
// dimensionality.
func Create(items []Item) (*SearchSpace, error) {
	s := &SearchSpace{
		items:      items,
		embeddings: make([][]float32, len(items)),
	}
	for i, it := range items {
		if it == nil {
			return nil, fmt.Errorf("%w: item %d is nil", ErrInvalidState, i)
		}
		v := it.Vector()
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: item %d has no embedding", ErrInvalidState, i)
		}
		if i == 0 {
			s.dims = len(v)
		} else if len(v) != s.dims {
			return nil, fmt.Errorf("%w: item %d has %d dimensions, expected %d", ErrInvalidState, i, len(v), s.dims)
		}
		s.embeddings[i] = v
	}
	return s, nil
}

// FromMatrix wraps a raw embedding matrix with no attached items.
func FromMatrix(rows [][]float32) (*SearchSpace, error) {
	s := &SearchSpace{embeddings: rows}
	for i, r := range rows {
		if len(r) == 0 {
			return nil, fmt.Errorf("%w: row %d is empty", ErrFormat, i)
		}
		if i == 0 {
			s.dims = len(r)
		} else if len(r) != s.dims {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrFormat, i, len(r), s.dims)
		}
	}
	return s, nil
}

// Load reads a persisted (N, D) matrix from path. When items is non-nil it is
// attached to the loaded matrix and must have exactly N entries; the stored
// embeddings replace whatever the items carry.
func Load(path string, items []Item) (*SearchSpace, error) {
	rows, dims, err := readMatrix(path)
	if err != nil {
		return nil, err
	}
	if items != nil && len(items) != len(rows) {
		return nil, fmt.Errorf("%w: %s holds %d rows for %d items", ErrFormat, path, len(rows), len(items))
	}
	return &SearchSpace{items: items, embeddings: rows, dims: dims}, nil
}

// Save writes the embedding matrix to path, creating parent directories. The
// format follows the file extension: .npy for NumPy, anything else for the
// native format.
func (s *SearchSpace) Save(path string) error {
	return writeMatrix(path, s.embeddings, s.dims)
}

// Dimensions returns the embedding dimensionality, 0 for an empty space.
func (s *SearchSpace) Dimensions() int { return s.dims }

// Size returns the number of embeddings.
func (s *SearchSpace) Size() int { return len(s.embeddings) }

// Vector returns the embedding at position i. Callers must not modify it.
func (s *SearchSpace) Vector(i int) []float32 { return s.embeddings[i] }

// Vectors returns the whole matrix in item order. Callers must not modify it.
func (s *SearchSpace) Vectors() [][]float32 { return s.embeddings }

// Item returns the item at position i, or nil when no items are attached.
func (s *SearchSpace) Item(i int) Item {
	if i < 0 || i >= len(s.items) {
		return nil
	}
	return s.items[i]
}

// Items returns the attached items, nil when the space was loaded without them.
func (s *SearchSpace) Items() []Item { return s.items }
