package search

import (
	"fmt"
	"strings"

	"github.com/hyperjump/podsearch/internal/config"
	"github.com/hyperjump/podsearch/internal/models"
	"github.com/hyperjump/podsearch/internal/vector"
)

// ProcessQuery trims the query text, validates it and clamps K into
// [1, cfg.MaxK], defaulting to cfg.DefaultK.
func ProcessQuery(q *models.Query, cfg config.SearchConfig) error {
	if q == nil {
		return fmt.Errorf("%w: nil query", vector.ErrInvalidArgument)
	}
	q.Text = strings.TrimSpace(q.Text)
	if q.K < 0 {
		return fmt.Errorf("%w: k must be positive, got %d", vector.ErrInvalidArgument, q.K)
	}
	if err := q.Validate(cfg.DefaultK, cfg.MaxK); err != nil {
		return fmt.Errorf("%w: %v", vector.ErrInvalidArgument, err)
	}
	return nil
}
