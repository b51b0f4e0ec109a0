package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"agenda/internal/repository"
)

var (
	ErrIDRequired        = errors.New("id is required")
	ErrNotFound          = errors.New("not found")
	ErrReaderNil         = errors.New("reader is nil")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStorageDisabled   = errors.New("object storage is not configured")
	ErrNoImage           = errors.New("product has no image")
	ErrInvalidVCF        = errors.New("invalid vcf file")
	ErrInvalidCSV        = errors.New("invalid csv file")
	ErrDuplicate         = errors.New("duplicate record")
)

// ValidationError lists rejected input fields keyed by their JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// mapRepoErr converts repository sentinels into service errors.
func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrInsufficientStock):
		return ErrInsufficientStock
	case errors.Is(err, repository.ErrDuplicateID):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}
