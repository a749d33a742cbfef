package product

import (
	"context"
	"errors"
	"fmt"

	"catalog-migrate/internal/domain"
	productrepo "catalog-migrate/internal/repository/product"
)

// DefaultSampleSize is how many rows a summary shows.
const DefaultSampleSize = 5

// Reader is the read side of a products destination.
type Reader interface {
	Count(ctx context.Context) (int64, error)
	Sample(ctx context.Context, n int) ([]domain.Product, error)
	ProductTypes(ctx context.Context) ([]string, error)
}

var _ Reader = productrepo.Repository(nil)

type Service struct {
	repo Reader
}

func New(repo Reader) *Service {
	return &Service{repo: repo}
}

// Summary collects the row count, a sample and the distinct product types. Each
// part is fetched independently; failed parts are left empty and their errors
// joined. The summary is nil when every part failed. An empty table yields
// domain.ErrNotFound.
func (s *Service) Summary(ctx context.Context, sampleSize int) (*domain.CatalogSummary, error) {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	var (
		sum  domain.CatalogSummary
		errs []error
	)

	total, err := s.repo.Count(ctx)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("count: %w", err))
	case total == 0:
		return &sum, domain.ErrNotFound
	default:
		sum.Total = total
		sum.CountKnown = true
	}

	sample, err := s.repo.Sample(ctx, sampleSize)
	if err != nil {
		errs = append(errs, fmt.Errorf("sample: %w", err))
	}
	sum.Sample = sample

	types, err := s.repo.ProductTypes(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("product types: %w", err))
	}
	sum.ProductTypes = types

	if len(errs) == 3 {
		return nil, errors.Join(errs...)
	}
	return &sum, errors.Join(errs...)
}
