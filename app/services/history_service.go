package services

import (
	"context"
	"strings"
	"time"

	"github.com/shashiranjanraj/vendo/app/models"
	"github.com/shashiranjanraj/vendo/app/repositories"
	"github.com/shashiranjanraj/vendo/pkg/logger"
	"github.com/shashiranjanraj/vendo/pkg/validate"
)

// PurchaseFinder is the read side of the ledger.
type PurchaseFinder interface {
	Find(ctx context.Context, q repositories.PurchaseQuery) ([]models.Purchase, error)
}

// HistoryService answers purchase history queries. It never writes.
type HistoryService struct {
	ledger PurchaseFinder
	now    func() time.Time
}

func NewHistoryService(ledger PurchaseFinder) *HistoryService {
	return &HistoryService{ledger: ledger, now: time.Now}
}

// WithClock returns a copy of s that measures the hours window from now().
func (s *HistoryService) WithClock(now func() time.Time) *HistoryService {
	c := *s
	c.now = now
	return &c
}

// Query returns the purchases matching params, most recent first unless
// another order is asked for. No match yields an empty slice.
func (s *HistoryService) Query(ctx context.Context, params models.PurchaseFilterParams) ([]models.Purchase, error) {
	q, err := s.Resolve(params)
	if err != nil {
		return nil, err
	}

	purchases, err := s.ledger.Find(ctx, q)
	if err != nil {
		logger.WithCtx(ctx).Error("history: query failed", "err", err)
		return nil, &Error{Kind: KindInternal, Message: "Could not load purchases", Step: "query", Err: err}
	}
	return purchases, nil
}

// Resolve validates params and turns them into a ledger query.
func (s *HistoryService) Resolve(params models.PurchaseFilterParams) (repositories.PurchaseQuery, error) {
	params.SearchTerm = strings.TrimSpace(params.SearchTerm)
	params.MachineID = strings.TrimSpace(params.MachineID)
	params.SortField = strings.ToLower(strings.TrimSpace(params.SortField))
	params.SortOrder = strings.ToLower(strings.TrimSpace(params.SortOrder))

	if errs := validate.Struct(&params); validate.HasErrors(errs) {
		e := validationError("Invalid purchase filter")
		e.Fields = errs
		return repositories.PurchaseQuery{}, e
	}

	q := repositories.PurchaseQuery{
		MachineID: params.MachineID,
		Search:    params.SearchTerm,
		SortField: params.SortField,
		Desc:      params.SortOrder != models.SortAsc,
	}
	if q.SortField == "" {
		q.SortField = models.SortByTimestamp
	}
	if params.Hours != nil {
		q.Since = s.now().UTC().Add(-time.Duration(*params.Hours) * time.Hour)
	}
	return q, nil
}
