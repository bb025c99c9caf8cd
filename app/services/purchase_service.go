package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/vendo/app/models"
	"github.com/shashiranjanraj/vendo/app/repositories"
	"github.com/shashiranjanraj/vendo/pkg/dispense"
	"github.com/shashiranjanraj/vendo/pkg/logger"
	"github.com/shashiranjanraj/vendo/pkg/metrics"
	"github.com/shashiranjanraj/vendo/pkg/validate"
)

// Purchase steps reported on internal errors.
const (
	StepCooldown   = "cooldown"
	StepLookup     = "lookup"
	StepDecrement  = "decrement"
	StepAppend     = "append"
	StepCompensate = "compensate"
)

// Inventory is the stock side of a purchase.
type Inventory interface {
	FindByID(ctx context.Context, id string) (models.Product, error)
	TryDecrement(ctx context.Context, id string, qty int) (models.Product, error)
	Restock(ctx context.Context, id string, qty int) error
}

// Ledger records completed purchases.
type Ledger interface {
	Append(ctx context.Context, purchase *models.Purchase) error
}

// PurchaseService runs a purchase: validate, check the dispense cooldown,
// decrement stock, then append the ledger entry. If the append fails the
// decrement is undone, so stock and ledger always move together.
type PurchaseService struct {
	inventory Inventory
	ledger    Ledger
	guard     dispense.Guard
	machineID string
	now       func() time.Time
}

// PurchaseOption configures a PurchaseService.
type PurchaseOption func(*PurchaseService)

// WithClock replaces time.Now for purchase timestamps.
func WithClock(now func() time.Time) PurchaseOption {
	return func(s *PurchaseService) { s.now = now }
}

// WithMachineID sets the machine recorded on purchases that do not name one.
func WithMachineID(id string) PurchaseOption {
	return func(s *PurchaseService) { s.machineID = id }
}

func NewPurchaseService(inventory Inventory, ledger Ledger, guard dispense.Guard, opts ...PurchaseOption) *PurchaseService {
	s := &PurchaseService{
		inventory: inventory,
		ledger:    ledger,
		guard:     guard,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Purchase sells req.Quantity units of req.ProductID. Failures are always
// *Error.
func (s *PurchaseService) Purchase(ctx context.Context, req *models.PurchaseRequest) (*models.PurchaseResponse, error) {
	resp, err := s.purchase(ctx, req)

	var svcErr *Error
	switch {
	case err == nil:
		metrics.RecordPurchase("success")
	case errors.As(err, &svcErr):
		metrics.RecordPurchase(svcErr.Kind.String())
	}
	return resp, err
}

func (s *PurchaseService) purchase(ctx context.Context, req *models.PurchaseRequest) (*models.PurchaseResponse, error) {
	log := logger.WithCtx(ctx)

	if req == nil {
		return nil, validationError("Request payload is required")
	}
	in := *req
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.MachineID = strings.TrimSpace(in.MachineID)
	if errs := validate.Struct(&in); validate.HasErrors(errs) {
		e := validationError("Valid ProductId and Quantity are required")
		e.ProductID = in.ProductID
		e.Quantity = in.Quantity
		e.Fields = errs
		return nil, e
	}
	id, qty := in.ProductID, in.Quantity

	decision, err := s.guard.TryAcquire(ctx, id)
	if err != nil {
		return nil, s.internal(ctx, internalError(StepCooldown, id, qty, err))
	}
	if !decision.Allowed {
		metrics.RecordDispenseRejection(s.guard.Driver())
		log.Info("purchase: cooling down", "product_id", id, "remaining", decision.Remaining)
		return nil, &Error{
			Kind:      KindCooldown,
			Message:   fmt.Sprintf("Product %s is still being dispensed. Try again in %.1f seconds", id, decision.Remaining.Seconds()),
			ProductID: id,
			Quantity:  qty,
			Remaining: decision.Remaining,
		}
	}

	if _, err := s.inventory.FindByID(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return nil, notFound(id, qty)
		}
		return nil, s.internal(ctx, internalError(StepLookup, id, qty, err))
	}

	product, err := s.inventory.TryDecrement(ctx, id, qty)
	if err != nil {
		var stockErr *repositories.InsufficientStockError
		switch {
		case errors.As(err, &stockErr):
			log.Info("purchase: out of stock", "product_id", id, "available", stockErr.Available, "requested", qty)
			return nil, &Error{
				Kind:      KindOutOfStock,
				Message:   fmt.Sprintf("Insufficient stock. Available: %d, Requested: %d", stockErr.Available, qty),
				ProductID: id,
				Quantity:  qty,
				Available: stockErr.Available,
				Requested: qty,
			}
		case errors.Is(err, repositories.ErrProductNotFound):
			return nil, notFound(id, qty)
		default:
			return nil, s.internal(ctx, internalError(StepDecrement, id, qty, err))
		}
	}

	purchaseID, err := uuid.NewV7()
	if err != nil {
		return nil, s.compensate(ctx, id, qty, err)
	}

	machineID := in.MachineID
	if machineID == "" {
		machineID = s.machineID
	}

	entry := &models.Purchase{
		ID:          purchaseID.String(),
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    qty,
		UnitPrice:   product.Price,
		Amount:      product.Price.Mul(decimal.NewFromInt(int64(qty))),
		Timestamp:   s.now().UTC(),
		MachineID:   machineID,
	}
	if err := s.ledger.Append(ctx, entry); err != nil {
		return nil, s.compensate(ctx, id, qty, err)
	}

	log.Info("purchase: completed", "product_id", id, "quantity", qty, "purchase_id", entry.ID, "remaining", product.Stock)

	return &models.PurchaseResponse{
		Success:           true,
		Message:           "Purchase completed successfully",
		Remaining:         product.Stock,
		QuantityPurchased: qty,
		TotalCost:         entry.Amount,
		PurchaseID:        entry.ID,
	}, nil
}

// compensate puts back a decrement whose ledger entry was not written. The
// restock ignores ctx cancellation.
func (s *PurchaseService) compensate(ctx context.Context, id string, qty int, cause error) *Error {
	restockErr := s.inventory.Restock(context.WithoutCancel(ctx), id, qty)
	metrics.RecordCompensation(restockErr == nil)

	if restockErr != nil {
		return s.internal(ctx, internalError(StepCompensate, id, qty, errors.Join(cause, restockErr)))
	}
	return s.internal(ctx, internalError(StepAppend, id, qty, cause))
}

func (s *PurchaseService) internal(ctx context.Context, e *Error) *Error {
	logger.WithCtx(ctx).Error("purchase: failed",
		"step", e.Step,
		"product_id", e.ProductID,
		"quantity", e.Quantity,
		"err", e.Err,
	)
	return e
}

func notFound(id string, qty int) *Error {
	return &Error{
		Kind:      KindNotFound,
		Message:   fmt.Sprintf("Product with ID %s not found", id),
		ProductID: id,
		Quantity:  qty,
	}
}
