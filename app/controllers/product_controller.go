package controllers

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/vendo/app/models"
	"github.com/shashiranjanraj/vendo/app/services"
	"github.com/shashiranjanraj/vendo/pkg/bind"
	"github.com/shashiranjanraj/vendo/pkg/logger"
	"github.com/shashiranjanraj/vendo/pkg/response"
)

type ProductLister interface {
	All(ctx context.Context) ([]models.Product, error)
}

type Purchaser interface {
	Purchase(ctx context.Context, req *models.PurchaseRequest) (*models.PurchaseResponse, error)
}

type HistoryQuerier interface {
	Query(ctx context.Context, params models.PurchaseFilterParams) ([]models.Purchase, error)
}

var maxBalance = decimal.NewFromInt(10)

type ProductController struct {
	products  ProductLister
	purchases Purchaser
	history   HistoryQuerier
	random    func() float64
}

func NewProductController(products ProductLister, purchases Purchaser, history HistoryQuerier) *ProductController {
	return &ProductController{
		products:  products,
		purchases: purchases,
		history:   history,
		random:    rand.Float64,
	}
}

// Index → GET /api/products
func (c *ProductController) Index(w http.ResponseWriter, r *http.Request) {
	products, err := c.products.All(r.Context())
	if err != nil {
		logger.WithCtx(r.Context()).Error("products: list failed", "err", err)
		response.Error(w, http.StatusInternalServerError, "Could not load products")
		return
	}
	response.Success(w, products)
}

// Purchase → POST /api/products/purchase
func (c *ProductController) Purchase(w http.ResponseWriter, r *http.Request) {
	var req *models.PurchaseRequest
	if err := bind.JSON(r, &req); err != nil && !errors.Is(err, bind.ErrEmptyBody) {
		response.JSON(w, http.StatusBadRequest, &models.PurchaseResponse{Message: "Request payload is invalid"})
		return
	}

	resp, err := c.purchases.Purchase(r.Context(), req)
	if err != nil {
		writePurchaseError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

// Purchases → GET /api/products/purchases
func (c *ProductController) Purchases(w http.ResponseWriter, r *http.Request) {
	var params models.PurchaseFilterParams
	if errs := bind.Query(r, &params); len(errs) > 0 {
		response.ValidationError(w, "Invalid purchase filter", errs)
		return
	}

	purchases, err := c.history.Query(r.Context(), params)
	if err != nil {
		var svcErr *services.Error
		if errors.As(err, &svcErr) && svcErr.Kind == services.KindValidation {
			response.ValidationError(w, svcErr.Message, svcErr.Fields)
			return
		}
		response.Error(w, http.StatusInternalServerError, "Could not load purchases")
		return
	}
	response.Success(w, purchases)
}

// Balance → GET /api/products/balance
func (c *ProductController) Balance(w http.ResponseWriter, _ *http.Request) {
	balance := decimal.NewFromFloat(c.random()*9 + 1).Round(2)
	if balance.GreaterThanOrEqual(maxBalance) {
		balance = maxBalance.Sub(decimal.New(1, -2))
	}
	response.JSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

func writePurchaseError(w http.ResponseWriter, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		response.JSON(w, http.StatusInternalServerError, &models.PurchaseResponse{Message: "An unexpected error occurred"})
		return
	}

	body := &models.PurchaseResponse{Message: svcErr.Message}
	switch svcErr.Kind {
	case services.KindCooldown:
		body.RetryAfterMs = svcErr.Remaining.Milliseconds()
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(svcErr.Remaining.Seconds()))))
	case services.KindOutOfStock:
		available, requested := svcErr.Available, svcErr.Requested
		body.Available = &available
		body.Requested = &requested
	}
	response.JSON(w, svcErr.HTTPStatus(), body)
}
