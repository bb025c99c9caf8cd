// Package graphql exposes products and purchase history as a read-only
// GraphQL schema. Purchases are not mutations here; buying goes through
// POST /api/products/purchase.
package graphql

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/vendo/app/models"
	"github.com/shashiranjanraj/vendo/app/services"
	gql "github.com/shashiranjanraj/vendo/pkg/graphql"
)

type ProductLister interface {
	All(ctx context.Context) ([]models.Product, error)
}

type HistoryQuerier interface {
	Query(ctx context.Context, params models.PurchaseFilterParams) ([]models.Purchase, error)
}

func money(get func(p interface{}) decimal.Decimal) graphql.FieldResolveFn {
	return func(rp graphql.ResolveParams) (interface{}, error) {
		return get(rp.Source).InexactFloat64(), nil
	}
}

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"name":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"stock": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"price": &graphql.Field{
			Type:    graphql.NewNonNull(graphql.Float),
			Resolve: money(func(p interface{}) decimal.Decimal { return p.(models.Product).Price }),
		},
	},
})

var purchaseType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Purchase",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"productId":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"productName": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"quantity":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"machineId":   &graphql.Field{Type: graphql.String},
		"unitPrice": &graphql.Field{
			Type:    graphql.NewNonNull(graphql.Float),
			Resolve: money(func(p interface{}) decimal.Decimal { return p.(models.Purchase).UnitPrice }),
		},
		"amount": &graphql.Field{
			Type:    graphql.NewNonNull(graphql.Float),
			Resolve: money(func(p interface{}) decimal.Decimal { return p.(models.Purchase).Amount }),
		},
		"timestamp": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(rp graphql.ResolveParams) (interface{}, error) {
				return rp.Source.(models.Purchase).Timestamp.UTC().Format(time.RFC3339Nano), nil
			},
		},
	},
})

// NewSchema builds the query root over products and history.
func NewSchema(products ProductLister, history HistoryQuerier) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(productType))),
				Resolve: func(rp graphql.ResolveParams) (interface{}, error) {
					return products.All(rp.Context)
				},
			},
			"purchases": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(purchaseType))),
				Args: graphql.FieldConfigArgument{
					"searchTerm": &graphql.ArgumentConfig{Type: graphql.String},
					"machineId":  &graphql.ArgumentConfig{Type: graphql.String},
					"hours":      &graphql.ArgumentConfig{Type: graphql.Int},
					"sortField":  &graphql.ArgumentConfig{Type: graphql.String},
					"sortOrder":  &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(rp graphql.ResolveParams) (interface{}, error) {
					purchases, err := history.Query(rp.Context, filterFromArgs(rp.Args))
					var svcErr *services.Error
					if errors.As(err, &svcErr) && svcErr.Kind == services.KindValidation {
						return nil, validationMessage(svcErr)
					}
					return purchases, err
				},
			},
		},
	})

	return gql.NewSchema(query)
}

func filterFromArgs(args map[string]interface{}) models.PurchaseFilterParams {
	var params models.PurchaseFilterParams
	params.SearchTerm, _ = args["searchTerm"].(string)
	params.MachineID, _ = args["machineId"].(string)
	params.SortField, _ = args["sortField"].(string)
	params.SortOrder, _ = args["sortOrder"].(string)
	if hours, ok := args["hours"].(int); ok {
		params.Hours = &hours
	}
	return params
}

func validationMessage(e *services.Error) error {
	if len(e.Fields) == 0 {
		return errors.New(e.Message)
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field + ": " + e.Fields[field]
	}
	return errors.New(strings.Join(parts, "; "))
}
