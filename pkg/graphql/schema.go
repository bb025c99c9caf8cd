// Package graphql serves a graphql-go schema over HTTP.
package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/vendo/pkg/bind"
	"github.com/shashiranjanraj/vendo/pkg/response"
)

// NewSchema creates a read-only schema from the given root query.
func NewSchema(query *graphql.Object) (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: query,
	})
}

// Request is the JSON body of a GraphQL POST.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

// Handler executes POSTed queries against schema. GraphQL errors are
// returned in the result with status 200, as the protocol expects.
func Handler(schema graphql.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := bind.JSON(r, &req); err != nil {
			response.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Query == "" {
			response.Error(w, http.StatusBadRequest, "query is required")
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			OperationName:  req.OperationName,
			VariableValues: req.Variables,
			Context:        r.Context(),
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result) //nolint:errcheck
	}
}
