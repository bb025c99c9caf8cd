package routes

import (
	"github.com/shashiranjanraj/vendo/app/controllers"
	"github.com/shashiranjanraj/vendo/pkg/router"
)

// RegisterAPI mounts the vending endpoints under /api/products.
func RegisterAPI(r *router.Router, products *controllers.ProductController) {
	api := r.Group("/api/products")
	api.Get("/", "products.index", products.Index)
	api.Post("/purchase", "products.purchase", products.Purchase)
	api.Get("/purchases", "products.purchases", products.Purchases)
	api.Get("/balance", "products.balance", products.Balance)
}
