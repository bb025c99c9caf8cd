// Command vendo runs the vending machine backend.
//
//	vendo migrate           # create the products and purchases tables
//	vendo seed              # load the default product catalogue
//	vendo serve             # HTTP API on APP_PORT, gRPC health on GRPC_PORT
//	vendo route:list        # list API routes
//	vendo ledger:export --hours 24 --keep 30
//	vendo schedule:run      # recurring ledger export
package main
