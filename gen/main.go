package main

import (
	"github.com/starius/api2"
	minter "gitlab.com/scpcorp/nft-minter"
)

func main() {
	api2.GenerateClient(minter.GetRoutes)
	api2.GenerateOpenApiSpec(&api2.TypesGenConfig{
		OutDir: "./openapi",
		Routes: []interface{}{minter.GetRoutes},
	})
}
