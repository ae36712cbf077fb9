package main

import (
	api "Showdown"
)

// @title Showdown API
// @version 1.0
// @description API for playing single-elimination brackets over selection pools
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Provide a valid JWT as: Bearer <token>
func main() {
	api.Run()
}
