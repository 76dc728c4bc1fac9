// Package main bike rental API.
//
// @title           Bike Rental API
// @version         1.0
// @description     Bike rentals with FIFO waiting lists and card payments.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"os"

	"bikerental/app/cli"
)

func main() {
	os.Exit(cli.Execute())
}
