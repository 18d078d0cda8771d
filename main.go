package main

import "iconbuzzer/internal/app"

// @title           IconBuzzer API
// @version         1.0
// @description     Account management and icon catalog service.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	app.Run()
}
