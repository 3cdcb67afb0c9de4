package main

import "github.com/ruhafzazahedi/shield/internal/app"

// @title           Shield Auth API
// @version         1.0
// @description     Сервис аутентификации: пароль, SMS-коды, активация и magic-link.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	app.Run()
}
