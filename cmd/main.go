package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"

	"github.com/coution-app/be-kb-platform/config"
	"github.com/coution-app/be-kb-platform/pkg/apperrors"
	"github.com/coution-app/be-kb-platform/pkg/logger"
	"github.com/coution-app/be-kb-platform/routes"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/main.go [server|migrate]")
		os.Exit(1)
	}

	config.InitConfig()

	logger.Init(logger.Config{
		Level:       logger.Level(viper.GetString("LOG_LEVEL")),
		Environment: viper.GetString("ENV"),
		ServiceName: "coution-kb",
		Version:     viper.GetString("VERSION"),
	})

	config.InitDBs()
	defer config.CloseDBs()

	switch os.Args[1] {
	case "server":
		config.InitRedis()
		startServer()
	case "migrate":
		config.MigrateKB()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func startServer() {
	log := logger.Get()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperrors.HTTPErrorHandler(log)

	e.Use(logger.RequestLoggerMiddleware(log))
	e.Use(logger.RecoveryMiddleware(log))

	origins := []string{"http://localhost:5173", "http://localhost:3000"}
	if extra := viper.GetString("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PATCH, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{echo.HeaderContentLength},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	routes.RegisterRoutes(e)

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info("Starting server", logger.String("port", port))
	e.Logger.Fatal(e.Start(":" + port))
}
