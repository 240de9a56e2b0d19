package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/hearthkeep/hearthkeep/internal/auth"
	"github.com/hearthkeep/hearthkeep/internal/coordinator"
	"github.com/hearthkeep/hearthkeep/internal/middleware"
	"github.com/hearthkeep/hearthkeep/internal/service"
	"github.com/hearthkeep/hearthkeep/internal/storage"
	"github.com/hearthkeep/hearthkeep/internal/storage/jsonfile"
	"github.com/hearthkeep/hearthkeep/pkg/logging"
)

const tokenDuration = 24 * time.Hour

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	dataPath := getEnv("DATA_PATH", "./data")
	port := getEnv("PORT", "8080")
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	stores, err := jsonfile.Open(storage.DefaultConfig(dataPath))
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	slog.Info("storage initialized", "data_path", dataPath)

	coord := coordinator.New(
		stores.Users,
		stores.Groups,
		stores.UserToDoLists,
		stores.GroupToDoLists,
		stores.Expenses,
		stores.GroupExpenses,
	)
	jwtManager := auth.NewJWTManager(jwtSecret, tokenDuration)
	authenticator := auth.NewPasswordAuthenticator(stores.Users, coord)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Metrics())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	public := e.Group("/api")
	service.NewAuthService(authenticator, jwtManager).Register(public)

	protected := e.Group("/api", middleware.RequireAuth(jwtManager))
	service.NewGroupService(coord, stores.Users, stores.Groups).Register(protected)
	service.NewToDoService(stores.UserToDoLists, stores.GroupToDoLists).Register(protected)
	service.NewExpenseService(coord, stores.Expenses, stores.GroupExpenses).Register(protected)
	service.NewChatService(stores.Chats).Register(protected)

	addr := fmt.Sprintf(":%s", port)
	server := &http.Server{
		Addr:    addr,
		Handler: h2c.NewHandler(e, &http2.Server{}),
	}

	slog.Info("server starting", "address", addr)
	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
