package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	auth "github.com/coursehub/auth"
	"github.com/coursehub/auth/config"
	"github.com/coursehub/auth/persistence"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/uptrace/bun"
)

type App struct {
	config *config.Config
	bunDB  *bun.DB
	logger auth.ZapLogger
	srv    *fiber.App
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := auth.BuildZapLogger(auth.LoggerOptions{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	app := &App{
		config: cfg,
		logger: auth.NewZapLogger(zl),
	}
	defer func() { _ = app.logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer stop()

	if err := app.run(ctx); err != nil {
		app.logger.Error("server stopped", "error", err)
		_ = app.logger.Sync()
		os.Exit(1)
	}
}

func (a *App) run(ctx context.Context) error {
	if err := a.withPersistence(ctx); err != nil {
		return err
	}
	defer a.bunDB.Close()

	if err := a.withServer(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", a.config.Addr())
		errCh <- a.srv.Listen(a.config.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", "timeout", a.config.ShutdownTimeout)
	return a.srv.ShutdownWithTimeout(a.config.ShutdownTimeout)
}

func (a *App) withPersistence(ctx context.Context) error {
	db, err := persistence.OpenAndMigrate(ctx, persistence.Options{
		Driver: a.config.DBDriver,
		DSN:    a.config.DBDSN,
		Logger: a.logger.Named("persistence"),
		Debug:  a.config.Debug,
	})
	if err != nil {
		return fmt.Errorf("persistence: %w", err)
	}
	a.bunDB = db
	return nil
}

func (a *App) withServer() error {
	tokens, err := auth.NewTokenService(
		[]byte(a.config.GetSigningKey()),
		a.config.GetTokenTTL(),
		a.config.GetIssuer(),
		a.logger.Named("tokens"),
	)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	users := auth.NewUsersRepository(a.bunDB)
	hasher := auth.NewBcryptHasher(a.config.GetBcryptCost())
	activity := auth.LoggerActivitySink{Logger: a.logger.Named("activity")}

	auther := auth.NewAuthenticator(users, tokens, a.config).
		WithLogger(a.logger.Named("auth")).
		WithPasswordHasher(hasher).
		WithActivitySink(activity)

	registrar := auth.NewRegisterUserHandler(users, hasher,
		auth.WithRegisterLogger(a.logger.Named("register")),
		auth.WithAllowedRoles(a.config.GetAllowedRoles()...),
		auth.WithHashidIDs(a.config.GetUseHashid()),
		auth.WithRegisterActivitySink(activity),
	)

	guard := auth.NewHTTPAuthenticator(auther, a.config).
		WithLogger(a.logger.Named("guard"))

	a.srv = fiber.New(fiber.Config{
		AppName:               "coursehub-auth",
		BodyLimit:             a.config.BodyLimit,
		DisableStartupMessage: true,
	})
	a.srv.Use(recover.New())
	a.srv.Use(cors.New())

	a.srv.Get("/", auth.Index)

	auth.RegisterAuthRoutes(a.srv,
		auth.WithControllerLogger(a.logger.Named("auth:ctrl")),
		auth.WithControllerDebug(a.config.Debug),
		auth.WithUsers(users),
		auth.WithRegistrar(registrar),
		auth.WithAuthenticator(auther),
		auth.WithGuard(guard),
		auth.WithListRole(a.config.ListRole),
	)

	return nil
}
