package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/mail"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
	"github.com/suhendararyadi/lppm-iaipi-mhs/config"
	"github.com/suhendararyadi/lppm-iaipi-mhs/db"
	"github.com/suhendararyadi/lppm-iaipi-mhs/helper"
	"github.com/suhendararyadi/lppm-iaipi-mhs/route"
)

func main() {
	config.LoadEnv()
	config.Logger()
	helper.InitReporter()
	defer helper.CloseReporter()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect storage: %v", err)
	}
	defer db.Close(context.Background())

	if config.Env.Storage != config.StorageMemory {
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate: %v", err)
		}
	}

	files, err := repo.NewLocalFileRepo(config.Env.UploadDir)
	if err != nil {
		log.Fatalf("Failed to prepare upload directory: %v", err)
	}

	notifier := mail.NewNotifier(mail.New())
	defer notifier.Wait()

	app := config.NewApp(helper.ErrorHandler)

	route.SetupRoutes(app, repos, files, notifier)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(config.Env.AppName)
	})

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	if err := app.Listen(":" + config.Env.AppPort); err != nil {
		log.Fatal(err)
	}
}
