package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/adill-v/HireLinkBack/internal/config"
	"github.com/adill-v/HireLinkBack/internal/database"
	"github.com/adill-v/HireLinkBack/internal/routes"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DBUrl == "" {
		log.Fatal("DB_URL must be set")
	}

	if err := database.ConnectDB(cfg); err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.CloseDB()

	app := fiber.New(fiber.Config{AppName: "hirelink-chat"})
	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	routes.RegisterRoutes(app, cfg, database.DB)

	log.Printf("listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
