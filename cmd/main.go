package main

import (
	"log"

	"carelog/backend/foundation/web"
	"carelog/backend/internal/auth"
	"carelog/backend/internal/commands"
	"carelog/backend/internal/pkg/config"
	"carelog/backend/internal/pkg/repository/postgresql"
	"carelog/backend/internal/pkg/repository/redisdb"
	"carelog/backend/internal/router"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalln("config:", err)
	}

	postgresDB := postgresql.NewDatabase(
		cfg.DBUsername,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DisableTLS,
	)

	commands.MigrateUP(postgresDB)

	redisDB := redisdb.NewClient(cfg.RedisAddr, cfg.RedisPassword)

	authenticator := auth.New(cfg.JWTKey)

	app := web.NewApp()

	r := router.NewRouter(app, postgresDB, redisDB, cfg, authenticator)

	if err := r.Init(); err != nil {
		log.Fatalln("server:", err)
	}
}
