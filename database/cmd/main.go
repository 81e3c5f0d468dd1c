package main

import (
	"flag"

	"tabib.link/configs"
	"tabib.link/configs/configsdatabase"
	"tabib.link/configs/configslog"
	"tabib.link/database"
)

func main() {
	configslog.InitLogger()
	defer configslog.SyncLogger()

	migrateFlag := flag.Bool("migrate", false, "run the database migrations")
	seedFlag := flag.Bool("seed", false, "run the idempotent seeders")
	flag.Parse()

	configs.Load()
	configsdatabase.InitDB()
	defer configsdatabase.CloseDB()

	db := configsdatabase.GetDB()

	configslog.SLog.Info("Running database initialization...")
	database.Initialize(db, *migrateFlag, *seedFlag)
	configslog.SLog.Info("Database initialization done")
}
