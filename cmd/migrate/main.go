// Команда migrate управляет схемой базы данных: up, down N, force N, version.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/yourusername/habitleague-api/internal/config"
	"github.com/yourusername/habitleague-api/pkg/logger"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: migrate [-config path] [-dir migrations] up | down N | force N | version\n")
	os.Exit(2)
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", envOr("CONFIG_PATH", "config/config.yaml"), "путь к файлу конфигурации")
	dir := flag.String("dir", "migrations", "каталог с миграциями")
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New(logger.Options{Format: "text"}).WithError(err).Fatal("[Migrate] Не удалось загрузить конфигурацию")
	}
	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: "text"}).Component("Migrate")

	db, err := sql.Open("postgres", cfg.Database.PostgresConnectionString())
	if err != nil {
		log.WithError(err).Fatal("[Migrate] Не удалось открыть подключение")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.WithError(err).Fatal("[Migrate] База данных недоступна")
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.WithError(err).Fatal("[Migrate] Не удалось создать драйвер")
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+*dir, "postgres", driver)
	if err != nil {
		log.WithError(err).Fatal("[Migrate] Не удалось создать экземпляр migrate")
	}

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-stepsArg())
	case "force":
		// Снимает признак dirty после неудачной миграции
		err = m.Force(stepsArg())
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			log.WithError(verr).Fatal("[Migrate] Не удалось получить версию")
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return
	default:
		usage()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("[Migrate] Изменений нет")
		return
	}
	if err != nil {
		log.WithError(err).Fatal("[Migrate] Ошибка выполнения")
	}
	version, dirty, _ := m.Version()
	log.WithField("version", version).WithField("dirty", dirty).Info("[Migrate] Готово")
}

func stepsArg() int {
	if flag.NArg() < 2 {
		usage()
	}
	n, err := strconv.Atoi(flag.Arg(1))
	if err != nil || n < 0 {
		usage()
	}
	return n
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
