// Команда lifecycle запускает операции жизненного цикла без HTTP-сервера:
//
//	lifecycle run [-date YYYY-MM-DD]   проход за дату (по умолчанию вчера)
//	lifecycle pool -challenge ID       состояние призового фонда
//	lifecycle reconcile                повтор невыплаченных призов
//	lifecycle token -email EMAIL       токен доступа для существующего пользователя
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/habitleague-api/internal/app"
	"github.com/yourusername/habitleague-api/internal/config"
	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/service/lifecycle"
	"github.com/yourusername/habitleague-api/pkg/logger"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: lifecycle run [-date YYYY-MM-DD] | pool -challenge ID | reconcile | token -email EMAIL")
	os.Exit(2)
}

func main() {
	_ = godotenv.Load()
	if len(os.Args) < 2 {
		usage()
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}
	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	cliLog := log.Component("CLI")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log.Logger, app.Options{})
	if err != nil {
		cliLog.WithError(err).Fatal("Failed to initialize application")
	}
	defer a.Close()

	// Триггеры достижений обрабатываются и в CLI; очередь дочищается перед выходом
	a.Dispatcher.Start()
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Dispatcher.Stop(drainCtx); err != nil {
			cliLog.WithError(err).Warn("Очередь достижений не дочищена")
		}
	}()

	if err := run(ctx, a, os.Args[1], os.Args[2:]); err != nil {
		cliLog.WithError(err).Error("Команда завершилась с ошибкой")
		// defer не выполнится после os.Exit, поэтому закрываем вручную
		a.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, cmd string, args []string) error {
	switch cmd {
	case "run":
		fs := flag.NewFlagSet("run", flag.ExitOnError)
		date := fs.String("date", "", "дата прохода YYYY-MM-DD, по умолчанию вчера")
		_ = fs.Parse(args)

		var (
			summary *lifecycle.RunSummary
			err     error
		)
		if *date == "" {
			summary, err = a.Engine.PerformDailyCheck(ctx, lifecycle.TriggerCLI)
		} else {
			day, parseErr := time.ParseInLocation(entity.DateLayout, *date, time.UTC)
			if parseErr != nil {
				return fmt.Errorf("invalid -date: %w", parseErr)
			}
			summary, err = a.Engine.RunForDate(ctx, day, lifecycle.TriggerCLI)
		}
		if err != nil {
			return err
		}
		return printJSON(summary)

	case "pool":
		fs := flag.NewFlagSet("pool", flag.ExitOnError)
		challengeID := fs.Uint("challenge", 0, "ID челленджа")
		_ = fs.Parse(args)
		if *challengeID == 0 {
			return fmt.Errorf("-challenge is required")
		}
		status, err := a.Engine.PoolStatus(ctx, uint(*challengeID))
		if err != nil {
			return err
		}
		return printJSON(status)

	case "reconcile":
		summary, err := a.Engine.ReconcileUnpaid(ctx)
		if err != nil {
			return err
		}
		return printJSON(summary)

	case "token":
		fs := flag.NewFlagSet("token", flag.ExitOnError)
		email := fs.String("email", "", "email существующего пользователя")
		_ = fs.Parse(args)
		token, user, err := a.Users.IssueToken(ctx, *email)
		if err != nil {
			return err
		}
		return printJSON(map[string]interface{}{"user_id": user.ID, "token": token})

	default:
		usage()
		return nil
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
