package cmd

import (
	"context"
	"fmt"
	"time"

	"prosorter/api"
	"prosorter/config"
	"prosorter/database"
	"prosorter/domain/entities"
	"prosorter/domain/services"
	"prosorter/infrastructure/channels"
	"prosorter/infrastructure/device"
	"prosorter/infrastructure/dispatcher"
	"prosorter/infrastructure/export"
	"prosorter/infrastructure/redisstore"
	"prosorter/infrastructure/scheduler"
	"prosorter/repository"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	log.WithField("environment", cfg.Environment).Info("starting prosorter")

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	// Storage
	store, err := redisstore.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer store.Close()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	activityRepo := repository.NewActivityRepository(db)

	// Event fan-out
	bus := dispatcher.NewBus()

	// Domain services
	ledger, err := services.NewLedgerService(ctx, store, activityRepo, bus)
	if err != nil {
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}

	sms := channels.NewSMSChannel(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	email := channels.NewEmailChannel(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	notifier, err := services.NewNotificationService(ctx, store, sms, email)
	if err != nil {
		return fmt.Errorf("failed to initialize notifications: %w", err)
	}

	deviceClient := device.NewClient(store)
	dispatcher.RegisterLedgerHandlers(bus, deviceClient, notifier)

	renderer := export.NewRenderer()
	reports := services.NewReportService(renderer, location)

	sink, err := export.NewSink(cfg.ReportsDir)
	if err != nil {
		return fmt.Errorf("failed to initialize report archive: %w", err)
	}

	// Daily maintenance
	daily := scheduler.New(location,
		scheduler.Job{Name: "ledger-backup", Run: ledger.SnapshotBackup},
		scheduler.Job{Name: "report-cleanup", Run: func(ctx context.Context) error {
			removed, err := sink.CleanupExpired()
			if removed > 0 {
				log.WithField("removed", removed).Info("expired reports removed")
			}
			return err
		}},
		scheduler.Job{Name: "daily-report-email", Run: func(ctx context.Context) error {
			settings := notifier.Settings()
			if !settings.EmailEnabled || len(settings.EmailAddresses) == 0 {
				return nil
			}

			// The job fires just past midnight; report on the day that ended.
			today := reports.Daily(time.Now().In(location))
			window := entities.ReportWindow{Start: today.Start.AddDate(0, 0, -1), End: today.Start}
			activities, err := activityRepo.Query(ctx, entities.ActivityFilter{From: window.Start, To: window.End})
			if err != nil {
				return fmt.Errorf("failed to load activities for daily summary: %w", err)
			}

			report := reports.BuildReport(activities, ledger.GetSnapshot(), window)
			body := fmt.Sprintf(
				"<h2>ProSorter Daily Summary - %s</h2>"+
					"<p><strong>Total actions:</strong> %d</p>"+
					"<p><strong>Active users:</strong> %d</p>"+
					"<p><strong>Inventory total:</strong> Rs. %d</p>",
				window.Start.Format("2006-01-02"),
				report.TotalActions, len(report.UserBreakdown),
				report.Inventory.TotalAmount,
			)
			for _, target := range settings.EmailAddresses {
				if err := email.Send(ctx, target, body); err != nil {
					log.WithError(err).WithField("target", target).Warn("daily summary email failed")
				}
			}
			return nil
		}},
	)
	daily.Start()
	defer daily.Stop()

	// HTTP shell
	server := api.NewServer(cfg.ListenAddr, ledger, activityRepo, notifier, reports, deviceClient, sink)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP shutdown incomplete")
	}

	// Let in-flight device pushes and alerts finish.
	bus.Wait()
	return nil
}
