package commands

import (
	"fmt"
	"time"

	"leadflow-backend/config"
	"leadflow-backend/logger"
	"leadflow-backend/repository"
	"leadflow-backend/scheduler"
	"leadflow-backend/services"
	"leadflow-backend/transport"
)

// app is the wired engine shared by every command.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	engine  *services.Engine
	queue   *scheduler.Client
	closers []func() error
}

func newApp(cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	store, err := a.openStore()
	if err != nil {
		a.Close()
		return nil, err
	}

	sender, err := newSender(cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.engine = services.NewEngine(store, sender, time.Now, services.EngineConfig{
		ScanConcurrency: cfg.ScanConcurrency,
		Reminder: services.ReminderConfig{
			CountryCode: cfg.ReminderCountryCode,
			Location:    cfg.Location,
		},
	}, log)

	if cfg.RedisURL != "" {
		queue, err := scheduler.NewClient(cfg.RedisURL, cfg.AsynqQueue)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("reminder queue: %w", err)
		}
		a.queue = queue
		a.closers = append(a.closers, queue.Close)
		a.engine.Reminders.SetQueue(queue)
	}

	return a, nil
}

func (a *app) openStore() (services.Store, error) {
	if a.cfg.StoreDriver == "memory" {
		a.log.Warn("using in-memory store; data is lost on exit")
		return repository.NewMemory(), nil
	}

	db, err := config.ConnectDB(a.cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, sqlDB.Close)

	if err := config.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return repository.NewGorm(db), nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close_failed", "error", err)
		}
	}
	a.closers = nil
}

// newSender builds the configured transport behind the rate limiter.
func newSender(cfg *config.Config, log *logger.Logger) (transport.Sender, error) {
	region := transport.RegionForCountryCode(cfg.ReminderCountryCode)

	var sender transport.Sender
	switch cfg.Transport {
	case "twilio":
		if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" {
			return nil, fmt.Errorf("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required for the twilio transport")
		}
		sender = transport.NewTwilio(transport.TwilioConfig{
			AccountSID:     cfg.TwilioAccountSID,
			AuthToken:      cfg.TwilioAuthToken,
			WhatsAppNumber: cfg.TwilioWhatsAppNumber,
			PhoneNumber:    cfg.TwilioPhoneNumber,
			Timeout:        cfg.TransportTimeout,
			DefaultRegion:  region,
		}, log)
	case "gowa":
		if cfg.WhatsAppURL == "" {
			return nil, fmt.Errorf("WHATSAPP_URL is required for the gowa transport")
		}
		sender = transport.NewGowa(transport.GowaConfig{
			URL:           cfg.WhatsAppURL,
			Key:           cfg.WhatsAppKey,
			DeviceID:      cfg.WhatsAppDeviceID,
			Timeout:       cfg.TransportTimeout,
			DefaultRegion: region,
		}, log)
	case "dryrun":
		sender = transport.NewDryRun(log)
	default:
		return nil, fmt.Errorf("unknown TRANSPORT %q", cfg.Transport)
	}

	return transport.NewLimited(sender, cfg.TransportRate), nil
}

// loadApp reads configuration and wires the engine.
func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return newApp(cfg, logger.New(cfg.Env))
}
