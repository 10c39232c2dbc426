package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	echoapi "github.com/strikeric11/grellic/apps/api/echo"
	"github.com/strikeric11/grellic/core"
	"github.com/strikeric11/grellic/core/clock"
	"github.com/strikeric11/grellic/core/schedule"
	cachesvc "github.com/strikeric11/grellic/services/cache"
	emailsvc "github.com/strikeric11/grellic/services/email"
	logsvc "github.com/strikeric11/grellic/services/logger"
	metricsvc "github.com/strikeric11/grellic/services/metrics"
	"github.com/strikeric11/grellic/services/timesrc"
	"github.com/strikeric11/grellic/storage/database"
	inmemdb "github.com/strikeric11/grellic/storage/database/inmem"
	sqlxrepos "github.com/strikeric11/grellic/storage/database/sqlx"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	ClockLoggerParam struct {
		dig.In
		Logger core.Logger `name:"clockLogger"`
	}

	serverParams struct {
		dig.In
		Conf        *core.Config
		Logger      core.Logger
		Validate    *validator.Validate
		Translator  ut.Translator
		Clock       *clock.DurationClock
		Display     clock.Display
		ScheduleSvc *schedule.Service
	}
)

func newRollbarLogger(conf *core.Config, prefix string) core.Logger {
	stdLogger := log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newLogger(conf *core.Config) core.Logger      { return newRollbarLogger(conf, "API : ") }
func newDBLogger(conf *core.Config) core.Logger    { return newRollbarLogger(conf, "DB : ") }
func newClockLogger(conf *core.Config) core.Logger { return newRollbarLogger(conf, "CLOCK : ") }

// newDB returns a nil *sqlx.DB with the in-memory engine.
func newDB(conf *core.Config, loggerParam DBLoggerParam) (schedule.Repository, *sqlx.DB) {
	if conf.Database.Engine == database.EngineMemory {
		return inmemdb.NewScheduleRepository(inmemdb.Open()), nil
	}

	setUp := func() (*sqlx.DB, error) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		db, err := database.Open(ctx, conf.Database)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(ctx, db, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return sqlxrepos.NewScheduleRepository(db), db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newViewCache(conf *core.Config) (*cachesvc.ViewCache, schedule.Cache, error) {
	cache, err := cachesvc.NewViewCache(context.Background(), conf.Schedule.CacheTTL)
	if err != nil {
		return nil, nil, err
	}
	return cache, cache, nil
}

func newDisplay(conf *core.Config) clock.Display {
	return clock.NewDisplay(conf.Clock.DisplayOffset)
}

func newClock(conf *core.Config) (*clock.DurationClock, error) {
	src, err := timesrc.New(conf.Clock)
	if err != nil {
		return nil, err
	}
	return clock.New(src, clock.Options{
		StaleAfter:        conf.Clock.StaleAfter,
		CompensateLatency: conf.Clock.CompensateLatency,
	})
}

func newScheduleService(
	conf *core.Config,
	repo schedule.Repository,
	cache schedule.Cache,
	display clock.Display,
	logger core.Logger,
) *schedule.Service {
	return schedule.NewService(repo, cache, display, conf.Schedule, logger)
}

func newTracker(
	conf *core.Config,
	svc *schedule.Service,
	c *clock.DurationClock,
	mailer core.EmailService,
	loggerParam ClockLoggerParam,
) (*schedule.Tracker, error) {
	announce, err := core.ParseAddresses(conf.Email.Announce)
	if err != nil {
		return nil, errors.Wrap(err, "parsing email.announce")
	}
	return schedule.NewTracker(svc, c, mailer, announce, loggerParam.Logger), nil
}

func newMetrics(cache *cachesvc.ViewCache) (*prometheus.Registry, *metricsvc.ClockMetrics, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m, err := metricsvc.NewClockMetrics(reg)
	if err != nil {
		return nil, nil, err
	}
	if err = metricsvc.RegisterCacheEntries(reg, cache.Len); err != nil {
		return nil, nil, err
	}
	return reg, m, nil
}

// newWatcher drives the server clock: every sync refreshes the tracked schedules,
// every crossing invalidates their cached views.
func newWatcher(
	conf *core.Config,
	c *clock.DurationClock,
	tracker *schedule.Tracker,
	metrics *metricsvc.ClockMetrics,
	loggerParam ClockLoggerParam,
) *clock.Watcher {
	logger := loggerParam.Logger
	hookCtx := func() (context.Context, context.CancelFunc) {
		return context.WithTimeout(context.Background(), conf.Clock.SyncTimeout)
	}

	return clock.NewWatcher(c, clock.WatcherOptions{
		Interval:    conf.Clock.TickInterval,
		SyncTimeout: conf.Clock.SyncTimeout,
		Logger:      logger,
		OnSync: func(serverNow time.Time) {
			metrics.ObserveSync(serverNow, c.Offset())
			ctx, cancel := hookCtx()
			defer cancel()
			if err := tracker.Refresh(ctx, serverNow); err != nil {
				logger.Warn("refreshing schedules", err)
			}
		},
		OnSyncError: func(error) { metrics.ObserveSyncError() },
		OnThresholdCrossed: func(target clock.Target) {
			metrics.ObserveCrossing()
			ctx, cancel := hookCtx()
			defer cancel()
			tracker.Crossed(ctx, target)
		},
	})
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(p.Conf, &echoapi.Deps{
		Logger:      p.Logger,
		Validate:    p.Validate,
		Translator:  p.Translator,
		Clock:       p.Clock,
		Display:     p.Display,
		ScheduleSvc: p.ScheduleSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newClockLogger, dig.Name("clockLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(newViewCache))
	must(c.Provide(newDisplay))
	must(c.Provide(newClock))
	must(c.Provide(newScheduleService))
	must(c.Provide(newTracker))
	must(c.Provide(newMetrics))
	must(c.Provide(newWatcher))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
