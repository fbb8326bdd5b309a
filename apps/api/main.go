package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/trezcool/masomo-admin/apps/api/echo"
	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/calendar"
	"github.com/trezcool/masomo-admin/core/fee"
	"github.com/trezcool/masomo-admin/core/staff"
	"github.com/trezcool/masomo-admin/services/backend"
	emailsvc "github.com/trezcool/masomo-admin/services/email"
	logsvc "github.com/trezcool/masomo-admin/services/logger"
	memdb "github.com/trezcool/masomo-admin/storage/memory"
)

type repositories struct {
	fee      fee.Repository
	calendar calendar.Repository
	staff    staff.Repository
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(os.Stdout, "api", conf)
	logger.Enable(!conf.Debug)

	repos, err := setUpRepositories(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up repositories: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger, os.Stdout)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidate()
	fee.InitValidators(validate, translator)
	calendar.InitValidators(validate, translator)
	staff.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("backend").Set(conf.Backend.GraphQLEndpoint)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			Validate:     validate,
			Translator:   translator,
			FeeSvc:       fee.NewService(repos.fee, validate, logger),
			CalendarRepo: repos.calendar,
			StaffSvc:     staff.NewService(repos.staff, validate, logger),
			MailSvc:      mailSvc,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpRepositories talks to the backend, or to a seeded in-memory store when running offline.
func setUpRepositories(conf *core.Config, logger core.Logger) (repositories, error) {
	if conf.Backend.Offline {
		db := memdb.Open()
		if err := memdb.Seed(context.Background(), db); err != nil {
			return repositories{}, err
		}
		logger.Warn("backend offline: serving from the in-memory store")
		return repositories{
			fee:      memdb.NewFeeRepository(db),
			calendar: memdb.NewCalendarRepository(db),
			staff:    memdb.NewStaffRepository(db),
		}, nil
	}

	client := backend.NewClient(conf, logger)
	return repositories{
		fee:      backend.NewFeeRepository(client),
		calendar: backend.NewCalendarRepository(client),
		staff:    backend.NewStaffRepository(client),
	}, nil
}
