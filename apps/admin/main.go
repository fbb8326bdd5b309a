package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/calendar"
	"github.com/trezcool/masomo-admin/core/fee"
	"github.com/trezcool/masomo-admin/core/staff"
	"github.com/trezcool/masomo-admin/services/backend"
	logsvc "github.com/trezcool/masomo-admin/services/logger"
	memdb "github.com/trezcool/masomo-admin/storage/memory"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(os.Stderr, "admin", conf)
	logger.Enable(!conf.Debug)

	validate, translator := core.NewValidate()
	fee.InitValidators(validate, translator)
	calendar.InitValidators(validate, translator)
	staff.InitValidators(validate, translator)

	cli := commandLine{
		conf:       conf,
		logger:     logger,
		out:        os.Stdout,
		in:         os.Stdin,
		validate:   validate,
		translator: translator,
	}
	if conf.Backend.Offline {
		db := memdb.Open()
		if err := memdb.Seed(context.Background(), db); err != nil {
			logger.Fatal(fmt.Sprintf("seeding in-memory store: %v", err), err)
		}
		cli.feeRepo = memdb.NewFeeRepository(db)
		cli.calendarRepo = memdb.NewCalendarRepository(db)
		cli.staffRepo = memdb.NewStaffRepository(db)
	} else {
		client := backend.NewClient(conf, logger)
		cli.feeRepo = backend.NewFeeRepository(client)
		cli.calendarRepo = backend.NewCalendarRepository(client)
		cli.staffRepo = backend.NewStaffRepository(client)
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
