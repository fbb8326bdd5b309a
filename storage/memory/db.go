// Package memdb is an in-memory stand-in for the school backend.
// It serves the API in offline mode and backs the handler tests.
package memdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/masomo-admin/core/calendar"
	"github.com/trezcool/masomo-admin/core/fee"
	"github.com/trezcool/masomo-admin/core/staff"
)

type (
	DB struct {
		calendar *calendarTable
		fee      *feeTable
		staff    *staffTable
	}

	calendarTable struct {
		years []*calendar.AcademicYear // insertion order
		mutex sync.RWMutex
	}

	feeTable struct {
		buckets     []*fee.FeeBucket
		structures  []*fee.FeeStructure
		gradeLevels []fee.GradeLevel
		mutex       sync.RWMutex
	}

	staffTable struct {
		t     []*staff.Staff
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		calendar: &calendarTable{},
		fee:      &feeTable{},
		staff:    &staffTable{},
	}
}

func newID() string {
	return uuid.New().String()
}
