package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/strikeric11/grellic/core/schedule"
)

type (
	DB struct {
		schedule *scheduleTable
	}

	scheduleTable struct {
		mutex sync.RWMutex
		table map[uuid.UUID]schedule.Schedule
	}
)

func Open() *DB {
	return &DB{
		schedule: &scheduleTable{table: make(map[uuid.UUID]schedule.Schedule)},
	}
}
