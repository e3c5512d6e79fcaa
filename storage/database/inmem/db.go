package inmemdb

import (
	"sync"

	"github.com/findmytutor/findmytutor/core/tutor"
)

type (
	DB struct {
		tutor *tutorTable
	}

	tutorRow struct {
		seq   int // insertion order, used as the final tie-breaker
		tutor tutor.Tutor
	}

	tutorTable struct {
		table map[string]*tutorRow
		seq   int
		mutex sync.RWMutex
	}
)

// Open returns an empty database living in memory.
func Open() *DB {
	return &DB{
		tutor: &tutorTable{table: make(map[string]*tutorRow)},
	}
}

// Reset drops every row.
func (db *DB) Reset() {
	db.tutor.mutex.Lock()
	defer db.tutor.mutex.Unlock()
	db.tutor.table = make(map[string]*tutorRow)
	db.tutor.seq = 0
}
