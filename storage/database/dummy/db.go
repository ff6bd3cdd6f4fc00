// Package dummydb provides in-memory repositories for tests and local development.
package dummydb

import (
	"sync"

	"github.com/trezcool/soma/core/course"
	"github.com/trezcool/soma/core/enrollment"
	"github.com/trezcool/soma/core/user"
)

// DB is an in-memory database; a single lock guards all tables so that joins stay consistent.
type DB struct {
	sync.RWMutex
	users       map[string]*user.User
	courses     map[string]*course.Course
	enrollments map[string]*enrollment.Enrollment
}

func Open() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		courses:     make(map[string]*course.Course),
		enrollments: make(map[string]*enrollment.Enrollment),
	}
}

// Reset empties all tables.
func (db *DB) Reset() {
	db.Lock()
	defer db.Unlock()
	db.users = make(map[string]*user.User)
	db.courses = make(map[string]*course.Course)
	db.enrollments = make(map[string]*enrollment.Enrollment)
}
