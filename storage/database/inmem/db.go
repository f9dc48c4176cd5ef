// Package inmemdb provides in-memory repositories for tests and for running
// the API without a database.
package inmemdb

import (
	"sync"

	"github.com/darasa-app/darasa/core/group"
	"github.com/darasa-app/darasa/core/homework"
	"github.com/darasa-app/darasa/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users    map[string]*user.User
	groups   map[string]*group.Group
	members  map[string]map[string]bool // groupID -> set of userIDs
	homework map[string]*homework.Homework
}

func NewDB() *DB {
	return &DB{
		users:    make(map[string]*user.User),
		groups:   make(map[string]*group.Group),
		members:  make(map[string]map[string]bool),
		homework: make(map[string]*homework.Homework),
	}
}
