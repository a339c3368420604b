package dummydb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/content"
	"github.com/trezcool/shulesite/core/post"
	"github.com/trezcool/shulesite/core/settings"
	"github.com/trezcool/shulesite/core/staff"
	"github.com/trezcool/shulesite/core/user"
)

type (
	DB struct {
		user     *userTable
		content  *contentTable
		post     *postTable
		staff    *staffTable
		settings *settingsTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	contentTable struct {
		sync.RWMutex
		table map[string]*content.Record
	}

	postTable struct {
		sync.RWMutex
		table map[string]*post.Post
	}

	staffTable struct {
		sync.RWMutex
		table map[string]*staff.Member
	}

	settingsTable struct {
		sync.RWMutex
		settings map[string]*settings.Setting // key: namespace + "/" + key
		flags    map[string]*settings.Flag
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:    &userTable{table: make(map[string]*user.User)},
		content: &contentTable{table: make(map[string]*content.Record)},
		post:    &postTable{table: make(map[string]*post.Post)},
		staff:   &staffTable{table: make(map[string]*staff.Member)},
		settings: &settingsTable{
			settings: make(map[string]*settings.Setting),
			flags:    make(map[string]*settings.Flag),
		},
	}
	return db, nil
}

var _ core.TxBeginner = (*DB)(nil) // interface compliance check

// BeginTransaction returns a no-op transactor; the repositories here apply
// batch writes all-or-nothing under their own table lock instead.
func (db *DB) BeginTransaction(context.Context) (core.DBTransactor, error) {
	return nopTx{}, nil
}

type nopTx struct{}

func (nopTx) Exec(string, ...interface{}) (sql.Result, error) { return nil, nil }
func (nopTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (nopTx) Query(string, ...interface{}) (*sql.Rows, error) { return nil, nil }
func (nopTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (nopTx) QueryRow(string, ...interface{}) *sql.Row                      { return nil }
func (nopTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }
func (nopTx) Commit() error                                                 { return nil }
func (nopTx) Rollback() error                                               { return nil }
