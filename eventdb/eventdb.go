// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb persists engine events into sqlite for off-chain
// reconciliation and serving. The ledger state is the source of truth; this
// store answers "why" questions the state cannot, such as which part of a
// claim was short.
package eventdb

import (
	"context"
	"database/sql"
	"math/big"

	_ "github.com/mattn/go-sqlite3"

	"github.com/levrprotocol/levr/levr"
	"github.com/levrprotocol/levr/staking"
)

// Event is a stored engine event with its assigned sequence number.
type Event struct {
	Seq       uint64       `json:"seq"`
	Kind      string       `json:"kind"`
	User      levr.Address `json:"user"`
	Token     levr.Address `json:"token"`
	Recipient levr.Address `json:"recipient"`
	Amount    *big.Int     `json:"amount"`
	Time      uint64       `json:"time"`
}

// Order of filtered results.
type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// TimeRange limits results to [From, To], in unix seconds.
type TimeRange struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// Options paginates filtered results.
type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Filter selects stored events. Zero-valued fields match everything.
type Filter struct {
	Kinds   []string       `json:"kinds"`
	Users   []levr.Address `json:"users"`
	Tokens  []levr.Address `json:"tokens"`
	Range   *TimeRange     `json:"range"`
	Order   Order          `json:"order"`
	Options *Options       `json:"options"`
}

// EventDB is a sqlite-backed event store.
type EventDB struct {
	path  string
	db    *sql.DB
	stmts *stmtCache
}

var _ staking.EventSink = (*EventDB)(nil)

// New creates or opens the event db at the given path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	if path == ":memory:" {
		// every pooled connection to :memory: opens its own database, so
		// the pool must stay at a single connection
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}
	return &EventDB{
		path:  path,
		db:    db,
		stmts: newStmtCache(db),
	}, nil
}

// NewMem creates an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

func (db *EventDB) Path() string {
	return db.path
}

func (db *EventDB) Close() error {
	db.stmts.Clear()
	return db.db.Close()
}

// Append stores the events of one completed operation in a single
// transaction.
func (db *EventDB) Append(events []*staking.Event) (err error) {
	// prepared before the transaction: while a tx holds a pooled
	// connection, preparing on the pool would need a second one
	stmt, err := db.stmts.Prepare(
		"INSERT INTO event(kind, user, token, recipient, amount, ts) VALUES(?,?,?,?,?,?)")
	if err != nil {
		return err
	}

	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, ev := range events {
		amount := new(big.Int)
		if ev.Amount != nil {
			amount = ev.Amount
		}
		if _, err = tx.Stmt(stmt).Exec(
			ev.Kind,
			ev.User.Bytes(),
			ev.Token.Bytes(),
			ev.Recipient.Bytes(),
			amount.Bytes(),
			ev.Time,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Filter queries stored events.
func (db *EventDB) Filter(ctx context.Context, filter *Filter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT seq, kind, user, token, recipient, amount, ts FROM event ORDER BY seq ASC")
	}

	var args []any
	stmt := "SELECT seq, kind, user, token, recipient, amount, ts FROM event WHERE 1"

	stmt += inClause("kind", len(filter.Kinds), func(i int) { args = append(args, filter.Kinds[i]) })
	stmt += inClause("user", len(filter.Users), func(i int) { args = append(args, filter.Users[i].Bytes()) })
	stmt += inClause("token", len(filter.Tokens), func(i int) { args = append(args, filter.Tokens[i].Bytes()) })

	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND ts >= ?"
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND ts <= ?"
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}

	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}

	return db.queryEvents(ctx, stmt, args...)
}

func inClause(column string, n int, collect func(i int)) string {
	if n == 0 {
		return ""
	}
	clause := " AND " + column + " IN ("
	for i := range n {
		if i > 0 {
			clause += ","
		}
		clause += "?"
		collect(i)
	}
	return clause + ")"
}

func (db *EventDB) queryEvents(ctx context.Context, query string, args ...any) ([]*Event, error) {
	stmt, err := db.stmts.Prepare(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			ev        Event
			user      []byte
			token     []byte
			recipient []byte
			amount    []byte
		)
		if err := rows.Scan(&ev.Seq, &ev.Kind, &user, &token, &recipient, &amount, &ev.Time); err != nil {
			return nil, err
		}
		ev.User = levr.BytesToAddress(user)
		ev.Token = levr.BytesToAddress(token)
		ev.Recipient = levr.BytesToAddress(recipient)
		ev.Amount = new(big.Int).SetBytes(amount)
		events = append(events, &ev)
	}
	return events, rows.Err()
}
