package sink

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/OPENER-next/OpenStop-stats/parser/changeset"
)

// Postgres writes changeset rows into a single table, one TEXT column
// per row column. All rows of a run are inserted in one transaction
// that is committed by Close, also after a failed run.
type Postgres struct {
	db    *sql.DB
	tx    *sql.Tx
	stmt  *sql.Stmt
	table string
}

// NewPostgres connects using a libpq URL or key/value connection
// string, creates the table if needed and prepares the insert.
func NewPostgres(connection, table string) (*Postgres, error) {
	params := connection
	if strings.HasPrefix(params, "postgres://") || strings.HasPrefix(params, "postgresql://") {
		var err error
		params, err = pq.ParseURL(params)
		if err != nil {
			return nil, errors.Wrap(err, "parsing connection URL")
		}
	}

	db, err := sql.Open("postgres", params)
	if err != nil {
		return nil, errors.Wrap(err, "opening connection")
	}

	s := &Postgres{db: db, table: table}
	if _, err := db.Exec(s.createTableSQL()); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "creating table %q", table)
	}

	s.tx, err = db.Begin()
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "starting transaction")
	}
	s.stmt, err = s.tx.Prepare(s.insertSQL())
	if err != nil {
		s.tx.Rollback()
		db.Close()
		return nil, errors.Wrap(err, "preparing insert")
	}
	return s, nil
}

func (s *Postgres) createTableSQL() string {
	cols := []string{}
	for _, col := range changeset.Header() {
		cols = append(cols, fmt.Sprintf("\"%s\" TEXT", col))
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" (%s)`,
		s.table, strings.Join(cols, ", "))
}

func (s *Postgres) insertSQL() string {
	cols := []string{}
	vars := []string{}
	for i, col := range changeset.Header() {
		cols = append(cols, "\""+col+"\"")
		vars = append(vars, fmt.Sprintf("$%d", i+1))
	}
	return fmt.Sprintf(`INSERT INTO "%s" (%s) VALUES (%s)`,
		s.table, strings.Join(cols, ", "), strings.Join(vars, ", "))
}

func (s *Postgres) Append(row []string) error {
	vals := make([]interface{}, len(row))
	for i, v := range row {
		vals[i] = v
	}
	if _, err := s.stmt.Exec(vals...); err != nil {
		return errors.Wrapf(err, "inserting into %q", s.table)
	}
	return nil
}

func (s *Postgres) Close() error {
	err := s.tx.Commit()
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "closing Postgres sink")
}
