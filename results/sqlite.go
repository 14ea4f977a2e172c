package results

import (
	"database/sql"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/YuminosukeSato/regbench/pkg/errors"
)

// Sink receives a completed results table.
type Sink interface {
	Save(t *Table) error
}

const schema = `
CREATE TABLE IF NOT EXISTS results (
	model_type         TEXT NOT NULL,
	dataset_type       TEXT NOT NULL,
	preprocessing_type TEXT NOT NULL,
	params             TEXT NOT NULL,
	r2_train           REAL,
	r2_test            REAL,
	mse_train          REAL,
	mse_test           REAL,
	rmse_train         REAL,
	rmse_test          REAL,
	rae_train          REAL,
	rae_test           REAL,
	position           INTEGER NOT NULL,
	PRIMARY KEY (model_type, dataset_type, preprocessing_type)
);`

// SQLiteStore keeps the latest results of every model kind in one SQLite
// database. Saving a table replaces the previous rows of that model kind.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init results table")
	}
	return &SQLiteStore{db: db}, nil
}

// Save implements Sink.
func (s *SQLiteStore) Save(t *Table) error {
	return s.Replace(t)
}

// Replace deletes the stored rows of t.Model and inserts t's rows in one
// transaction.
func (s *SQLiteStore) Replace(t *Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	if _, err := tx.Exec("DELETE FROM results WHERE model_type = ?", t.Model); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "delete %s rows", t.Model)
	}

	stmt, err := tx.Prepare(`INSERT INTO results (model_type, dataset_type, preprocessing_type, params,
		r2_train, r2_test, mse_train, mse_test, rmse_train, rmse_test, rae_train, rae_test, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for i, r := range t.Rows {
		m := r.Metrics
		if _, err := stmt.Exec(r.ModelType, r.DatasetType, r.PreprocessingType, r.Params,
			m.R2Train, m.R2Test, m.MSETrain, m.MSETest, m.RMSETrain, m.RMSETest, m.RAETrain, m.RAETest, i); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "insert %s/%s", r.DatasetType, r.PreprocessingType)
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// Load returns the stored table of a model kind in insertion order. A model
// kind with no rows yields an empty table.
func (s *SQLiteStore) Load(model string) (*Table, error) {
	rows, err := s.db.Query(`SELECT model_type, dataset_type, preprocessing_type, params,
		r2_train, r2_test, mse_train, mse_test, rmse_train, rmse_test, rae_train, rae_test
		FROM results WHERE model_type = ? ORDER BY position ASC`, model)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", model)
	}
	defer rows.Close()

	t := NewTable(model)
	for rows.Next() {
		var r Row
		m := &r.Metrics
		if err := rows.Scan(&r.ModelType, &r.DatasetType, &r.PreprocessingType, &r.Params,
			&m.R2Train, &m.R2Test, &m.MSETrain, &m.MSETest, &m.RMSETrain, &m.RMSETest, &m.RAETrain, &m.RAETest); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}
		t.Append(r)
	}
	return t, errors.Wrap(rows.Err(), "iterate rows")
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
