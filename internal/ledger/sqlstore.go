package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fpattend/internal/store"
)

// SQLStore persists the ledger in Postgres or SQLite. Atomic operations run
// in a transaction that holds a lock on the key they mutate.
type SQLStore struct {
	db *sql.DB
	d  store.Dialect
}

// NewSQLStore creates a store speaking dialect d.
func NewSQLStore(db *sql.DB, d store.Dialect) *SQLStore {
	return &SQLStore{db: db, d: d}
}

// NewPostgresStore creates a store over an open pgx-backed *sql.DB.
func NewPostgresStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, d: store.Postgres}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AddPending inserts p and returns it with its insertion sequence.
func (s *SQLStore) AddPending(ctx context.Context, p PendingEnrollment) (PendingEnrollment, error) {
	p.Status = StatusPending
	row := s.db.QueryRowContext(ctx, s.d.Rebind(`
		INSERT INTO pending_enrollments (id, name, department, status, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING seq
	`), p.ID, p.Name, p.Department, p.Status, p.CreatedAt)
	if err := row.Scan(&p.Seq); err != nil {
		return PendingEnrollment{}, fmt.Errorf("insert pending enrollment: %w", err)
	}
	return p, nil
}

// ListPending returns outstanding enrollments, newest first.
func (s *SQLStore) ListPending(ctx context.Context) ([]PendingEnrollment, error) {
	return s.listPending(ctx, s.db, "")
}

func (s *SQLStore) listPending(ctx context.Context, q querier, lock string) ([]PendingEnrollment, error) {
	rows, err := q.QueryContext(ctx, s.d.Rebind(`
		SELECT seq, id, name, department, status, created_at
		FROM pending_enrollments
		WHERE status = 'pending'
		ORDER BY created_at DESC, seq DESC`+lock))
	if err != nil {
		return nil, fmt.Errorf("list pending enrollments: %w", err)
	}
	defer rows.Close()
	return scanPending(rows)
}

// Finalize locks every outstanding pending row so concurrent finalizers
// serialize, then inserts the person and deletes the consumed row.
func (s *SQLStore) Finalize(ctx context.Context, biometricID int, fn ChooseFunc) (Person, error) {
	var out Person
	err := store.InTx(ctx, s.db, "finalize", func(tx *sql.Tx) error {
		pending, err := s.listPending(ctx, tx, "{lock}")
		if err != nil {
			return err
		}

		var exists bool
		if err := tx.QueryRowContext(ctx, s.d.Rebind(`SELECT EXISTS (SELECT 1 FROM persons WHERE biometric_id = ?)`), biometricID).Scan(&exists); err != nil {
			return fmt.Errorf("check biometric id: %w", err)
		}
		if exists {
			return ErrBiometricTaken
		}

		pendingID, p, err := fn(pending)
		if err != nil {
			return err
		}
		p.BiometricID = biometricID
		p.Attendance = nil

		if _, err := tx.ExecContext(ctx, s.d.Rebind(`
			INSERT INTO persons (id, name, department, biometric_id, created_at)
			VALUES (?, ?, ?, ?, ?)
		`), p.ID, p.Name, p.Department, p.BiometricID, p.CreatedAt); err != nil {
			if s.d.IsUnique(err) {
				return ErrBiometricTaken
			}
			return fmt.Errorf("insert person: %w", err)
		}

		res, err := tx.ExecContext(ctx, s.d.Rebind(`DELETE FROM pending_enrollments WHERE id = ?`), pendingID)
		if err != nil {
			return fmt.Errorf("delete pending enrollment: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("delete pending rows affected: %w", err)
		} else if n != 1 {
			return ErrPendingMissing
		}
		out = p
		return nil
	})
	if err != nil {
		return Person{}, err
	}
	return out, nil
}

// PersonByBiometric looks a person up by fingerprint id.
func (s *SQLStore) PersonByBiometric(ctx context.Context, biometricID int) (Person, error) {
	row := s.db.QueryRowContext(ctx, s.d.Rebind(`
		SELECT id, name, department, biometric_id, created_at
		FROM persons WHERE biometric_id = ?
	`), biometricID)
	var p Person
	if err := row.Scan(&p.ID, &p.Name, &p.Department, &p.BiometricID, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Person{}, ErrNotFound
		}
		return Person{}, fmt.Errorf("find person: %w", err)
	}
	return p, nil
}

// ListPersons returns all persons with their attendance, oldest first.
func (s *SQLStore) ListPersons(ctx context.Context) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, department, biometric_id, created_at
		FROM persons
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var persons []Person
	index := make(map[string]int)
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Department, &p.BiometricID, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Attendance = make(map[string]DayRecord)
		index[p.ID] = len(persons)
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	dayRows, err := s.db.QueryContext(ctx, `SELECT person_id, day, check_in, check_out, working_hours FROM day_records`)
	if err != nil {
		return nil, fmt.Errorf("list day records: %w", err)
	}
	defer dayRows.Close()
	for dayRows.Next() {
		var personID, day string
		rec, err := scanDay(dayRows, &personID, &day)
		if err != nil {
			return nil, err
		}
		if i, ok := index[personID]; ok {
			persons[i].Attendance[day] = rec
		}
	}
	return persons, dayRows.Err()
}

// UpdateDay locks the person row, applies fn and upserts the result.
func (s *SQLStore) UpdateDay(ctx context.Context, personID, date string, fn DayFunc) (DayRecord, error) {
	var out DayRecord
	err := store.InTx(ctx, s.db, "update day", func(tx *sql.Tx) error {
		var locked string
		if err := tx.QueryRowContext(ctx, s.d.Rebind(`SELECT id FROM persons WHERE id = ?{lock}`), personID).Scan(&locked); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock person: %w", err)
		}

		row := tx.QueryRowContext(ctx, s.d.Rebind(`
			SELECT person_id, day, check_in, check_out, working_hours
			FROM day_records WHERE person_id = ? AND day = ?
		`), personID, date)
		var pid, day string
		if rec, err := scanDay(row, &pid, &day); err == nil {
			out = rec
		} else if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read day record: %w", err)
		}

		next, write, err := fn(out)
		if err != nil || !write {
			return err
		}

		var hours sql.NullString
		if next.WorkingHours != "" {
			hours = sql.NullString{String: next.WorkingHours, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, s.d.Rebind(`
			INSERT INTO day_records (person_id, day, check_in, check_out, working_hours)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (person_id, day) DO UPDATE SET
				check_in = EXCLUDED.check_in,
				check_out = EXCLUDED.check_out,
				working_hours = EXCLUDED.working_hours
		`), personID, date, next.CheckIn, next.CheckOut, hours); err != nil {
			return fmt.Errorf("write day record: %w", err)
		}
		out = next
		return nil
	})
	return out, err
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("ledger: database not configured")
	}
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDay(row scanner, personID, day *string) (DayRecord, error) {
	var checkIn, checkOut sql.NullTime
	var hours sql.NullString
	if err := row.Scan(personID, day, &checkIn, &checkOut, &hours); err != nil {
		return DayRecord{}, err
	}
	var rec DayRecord
	if checkIn.Valid {
		t := checkIn.Time
		rec.CheckIn = &t
	}
	if checkOut.Valid {
		t := checkOut.Time
		rec.CheckOut = &t
	}
	rec.WorkingHours = hours.String
	return rec, nil
}

func scanPending(rows *sql.Rows) ([]PendingEnrollment, error) {
	var out []PendingEnrollment
	for rows.Next() {
		var p PendingEnrollment
		if err := rows.Scan(&p.Seq, &p.ID, &p.Name, &p.Department, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
