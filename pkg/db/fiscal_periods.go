package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/veldbooks/ledger-engine/pkg/ledger"
)

const dateLayout = "2006-01-02"

// FiscalPeriods manages fiscal period lookups for posting cutoffs.
type FiscalPeriods struct {
	conn *Connection
}

// NewFiscalPeriods creates a new FiscalPeriods instance.
func NewFiscalPeriods(conn *Connection) *FiscalPeriods {
	return &FiscalPeriods{conn: conn}
}

// Create inserts a fiscal period and returns its id.
func (f *FiscalPeriods) Create(companyID int64, name string, start, end time.Time) (int64, error) {
	res, err := f.conn.Exec(`
		INSERT INTO fiscal_periods (company_id, name, start_date, end_date)
		VALUES (?, ?, ?, ?)`,
		companyID, name, start.Format(dateLayout), end.Format(dateLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create fiscal period: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read fiscal period id: %w", err)
	}
	return id, nil
}

// ResolveForDate returns the id of the fiscal period covering the given date,
// or 0 when no period covers it. Having no configured periods is not an
// error; entries are then posted with fiscal_period_id = 0.
func (f *FiscalPeriods) ResolveForDate(companyID int64, date time.Time) (int64, error) {
	var id int64
	day := date.Format(dateLayout)
	err := f.conn.QueryRow(`
		SELECT id FROM fiscal_periods
		WHERE company_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date DESC
		LIMIT 1`,
		companyID, day, day,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve fiscal period: %w", err)
	}
	return id, nil
}

// List returns all fiscal periods for a company ordered by start date.
func (f *FiscalPeriods) List(companyID int64) ([]ledger.FiscalPeriod, error) {
	rows, err := f.conn.Query(`
		SELECT id, company_id, name, start_date, end_date
		FROM fiscal_periods
		WHERE company_id = ?
		ORDER BY start_date`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list fiscal periods: %w", err)
	}
	defer rows.Close()

	var periods []ledger.FiscalPeriod
	for rows.Next() {
		var p ledger.FiscalPeriod
		var start, end string
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Name, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan fiscal period: %w", err)
		}
		if p.StartDate, err = time.Parse(dateLayout, start); err != nil {
			return nil, fmt.Errorf("invalid start_date %q: %w", start, err)
		}
		if p.EndDate, err = time.Parse(dateLayout, end); err != nil {
			return nil, fmt.Errorf("invalid end_date %q: %w", end, err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fiscal period rows: %w", err)
	}
	return periods, nil
}
