// Package rls verifies that row-level security policies on the hosted
// Postgres actually hold: the anonymous role must be unable to read or
// write protected tables, while the service role retains full access.
//
// The probes expect the anonymous role's table privileges to be revoked
// outright (reads and writes error with permission denied). Deployments
// that grant access and rely on row policies alone would pass anonymous
// reads as zero-row results and show up here as policy holes.
package rls

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DefaultTables are the tables covered by a probe when none are specified.
var DefaultTables = []string{"form_submissions", "email_outbox"}

// TableResult holds the probe outcome for one table.
type TableResult struct {
	Table string `json:"table"`

	// Anonymous role: both must be blocked for the policy to hold.
	AnonReadBlocked  bool `json:"anon_read_blocked"`
	AnonWriteBlocked bool `json:"anon_write_blocked"`

	// Service role: both must succeed.
	ServiceReadOK  bool `json:"service_read_ok"`
	ServiceWriteOK bool `json:"service_write_ok"`

	Detail string `json:"detail,omitempty"`
}

// Healthy reports whether the table's policy matches expectations.
func (r TableResult) Healthy() bool {
	return r.AnonReadBlocked && r.AnonWriteBlocked && r.ServiceReadOK && r.ServiceWriteOK
}

// Report is the outcome of probing all tables.
type Report struct {
	Tables    []TableResult `json:"tables"`
	Healthy   bool          `json:"healthy"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Prober runs read/write probes against a set of tables using two
// connections: one authenticated as the anonymous role and one as the
// service role.
type Prober struct {
	anon    *sql.DB
	service *sql.DB
	tables  []string
}

// New creates a prober over the given connections. If tables is empty,
// DefaultTables is used.
func New(anon, service *sql.DB, tables []string) *Prober {
	if len(tables) == 0 {
		tables = DefaultTables
	}
	return &Prober{anon: anon, service: service, tables: tables}
}

// Run probes every table sequentially and returns the aggregate report.
func (p *Prober) Run(ctx context.Context) Report {
	report := Report{CheckedAt: time.Now().UTC(), Healthy: true}

	for _, table := range p.tables {
		result := p.probeTable(ctx, table)
		if !result.Healthy() {
			report.Healthy = false
		}
		report.Tables = append(report.Tables, result)
	}

	return report
}

func (p *Prober) probeTable(ctx context.Context, table string) TableResult {
	result := TableResult{Table: table}

	// Anonymous role: a read returning rows or a write that sticks means
	// the policy is broken.
	if err := readProbe(ctx, p.anon, table); err != nil {
		result.AnonReadBlocked = true
	} else {
		result.Detail = "anonymous role can read " + table
	}
	if err := writeProbe(ctx, p.anon, table); err != nil {
		result.AnonWriteBlocked = true
	} else if result.Detail == "" {
		result.Detail = "anonymous role can write " + table
	}

	// Service role must retain access.
	if err := readProbe(ctx, p.service, table); err == nil {
		result.ServiceReadOK = true
	} else if result.Detail == "" {
		result.Detail = fmt.Sprintf("service role read failed: %v", err)
	}
	if err := writeProbe(ctx, p.service, table); err == nil {
		result.ServiceWriteOK = true
	} else if result.Detail == "" {
		result.Detail = fmt.Sprintf("service role write failed: %v", err)
	}

	return result
}

// readProbe attempts a minimal select. A permission error (or any error)
// counts as blocked. This assumes the anonymous role has its table GRANT
// revoked, which is how these tables are deployed: under a grant-plus-policy
// setup a filtered SELECT returns zero rows without erroring and would be
// reported here as a readable table.
func readProbe(ctx context.Context, db *sql.DB, table string) error {
	var one int
	query := fmt.Sprintf("SELECT 1 FROM %s LIMIT 1", table)
	err := db.QueryRowContext(ctx, query).Scan(&one)
	if err == sql.ErrNoRows {
		// Empty table but the read itself was permitted.
		return nil
	}
	return err
}

// writeProbe attempts an update inside a transaction that is always rolled
// back, so a permitted write never mutates data.
func writeProbe(ctx context.Context, db *sql.DB, table string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf("UPDATE %s SET created_at = created_at WHERE false", table)
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return err
	}
	return tx.Rollback()
}
