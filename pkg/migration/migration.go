// Package migration runs and tracks schema migrations.
//
// Migrations register themselves from init() in database/migrations:
//
//	func init() {
//	    migration.Register("20260101000000_create_products_table", &CreateProductsTable{})
//	}
//
// and are applied from the CLI:
//
//	vendo migrate             // run all pending
//	vendo migrate:rollback    // rollback last batch
package migration

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/vendo/pkg/logger"
)

// Migration is the interface every migration must implement.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

// migrationRecord is the GORM model stored in the tracking table.
type migrationRecord struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (migrationRecord) TableName() string { return "vendo_migrations" }

type registeredMigration struct {
	name string
	m    Migration
}

var registry []registeredMigration

// Register adds a migration to the global registry. name should be
// timestamp-prefixed; pending migrations run in name order.
func Register(name string, m Migration) {
	registry = append(registry, registeredMigration{name: name, m: m})
}

// Runner executes and tracks migrations.
type Runner struct {
	db  *gorm.DB
	out io.Writer
}

// New creates a Runner backed by db that reports progress on stdout.
func New(db *gorm.DB) *Runner {
	return &Runner{db: db, out: os.Stdout}
}

// WithOutput redirects progress lines (tests pass io.Discard).
func (r *Runner) WithOutput(w io.Writer) *Runner {
	r.out = w
	return r
}

// EnsureTable creates the tracking table if it does not exist.
func (r *Runner) EnsureTable() error {
	return r.db.AutoMigrate(&migrationRecord{})
}

// Pending returns the registered migrations that have not run yet.
func (r *Runner) Pending() ([]string, error) {
	pending, err := r.pending()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(pending))
	for i, p := range pending {
		names[i] = p.name
	}
	return names, nil
}

func (r *Runner) pending() ([]registeredMigration, error) {
	var ran []migrationRecord
	if err := r.db.Find(&ran).Error; err != nil {
		return nil, err
	}

	ranSet := make(map[string]bool, len(ran))
	for _, rec := range ran {
		ranSet[rec.Name] = true
	}

	var pending []registeredMigration
	for _, reg := range registry {
		if !ranSet[reg.name] {
			pending = append(pending, reg)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].name < pending[j].name
	})

	return pending, nil
}

// Run executes all pending migrations as one batch. Each migration and its
// tracking row commit together.
func (r *Runner) Run() error {
	if err := r.EnsureTable(); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}

	pending, err := r.pending()
	if err != nil {
		return fmt.Errorf("migration: fetch pending: %w", err)
	}

	if len(pending) == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
		return nil
	}

	batch := r.lastBatch() + 1

	for _, reg := range pending {
		logger.Info("migration: running", "name", reg.name, "batch", batch)

		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := reg.m.Up(tx); err != nil {
				return fmt.Errorf("%s up: %w", reg.name, err)
			}
			return tx.Create(&migrationRecord{Name: reg.name, Batch: batch}).Error
		})
		if err != nil {
			return fmt.Errorf("migration: %w", err)
		}

		fmt.Fprintf(r.out, "  migrated  %s\n", reg.name)
	}

	logger.Info("migration: done", "ran", len(pending), "batch", batch)
	return nil
}

// Rollback reverses all migrations from the most recent batch.
func (r *Runner) Rollback() error {
	if err := r.EnsureTable(); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}

	batch := r.lastBatch()
	if batch == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return nil
	}

	var records []migrationRecord
	if err := r.db.Where("batch = ?", batch).Order("id desc").Find(&records).Error; err != nil {
		return err
	}

	byName := make(map[string]Migration, len(registry))
	for _, reg := range registry {
		byName[reg.name] = reg.m
	}

	for _, rec := range records {
		m, ok := byName[rec.Name]
		if !ok {
			return fmt.Errorf("migration: cannot rollback %s: not registered", rec.Name)
		}

		logger.Info("migration: rolling back", "name", rec.Name)
		if err := m.Down(r.db); err != nil {
			return fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		if err := r.db.Delete(&rec).Error; err != nil {
			return err
		}

		fmt.Fprintf(r.out, "  rolled back  %s\n", rec.Name)
	}

	return nil
}

// Status prints every registered migration and whether it has run.
func (r *Runner) Status() error {
	if err := r.EnsureTable(); err != nil {
		return err
	}

	var ran []migrationRecord
	if err := r.db.Find(&ran).Error; err != nil {
		return err
	}

	ranMap := make(map[string]migrationRecord, len(ran))
	for _, rec := range ran {
		ranMap[rec.Name] = rec
	}

	fmt.Fprintf(r.out, "%-60s  %-8s  %s\n", "Migration", "Status", "Batch")
	fmt.Fprintln(r.out, strings.Repeat("-", 80))
	for _, reg := range registry {
		if rec, ok := ranMap[reg.name]; ok {
			fmt.Fprintf(r.out, "%-60s  %-8s  %d\n", reg.name, "Ran", rec.Batch)
		} else {
			fmt.Fprintf(r.out, "%-60s  %-8s  -\n", reg.name, "Pending")
		}
	}
	return nil
}

func (r *Runner) lastBatch() int {
	var maxBatch struct{ Max int }
	r.db.Model(&migrationRecord{}).Select("COALESCE(MAX(batch), 0) as max").Scan(&maxBatch)
	return maxBatch.Max
}
