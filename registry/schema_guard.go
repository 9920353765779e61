package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"gorm.io/gorm"
)

// SchemaGuard backfills columns the running code expects but a shared,
// externally-provisioned database may lack (rolling deploys). It runs at
// most once per process; repeated Ensure calls return the cached result.
type SchemaGuard struct {
	DB *gorm.DB

	once   sync.Once
	err    error
	probes atomic.Int64
}

type columnSpec struct {
	table  string
	column string
	ddl    string
}

var expectedColumns = []columnSpec{
	{"individuals", "participant_uaid", "participant_uaid TEXT"},
	{"individuals", "eoa_address", "eoa_address TEXT"},
	{"organizations", "uaid", "uaid TEXT"},
	{"organizations", "agent_row_id", "agent_row_id INTEGER"},
	{"organizations", "org_metadata", "org_metadata TEXT"},
	{"organizations", "email_domain", "email_domain TEXT"},
	{"agents", "session_package", "session_package TEXT"},
	{"agents", "agent_card_json", "agent_card_json TEXT"},
	{"agents", "email_domain", "email_domain TEXT NOT NULL DEFAULT 'unknown'"},
	{"individual_organizations", "role", "role TEXT"},
	{"messages", "content_type", "content_type TEXT"},
	{"agent_feedback_requests", "feedback_auth_id", "feedback_auth_id TEXT"},
}

func NewSchemaGuard(gdb *gorm.DB) *SchemaGuard {
	return &SchemaGuard{DB: gdb}
}

// Ensure probes and patches the schema once per process.
func (g *SchemaGuard) Ensure(ctx context.Context) error {
	g.once.Do(func() {
		g.err = g.run(ctx)
	})
	return g.err
}

// Probes reports how many PRAGMA probe passes have run.
func (g *SchemaGuard) Probes() int64 {
	return g.probes.Load()
}

func (g *SchemaGuard) run(ctx context.Context) error {
	if g.DB == nil {
		return fmt.Errorf("nil gorm db")
	}
	g.probes.Add(1)

	byTable := map[string][]columnSpec{}
	for _, spec := range expectedColumns {
		byTable[spec.table] = append(byTable[spec.table], spec)
	}

	for table, specs := range byTable {
		existing, ok, err := g.tableColumns(ctx, table)
		if err != nil {
			return err
		}
		if !ok {
			// Table creation belongs to AutoMigrate / the provisioning
			// pipeline; the guard only adds columns.
			continue
		}
		for _, spec := range specs {
			if existing[spec.column] {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", spec.table, spec.ddl)
			if err := g.DB.WithContext(ctx).Exec(stmt).Error; err != nil {
				if isDuplicateColumn(err) {
					continue
				}
				return fmt.Errorf("add column %s.%s: %w", spec.table, spec.column, err)
			}
		}
	}
	return nil
}

func (g *SchemaGuard) tableColumns(ctx context.Context, table string) (map[string]bool, bool, error) {
	var rows []struct {
		Name string `gorm:"column:name"`
	}
	err := g.DB.WithContext(ctx).
		Raw(fmt.Sprintf("PRAGMA table_info(%s)", table)).
		Scan(&rows).Error
	if err != nil {
		return nil, false, fmt.Errorf("probe %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	out := make(map[string]bool, len(rows))
	for _, row := range rows {
		out[strings.ToLower(strings.TrimSpace(row.Name))] = true
	}
	return out, true, nil
}

func isDuplicateColumn(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}
