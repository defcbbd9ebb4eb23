package checks

import (
	"fmt"
	"strings"
	"sync"

	"fleet-sync/core/database"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// SchemaReport is the result of comparing the canonical store against the models.
type SchemaReport struct {
	Driver  string                 `json:"driver"`
	Matched bool                   `json:"matched"`
	Tables  map[string]TableReport `json:"tables"`
	Errors  []string               `json:"errors"`
}

type TableReport struct {
	Exists         bool     `json:"exists"`
	MissingColumns []string `json:"missing_columns"`
	TypeMismatches []string `json:"type_mismatches"`
	Status         string   `json:"status"` // "ok", "error"
}

// CheckSchema verifies the database schema using the GORM models as the source of truth.
// Column types are only compared for fields with an explicit type tag.
func CheckSchema(db *gorm.DB, models ...any) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &SchemaReport{
		Driver:  db.Dialector.Name(),
		Matched: true,
		Tables:  make(map[string]TableReport),
		Errors:  []string{},
	}

	cache := &sync.Map{}
	for _, model := range models {
		s, err := schema.Parse(model, cache, db.NamingStrategy)
		if err != nil {
			return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
		}

		tbl := TableReport{
			MissingColumns: []string{},
			TypeMismatches: []string{},
			Status:         "ok",
		}

		actualCols, err := database.GetTableColumns(db, s.Table)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", s.Table, err))
			report.Matched = false
			tbl.Status = "error"
			report.Tables[s.Table] = tbl
			continue
		}
		if len(actualCols) == 0 {
			// SQLite and Postgres answer an unknown table with no columns
			tbl.Status = "error"
			tbl.MissingColumns = append(tbl.MissingColumns, s.DBNames...)
			report.Matched = false
			report.Tables[s.Table] = tbl
			continue
		}
		tbl.Exists = true

		actual := make(map[string]database.ColumnInfo, len(actualCols))
		for _, col := range actualCols {
			actual[col.Field] = col
		}

		for _, field := range s.Fields {
			if field.DBName == "" {
				continue
			}
			col, ok := actual[strings.ToLower(field.DBName)]
			if !ok {
				tbl.MissingColumns = append(tbl.MissingColumns, field.DBName)
				tbl.Status = "error"
				report.Matched = false
				continue
			}

			expType := strings.ToLower(field.TagSettings["TYPE"])
			if expType != "" && !strings.Contains(col.Type, expType) {
				tbl.TypeMismatches = append(tbl.TypeMismatches, fmt.Sprintf("%s: expected %s, got %s", field.DBName, expType, col.Type))
				tbl.Status = "error"
				report.Matched = false
			}
		}

		report.Tables[s.Table] = tbl
	}

	return report, nil
}
