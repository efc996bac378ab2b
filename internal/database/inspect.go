package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// TableInfo summarizes one table for the inspection and status commands.
type TableInfo struct {
	Name    string   `yaml:"name"`
	Exists  bool     `yaml:"exists"`
	Columns []string `yaml:"columns,omitempty"`
	Rows    int64    `yaml:"rows"`
}

// InspectedTables lists the tables the inspection tools report on.
var InspectedTables = []string{"users", "posts"}

// DescribeTable reports existence, column names and row count for table.
func DescribeTable(ctx context.Context, db *gorm.DB, table string) (TableInfo, error) {
	info := TableInfo{Name: table}
	m := db.WithContext(ctx).Migrator()
	if !m.HasTable(table) {
		return info, nil
	}
	info.Exists = true

	cols, err := m.ColumnTypes(table)
	if err != nil {
		return info, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	for _, c := range cols {
		info.Columns = append(info.Columns, c.Name())
	}

	if err := db.WithContext(ctx).Table(table).Count(&info.Rows).Error; err != nil {
		return info, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return info, nil
}

// DumpTable returns every row of table as column/value maps ordered by id.
// It works on whatever columns exist, so legacy schemas dump as-is.
func DumpTable(ctx context.Context, db *gorm.DB, table string) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	if err := db.WithContext(ctx).Table(table).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	return rows, nil
}
