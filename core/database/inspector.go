package database

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// ColumnInfo is one column of an existing table.
type ColumnInfo struct {
	Field string
	Type  string
}

// GetTableColumns retrieves the column definitions of a table through the
// gorm migrator, so it works for every supported driver.
func GetTableColumns(db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	if !db.Migrator().HasTable(tableName) {
		return nil, nil
	}
	types, err := db.Migrator().ColumnTypes(tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
	}
	columns := make([]ColumnInfo, 0, len(types))
	for _, ct := range types {
		columns = append(columns, ColumnInfo{
			Field: strings.ToLower(ct.Name()),
			Type:  strings.ToLower(ct.DatabaseTypeName()),
		})
	}
	return columns, nil
}

// MissingColumns returns the expected columns absent from tableName, sorted.
// A missing table reports every expected column.
func MissingColumns(db *gorm.DB, tableName string, expected []string) ([]string, error) {
	columns, err := GetTableColumns(db, tableName)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c.Field] = struct{}{}
	}
	var missing []string
	for _, name := range expected {
		if _, ok := present[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing, nil
}
