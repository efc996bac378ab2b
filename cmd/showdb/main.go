// Command showdb prints the users and posts tables of the configured database.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"microblog/internal/config"
	"microblog/internal/database"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

func main() {
	format := flag.String("format", "text", "output format: text or yaml")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if cfg.DBDriver == "sqlite" {
		fmt.Println("Opening database file:", cfg.DBPath)
	}

	if err := show(context.Background(), db, os.Stdout, *format); err != nil {
		log.Fatalf("Error showing database contents: %v", err)
	}
}

// tableDump is one table in the YAML report.
type tableDump struct {
	Table  string                   `yaml:"table"`
	Exists bool                     `yaml:"exists"`
	Rows   []map[string]interface{} `yaml:"rows"`
}

func show(ctx context.Context, db *gorm.DB, w io.Writer, format string) error {
	var dumps []tableDump
	for _, table := range database.InspectedTables {
		info, err := database.DescribeTable(ctx, db, table)
		if err != nil {
			return err
		}
		d := tableDump{Table: table, Exists: info.Exists}
		if info.Exists {
			if d.Rows, err = database.DumpTable(ctx, db, table); err != nil {
				return err
			}
		}
		dumps = append(dumps, d)
	}

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(dumps); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "text", "":
		for _, d := range dumps {
			writeText(w, d)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeText(w io.Writer, d tableDump) {
	title := strings.ToUpper(d.Table[:1]) + d.Table[1:]
	if !d.Exists {
		fmt.Fprintf(w, "%s table does not exist.\n", title)
		return
	}
	fmt.Fprintf(w, "%s table exists.\n", title)
	if len(d.Rows) == 0 {
		fmt.Fprintf(w, "No %s found.\n", d.Table)
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, row := range d.Rows {
		fmt.Fprintln(w, formatRow(row))
	}
}

// formatRow prints a row as "{ id: 1, username: 'alice' }" with id first.
func formatRow(row map[string]interface{}) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == "id" || keys[j] == "id" {
			return keys[i] == "id"
		}
		return keys[i] < keys[j]
	})

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := row[k].(type) {
		case nil:
			parts = append(parts, k+": null")
		case string:
			parts = append(parts, fmt.Sprintf("%s: '%s'", k, v))
		case []byte:
			parts = append(parts, fmt.Sprintf("%s: '%s'", k, string(v)))
		default:
			parts = append(parts, fmt.Sprintf("%s: %v", k, v))
		}
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}
