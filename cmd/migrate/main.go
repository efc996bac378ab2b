// Command migrate runs schema maintenance against the configured database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"microblog/internal/config"
	"microblog/internal/database"

	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|member-since|backfill-authors|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close(db)

	ctx := context.Background()
	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	switch cmd {
	case "up":
		if err := database.ApplySchema(db); err != nil {
			return err
		}
		n, err := database.RunPending(ctx, db)
		if err != nil {
			return fmt.Errorf("pending migrations failed: %w", err)
		}
		log.Printf("schema up to date (%d migrations applied)", n)
	case "member-since":
		added, err := database.AddMemberSinceColumn(ctx, db)
		if err != nil {
			return err
		}
		if err := database.RunMigration(ctx, db, "member-since"); err != nil {
			return err
		}
		if added {
			log.Println("Added memberSince column to users table")
		} else {
			log.Println("memberSince column already exists")
		}
	case "backfill-authors":
		n, err := database.BackfillPostAuthors(ctx, db)
		if err != nil {
			return err
		}
		if err := database.RunMigration(ctx, db, "backfill-authors"); err != nil {
			return err
		}
		log.Printf("linked %d posts to their authors", n)
	case "status":
		return printStatus(ctx, db)
	default:
		return usage()
	}
	return nil
}

func printStatus(ctx context.Context, db *gorm.DB) error {
	for _, table := range database.InspectedTables {
		info, err := database.DescribeTable(ctx, db, table)
		if err != nil {
			return err
		}
		if !info.Exists {
			fmt.Printf("%-8s missing\n", table)
			continue
		}
		fmt.Printf("%-8s %d rows  columns: %s\n", table, info.Rows, strings.Join(info.Columns, ", "))
	}

	applied, err := database.AppliedMigrations(ctx, db)
	if err != nil {
		return err
	}
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	fmt.Println("migrations:")
	for _, m := range database.Migrations() {
		state := "pending"
		if done[m.Version] {
			state = "applied"
		}
		fmt.Printf("  %d %-18s %s\n", m.Version, m.Name, state)
	}
	return nil
}
