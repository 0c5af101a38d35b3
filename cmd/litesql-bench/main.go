// Command litesql-bench is a smoke-test harness that exercises litesql's
// connection, transaction, and query surface end to end against a
// temporary in-memory database. It is not a driver feature — a CLI
// entry point and benchmark harness around the library, kept for the
// same reason the teacher carries its own examples/ directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/litesql-go/litesql/litesql"
)

func main() {
	rows := flag.Int("rows", 10000, "number of rows to insert and scan")
	flag.Parse()

	if err := run(*rows); err != nil {
		log.Fatal(err)
	}
}

func run(rows int) error {
	ctx := context.Background()

	db, err := litesql.Open(":memory:")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	unsubscribe := db.OnClose(func(ev litesql.Event) {
		fmt.Println("closed:", ev.Conn.Path())
	})
	defer unsubscribe()

	if _, err := db.Execute(ctx, `CREATE TABLE bench(id INTEGER PRIMARY KEY, value TEXT)`); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	start := time.Now()
	err = db.WithTransaction(ctx, func(tx *litesql.Transaction) error {
		stmt, err := tx.Prepare(ctx, `INSERT INTO bench(id, value) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Finalize()

		for i := 0; i < rows; i++ {
			if _, err := stmt.Run(ctx, i, fmt.Sprintf("row-%d", i)); err != nil {
				return err
			}
		}
		return nil
	}, litesql.Immediate)
	if err != nil {
		return fmt.Errorf("inserting rows: %w", err)
	}
	insertElapsed := time.Since(start)

	start = time.Now()
	it, err := db.QueryManyArray(ctx, `SELECT id, value FROM bench ORDER BY id`)
	if err != nil {
		return fmt.Errorf("querying rows: %w", err)
	}
	count := 0
	for {
		_, has, err := it.Next()
		if err != nil {
			return fmt.Errorf("scanning row %d: %w", count, err)
		}
		if !has {
			break
		}
		count++
	}
	scanElapsed := time.Since(start)

	fmt.Printf("inserted %d rows in %s (%.0f rows/s)\n", rows, insertElapsed, float64(rows)/insertElapsed.Seconds())
	fmt.Printf("scanned %d rows in %s (%.0f rows/s)\n", count, scanElapsed, float64(count)/scanElapsed.Seconds())
	return nil
}
