// verify-rls probes the hosted database's row-level-security policies from
// the command line: the anonymous role must be locked out of every protected
// table while the service role keeps full access. Exits non-zero when a
// policy hole is found, so it can gate deploys.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/goalline/academy-server/internal/rls"

	_ "github.com/lib/pq"
)

func main() {
	serviceDSN := os.Getenv("DATABASE_URL")
	anonDSN := os.Getenv("ANON_DATABASE_URL")
	if serviceDSN == "" || anonDSN == "" {
		log.Fatal("DATABASE_URL and ANON_DATABASE_URL are required")
	}

	service, err := sql.Open("postgres", serviceDSN)
	if err != nil {
		log.Fatalf("open service connection: %v", err)
	}
	defer service.Close()

	anon, err := sql.Open("postgres", anonDSN)
	if err != nil {
		log.Fatalf("open anon connection: %v", err)
	}
	defer anon.Close()

	tables := os.Args[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report := rls.New(anon, service, tables).Run(ctx)

	for _, t := range report.Tables {
		mark := "OK"
		if !t.Healthy() {
			mark = "FAIL"
		}
		fmt.Printf("  %-24s %-4s anon_read_blocked=%v anon_write_blocked=%v service_read=%v service_write=%v",
			t.Table, mark, t.AnonReadBlocked, t.AnonWriteBlocked, t.ServiceReadOK, t.ServiceWriteOK)
		if t.Detail != "" {
			fmt.Printf("  (%s)", t.Detail)
		}
		fmt.Println()
	}

	if !report.Healthy {
		log.Fatal("RLS verification FAILED")
	}
	log.Println("RLS verification passed")
}
