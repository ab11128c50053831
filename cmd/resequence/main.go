// Package main provides the partida resequencing CLI. Without --confirm it
// prints the renumbering plan and changes nothing.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"beneficio/internal/infrastructure/storage/postgres"
	"beneficio/pkg/logger"
)

func main() {
	confirm := flag.Bool("confirm", false, "apply the renumbering instead of printing the plan")
	flag.Parse()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	resequencer := postgres.NewResequencer(txManager, auditService)
	report, err := resequencer.Resequence(ctx, *confirm)
	if err != nil {
		log.Fatalw("resequence failed", "error", err)
	}

	fmt.Printf("partidas: %d, renumbered: %d\n", report.Total, report.Changed)
	for _, m := range report.Mappings {
		fmt.Printf("  %s: %d (%s) -> %d (%s)\n", m.ID, m.OldNumero, m.OldCodigo, m.NewNumero, m.NewCodigo)
	}

	if report.Applied {
		fmt.Println("applied")
	} else if report.Changed > 0 {
		fmt.Println("dry run, re-run with --confirm to apply")
	} else {
		fmt.Println("nothing to do")
	}
}
