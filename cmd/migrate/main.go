package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pratik-mahalle/adminservice/internal/config"
	"github.com/pratik-mahalle/adminservice/internal/repository/postgres"
)

// migrate creates the development copy of the auth, archive and chat
// schemas. Production schemas belong to the services that own them.
func main() {
	force := flag.Bool("force", false, "run even when NODE_ENV is production")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if cfg.Server.IsProduction() && !*force {
		fmt.Fprintln(os.Stderr, "Refusing to migrate a production database without -force")
		os.Exit(1)
	}

	// Connect to database
	db, err := postgres.New(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("Connected to %s database successfully\n", db.Driver())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := postgres.Bootstrap(ctx, db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}

	if n == 0 {
		fmt.Println("Database is up to date")
		return
	}
	fmt.Printf("Applied %d migration(s)\n", n)
}
