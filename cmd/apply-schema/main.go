// apply-schema runs the bootstrap schema, or the SQL file given as the first
// argument, one statement at a time.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"collab-events/internal/config"
	"collab-events/internal/database"

	"go.uber.org/zap"
)

func main() {
	script := database.SchemaSQL()
	source := "embedded schema"
	if len(os.Args) > 1 {
		content, err := os.ReadFile(os.Args[1])
		if err != nil {
			log.Fatalf("Failed to read SQL file: %v", err)
		}
		script = string(content)
		source = os.Args[1]
	}

	cfg := config.Load()
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer db.Close()
	fmt.Printf("Connected to database: %s\n", cfg.Database.Database)

	gw := database.NewGateway(db, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	statements := database.SplitStatements(script)
	fmt.Printf("Applying %d statements from %s\n\n", len(statements), source)
	for i, stmt := range statements {
		fmt.Printf("Executing statement %d/%d...\n", i+1, len(statements))
		if _, err := gw.Execute(ctx, stmt); err != nil {
			log.Fatalf("Failed to execute statement %d: %v\nStatement: %s", i+1, err, stmt[:min(100, len(stmt))])
		}
	}

	fmt.Println("Schema applied successfully")
}
