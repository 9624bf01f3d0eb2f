// stock-rebuild recomputes current stock for every product of a company (or
// all companies) from opening stock plus recorded signed movements. Run it
// after manual data surgery or to verify drift.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  go run ./cmd/stock-rebuild [-company-id <uuid>]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/saralerp/books_backend/config"
	"github.com/saralerp/books_backend/models"
)

func main() {
	companyId := flag.String("company-id", "", "Optional: rebuild only one company. If empty, rebuilds all companies.")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var companies []models.Company
	query := db.WithContext(ctx).Model(&models.Company{}).Select("id", "name")
	if strings.TrimSpace(*companyId) != "" {
		query = query.Where("id = ?", strings.TrimSpace(*companyId))
	}
	if err := query.Find(&companies).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to list companies: %v\n", err)
		os.Exit(1)
	}
	if len(companies) == 0 {
		fmt.Fprintln(os.Stderr, "no companies found")
		os.Exit(2)
	}

	for _, company := range companies {
		affected, err := models.RebuildProductStock(ctx, company.ID.String())
		if err != nil {
			fmt.Fprintf(os.Stderr, "rebuild failed for company %s: %v\n", company.ID, err)
			os.Exit(1)
		}
		fmt.Printf("company %q (%s): %d products updated\n", company.Name, company.ID, affected)
	}
}
