// seed-admin bootstraps a tenant: creates the company (with its default
// ledger groups and ledgers) and an admin user that can sign in right away.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  go run ./cmd/seed-admin -company "Acme Traders" -state KA \
//	  -email admin@example.com -password 'changeme123'
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/saralerp/books_backend/config"
	"github.com/saralerp/books_backend/models"
	"github.com/saralerp/books_backend/utils"
)

func main() {
	companyName := flag.String("company", "", "Company name to create (required unless -company-id is given)")
	stateCode := flag.String("state", "", "Company state code, the seller jurisdiction for tax splits")
	companyId := flag.String("company-id", "", "Optional: attach the admin user to an existing company instead of creating one")
	adminName := flag.String("name", "Admin", "Admin user display name")
	adminEmail := flag.String("email", "", "Admin user email (required)")
	adminPassword := flag.String("password", "", "Admin user password (required, min 8 chars)")
	flag.Parse()

	if strings.TrimSpace(*adminEmail) == "" || strings.TrimSpace(*adminPassword) == "" {
		fmt.Fprintln(os.Stderr, "-email and -password are required")
		os.Exit(2)
	}
	if strings.TrimSpace(*companyId) == "" && (strings.TrimSpace(*companyName) == "" || strings.TrimSpace(*stateCode) == "") {
		fmt.Fprintln(os.Stderr, "-company and -state are required when -company-id is not given")
		os.Exit(2)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if err := models.MigrateTable(); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	targetCompanyId := strings.TrimSpace(*companyId)
	if targetCompanyId == "" {
		company, err := models.CreateCompany(ctx, &models.NewCompany{
			Name:      strings.TrimSpace(*companyName),
			StateCode: strings.TrimSpace(*stateCode),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create company: %v\n", err)
			os.Exit(1)
		}
		targetCompanyId = company.ID.String()
		fmt.Printf("Created company %q (id=%s)\n", company.Name, targetCompanyId)
	} else {
		if _, err := models.GetCompanyById(ctx, targetCompanyId); err != nil {
			fmt.Fprintf(os.Stderr, "company %s not found: %v\n", targetCompanyId, err)
			os.Exit(1)
		}
	}

	ctx = utils.SetCompanyIdInContext(ctx, targetCompanyId)
	ctx = utils.SetUserNameInContext(ctx, "Seed")

	var existing models.User
	err := db.WithContext(ctx).Where("email = ?", strings.TrimSpace(*adminEmail)).First(&existing).Error
	if err == nil {
		hash, herr := utils.HashPassword(*adminPassword)
		if herr != nil {
			fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", herr)
			os.Exit(1)
		}
		if err := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", existing.ID).Updates(map[string]any{
			"password_hash": hash,
			"name":          strings.TrimSpace(*adminName),
			"company_id":    targetCompanyId,
			"role":          "admin",
		}).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated admin user %q (company_id=%s)\n", *adminEmail, targetCompanyId)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
		os.Exit(1)
	}

	user, err := models.CreateUser(ctx, targetCompanyId, &models.NewUser{
		Name:     strings.TrimSpace(*adminName),
		Email:    strings.TrimSpace(*adminEmail),
		Password: *adminPassword,
		Role:     "admin",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created admin user %q (id=%d, company_id=%s)\n", user.Email, user.ID, targetCompanyId)
}
