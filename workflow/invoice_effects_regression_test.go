package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saralerp/books_backend/config"
	"github.com/saralerp/books_backend/models"
	"github.com/saralerp/books_backend/utils"
	"github.com/saralerp/books_backend/workflow"
)

// Regression: editing and deleting an invoice must leave product stock and
// derived transactions exactly as if the final state had been created
// directly, no matter how the invoice got there.
func TestInvoiceEffectsCreateUpdateDeleteRoundTrip(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "saralbooks_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	company, err := models.CreateCompany(ctx, &models.NewCompany{
		Name:      "RoundTrip Traders",
		StateCode: "KA",
	})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	ctx = utils.SetCompanyIdInContext(ctx, company.ID.String())

	customer, err := models.CreateParty(ctx, &models.NewParty{
		Name:      "Walk-in Customer",
		StateCode: "KA",
	})
	if err != nil {
		t.Fatalf("CreateParty: %v", err)
	}

	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:              "Widget",
		Sku:               "WID-1",
		SalePrice:         decimal.NewFromInt(100),
		OpeningStock:      decimal.NewFromInt(10),
		LowStockThreshold: decimal.NewFromInt(2),
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	nine := decimal.NewFromInt(9)
	eighteen := decimal.NewFromInt(18)
	now := time.Now().UTC()

	input := &models.NewInvoice{
		CustomerId:  customer.ID,
		InvoiceType: models.InvoiceTypeTaxInvoice,
		InvoiceDate: now,
		CgstRate:    nine,
		SgstRate:    nine,
		IgstRate:    eighteen,
		LineItems: []models.NewInvoiceLineItem{
			{ProductId: &product.ID, Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromInt(100)},
		},
	}

	invoice, err := workflow.CreateInvoiceWithEffects(ctx, input)
	if err != nil {
		t.Fatalf("CreateInvoiceWithEffects: %v", err)
	}

	wantPrefix := "INV-" + now.Format("200601") + "-"
	if invoice.InvoiceNumber != wantPrefix+"0001" {
		t.Fatalf("invoice number = %q, want %q", invoice.InvoiceNumber, wantPrefix+"0001")
	}
	// 400 taxable, same jurisdiction: 36 CGST + 36 SGST.
	if !invoice.TotalAmount.Equal(decimal.NewFromInt(472)) {
		t.Fatalf("total = %s, want 472", invoice.TotalAmount)
	}
	assertStock(t, ctx, product.ID, decimal.NewFromInt(6))
	assertTransactionCount(t, ctx, invoice.ID, 1)

	// Shrink the sale. Stock must move to match the new quantity exactly.
	input.LineItems[0].Quantity = decimal.NewFromInt(2)
	updated, err := workflow.UpdateInvoiceWithEffects(ctx, invoice.ID, input)
	if err != nil {
		t.Fatalf("UpdateInvoiceWithEffects: %v", err)
	}
	if !updated.TotalAmount.Equal(decimal.NewFromInt(236)) {
		t.Fatalf("updated total = %s, want 236", updated.TotalAmount)
	}
	if updated.InvoiceNumber != invoice.InvoiceNumber {
		t.Fatalf("update changed invoice number: %q -> %q", invoice.InvoiceNumber, updated.InvoiceNumber)
	}
	assertStock(t, ctx, product.ID, decimal.NewFromInt(8))
	assertTransactionCount(t, ctx, invoice.ID, 1)

	// Re-submitting the identical body must converge, not drift.
	again, err := workflow.UpdateInvoiceWithEffects(ctx, invoice.ID, input)
	if err != nil {
		t.Fatalf("idempotent update: %v", err)
	}
	if !again.TotalAmount.Equal(updated.TotalAmount) {
		t.Fatalf("idempotent update changed total: %s -> %s", updated.TotalAmount, again.TotalAmount)
	}
	assertStock(t, ctx, product.ID, decimal.NewFromInt(8))
	assertTransactionCount(t, ctx, invoice.ID, 1)

	// Delete restores the pre-invoice stock and removes every derived row.
	if _, err := workflow.DeleteInvoiceWithEffects(ctx, invoice.ID); err != nil {
		t.Fatalf("DeleteInvoiceWithEffects: %v", err)
	}
	assertStock(t, ctx, product.ID, decimal.NewFromInt(10))
	assertTransactionCount(t, ctx, invoice.ID, 0)

	// A credit note draws from its own CN sequence and restocks.
	cn, err := workflow.CreateInvoiceWithEffects(ctx, &models.NewInvoice{
		CustomerId:  customer.ID,
		InvoiceType: models.InvoiceTypeSalesReturn,
		InvoiceDate: now,
		LineItems: []models.NewInvoiceLineItem{
			{ProductId: &product.ID, Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(100)},
		},
	})
	if err != nil {
		t.Fatalf("create credit note: %v", err)
	}
	cnPrefix := "CN-" + now.Format("200601") + "-"
	if cn.InvoiceNumber != cnPrefix+"0001" {
		t.Fatalf("credit note number = %q, want %q", cn.InvoiceNumber, cnPrefix+"0001")
	}
	if !cn.TotalAmount.Equal(decimal.NewFromInt(-300)) {
		t.Fatalf("credit note total = %s, want -300", cn.TotalAmount)
	}
	assertStock(t, ctx, product.ID, decimal.NewFromInt(13))

	// The INV counter survives the delete: the next blank-number invoice
	// continues the sequence rather than reusing 0001.
	second, err := workflow.CreateInvoiceWithEffects(ctx, &models.NewInvoice{
		CustomerId:  customer.ID,
		InvoiceType: models.InvoiceTypeTaxInvoice,
		InvoiceDate: now,
		CgstRate:    nine,
		SgstRate:    nine,
		IgstRate:    eighteen,
		LineItems: []models.NewInvoiceLineItem{
			{ProductId: &product.ID, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)},
		},
	})
	if err != nil {
		t.Fatalf("create second invoice: %v", err)
	}
	if second.InvoiceNumber != wantPrefix+"0002" {
		t.Fatalf("second invoice number = %q, want %q", second.InvoiceNumber, wantPrefix+"0002")
	}
	assertStock(t, ctx, product.ID, decimal.NewFromInt(12))

	// An explicit number that already exists must surface as a duplicate,
	// not a raw storage error, and must leave no effects behind.
	_, err = workflow.CreateInvoiceWithEffects(ctx, &models.NewInvoice{
		CustomerId:    customer.ID,
		InvoiceType:   models.InvoiceTypeTaxInvoice,
		InvoiceNumber: second.InvoiceNumber,
		InvoiceDate:   now,
		CgstRate:      nine,
		SgstRate:      nine,
		IgstRate:      eighteen,
		LineItems: []models.NewInvoiceLineItem{
			{ProductId: &product.ID, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)},
		},
	})
	var duplicate *utils.DuplicateNumberError
	if !errors.As(err, &duplicate) {
		t.Fatalf("duplicate number: got %T (%v), want DuplicateNumberError", err, err)
	}
	assertStock(t, ctx, product.ID, decimal.NewFromInt(12))

	// Name search is capped and company-scoped.
	found, err := models.SearchProducts(ctx, "Wid")
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if len(found) != 1 || found[0].ID != product.ID {
		t.Fatalf("search %q returned %d products, want the widget only", "Wid", len(found))
	}
}

func assertStock(t *testing.T, ctx context.Context, productId int, want decimal.Decimal) {
	t.Helper()
	product, err := models.GetProduct(ctx, productId)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if !product.CurrentStock.Equal(want) {
		t.Fatalf("current stock = %s, want %s", product.CurrentStock, want)
	}
}

func assertTransactionCount(t *testing.T, ctx context.Context, invoiceId int, want int64) {
	t.Helper()
	var count int64
	if err := config.GetDB().WithContext(ctx).Model(&models.Transaction{}).
		Where("invoice_id = ?", invoiceId).Count(&count).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if count != want {
		t.Fatalf("transactions for invoice %d = %d, want %d", invoiceId, count, want)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("books-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("books-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=saralbooks_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
