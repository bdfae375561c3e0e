package workflow_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/utils"
	"bitbucket.org/mmdatafocus/distribution_backend/workflow"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// setupIntegration spins up MySQL + Redis and seeds a fresh business.
func setupIntegration(t *testing.T) (*gorm.DB, string) {
	t.Helper()
	skipWithoutIntegration(t)

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "distribution_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}

	businessId := fmt.Sprintf("biz-%d", time.Now().UnixNano())
	if err := db.Create(&models.Business{ID: businessId, Name: "Test Distribution"}).Error; err != nil {
		t.Fatalf("create business: %v", err)
	}
	return db, businessId
}

func seedCustomer(t *testing.T, db *gorm.DB, businessId string) *models.Customer {
	t.Helper()
	customer := models.Customer{BusinessId: businessId, Name: "Shop A", IsActive: utils.NewTrue()}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return &customer
}

func seedProduct(t *testing.T, db *gorm.DB, businessId, name, supplierName string, stock, cost string) *models.Product {
	t.Helper()
	product := models.Product{
		BusinessId:      businessId,
		Name:            name,
		SupplierName:    supplierName,
		StockQuantity:   dec(stock),
		CostPrice:       dec(cost),
		ActualCostPrice: dec(cost),
		CommissionType:  models.CommissionTypeFixed,
		CommissionValue: dec("50"),
		IsActive:        utils.NewTrue(),
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return &product
}

func seedRepWithLocations(t *testing.T, db *gorm.DB, businessId string, productId int, quantities []string) (salesRepId int, locationIds []int) {
	t.Helper()
	salesRepId = int(time.Now().UnixNano() % 1_000_000)
	for i, qty := range quantities {
		location := models.Location{BusinessId: businessId, Name: fmt.Sprintf("Location %d", i+1), IsActive: utils.NewTrue()}
		if err := db.Create(&location).Error; err != nil {
			t.Fatalf("create location: %v", err)
		}
		locationIds = append(locationIds, location.ID)
		if err := db.Create(&models.SalesRepLocation{BusinessId: businessId, SalesRepId: salesRepId, LocationId: location.ID}).Error; err != nil {
			t.Fatalf("create rep location: %v", err)
		}
		if err := db.Create(&models.ProductStock{BusinessId: businessId, ProductId: productId, LocationId: location.ID, Quantity: dec(qty)}).Error; err != nil {
			t.Fatalf("create product stock: %v", err)
		}
	}
	return salesRepId, locationIds
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func fetchCustomer(t *testing.T, db *gorm.DB, businessId string, id int) *models.Customer {
	t.Helper()
	customer, err := models.GetCustomerById(db, businessId, id)
	if err != nil {
		t.Fatalf("fetch customer: %v", err)
	}
	return customer
}

func fetchProduct(t *testing.T, db *gorm.DB, businessId string, id int) *models.Product {
	t.Helper()
	product, err := models.GetProductById(db, businessId, id)
	if err != nil {
		t.Fatalf("fetch product: %v", err)
	}
	return product
}

func TestInvoicePostingMovesStockAndBalanceTogether(t *testing.T) {
	db, businessId := setupIntegration(t)
	ctx := context.Background()
	logger := config.GetLogger()

	customer := seedCustomer(t, db, businessId)
	product := seedProduct(t, db, businessId, "Beer Carton", "ACME", "100", "700")
	salesRepId, locationIds := seedRepWithLocations(t, db, businessId, product.ID, []string{"60", "40"})

	result, err := workflow.ProcessCreateInvoice(ctx, db, logger, businessId, workflow.CreateInvoiceInput{
		CustomerId:  customer.ID,
		SalesRepId:  salesRepId,
		Items:       []workflow.InvoiceItemInput{{ProductId: product.ID, Quantity: dec("10"), FreeQuantity: dec("2"), UnitPrice: dec("1000"), Total: dec("10000")}},
		GrandTotal:  dec("10000"),
		PaidAmount:  dec("4000"),
		PaymentType: models.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("ProcessCreateInvoice: %v", err)
	}
	if result.InvoiceNo == "" {
		t.Fatal("expected an invoice number")
	}

	// Balance carries the unpaid remainder: 10,000 - 4,000.
	if got := fetchCustomer(t, db, businessId, customer.ID).OutstandingBalance; !got.Equal(dec("6000")) {
		t.Fatalf("balance = %s, want 6000", got)
	}

	// Global stock drops by paid + free units.
	if got := fetchProduct(t, db, businessId, product.ID).StockQuantity; !got.Equal(dec("88")) {
		t.Fatalf("global stock = %s, want 88", got)
	}

	// Largest location is consumed first.
	var largest models.ProductStock
	if err := db.Where("business_id = ? AND product_id = ? AND location_id = ?", businessId, product.ID, locationIds[0]).First(&largest).Error; err != nil {
		t.Fatalf("fetch stock: %v", err)
	}
	if !largest.Quantity.Equal(dec("48")) {
		t.Fatalf("largest location = %s, want 48", largest.Quantity)
	}

	invoice, err := models.GetInvoiceByNumber(db, businessId, result.InvoiceNo)
	if err != nil {
		t.Fatalf("fetch invoice: %v", err)
	}
	if invoice.CurrentStatus != models.InvoiceStatusPartial {
		t.Fatalf("status = %s, want Partial", invoice.CurrentStatus)
	}
	if !invoice.DueAmount.Equal(dec("6000")) {
		t.Fatalf("due = %s, want 6000", invoice.DueAmount)
	}

	// Settling the remainder flips the invoice to Paid and zeroes the balance.
	_, err = workflow.ProcessRecordPayment(ctx, db, logger, businessId, workflow.RecordPaymentInput{
		OrderId: result.OrderId,
		Amount:  dec("6000"),
		Method:  models.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("ProcessRecordPayment: %v", err)
	}
	invoice, err = models.GetInvoiceByNumber(db, businessId, result.InvoiceNo)
	if err != nil {
		t.Fatalf("fetch invoice: %v", err)
	}
	if invoice.CurrentStatus != models.InvoiceStatusPaid {
		t.Fatalf("status = %s, want Paid", invoice.CurrentStatus)
	}
	if !invoice.DueAmount.IsZero() {
		t.Fatalf("due = %s, want 0", invoice.DueAmount)
	}
	if got := fetchCustomer(t, db, businessId, customer.ID).OutstandingBalance; !got.IsZero() {
		t.Fatalf("balance = %s, want 0", got)
	}
}

func TestChequeReturnFullyReversesDepositAndPayment(t *testing.T) {
	db, businessId := setupIntegration(t)
	ctx := context.Background()
	logger := config.GetLogger()

	customer := seedCustomer(t, db, businessId)
	product := seedProduct(t, db, businessId, "Soap Box", "ACME", "100", "700")
	account := models.Account{BusinessId: businessId, Name: "Main Bank", Balance: dec("0"), IsActive: utils.NewTrue()}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}

	result, err := workflow.ProcessCreateInvoice(ctx, db, logger, businessId, workflow.CreateInvoiceInput{
		CustomerId:  customer.ID,
		Items:       []workflow.InvoiceItemInput{{ProductId: product.ID, Quantity: dec("5"), UnitPrice: dec("1000"), Total: dec("5000")}},
		GrandTotal:  dec("5000"),
		PaymentType: models.PaymentMethodCredit,
	})
	if err != nil {
		t.Fatalf("ProcessCreateInvoice: %v", err)
	}

	payment, err := workflow.ProcessRecordPayment(ctx, db, logger, businessId, workflow.RecordPaymentInput{
		OrderId:      result.OrderId,
		Amount:       dec("5000"),
		Method:       models.PaymentMethodCheque,
		ChequeNumber: "CHQ-777",
	})
	if err != nil {
		t.Fatalf("ProcessRecordPayment: %v", err)
	}

	// Cheque already counts toward the invoice before it clears.
	invoice, err := models.GetInvoiceByOrderId(db, businessId, result.OrderId)
	if err != nil {
		t.Fatalf("fetch invoice: %v", err)
	}
	if invoice.CurrentStatus != models.InvoiceStatusPaid {
		t.Fatalf("status = %s, want Paid", invoice.CurrentStatus)
	}
	if got := fetchCustomer(t, db, businessId, customer.ID).OutstandingBalance; !got.IsZero() {
		t.Fatalf("balance = %s, want 0", got)
	}

	err = workflow.ProcessChequeAction(ctx, db, logger, businessId, workflow.ChequeActionInput{
		PaymentId:        payment.ID,
		Action:           workflow.ChequeActionDeposit,
		DepositAccountId: account.ID,
	})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	deposited, err := models.GetAccountById(db, businessId, account.ID)
	if err != nil {
		t.Fatalf("fetch account: %v", err)
	}
	if !deposited.Balance.Equal(dec("5000")) {
		t.Fatalf("account balance = %s, want 5000", deposited.Balance)
	}

	err = workflow.ProcessChequeAction(ctx, db, logger, businessId, workflow.ChequeActionInput{
		PaymentId: payment.ID,
		Action:    workflow.ChequeActionReturn,
	})
	if err != nil {
		t.Fatalf("return: %v", err)
	}

	// Everything the cheque moved comes back: invoice paid, customer balance,
	// and the deposit account.
	invoice, err = models.GetInvoiceByOrderId(db, businessId, result.OrderId)
	if err != nil {
		t.Fatalf("refetch invoice: %v", err)
	}
	if invoice.CurrentStatus != models.InvoiceStatusUnpaid {
		t.Fatalf("status = %s, want Unpaid", invoice.CurrentStatus)
	}
	if !invoice.PaidAmount.IsZero() {
		t.Fatalf("paid = %s, want 0", invoice.PaidAmount)
	}
	if got := fetchCustomer(t, db, businessId, customer.ID).OutstandingBalance; !got.Equal(dec("5000")) {
		t.Fatalf("balance = %s, want 5000", got)
	}
	returned, err := models.GetAccountById(db, businessId, account.ID)
	if err != nil {
		t.Fatalf("refetch account: %v", err)
	}
	if !returned.Balance.IsZero() {
		t.Fatalf("account balance = %s, want 0", returned.Balance)
	}

	// Terminal state: no further actions allowed.
	err = workflow.ProcessChequeAction(ctx, db, logger, businessId, workflow.ChequeActionInput{
		PaymentId: payment.ID,
		Action:    workflow.ChequeActionClear,
	})
	if kind, ok := utils.KindOf(err); !ok || kind != utils.ErrorKindConflict {
		t.Fatalf("expected Conflict on terminal cheque, got %v", err)
	}
}

func TestCancelOrderRestoresStockExactlyOnce(t *testing.T) {
	db, businessId := setupIntegration(t)
	ctx := context.Background()
	logger := config.GetLogger()

	customer := seedCustomer(t, db, businessId)
	product := seedProduct(t, db, businessId, "Noodle Pack", "ACME", "100", "700")

	result, err := workflow.ProcessCreateInvoice(ctx, db, logger, businessId, workflow.CreateInvoiceInput{
		CustomerId:  customer.ID,
		Items:       []workflow.InvoiceItemInput{{ProductId: product.ID, Quantity: dec("10"), FreeQuantity: dec("2"), UnitPrice: dec("1000"), Total: dec("10000")}},
		GrandTotal:  dec("10000"),
		PaymentType: models.PaymentMethodCredit,
	})
	if err != nil {
		t.Fatalf("ProcessCreateInvoice: %v", err)
	}
	if got := fetchProduct(t, db, businessId, product.ID).StockQuantity; !got.Equal(dec("88")) {
		t.Fatalf("stock = %s, want 88", got)
	}

	if err := workflow.ProcessCancelOrder(ctx, db, logger, businessId, result.OrderId); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := fetchProduct(t, db, businessId, product.ID).StockQuantity; !got.Equal(dec("100")) {
		t.Fatalf("stock = %s, want 100 after restore", got)
	}

	// A second cancel must not double-restore.
	err = workflow.ProcessCancelOrder(ctx, db, logger, businessId, result.OrderId)
	if kind, ok := utils.KindOf(err); !ok || kind != utils.ErrorKindConflict {
		t.Fatalf("expected Conflict on repeat cancel, got %v", err)
	}
	if got := fetchProduct(t, db, businessId, product.ID).StockQuantity; !got.Equal(dec("100")) {
		t.Fatalf("stock = %s, want 100 after repeat cancel", got)
	}
}

func TestDamageMovesGoodStockIntoDamagedBucket(t *testing.T) {
	db, businessId := setupIntegration(t)
	ctx := context.Background()
	logger := config.GetLogger()

	product := seedProduct(t, db, businessId, "Juice Bottle", "ACME", "50", "700")
	location := models.Location{BusinessId: businessId, Name: "Depot", IsActive: utils.NewTrue()}
	if err := db.Create(&location).Error; err != nil {
		t.Fatalf("create location: %v", err)
	}
	if err := db.Create(&models.ProductStock{BusinessId: businessId, ProductId: product.ID, LocationId: location.ID, Quantity: dec("50")}).Error; err != nil {
		t.Fatalf("create stock: %v", err)
	}

	result, err := workflow.ProcessDamageBatch(ctx, db, logger, businessId, workflow.DamageBatchInput{
		Items: []workflow.DamageBatchItem{
			{ProductId: product.ID, LocationId: location.ID, Quantity: dec("3"), Reason: "crushed in transit"},
			{ProductId: 999999, LocationId: location.ID, Quantity: dec("1"), Reason: "no such product"},
		},
	})
	if err != nil {
		t.Fatalf("ProcessDamageBatch: %v", err)
	}
	if result.Processed != 1 || len(result.Errors) != 1 {
		t.Fatalf("processed=%d errors=%d, want 1/1", result.Processed, len(result.Errors))
	}

	got := fetchProduct(t, db, businessId, product.ID)
	if !got.StockQuantity.Equal(dec("47")) || !got.DamagedQuantity.Equal(dec("3")) {
		t.Fatalf("good=%s damaged=%s, want 47/3", got.StockQuantity, got.DamagedQuantity)
	}
	var stock models.ProductStock
	if err := db.Where("business_id = ? AND product_id = ? AND location_id = ?", businessId, product.ID, location.ID).First(&stock).Error; err != nil {
		t.Fatalf("fetch stock: %v", err)
	}
	if !stock.Quantity.Equal(dec("47")) || !stock.DamagedQuantity.Equal(dec("3")) {
		t.Fatalf("location good=%s damaged=%s, want 47/3", stock.Quantity, stock.DamagedQuantity)
	}

	// The audit trail records the move with zero money.
	var entry models.AccountTransaction
	if err := db.Where("business_id = ? AND type = ?", businessId, models.AccountTransactionTypeInventoryDamage).First(&entry).Error; err != nil {
		t.Fatalf("fetch ledger entry: %v", err)
	}
	if !entry.Amount.IsZero() {
		t.Fatalf("damage ledger amount = %s, want 0", entry.Amount)
	}
}

func TestInterBranchBillRerunBillsOnlyTheDelta(t *testing.T) {
	db, businessId := setupIntegration(t)
	ctx := context.Background()
	logger := config.GetLogger()

	branchCustomer := seedCustomer(t, db, businessId)
	// The agency filter is a substring of the full supplier name.
	product := seedProduct(t, db, businessId, "Agency Cola", "COLA-CO Bottling Ltd", "1000", "700")
	retailCustomer := seedCustomer(t, db, businessId)

	agency := models.Agency{
		BusinessId:         businessId,
		Code:               fmt.Sprintf("COLA-%d", time.Now().UnixNano()),
		Name:               "Cola Agency",
		SupplierNameFilter: "COLA-CO",
		CustomerId:         branchCustomer.ID,
		InvoicePrefix:      fmt.Sprintf("CB%d", time.Now().UnixNano()%100000),
	}
	if err := db.Create(&agency).Error; err != nil {
		t.Fatalf("create agency: %v", err)
	}

	orderDate := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	_, err := workflow.ProcessCreateInvoice(ctx, db, logger, businessId, workflow.CreateInvoiceInput{
		CustomerId:  retailCustomer.ID,
		OrderDate:   orderDate,
		Items:       []workflow.InvoiceItemInput{{ProductId: product.ID, Quantity: dec("20"), FreeQuantity: dec("5"), UnitPrice: dec("1000"), Total: dec("20000")}},
		GrandTotal:  dec("20000"),
		PaymentType: models.PaymentMethodCredit,
	})
	if err != nil {
		t.Fatalf("seed sale: %v", err)
	}

	first, err := workflow.ProcessInterBranchBill(ctx, db, logger, businessId, &agency, workflow.InterBranchBillInput{Year: 2026, Month: 7})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	// 20 billed units at cost 700; the 5 free units are not billed.
	if !first.TotalAmount.Equal(dec("14000")) {
		t.Fatalf("total = %s, want 14000", first.TotalAmount)
	}
	balanceAfterFirst := fetchCustomer(t, db, businessId, branchCustomer.ID).OutstandingBalance
	if !balanceAfterFirst.Equal(dec("14000")) {
		t.Fatalf("balance = %s, want 14000", balanceAfterFirst)
	}

	// Identical re-run must change nothing.
	second, err := workflow.ProcessInterBranchBill(ctx, db, logger, businessId, &agency, workflow.InterBranchBillInput{Year: 2026, Month: 7})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.Replaced {
		t.Fatal("second run should replace the existing invoice")
	}
	if second.InvoiceNo != first.InvoiceNo {
		t.Fatalf("invoice number changed: %s vs %s", second.InvoiceNo, first.InvoiceNo)
	}
	if got := fetchCustomer(t, db, businessId, branchCustomer.ID).OutstandingBalance; !got.Equal(dec("14000")) {
		t.Fatalf("balance = %s, want 14000 after idempotent rerun", got)
	}

	// More movement in the same month: the rerun bills only the difference.
	_, err = workflow.ProcessCreateInvoice(ctx, db, logger, businessId, workflow.CreateInvoiceInput{
		CustomerId:  retailCustomer.ID,
		OrderDate:   orderDate.AddDate(0, 0, 5),
		Items:       []workflow.InvoiceItemInput{{ProductId: product.ID, Quantity: dec("10"), UnitPrice: dec("1000"), Total: dec("10000")}},
		GrandTotal:  dec("10000"),
		PaymentType: models.PaymentMethodCredit,
	})
	if err != nil {
		t.Fatalf("second sale: %v", err)
	}
	third, err := workflow.ProcessInterBranchBill(ctx, db, logger, businessId, &agency, workflow.InterBranchBillInput{Year: 2026, Month: 7})
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if !third.TotalAmount.Equal(dec("21000")) {
		t.Fatalf("total = %s, want 21000", third.TotalAmount)
	}
	if got := fetchCustomer(t, db, businessId, branchCustomer.ID).OutstandingBalance; !got.Equal(dec("21000")) {
		t.Fatalf("balance = %s, want 21000", got)
	}
}

func TestEditInvoiceRevertsThenReapplies(t *testing.T) {
	db, businessId := setupIntegration(t)
	ctx := context.Background()
	logger := config.GetLogger()

	customer := seedCustomer(t, db, businessId)
	product := seedProduct(t, db, businessId, "Rice Bag", "ACME", "100", "700")
	salesRepId, locationIds := seedRepWithLocations(t, db, businessId, product.ID, []string{"60", "40"})

	result, err := workflow.ProcessCreateInvoice(ctx, db, logger, businessId, workflow.CreateInvoiceInput{
		CustomerId:  customer.ID,
		SalesRepId:  salesRepId,
		Items:       []workflow.InvoiceItemInput{{ProductId: product.ID, Quantity: dec("10"), UnitPrice: dec("1000"), Total: dec("10000")}},
		GrandTotal:  dec("10000"),
		PaidAmount:  dec("4000"),
		PaymentType: models.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	invoice, err := models.GetInvoiceByOrderId(db, businessId, result.OrderId)
	if err != nil {
		t.Fatalf("fetch invoice: %v", err)
	}

	err = workflow.ProcessEditInvoice(ctx, db, logger, businessId, invoice.ID, workflow.EditInvoiceInput{
		UserId:     1,
		Items:      []workflow.InvoiceItemInput{{ProductId: product.ID, Quantity: dec("6"), UnitPrice: dec("1000"), Total: dec("6000")}},
		GrandTotal: dec("6000"),
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	// Stock reflects the new quantity only: 100 - 6.
	if got := fetchProduct(t, db, businessId, product.ID).StockQuantity; !got.Equal(dec("94")) {
		t.Fatalf("stock = %s, want 94", got)
	}
	// Location stock keeps the allocation from creation: edits move global
	// stock only, so the largest location still shows 60 - 10.
	fetchLocationQty := func(locationId int) decimal.Decimal {
		var stock models.ProductStock
		if err := db.Where("business_id = ? AND product_id = ? AND location_id = ?", businessId, product.ID, locationId).First(&stock).Error; err != nil {
			t.Fatalf("fetch location stock: %v", err)
		}
		return stock.Quantity
	}
	if got := fetchLocationQty(locationIds[0]); !got.Equal(dec("50")) {
		t.Fatalf("largest location = %s, want 50 after edit", got)
	}
	if got := fetchLocationQty(locationIds[1]); !got.Equal(dec("40")) {
		t.Fatalf("second location = %s, want 40 after edit", got)
	}

	// Repeating the identical edit must not move anything again.
	err = workflow.ProcessEditInvoice(ctx, db, logger, businessId, invoice.ID, workflow.EditInvoiceInput{
		UserId:     1,
		Items:      []workflow.InvoiceItemInput{{ProductId: product.ID, Quantity: dec("6"), UnitPrice: dec("1000"), Total: dec("6000")}},
		GrandTotal: dec("6000"),
	})
	if err != nil {
		t.Fatalf("repeat edit: %v", err)
	}
	if got := fetchProduct(t, db, businessId, product.ID).StockQuantity; !got.Equal(dec("94")) {
		t.Fatalf("stock = %s, want 94 after repeat edit", got)
	}
	if got := fetchLocationQty(locationIds[0]); !got.Equal(dec("50")) {
		t.Fatalf("largest location = %s, want 50 after repeat edit", got)
	}

	// Balance reflects the new total minus the surviving payment: 6000 - 4000.
	if got := fetchCustomer(t, db, businessId, customer.ID).OutstandingBalance; !got.Equal(dec("2000")) {
		t.Fatalf("balance = %s, want 2000", got)
	}

	invoice, err = models.GetInvoiceById(db, businessId, invoice.ID)
	if err != nil {
		t.Fatalf("refetch invoice: %v", err)
	}
	if !invoice.TotalAmount.Equal(dec("6000")) || !invoice.PaidAmount.Equal(dec("4000")) {
		t.Fatalf("total=%s paid=%s, want 6000/4000", invoice.TotalAmount, invoice.PaidAmount)
	}

	// The pre-edit state is preserved for audit.
	var history models.InvoiceHistory
	if err := db.Where("business_id = ? AND invoice_id = ?", businessId, invoice.ID).First(&history).Error; err != nil {
		t.Fatalf("fetch history: %v", err)
	}
	if len(history.Snapshot) == 0 {
		t.Fatal("history snapshot must not be empty")
	}
}

func TestInvoiceLinkedReturnShrinksLineAndBalance(t *testing.T) {
	db, businessId := setupIntegration(t)
	ctx := context.Background()
	logger := config.GetLogger()

	customer := seedCustomer(t, db, businessId)
	product := seedProduct(t, db, businessId, "Milk Tin", "ACME", "100", "700")
	location := models.Location{BusinessId: businessId, Name: "Depot", IsActive: utils.NewTrue()}
	if err := db.Create(&location).Error; err != nil {
		t.Fatalf("create location: %v", err)
	}

	result, err := workflow.ProcessCreateInvoice(ctx, db, logger, businessId, workflow.CreateInvoiceInput{
		CustomerId:  customer.ID,
		Items:       []workflow.InvoiceItemInput{{ProductId: product.ID, Quantity: dec("10"), UnitPrice: dec("1000"), Total: dec("10000")}},
		GrandTotal:  dec("10000"),
		PaymentType: models.PaymentMethodCredit,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	invoice, err := models.GetInvoiceByOrderId(db, businessId, result.OrderId)
	if err != nil {
		t.Fatalf("fetch invoice: %v", err)
	}

	_, err = workflow.ProcessInventoryReturn(ctx, db, logger, businessId, workflow.InventoryReturnInput{
		ProductId:  product.ID,
		LocationId: location.ID,
		CustomerId: &customer.ID,
		InvoiceId:  &invoice.ID,
		Quantity:   dec("4"),
		ReturnType: models.ReturnTypeGood,
		Reason:     "overstocked shelf",
	})
	if err != nil {
		t.Fatalf("return: %v", err)
	}

	// Sold 10, returned 4: the line scales to 6 and the invoice re-sums.
	invoice, err = models.GetInvoiceById(db, businessId, invoice.ID)
	if err != nil {
		t.Fatalf("refetch invoice: %v", err)
	}
	if !invoice.TotalAmount.Equal(dec("6000")) {
		t.Fatalf("total = %s, want 6000", invoice.TotalAmount)
	}
	if got := fetchCustomer(t, db, businessId, customer.ID).OutstandingBalance; !got.Equal(dec("6000")) {
		t.Fatalf("balance = %s, want 6000", got)
	}
	// The returned units are back in good stock: 100 - 10 + 4.
	if got := fetchProduct(t, db, businessId, product.ID).StockQuantity; !got.Equal(dec("94")) {
		t.Fatalf("stock = %s, want 94", got)
	}
}
