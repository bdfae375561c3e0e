package models

import (
	"log"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Business{}, &Agency{}, &User{},
		&Customer{}, &Supplier{},
		&Product{}, &Location{}, &ProductStock{}, &SalesRepLocation{},
		&Order{}, &OrderItem{}, &RepCommission{},
		&Invoice{}, &InvoiceHistory{},
		&Payment{}, &Account{},
		&Purchase{}, &SupplierPayment{},
		&InventoryReturn{}, &SupplierDamageClaim{},
		&AccountTransaction{}, &TransactionNumberSeries{},
		&LoadingSheet{}, &LoadingSheetOrder{},
		&IdempotencyKey{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
