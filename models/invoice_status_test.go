package models_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestInvoiceStatusBoundaries(t *testing.T) {
	cases := []struct {
		name  string
		total string
		paid  string
		want  models.InvoiceStatus
	}{
		{"unpaid at zero", "10000", "0", models.InvoiceStatusUnpaid},
		{"partial just above zero", "10000", "0.01", models.InvoiceStatusPartial},
		{"partial one cent short", "10000", "9999.99", models.InvoiceStatusPartial},
		{"paid exactly at total", "10000", "10000", models.InvoiceStatusPaid},
		{"paid on overpayment", "10000", "10500", models.InvoiceStatusPaid},
		{"zero total is immediately paid", "0", "0", models.InvoiceStatusPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := models.StatusFor(dec(tc.total), dec(tc.paid))
			if got != tc.want {
				t.Fatalf("StatusFor(%s, %s) = %s, want %s", tc.total, tc.paid, got, tc.want)
			}
		})
	}
}

func TestInvoiceSyncRecomputesDueAndStatus(t *testing.T) {
	inv := models.Invoice{TotalAmount: dec("10000"), PaidAmount: dec("4000")}
	inv.Sync()
	if !inv.DueAmount.Equal(dec("6000")) {
		t.Fatalf("due = %s, want 6000", inv.DueAmount)
	}
	if inv.CurrentStatus != models.InvoiceStatusPartial {
		t.Fatalf("status = %s, want Partial", inv.CurrentStatus)
	}

	// Overpayment never drives the due amount negative.
	inv.PaidAmount = dec("12000")
	inv.Sync()
	if !inv.DueAmount.IsZero() {
		t.Fatalf("due = %s, want 0", inv.DueAmount)
	}
	if inv.CurrentStatus != models.InvoiceStatusPaid {
		t.Fatalf("status = %s, want Paid", inv.CurrentStatus)
	}
}

func TestPurchaseStatusMirrorsInvoiceRule(t *testing.T) {
	if got := models.PurchaseStatusFor(dec("500"), dec("500")); got != models.PurchasePaymentStatusPaid {
		t.Fatalf("got %s, want Paid", got)
	}
	if got := models.PurchaseStatusFor(dec("500"), dec("100")); got != models.PurchasePaymentStatusPartial {
		t.Fatalf("got %s, want Partial", got)
	}
	if got := models.PurchaseStatusFor(dec("500"), dec("0")); got != models.PurchasePaymentStatusUnpaid {
		t.Fatalf("got %s, want Unpaid", got)
	}
}
