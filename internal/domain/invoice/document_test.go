package invoice

import (
	"testing"

	"github.com/erp/invoice-export/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_FileNames(t *testing.T) {
	doc := newTestDocument(0, 0)
	assert.Equal(t, "invoice-INV-2024-001.pdf", doc.PDFFileName())
	assert.Equal(t, "invoice-INV-2024-001.png", doc.ImageFileName())
}

func TestDocument_DisplayTitle(t *testing.T) {
	doc := newTestDocument(0, 0)
	assert.Equal(t, "TAX INVOICE", doc.DisplayTitle())
	doc.Title = "BILL OF SUPPLY"
	assert.Equal(t, "BILL OF SUPPLY", doc.DisplayTitle())
}

func TestAssetRefs_Refs(t *testing.T) {
	refs := AssetRefs{CompanyLogoRef: "logo-id", QRPayload: "upi://pay?pa=acme@upi"}.Refs()

	assert.Len(t, refs, 2)
	assert.Equal(t, "logo-id", refs[AssetCompanyLogo])
	assert.Equal(t, "upi://pay?pa=acme@upi", refs[AssetPaymentQR])
	_, hasSignature := refs[AssetSignature]
	assert.False(t, hasSignature)
}

func TestModifier_Active(t *testing.T) {
	var absent *Modifier
	assert.False(t, absent.Active())
	assert.False(t, (&Modifier{Enabled: false}).Active())
	assert.True(t, (&Modifier{Enabled: true}).Active())
}

func TestDocument_CheckStructure(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		doc := newTestDocument(2, 0)
		doc.TaxBreakdown = []TaxRow{{HSN: "8471"}, {HSN: "9983"}}
		assert.NoError(t, doc.CheckStructure())
	})

	t.Run("missing invoice number", func(t *testing.T) {
		doc := newTestDocument(1, 0)
		doc.InvoiceNumber = ""
		err := doc.CheckStructure()
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_DOCUMENT", domainErr.Code)
	})

	t.Run("duplicate HSN rows", func(t *testing.T) {
		doc := newTestDocument(1, 0)
		doc.TaxBreakdown = []TaxRow{{HSN: "8471"}, {HSN: "8471"}}
		err := doc.CheckStructure()
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "DUPLICATE_HSN", domainErr.Code)
	})
}
