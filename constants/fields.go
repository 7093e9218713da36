package constants

// Field is one of the canonical invoice output keys.
type Field string

const (
	PONumber           Field = "PO Number"
	ItemCode           Field = "Item Code"
	Description        Field = "Description"
	UOM                Field = "UOM"
	Quantity           Field = "Quantity"
	LotNumber          Field = "Lot Number"
	ExpiryDate         Field = "Expiry Date"
	MfgDate            Field = "Mfg Date"
	InvoiceNo          Field = "Invoice No"
	UnitPrice          Field = "Unit Price"
	TotalPrice         Field = "Total Price"
	Country            Field = "Country"
	HSCode             Field = "HS Code"
	DateOfInvoice      Field = "Date of Invoice"
	CustomerNo         Field = "Customer No"
	PayerName          Field = "Payer Name"
	Currency           Field = "Currency"
	SupplierName       Field = "Supplier Name"
	TotalInvoiceAmount Field = "Total Amount of the Invoice"
	TotalVATOrTax      Field = "Total VAT or Tax"
)

// Bookkeeping columns appended after the canonical fields.
const (
	ColumnSourceFile     = "Source File"
	ColumnProcessingTime = "Processing Time"
)

// NotAvailable is the sentinel for any canonical field missing from a document.
const NotAvailable = "N/A"

// ProcessingTimeLayout formats the Processing Time column.
const ProcessingTimeLayout = "2006-01-02 15:04:05"

var allFields = []Field{
	PONumber,
	ItemCode,
	Description,
	UOM,
	Quantity,
	LotNumber,
	ExpiryDate,
	MfgDate,
	InvoiceNo,
	UnitPrice,
	TotalPrice,
	Country,
	HSCode,
	DateOfInvoice,
	CustomerNo,
	PayerName,
	Currency,
	SupplierName,
	TotalInvoiceAmount,
	TotalVATOrTax,
}

// synonyms lists alternate labels a document may use for each field.
var synonyms = map[Field][]string{
	PONumber:           {"PO No", "Purchase Order", "P.O. Number", "Order No"},
	ItemCode:           {"Item No", "Product Code", "SKU", "Part Number", "Product ID"},
	Description:        {"Product Description", "Item Description", "Product Name"},
	UOM:                {"Unit of Measure", "Unit", "U/M", "Unit Type"},
	Quantity:           {"Qty", "Amount", "Qty Ordered"},
	LotNumber:          {"Lot No", "Batch Number", "Batch No", "Lot ID"},
	ExpiryDate:         {"Exp Date", "Expiration Date", "Use By Date"},
	MfgDate:            {"Manufacturing Date", "Mfg Date", "Production Date", "Made Date"},
	InvoiceNo:          {"Invoice Number", "Inv No", "Invoice ID"},
	UnitPrice:          {"Price per Unit", "Unit Cost", "Price", "Rate"},
	TotalPrice:         {"Line Total", "Item Total", "Amount"},
	Country:            {"Origin Country", "Country of Origin", "Made In"},
	HSCode:             {"HSN Code", "Tariff Code", "Customs Code"},
	DateOfInvoice:      {"Invoice Date", "Date", "Issue Date"},
	CustomerNo:         {"Customer Number", "Customer ID", "Client No", "Account No"},
	PayerName:          {"Payer", "Bill To", "Billing Name"},
	Currency:           {"Curr", "Currency Code"},
	SupplierName:       {"Vendor Name", "Supplier", "Company Name", "Seller"},
	TotalInvoiceAmount: {"Grand Total", "Total Amount", "Invoice Total", "Net Total"},
	TotalVATOrTax:      {"VAT", "Tax", "Tax Amount", "VAT Amount", "Tax Total"},
}

// Fields returns the canonical fields in export column order.
func Fields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// FieldNames is Fields as plain strings.
func FieldNames() []string {
	out := make([]string, len(allFields))
	for i, f := range allFields {
		out[i] = string(f)
	}
	return out
}

// Columns is the full export header: canonical fields, then bookkeeping.
func Columns() []string {
	return append(FieldNames(), ColumnSourceFile, ColumnProcessingTime)
}

// Synonyms returns the alternate labels for f (nil for unknown fields).
func Synonyms(f Field) []string {
	s := synonyms[f]
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// IsCanonical matches the exact field name; no case folding.
func IsCanonical(name string) bool {
	for _, f := range allFields {
		if string(f) == name {
			return true
		}
	}
	return false
}
