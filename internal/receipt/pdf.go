package receipt

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"

	"storefront/internal/domain"
)

// PDFRenderer produces a one-page order receipt with a QR code carrying the
// order reference.
type PDFRenderer struct {
	storeName string
	log       *logrus.Logger
}

var _ domain.ReceiptRenderer = (*PDFRenderer)(nil)

func NewPDFRenderer(storeName string, logger *logrus.Logger) *PDFRenderer {
	return &PDFRenderer{storeName: storeName, log: logger}
}

// QRPayload is the text encoded in the receipt's QR code.
func QRPayload(order *domain.Order) string {
	return fmt.Sprintf("order:%d|total:%s|status:%s", order.ID, order.TotalAmount.StringFixed(2), order.Status)
}

func (r *PDFRenderer) RenderReceipt(order *domain.Order) ([]byte, error) {
	qrPNG, err := qrcode.Encode(QRPayload(order), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate qr code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(fmt.Sprintf("Order #%d", order.ID), true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, tr(r.storeName))
	pdf.Ln(10)
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Order #%d", order.ID))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, "Date: "+order.CreatedAt.Format("2006-01-02 15:04"))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Status: "+string(order.Status))
	pdf.Ln(7)

	if s := order.ShippingInfo; s != nil {
		pdf.Cell(0, 7, tr("Customer: "+s.FullName))
		pdf.Ln(7)
		pdf.Cell(0, 7, tr("Contact: "+strings.TrimSpace(s.Phone+"  "+s.Email)))
		pdf.Ln(7)
		pdf.Cell(0, 7, tr("Ship to: "+shippingAddress(s)))
		pdf.Ln(7)
		pdf.Cell(0, 7, "Shipping: "+string(s.ShippingMethod))
		pdf.Ln(7)
	}
	for _, p := range order.Payments {
		pdf.Cell(0, 7, fmt.Sprintf("Payment: %s (%s)", p.PaymentMethod, p.PaymentStatus))
		pdf.Ln(7)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 155, 12, 40, 40, false, opts, 0, "")

	pdf.Ln(5)
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(95, 8, "Product", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 8, "Unit price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Subtotal", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, item := range order.Items {
		name := fmt.Sprintf("Product #%d", item.ProductID)
		if item.Product != nil && item.Product.Name != "" {
			name = item.Product.Name
		}
		subtotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		pdf.CellFormat(95, 8, tr(name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 8, item.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, subtotal.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(150, 9, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 9, order.TotalAmount.StringFixed(2), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		r.log.Errorf("Receipt: Failed to render receipt for order %d: %v", order.ID, err)
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func shippingAddress(s *domain.ShippingInfo) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{s.AddressDetails, s.District, s.Canton, s.Province} {
		if p != "" && p != domain.GuestGeographyPlaceholder {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
