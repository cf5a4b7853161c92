package orders

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"scentiva/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// Invoice renders a PDF invoice for a paid order, with a QR code of the
// order id for pickup/return desks.
// GET /api/orders/order/:orderid/invoice
func (h *Handlers) Invoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := h.Svc.Orders.FindByID(ctx, ps.ByName("orderid"))
	if errors.Is(err, ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}
	if err != nil {
		log.Println("Invoice lookup error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch order")
		return
	}

	userID := utils.GetUserIDFromRequest(r)
	if order.UserID != userID && !utils.IsAdminRequest(r) {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}
	if !order.IsPaid {
		utils.RespondWithError(w, http.StatusBadRequest, "Order is not paid yet")
		return
	}

	qrPNG, err := qrcode.Encode(order.OrderID, qrcode.Medium, 256)
	if err != nil {
		log.Println("Invoice QR error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate invoice")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Invoice")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Order: %s", order.OrderID))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Date: %s", order.CreatedAt.Format("2006-01-02")))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Ship to: %s, %s %s, %s",
		order.ShippingAddress.Address, order.ShippingAddress.City,
		order.ShippingAddress.PostalCode, order.ShippingAddress.Country))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(90, 7, "Item")
	pdf.Cell(25, 7, "Qty")
	pdf.Cell(35, 7, "Unit")
	pdf.Cell(35, 7, "Amount")
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 11)
	for _, it := range order.Items {
		pdf.Cell(90, 7, it.Title)
		pdf.Cell(25, 7, fmt.Sprintf("%d", it.Quantity))
		pdf.Cell(35, 7, fmt.Sprintf("%.2f", it.Price))
		pdf.Cell(35, 7, fmt.Sprintf("%.2f", it.Price*float64(it.Quantity)))
		pdf.Ln(7)
	}

	pdf.Ln(4)
	rows := []struct {
		label string
		value float64
	}{
		{"Items", order.ItemsPrice},
		{"Tax", order.TaxPrice},
		{"Shipping", order.ShippingPrice},
		{"Discount", -order.Discount},
		{"Total", order.TotalPrice},
	}
	for _, row := range rows {
		if row.label == "Discount" && order.Discount == 0 {
			continue
		}
		pdf.Cell(115, 7, "")
		pdf.Cell(35, 7, row.label)
		pdf.Cell(35, 7, fmt.Sprintf("%.2f", row.value))
		pdf.Ln(7)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 155, 20, 35, 35, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		log.Println("Invoice PDF error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate invoice")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=invoice-"+order.OrderID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
