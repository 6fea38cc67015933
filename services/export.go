package services

import (
	"agri-market/models"

	"github.com/tealeg/xlsx"
)

// OrdersSheet is the name of the worksheet written by OrdersWorkbook.
const OrdersSheet = "Orders"

var orderExportHeaders = []string{
	"Order ID", "Placed At", "Consumer", "Product", "Farmer",
	"Quantity", "Unit Price", "Order Total", "Status", "Payment Method", "Payment Status",
	"Shipping Address",
}

// OrdersWorkbook renders the admin order view as a spreadsheet with one row
// per line item.
func OrdersWorkbook(orders []models.PopulatedOrder) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(OrdersSheet)
	if err != nil {
		return nil, err
	}

	header := sheet.AddRow()
	for _, h := range orderExportHeaders {
		header.AddCell().SetValue(h)
	}

	for _, o := range orders {
		consumer := ""
		if o.User != nil {
			consumer = o.User.Username
		}
		for _, item := range o.Items {
			product, farmer := "(deleted product)", ""
			if item.Product != nil {
				product = item.Product.Name
				if item.Product.Farmer != nil {
					farmer = item.Product.Farmer.Username
				}
			}

			row := sheet.AddRow()
			row.AddCell().SetValue(o.ID.Hex())
			row.AddCell().SetValue(o.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
			row.AddCell().SetValue(consumer)
			row.AddCell().SetValue(product)
			row.AddCell().SetValue(farmer)
			row.AddCell().SetInt(item.Quantity)
			row.AddCell().SetFloat(item.Price)
			row.AddCell().SetFloat(o.TotalAmount)
			row.AddCell().SetValue(string(o.Status))
			row.AddCell().SetValue(string(o.PaymentMethod))
			row.AddCell().SetValue(string(o.PaymentStatus))
			row.AddCell().SetValue(o.ShippingAddress)
		}
	}
	return file, nil
}
