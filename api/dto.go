/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY ENCODING:
  Money values travel as fixed-2-decimal strings ("1234.50"), never as
  floats. Stock and quantity keep their ledger precision as plain decimal
  strings. Parsing happens in the handlers; DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: Domain records these mirror
*/
package api

import (
	"time"

	"github.com/warp/wholesale-ledger/ledger"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ProductDTO represents a product in API responses.
type ProductDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PurchasePrice string `json:"purchase_price"`
	SellingPrice  string `json:"selling_price"`
	Stock         string `json:"stock"`
	CreatedAt     string `json:"created_at"`
	Retired       bool   `json:"retired,omitempty"`
}

// CreateProductRequest is the request to register a product.
type CreateProductRequest struct {
	Name          string `json:"name"`
	PurchasePrice string `json:"purchase_price"`
	SellingPrice  string `json:"selling_price"`
	InitialStock  string `json:"initial_stock"`
}

// AdjustStockRequest is the request to correct a product's stock.
type AdjustStockRequest struct {
	Delta  string `json:"delta"`
	Reason string `json:"reason,omitempty"`
}

// AdjustStockResponse reports the stock level after an adjustment.
type AdjustStockResponse struct {
	ProductID string `json:"product_id"`
	Stock     string `json:"stock"`
}

// SaleDTO represents a recorded sale in API responses. TotalAmount and
// Profit are server-computed; clients never supply them.
type SaleDTO struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	Quantity    string `json:"quantity"`
	PricePerKg  string `json:"price_per_kg"`
	TotalAmount string `json:"total_amount"`
	Profit      string `json:"profit"`
	SaleDate    string `json:"sale_date"`
}

// CreateSaleRequest is the request to record a sale.
type CreateSaleRequest struct {
	ProductID  string `json:"product_id"`
	Quantity   string `json:"quantity"`
	PricePerKg string `json:"price_per_kg"`
}

// DailyReportDTO represents a daily report.
type DailyReportDTO struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	TotalSales  string  `json:"total_sales"`
	TotalProfit string  `json:"total_profit"`
	TotalCost   string  `json:"total_cost"`
	IsSubmitted bool    `json:"is_submitted"`
	SubmittedAt *string `json:"submitted_at,omitempty"`
}

// DashboardDTO represents the dashboard statistics.
type DashboardDTO struct {
	DailySales   string `json:"daily_sales"`
	DailyProfit  string `json:"daily_profit"`
	DailyCost    string `json:"daily_cost"`
	DailyMargin  string `json:"daily_margin"`
	WeeklyProfit string `json:"weekly_profit"`
	ProductCount int    `json:"product_count"`
}

// WeeklyPointDTO is one day of the trailing-week series.
type WeeklyPointDTO struct {
	Date   string `json:"date"`
	Label  string `json:"label"` // short weekday name
	Sales  string `json:"sales"`
	Profit string `json:"profit"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toProductDTO(p ledger.Product) ProductDTO {
	return ProductDTO{
		ID:            string(p.ID),
		Name:          p.Name,
		PurchasePrice: p.PurchasePrice.StringFixed(2),
		SellingPrice:  p.SellingPrice.StringFixed(2),
		Stock:         p.Stock.String(),
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		Retired:       p.Retired(),
	}
}

func toProductDTOs(products []ledger.Product) []ProductDTO {
	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	return dtos
}

func toSaleDTO(s ledger.Sale) SaleDTO {
	return SaleDTO{
		ID:          string(s.ID),
		ProductID:   string(s.ProductID),
		Quantity:    s.Quantity.String(),
		PricePerKg:  s.PricePerKg.StringFixed(2),
		TotalAmount: s.TotalAmount.StringFixed(2),
		Profit:      s.Profit.StringFixed(2),
		SaleDate:    s.SaleDate.Format(time.RFC3339),
	}
}

func toSaleDTOs(sales []ledger.Sale) []SaleDTO {
	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		dtos[i] = toSaleDTO(s)
	}
	return dtos
}

func toReportDTO(r ledger.DailyReport) DailyReportDTO {
	dto := DailyReportDTO{
		ID:          string(r.ID),
		Date:        r.Date.String(),
		TotalSales:  r.TotalSales.StringFixed(2),
		TotalProfit: r.TotalProfit.StringFixed(2),
		TotalCost:   r.TotalCost.StringFixed(2),
		IsSubmitted: r.IsSubmitted,
	}
	if r.SubmittedAt != nil {
		s := r.SubmittedAt.Format(time.RFC3339)
		dto.SubmittedAt = &s
	}
	return dto
}
