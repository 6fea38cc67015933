package controllers

import (
	"context"
	"net/http"
	"time"

	"agri-market/services"
	"agri-market/utils"

	"github.com/rs/zerolog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminController serves the admin dashboard
type AdminController struct {
	Reports *services.ReportService
	now     func() time.Time
}

// NewAdminController creates a new AdminController
func NewAdminController(reports *services.ReportService) *AdminController {
	return &AdminController{Reports: reports, now: time.Now}
}

// GetSummary returns the headline counters
func (ac *AdminController) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := ac.Reports.Summary(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

// GetSalesOverTime returns delivered revenue per day for the last 30 days
func (ac *AdminController) GetSalesOverTime(w http.ResponseWriter, r *http.Request) {
	sales, err := ac.Reports.SalesOverTime(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, sales)
}

// GetOrders lists every order with consumer, products and farmers resolved
func (ac *AdminController) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := ac.Reports.AdminOrders(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

// ExportOrders downloads the admin order list as an Excel workbook
func (ac *AdminController) ExportOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := ac.Reports.AdminOrders(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	file, err := services.OrdersWorkbook(orders)
	if err != nil {
		utils.WriteError(w, r, utils.ServerError(err))
		return
	}

	filename := "orders-" + ac.now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Transfer-Encoding", "binary")
	w.Header().Set("Expires", "0")
	if err := file.Write(w); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to write order export")
	}
}

// HealthController reports whether the store is reachable
type HealthController struct {
	Store   Pinger
	Timeout time.Duration
}

// Pinger checks a backend connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthController creates a new HealthController
func NewHealthController(store Pinger) *HealthController {
	return &HealthController{Store: store, Timeout: 2 * time.Second}
}

// Healthz answers 200 when the store responds to a ping
func (hc *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), hc.Timeout)
	defer cancel()
	if err := hc.Store.Ping(ctx); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("health check failed")
		utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
