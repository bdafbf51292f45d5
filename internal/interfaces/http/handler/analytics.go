package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	reportapp "github.com/stockpilot/backend/internal/application/report"
	"github.com/stockpilot/backend/internal/domain/report"
)

// AnalyticsService computes the dashboard reports
type AnalyticsService interface {
	Dashboard(ctx context.Context, tenantID uuid.UUID, filter reportapp.PeriodFilter) (*report.Dashboard, error)
	Sales(ctx context.Context, tenantID uuid.UUID, filter reportapp.PeriodFilter) (*report.SalesReport, error)
	Inventory(ctx context.Context, tenantID uuid.UUID) (*report.InventoryReport, error)
	DeadStock(ctx context.Context, tenantID uuid.UUID, filter reportapp.DaysFilter) (*report.DeadStockReport, error)
	Reorder(ctx context.Context, tenantID uuid.UUID) (*reportapp.ReorderResponse, error)
	Turnover(ctx context.Context, tenantID uuid.UUID, filter reportapp.DaysFilter) (*report.TurnoverReport, error)
	SupplierPerformance(ctx context.Context, tenantID uuid.UUID) (*reportapp.SupplierPerformanceResponse, error)
	ABCAnalysis(ctx context.Context, tenantID uuid.UUID, filter reportapp.DaysFilter) (*reportapp.ABCResponse, error)
	GetSettings(ctx context.Context, tenantID uuid.UUID) (*reportapp.SettingsResponse, error)
	UpdateSettings(ctx context.Context, tenantID uuid.UUID, req reportapp.UpdateSettingsRequest) (*reportapp.SettingsResponse, error)
	GrossMargin(ctx context.Context, tenantID uuid.UUID, filter reportapp.PeriodFilter) (*reportapp.MarginResponse, error)
	DemandForecast(ctx context.Context, tenantID uuid.UUID, filter reportapp.WeeksFilter) (*reportapp.ForecastResponse, error)
	SalesVelocity(ctx context.Context, tenantID uuid.UUID, filter reportapp.PeriodFilter) (*reportapp.VelocityResponse, error)
	Opportunities(ctx context.Context, tenantID uuid.UUID, filter reportapp.PeriodFilter) (*reportapp.OpportunitiesResponse, error)
	CustomerInsights(ctx context.Context, tenantID uuid.UUID, filter reportapp.DaysFilter) (*report.CustomerReport, error)
	ChannelFees(ctx context.Context, tenantID uuid.UUID, filter reportapp.PeriodFilter) (*reportapp.ChannelFeesResponse, error)
	UpdateChannelFees(ctx context.Context, tenantID uuid.UUID, req reportapp.UpdateChannelFeesRequest) (*report.ChannelFeeSchedule, error)
	HistoricalSales(ctx context.Context, tenantID uuid.UUID, filter reportapp.HistoricalSalesFilter) (*reportapp.HistoricalSalesResponse, error)
}

// AnalyticsHandler serves the analytics dashboard
type AnalyticsHandler struct {
	BaseHandler
	analyticsService AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analyticsService AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// respond writes the report produced by fn
func respond[T any](h *BaseHandler, c *gin.Context, fn func(ctx context.Context, tenantID uuid.UUID) (T, error)) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	res, err := fn(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Dashboard godoc
// @Summary      Dashboard summary
// @Description  Revenue, orders, average order value, stock health and a daily trend
// @Tags         analytics
// @Produce      json
// @Param        period query int false "Trailing window in days" default(30)
// @Success      200 {object} APIResponse[report.Dashboard]
// @Security     BearerAuth
// @Router       /analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	var filter reportapp.PeriodFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	respond(&h.BaseHandler, c, func(ctx context.Context, tenantID uuid.UUID) (*report.Dashboard, error) {
		return h.analyticsService.Dashboard(ctx, tenantID, filter)
	})
}

// Sales godoc
// @Summary      Sales by SKU
// @Tags         analytics
// @Produce      json
// @Param        period query int false "Trailing window in days" default(30)
// @Success      200 {object} APIResponse[report.SalesReport]
// @Security     BearerAuth
// @Router       /analytics/sales [get]
func (h *AnalyticsHandler) Sales(c *gin.Context) {
	var filter reportapp.PeriodFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	respond(&h.BaseHandler, c, func(ctx context.Context, tenantID uuid.UUID) (*report.SalesReport, error) {
		return h.analyticsService.Sales(ctx, tenantID, filter)
	})
}

// Inventory godoc
// @Summary      Inventory health
// @Tags         analytics
// @Produce      json
// @Success      200 {object} APIResponse[report.InventoryReport]
// @Security     BearerAuth
// @Router       /analytics/inventory [get]
func (h *AnalyticsHandler) Inventory(c *gin.Context) {
	respond(&h.BaseHandler, c, h.analyticsService.Inventory)
}

// DeadStock godoc
// @Summary      Dead stock
// @Description  Variants with stock on hand and no sale in the window
// @Tags         analytics
// @Produce      json
// @Param        days query int false "Window in days; defaults to the tenant setting"
// @Success      200 {object} APIResponse[report.DeadStockReport]
// @Security     BearerAuth
// @Router       /analytics/dead-stock [get]
func (h *AnalyticsHandler) DeadStock(c *gin.Context) {
	var filter reportapp.DaysFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	respond(&h.BaseHandler, c, func(ctx context.Context, tenantID uuid.UUID) (*report.DeadStockReport, error) {
		return h.analyticsService.DeadStock(ctx, tenantID, filter)
	})
}

// Reorder godoc
// @Summary      Reorder suggestions
// @Tags         analytics
// @Produce      json
// @Success      200 {object} APIResponse[reportapp.ReorderResponse]
// @Security     BearerAuth
// @Router       /analytics/reorder [get]
func (h *AnalyticsHandler) Reorder(c *gin.Context) {
	respond(&h.BaseHandler, c, h.analyticsService.Reorder)
}

// Turnover godoc
// @Summary      Inventory turnover
// @Tags         analytics
// @Produce      json
// @Param        days query int false "Window in days" default(365)
// @Success      200 {object} APIResponse[report.TurnoverReport]
// @Security     BearerAuth
// @Router       /analytics/inventory-turnover [get]
func (h *AnalyticsHandler) Turnover(c *gin.Context) {
	var filter reportapp.DaysFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	respond(&h.BaseHandler, c, func(ctx context.Context, tenantID uuid.UUID) (*report.TurnoverReport, error) {
		return h.analyticsService.Turnover(ctx, tenantID, filter)
	})
}

// SupplierPerformance godoc
// @Summary      Supplier scorecard
// @Tags         analytics
// @Produce      json
// @Success      200 {object} APIResponse[reportapp.SupplierPerformanceResponse]
// @Security     BearerAuth
// @Router       /analytics/supplier-performance [get]
func (h *AnalyticsHandler) SupplierPerformance(c *gin.Context) {
	respond(&h.BaseHandler, c, h.analyticsService.SupplierPerformance)
}

// ABCAnalysis godoc
// @Summary      ABC classification by revenue
// @Tags         analytics
// @Produce      json
// @Param        days query int false "Window in days" default(90)
// @Success      200 {object} APIResponse[reportapp.ABCResponse]
// @Security     BearerAuth
// @Router       /analytics/abc-analysis [get]
func (h *AnalyticsHandler) ABCAnalysis(c *gin.Context) {
	var filter reportapp.DaysFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	respond(&h.BaseHandler, c, func(ctx context.Context, tenantID uuid.UUID) (*reportapp.ABCResponse, error) {
		return h.analyticsService.ABCAnalysis(ctx, tenantID, filter)
	})
}

// GetSettings godoc
// @Summary      Analytics settings
// @Tags         analytics
// @Produce      json
// @Success      200 {object} APIResponse[reportapp.SettingsResponse]
// @Security     BearerAuth
// @Router       /analytics/settings [get]
func (h *AnalyticsHandler) GetSettings(c *gin.Context) {
	respond(&h.BaseHandler, c, h.analyticsService.GetSettings)
}

// UpdateSettings godoc
// @Summary      Change analytics settings
// @Tags         analytics
// @Accept       json
// @Produce      json
// @Param        request body reportapp.UpdateSettingsRequest true "Settings"
// @Success      200 {object} APIResponse[reportapp.SettingsResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /analytics/settings [put]
func (h *AnalyticsHandler) UpdateSettings(c *gin.Context) {
	var req reportapp.UpdateSettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	respond(&h.BaseHandler, c, func(ctx context.Context, tenantID uuid.UUID) (*reportapp.SettingsResponse, error) {
		return h.analyticsService.UpdateSettings(ctx, tenantID, req)
	})
}

// GrossMargin godoc
// @Summary      Gross margin by SKU
// @Description  Profit, margin percentage and margin per unit, rated Excellent (50%+) down to Critical (under 10%)
// @Tags         analytics
// @Produce      json
// @Param        period query int false "Trailing window in days" default(30)
// @Success      200 {object} APIResponse[reportapp.MarginResponse]
// @Security     BearerAuth
// @Router       /analytics/gross-margin [get]
func (h *AnalyticsHandler) GrossMargin(c *gin.Context) {
	var filter reportapp.PeriodFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	respond(&h.BaseHandler, c, func(ctx context.Context, tenantID uuid.UUID) (*reportapp.MarginResponse, error) {
		return h.analyticsService.GrossMargin(ctx, tenantID, filter)
	})
}

// DemandForecast godoc
// @Summary      Next-week demand forecast
// @Description  Four-week moving averages of weekly units, extrapolated by their latest change
// @Tags         analytics
// @Produce      json
// @Param        weeks query int false "Weeks of history" default(8)
// @Success      200 {object} APIResponse[reportapp.ForecastResponse]
// @Security     BearerAuth
// @Router       /analytics/demand-forecast [get]
func (h *AnalyticsHandler) DemandForecast(c *gin.Context) {
	var filter reportapp.WeeksFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	respond(&h.BaseHandler, c, func(ctx context.Context, tenantID uuid.UUID) (*reportapp.ForecastResponse, error) {
		return h.analyticsService.DemandForecast(ctx, tenantID, filter)
	})
}

// SalesVelocity godoc
// @Summary      Sales velocity by SKU
// @Tags         analytics
// @Produce      json
// @Param        period query int false "Trailing window in days" default(30)
// @Success      200 {object} APIResponse[reportapp.VelocityResponse]
// @Security     BearerAuth
// @Router       /analytics/sales-velocity [get]
func (h *AnalyticsHandler) SalesVelocity(c *gin.Context) {
	var filter reportapp.PeriodFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	respond(&h.BaseHandler, c, func(ctx context.Context, tenantID uuid.UUID) (*reportapp.VelocityResponse, error) {
		return h.analyticsService.SalesVelocity(ctx, tenantID, filter)
	})
}

// Opportunities godoc
// @Summary      Hidden revenue opportunities
// @Tags         analytics
// @Produce      json
// @Param        period query int false "Trailing window in days" default(30)
// @Success      200 {object} APIResponse[reportapp.OpportunitiesResponse]
// @Security     BearerAuth
// @Router       /analytics/opportunities [get]
func (h *AnalyticsHandler) Opportunities(c *gin.Context) {
	var filter reportapp.PeriodFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	respond(&h.BaseHandler, c, func(ctx context.Context, tenantID uuid.UUID) (*reportapp.OpportunitiesResponse, error) {
		return h.analyticsService.Opportunities(ctx, tenantID, filter)
	})
}

// CustomerInsights godoc
// @Summary      Customer segments
// @Tags         analytics
// @Produce      json
// @Param        days query int false "Window in days" default(365)
// @Success      200 {object} APIResponse[report.CustomerReport]
// @Security     BearerAuth
// @Router       /analytics/customers [get]
func (h *AnalyticsHandler) CustomerInsights(c *gin.Context) {
	var filter reportapp.DaysFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	respond(&h.BaseHandler, c, func(ctx context.Context, tenantID uuid.UUID) (*report.CustomerReport, error) {
		return h.analyticsService.CustomerInsights(ctx, tenantID, filter)
	})
}

// ChannelFees godoc
// @Summary      Fee burden per sales channel
// @Tags         analytics
// @Produce      json
// @Param        period query int false "Trailing window in days" default(30)
// @Success      200 {object} APIResponse[reportapp.ChannelFeesResponse]
// @Security     BearerAuth
// @Router       /analytics/channel-fees [get]
func (h *AnalyticsHandler) ChannelFees(c *gin.Context) {
	var filter reportapp.PeriodFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	respond(&h.BaseHandler, c, func(ctx context.Context, tenantID uuid.UUID) (*reportapp.ChannelFeesResponse, error) {
		return h.analyticsService.ChannelFees(ctx, tenantID, filter)
	})
}

// UpdateChannelFees godoc
// @Summary      Set a channel fee schedule
// @Tags         analytics
// @Accept       json
// @Produce      json
// @Param        request body reportapp.UpdateChannelFeesRequest true "Fee schedule"
// @Success      200 {object} APIResponse[report.ChannelFeeSchedule]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /analytics/channel-fees [put]
func (h *AnalyticsHandler) UpdateChannelFees(c *gin.Context) {
	var req reportapp.UpdateChannelFeesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	respond(&h.BaseHandler, c, func(ctx context.Context, tenantID uuid.UUID) (*report.ChannelFeeSchedule, error) {
		return h.analyticsService.UpdateChannelFees(ctx, tenantID, req)
	})
}

// HistoricalSales godoc
// @Summary      Weekly sales history of SKUs
// @Tags         analytics
// @Produce      json
// @Param        sku   query []string true  "SKUs" collectionFormat(multi)
// @Param        weeks query int      false "Weeks of history" default(12)
// @Success      200 {object} APIResponse[reportapp.HistoricalSalesResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /analytics/historical-sales [get]
func (h *AnalyticsHandler) HistoricalSales(c *gin.Context) {
	var filter reportapp.HistoricalSalesFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	respond(&h.BaseHandler, c, func(ctx context.Context, tenantID uuid.UUID) (*reportapp.HistoricalSalesResponse, error) {
		return h.analyticsService.HistoricalSales(ctx, tenantID, filter)
	})
}
