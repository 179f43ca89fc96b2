package report

import (
	"strconv"

	"gymdesk/internal/api"
	"gymdesk/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register mounts /reports and /financials under g. Both are staff-only.
func (h *Handler) Register(g *gin.RouterGroup, staff gin.HandlerFunc) {
	g.GET("/reports/dues", staff, h.Dues)

	f := g.Group("/financials", staff)
	f.GET("/summary", h.Summary)
	f.GET("/trends", h.Trends)
	f.GET("/roi", h.ROI)
	f.GET("/expenses", h.ListExpenses)
	f.POST("/expenses", h.CreateExpense)
	f.GET("/investments", h.ListInvestments)
	f.POST("/investments", h.CreateInvestment)
}

// @Summary      Dues report
// @Description  Members with outstanding dues, largest balance first. Cancelled subscriptions are excluded.
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        memberId query int false "Member ID"
// @Param        page     query int false "Page"  default(1)
// @Param        limit    query int false "Limit" default(20)
// @Success      200 {object} api.Response{data=[]report.MemberDues}
// @Router       /reports/dues [get]
func (h *Handler) Dues(c *gin.Context) {
	page, limit := api.PageParams(c)
	f := DuesFilter{Page: page, Limit: limit}
	if id, err := strconv.Atoi(c.Query("memberId")); err == nil {
		f.MemberID = &id
	}

	members, total, err := h.service.Dues(c.Request.Context(), auth.GetOrgID(c), f)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.Paged(c, members, api.NewPagination(page, limit, total))
}

// @Summary      Monthly summary
// @Tags         financials
// @Produce      json
// @Security     BearerAuth
// @Param        year  query int false "Year (default current)"
// @Param        month query int false "Month 1-12 (default current)"
// @Success      200 {object} api.Response{data=report.MonthSummary}
// @Router       /financials/summary [get]
func (h *Handler) Summary(c *gin.Context) {
	year, month, ok := period(c)
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), auth.GetOrgID(c), year, month)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, summary)
}

// @Summary      Revenue and expense trend
// @Tags         financials
// @Produce      json
// @Security     BearerAuth
// @Param        months query int false "Trailing months (1-24)" default(6)
// @Success      200 {object} api.Response{data=[]report.TrendPoint}
// @Router       /financials/trends [get]
func (h *Handler) Trends(c *gin.Context) {
	months, err := queryInt(c, "months")
	if err != nil {
		api.Fail(c, ErrInvalidMonths)
		return
	}

	points, err := h.service.Trends(c.Request.Context(), auth.GetOrgID(c), months)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, points)
}

// @Summary      Return on investment
// @Tags         financials
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} api.Response{data=report.ROI}
// @Router       /financials/roi [get]
func (h *Handler) ROI(c *gin.Context) {
	roi, err := h.service.ROI(c.Request.Context(), auth.GetOrgID(c))
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, roi)
}

// @Summary      List expenses of a month
// @Tags         financials
// @Produce      json
// @Security     BearerAuth
// @Param        year  query int false "Year (default current)"
// @Param        month query int false "Month 1-12 (default current)"
// @Success      200 {object} api.Response{data=[]report.Expense}
// @Router       /financials/expenses [get]
func (h *Handler) ListExpenses(c *gin.Context) {
	year, month, ok := period(c)
	if !ok {
		return
	}

	expenses, err := h.service.ListExpenses(c.Request.Context(), auth.GetOrgID(c), year, month)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, expenses)
}

// @Summary      Record an expense
// @Tags         financials
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body report.ExpenseRequest true "Expense"
// @Success      201 {object} api.Response{data=report.Expense}
// @Router       /financials/expenses [post]
func (h *Handler) CreateExpense(c *gin.Context) {
	var req ExpenseRequest
	if !api.BindJSON(c, &req) {
		return
	}

	e, err := h.service.CreateExpense(c.Request.Context(), auth.GetOrgID(c), req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.Created(c, e)
}

// @Summary      List investments
// @Tags         financials
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} api.Response{data=[]report.Investment}
// @Router       /financials/investments [get]
func (h *Handler) ListInvestments(c *gin.Context) {
	investments, err := h.service.ListInvestments(c.Request.Context(), auth.GetOrgID(c))
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, investments)
}

// @Summary      Record an investment
// @Tags         financials
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body report.InvestmentRequest true "Investment"
// @Success      201 {object} api.Response{data=report.Investment}
// @Router       /financials/investments [post]
func (h *Handler) CreateInvestment(c *gin.Context) {
	var req InvestmentRequest
	if !api.BindJSON(c, &req) {
		return
	}

	i, err := h.service.CreateInvestment(c.Request.Context(), auth.GetOrgID(c), req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.Created(c, i)
}

func period(c *gin.Context) (year, month int, ok bool) {
	var err error
	if year, err = queryInt(c, "year"); err != nil {
		api.Fail(c, ErrInvalidPeriod)
		return 0, 0, false
	}
	if month, err = queryInt(c, "month"); err != nil {
		api.Fail(c, ErrInvalidPeriod)
		return 0, 0, false
	}
	return year, month, true
}

// queryInt reads an optional integer; absent means zero.
func queryInt(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
