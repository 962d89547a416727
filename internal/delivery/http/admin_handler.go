package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/pkg/logger"
	"github.com/frontandrew/triplog/internal/usecase/stats"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StatsService определяет интерфейс для панели администратора
type StatsService interface {
	Dashboard(ctx context.Context, req stats.DashboardRequest) (*stats.Dashboard, error)
	MonthlyReport(ctx context.Context, branchCode, month string) ([]byte, error)
}

// LedgerService определяет интерфейс пересчета цепочки
type LedgerService interface {
	RecomputeChain(ctx context.Context, vehicleID uuid.UUID) (int, error)
}

// AdminHandler обрабатывает запросы административного раздела
type AdminHandler struct {
	statsService  StatsService
	ledgerService LedgerService
	now           func() time.Time
	logger        logger.Logger
}

// NewAdminHandler создает новый handler
func NewAdminHandler(statsService StatsService, ledgerService LedgerService, logger logger.Logger) *AdminHandler {
	return &AdminHandler{
		statsService:  statsService,
		ledgerService: ledgerService,
		now:           time.Now,
		logger:        logger,
	}
}

// Dashboard возвращает сводку за текущий месяц
// GET /api/v1/admin/dashboard?branch=&rt=month|7d|all
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	rng, err := domain.ParseRecentRange(r.URL.Query().Get("rt"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	dashboard, err := h.statsService.Dashboard(r.Context(), stats.DashboardRequest{
		BranchCode: r.URL.Query().Get("branch"),
		Range:      rng,
		Now:        h.now(),
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "build dashboard")
		return
	}

	respondSuccess(w, http.StatusOK, dashboard)
}

// MonthlyReport отдает XLSX-отчет за месяц (по умолчанию текущий)
// GET /api/v1/admin/reports/monthly?branch=&month=YYYY-MM
func (h *AdminHandler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	branch := r.URL.Query().Get("branch")
	month := r.URL.Query().Get("month")
	if month == "" {
		month = h.now().UTC().Format("2006-01")
	}

	data, err := h.statsService.MonthlyReport(r.Context(), branch, month)
	if err != nil {
		respondServiceError(w, h.logger, err, "build report")
		return
	}

	scope := branch
	if scope == "" {
		scope = "all"
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="triplog-%s-%s.xlsx"`, month, scope))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// RecomputeChain пересчитывает цепочку автомобиля после ручных правок в БД
// POST /api/v1/admin/vehicles/{id}/recompute
func (h *AdminHandler) RecomputeChain(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid vehicle ID")
		return
	}

	changed, err := h.ledgerService.RecomputeChain(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "recompute chain")
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"vehicle_id": id,
		"changed":    changed,
	})
}
