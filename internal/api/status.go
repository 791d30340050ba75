package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/permupdate/permtrack/backend/internal/types"
)

type monthlyStatusResponse struct {
	Status      types.CaseStatus `json:"status"`
	Year        int              `json:"year"`
	Month       string           `json:"month"`
	Count       int              `json:"count"`
	CasesBefore int              `json:"casesBefore"` // same status, earlier months
}

// GetMonthlyStatus returns the case count for one status and calendar month
// GET /api/data/monthly-status?status=pending-review&month=April&year=2024
func (h *DashboardHandler) GetMonthlyStatus(w http.ResponseWriter, r *http.Request) {
	status := types.CaseStatus(r.URL.Query().Get("status"))
	if !validStatus(status) {
		http.Error(w, `{"error":"unknown status"}`, http.StatusBadRequest)
		return
	}

	monthName := r.URL.Query().Get("month")
	month, ok := types.MonthOrdinal(monthName)
	if !ok {
		http.Error(w, `{"error":"month must be a full English month name"}`, http.StatusBadRequest)
		return
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 2000 || year > 2200 {
		http.Error(w, `{"error":"year is required"}`, http.StatusBadRequest)
		return
	}

	resp := monthlyStatusResponse{
		Status:      status,
		Year:        year,
		Month:       types.MonthName(month),
		Count:       h.accessor.MonthlyStatusCount(status, year, month),
		CasesBefore: h.accessor.SumStatusBeforeMonth(status, year, month),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func validStatus(status types.CaseStatus) bool {
	for _, s := range types.AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}
