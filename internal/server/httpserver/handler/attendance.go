package handler

import (
	"net/http"

	"github.com/yndnr/rollcall-go/internal/core/domain"
)

// handleSubmitAttendance handles POST /attendance.
func (h *Handler) handleSubmitAttendance(w http.ResponseWriter, r *http.Request) {
	var req SubmitAttendanceRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.EmployeeID == nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrMissingArgument.Code, "employee_id is required", nil)
		return
	}

	rec, err := h.attendance.Submit(r.Context(), *req.EmployeeID)
	h.observe("submit_attendance", err)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.LastAttendanceID.Set(float64(rec.ID))
	}

	h.writeJSON(w, r, http.StatusCreated, rec)
}

// handleGetAttendance handles GET /attendance/{id}.
func (h *Handler) handleGetAttendance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	rec, err := h.attendance.Get(r.Context(), id)
	h.observe("get_attendance", err)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, rec)
}
