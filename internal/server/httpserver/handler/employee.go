package handler

import (
	"net/http"

	"github.com/yndnr/rollcall-go/internal/core/domain"
	"github.com/yndnr/rollcall-go/internal/core/service"
)

// handleAddEmployee handles POST /employees.
// An existing employee with the same id is replaced.
func (h *Handler) handleAddEmployee(w http.ResponseWriter, r *http.Request) {
	var req AddEmployeeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.EmployeeID == nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrMissingArgument.Code, "employee_id is required", nil)
		return
	}

	emp, err := h.employees.Add(r.Context(), &service.AddEmployeeRequest{
		EmployeeID: *req.EmployeeID,
		Name:       req.Name,
		Role:       req.Role,
	})
	h.observe("add_employee", err)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, emp)
}

// handleUpdateEmployee handles PUT /employees/{id} and POST /employees/{id}/update.
func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateEmployeeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	emp, err := h.employees.Update(r.Context(), &service.UpdateEmployeeRequest{
		EmployeeID: id,
		Name:       req.Name,
		Role:       req.Role,
	})
	h.observe("update_employee", err)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, emp)
}

// handleGetEmployee handles GET /employees/{id}.
func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	emp, err := h.employees.Get(r.Context(), id)
	h.observe("get_employee", err)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, emp)
}
