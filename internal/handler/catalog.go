package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/segyhp/collateral-ledger/internal/domain"
	"github.com/segyhp/collateral-ledger/pkg/response"
	"github.com/segyhp/collateral-ledger/pkg/utils"
)

type CatalogHandler struct {
	catalog   CatalogService
	validator *validator.Validate
}

func NewCatalogHandler(catalog CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalog:   catalog,
		validator: NewValidator(),
	}
}

func (h *CatalogHandler) RegisterClient(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateClientRequest
	if !decodeAndValidate(w, r, h.validator, &request) {
		return
	}

	client, err := h.catalog.RegisterClient(r.Context(), &request)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Created(w, client)
}

func (h *CatalogHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathUUID(w, r, "clientId")
	if !ok {
		return
	}

	client, err := h.catalog.GetClient(r.Context(), clientID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, client)
}

func (h *CatalogHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathUUID(w, r, "clientId")
	if !ok {
		return
	}

	if err := h.catalog.DeleteClient(r.Context(), clientID); err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.NoContent(w)
}

func (h *CatalogHandler) RegisterGuarantee(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateGuaranteeRequest
	if !decodeAndValidate(w, r, h.validator, &request) {
		return
	}

	guarantee, err := h.catalog.RegisterGuarantee(r.Context(), &request)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Created(w, guarantee)
}

// GetGuarantee returns the item together with whether it can back a new loan
func (h *CatalogHandler) GetGuarantee(w http.ResponseWriter, r *http.Request) {
	guaranteeID, ok := pathUUID(w, r, "guaranteeId")
	if !ok {
		return
	}

	guarantee, err := h.catalog.GetGuarantee(r.Context(), guaranteeID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	available, err := h.catalog.IsGuaranteeAvailable(r.Context(), guaranteeID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, domain.GuaranteeResponse{Guarantee: guarantee, Available: available})
}

func (h *CatalogHandler) DeleteGuarantee(w http.ResponseWriter, r *http.Request) {
	guaranteeID, ok := pathUUID(w, r, "guaranteeId")
	if !ok {
		return
	}

	if err := h.catalog.DeleteGuarantee(r.Context(), guaranteeID); err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.NoContent(w)
}

func (h *CatalogHandler) CreateRatePlan(w http.ResponseWriter, r *http.Request) {
	var request domain.RatePlanRequest
	if !decodeAndValidate(w, r, h.validator, &request) {
		return
	}

	plan, err := h.catalog.CreateRatePlan(r.Context(), &request)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Created(w, plan)
}

func (h *CatalogHandler) UpdateRatePlan(w http.ResponseWriter, r *http.Request) {
	ratePlanID, ok := pathUUID(w, r, "ratePlanId")
	if !ok {
		return
	}

	var request domain.RatePlanRequest
	if !decodeAndValidate(w, r, h.validator, &request) {
		return
	}

	plan, err := h.catalog.UpdateRatePlan(r.Context(), ratePlanID, &request)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, plan)
}

func (h *CatalogHandler) GetRatePlan(w http.ResponseWriter, r *http.Request) {
	ratePlanID, ok := pathUUID(w, r, "ratePlanId")
	if !ok {
		return
	}

	plan, err := h.catalog.GetRatePlan(r.Context(), ratePlanID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, plan)
}

// ListRatePlans handles GET /rate-plans. With ?amount= it returns the single
// active plan for that loan amount.
func (h *CatalogHandler) ListRatePlans(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("amount"); raw != "" {
		amount, err := utils.DecimalFromString(raw)
		if err != nil {
			response.BadRequest(w, "Invalid amount")
			return
		}

		plan, err := h.catalog.GetActiveRatePlan(r.Context(), amount)
		if err != nil {
			response.ErrorFrom(w, err)
			return
		}
		response.Success(w, plan)
		return
	}

	plans, err := h.catalog.ListActiveRatePlans(r.Context())
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, plans)
}

func (h *CatalogHandler) DeleteRatePlan(w http.ResponseWriter, r *http.Request) {
	ratePlanID, ok := pathUUID(w, r, "ratePlanId")
	if !ok {
		return
	}

	if err := h.catalog.DeleteRatePlan(r.Context(), ratePlanID); err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.NoContent(w)
}
