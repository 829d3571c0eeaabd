package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/services"
)

type updateHotelRequest struct {
	Name           *string  `json:"name" validate:"omitempty,max=200"`
	Description    *string  `json:"description"`
	PricePerNight  *float64 `json:"price_per_night" validate:"omitempty,gt=0"`
	TaxRate        *float64 `json:"tax_rate" validate:"omitempty,gte=0,lt=1"`
	ServiceFeeRate *float64 `json:"service_fee_rate" validate:"omitempty,gte=0,lt=1"`
	IsActive       *bool    `json:"is_active"`
}

type HotelHandler struct {
	svc      *services.HotelService
	validate *validator.Validate
	log      logrus.FieldLogger
}

func NewHotelHandler(svc *services.HotelService, validate *validator.Validate, log logrus.FieldLogger) *HotelHandler {
	return &HotelHandler{svc: svc, validate: validate, log: log}
}

func (h *HotelHandler) CreateHotel(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())

	var req services.CreateHotelRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	hotel, err := h.svc.CreateHotel(r.Context(), principal, req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, hotel)
}

func (h *HotelHandler) GetHotel(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	hotel, err := h.svc.GetHotel(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, hotel)
}

func (h *HotelHandler) UpdateHotel(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	var req updateHotelRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	hotel, err := h.svc.UpdateHotel(r.Context(), principal, id, domain.HotelPatch{
		Name:           req.Name,
		Description:    req.Description,
		PricePerNight:  req.PricePerNight,
		TaxRate:        req.TaxRate,
		ServiceFeeRate: req.ServiceFeeRate,
		IsActive:       req.IsActive,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, hotel)
}

func (h *HotelHandler) ListOwnerHotels(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())

	hotels, err := h.svc.ListOwnerHotels(r.Context(), principal)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(hotels))
}
