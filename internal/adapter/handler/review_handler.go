package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/srgjo27/hotel_booking/internal/core/services"
)

type updateReviewRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

type replyRequest struct {
	Reply string `json:"reply" validate:"required,max=2000"`
}

type ReviewHandler struct {
	svc      *services.ReviewService
	validate *validator.Validate
	log      logrus.FieldLogger
}

func NewReviewHandler(svc *services.ReviewService, validate *validator.Validate, log logrus.FieldLogger) *ReviewHandler {
	return &ReviewHandler{svc: svc, validate: validate, log: log}
}

func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())

	var req services.CreateReviewRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	review, err := h.svc.CreateReview(r.Context(), principal, req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	var req updateReviewRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	review, err := h.svc.UpdateReview(r.Context(), principal, id, domain.ReviewPatch{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	if err := h.svc.DeleteReview(r.Context(), principal, id); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReviewHandler) Reply(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	var req replyRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	review, err := h.svc.ReplyToReview(r.Context(), principal, id, req.Reply)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *ReviewHandler) ListHotelReviews(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	reviews, err := h.svc.ListHotelReviews(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	reviews.Reviews = nonNil(reviews.Reviews)
	writeJSON(w, http.StatusOK, reviews)
}
