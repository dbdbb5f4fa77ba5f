package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/bodgit/forest/plant"
	"github.com/bodgit/forest/raster"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	defaultRandomCount = 15
	maxRandomCount     = 50
	maxBodySize        = 1 << 20
)

// Repository is where the service keeps plants. *store.Store implements it.
type Repository interface {
	Create(ctx context.Context, p plant.Plant) (plant.Plant, error)
	Random(ctx context.Context, count int) ([]plant.Plant, error)
}

type createRequest struct {
	Author    string `json:"author" validate:"required,max=255"`
	ImageData string `json:"imageData" validate:"required,base64"`
}

type randomResponse struct {
	Plants []plant.Plant `json:"plants"`
	Count  int           `json:"count"`
}

type handler struct {
	repo      Repository
	validator *structValidator
	logger    *log.Logger
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	b, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) createPlant(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	req.Author = plant.NormalizeAuthor(req.Author)
	req.ImageData = raster.StripDataURL(req.ImageData)

	if errs := h.validator.validateStruct(req); errs != nil {
		respondJSON(w, http.StatusBadRequest, errs)
		return
	}

	p := plant.Plant{
		Author:    req.Author,
		ImageData: req.ImageData,
	}
	if err := p.Validate(); err != nil {
		var verr *plant.ValidationError
		if errors.As(err, &verr) {
			respondJSON(w, http.StatusBadRequest, map[string]string{verr.Field: fmt.Sprintf("field '%s' %s", verr.Field, verr.Reason)})
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.repo.Create(r.Context(), p)
	if err != nil {
		h.logger.Printf("[%s] create failed: %v\n", middleware.GetReqID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "Failed to create plant")
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (h *handler) randomPlants(w http.ResponseWriter, r *http.Request) {
	count := defaultRandomCount

	if s := r.URL.Query().Get("count"); s != "" {
		var err error
		count, err = strconv.Atoi(s)
		if err != nil || count <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid count parameter. Must be a positive integer")
			return
		}
		if count > maxRandomCount {
			count = maxRandomCount
		}
	}

	plants, err := h.repo.Random(r.Context(), count)
	if err != nil {
		h.logger.Printf("[%s] random failed: %v\n", middleware.GetReqID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "Failed to get random plants")
		return
	}

	if plants == nil {
		plants = []plant.Plant{}
	}

	respondJSON(w, http.StatusOK, randomResponse{
		Plants: plants,
		Count:  len(plants),
	})
}
