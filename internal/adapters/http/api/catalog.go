package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/terptaster/internal/domain/terpene"
)

type expectedFlavorsRequest struct {
	SelectedTerpenes []string `json:"selectedTerpenes" validate:"max=64,dive,max=64"`
}

type expectedFlavorsResponse struct {
	SelectedTerpenes []string `json:"selectedTerpenes"`
	ExpectedFlavors  []string `json:"expectedFlavors"`
}

type flavorTerpenesResponse struct {
	Flavor   string   `json:"flavor"`
	Terpenes []string `json:"terpenes"`
}

type terpeneListResponse struct {
	Count    int               `json:"count"`
	Terpenes []terpene.Terpene `json:"terpenes"`
}

// CatalogHandler serves terpene reference data.
type CatalogHandler struct {
	deps CatalogService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogService) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

// HandleListTerpenes handles GET /terpenes.
func (h *CatalogHandler) HandleListTerpenes(w http.ResponseWriter, r *http.Request) {
	ts := h.deps.Terpenes(r.Context())
	writeJSON(w, http.StatusOK, terpeneListResponse{Count: len(ts), Terpenes: ts})
}

// HandleGetTerpene handles GET /terpenes/{name}.
func (h *CatalogHandler) HandleGetTerpene(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_terpene"
	t, err := h.deps.Terpene(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// HandleListFlavors handles GET /flavors.
func (h *CatalogHandler) HandleListFlavors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Flavors(r.Context()))
}

// HandleFlavorTerpenes handles GET /flavors/{flavor}/terpenes.
func (h *CatalogHandler) HandleFlavorTerpenes(w http.ResponseWriter, r *http.Request) {
	const op = "api.flavor_terpenes"
	flavor := chi.URLParam(r, "flavor")
	names, err := h.deps.TerpenesForFlavor(r.Context(), flavor)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, flavorTerpenesResponse{Flavor: flavor, Terpenes: names})
}

// HandleExpectedFlavors handles POST /terpenes/expected-flavors.
func (h *CatalogHandler) HandleExpectedFlavors(w http.ResponseWriter, r *http.Request) {
	const op = "api.expected_flavors"
	var req expectedFlavorsRequest
	if err := decodeJSON(op, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateRequest(op, req); err != nil {
		writeError(w, err)
		return
	}
	if req.SelectedTerpenes == nil {
		req.SelectedTerpenes = []string{}
	}
	writeJSON(w, http.StatusOK, expectedFlavorsResponse{
		SelectedTerpenes: req.SelectedTerpenes,
		ExpectedFlavors:  h.deps.ExpectedFlavors(r.Context(), req.SelectedTerpenes),
	})
}
