package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/capperchat/internal/app"
	"github.com/okian/capperchat/internal/domain/model"
)

// CatalogDependencies defines the read operations over the catalog.
type CatalogDependencies interface {
	Handicappers(ctx context.Context) []model.Handicapper
	Handicapper(ctx context.Context, id string) (model.Handicapper, error)
	Packages(ctx context.Context) []model.Package
	Package(ctx context.Context, id string) (model.Package, error)
	PackagesByCapper(ctx context.Context, capperID string) ([]model.Package, error)
}

// CatalogHandler serves handicapper and package lookups.
type CatalogHandler struct {
	deps CatalogDependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogDependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

type handicappersResponse struct {
	Handicappers []model.Handicapper `json:"handicappers"`
	Total        int                 `json:"total"`
}

type packagesResponse struct {
	Packages []model.Package `json:"packages"`
	Total    int             `json:"total"`
}

// HandleListHandicappers handles GET /handicappers.
func (h *CatalogHandler) HandleListHandicappers(w http.ResponseWriter, r *http.Request) {
	list := h.deps.Handicappers(r.Context())
	if list == nil {
		list = []model.Handicapper{}
	}
	writeJSON(w, http.StatusOK, handicappersResponse{Handicappers: list, Total: len(list)})
}

// HandleGetHandicapper handles GET /handicappers/{id}.
func (h *CatalogHandler) HandleGetHandicapper(w http.ResponseWriter, r *http.Request) {
	capper, err := h.deps.Handicapper(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, capper)
}

// HandleCapperPackages handles GET /handicappers/{id}/packages.
func (h *CatalogHandler) HandleCapperPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.deps.PackagesByCapper(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	if pkgs == nil {
		pkgs = []model.Package{}
	}
	writeJSON(w, http.StatusOK, packagesResponse{Packages: pkgs, Total: len(pkgs)})
}

// HandleListPackages handles GET /packages.
func (h *CatalogHandler) HandleListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs := h.deps.Packages(r.Context())
	if pkgs == nil {
		pkgs = []model.Package{}
	}
	writeJSON(w, http.StatusOK, packagesResponse{Packages: pkgs, Total: len(pkgs)})
}

// HandleGetPackage handles GET /packages/{id}.
func (h *CatalogHandler) HandleGetPackage(w http.ResponseWriter, r *http.Request) {
	pkg, err := h.deps.Package(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	writeInternal(w)
}
