package http

import (
	"net/http"

	"github.com/DRSN-tech/instrument-shop/internal/usecase"
	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/DRSN-tech/instrument-shop/pkg/logger"
)

type CatalogHandler struct {
	catalogUsecase usecase.CatalogUC
	logger         logger.Logger
}

func NewCatalogHandler(catalogUsecase usecase.CatalogUC, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{catalogUsecase: catalogUsecase, logger: logger}
}

// listInstruments отдаёт страницу каталога.
// GET /instruments?category=<normalizedName>&page=<n>&pageSize=<n>
func (c *CatalogHandler) listInstruments(w http.ResponseWriter, r *http.Request) {
	page, err := parseOptionalInt(r, "page", e.ErrInvalidPage)
	if err != nil {
		c.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	pageSize, err := parseOptionalInt(r, "pageSize", e.ErrInvalidPageSize)
	if err != nil {
		c.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	pageNum := 1
	if page != nil {
		pageNum = *page
	}

	res, err := c.catalogUsecase.Query(r.Context(), usecase.NewCatalogQueryReq(r.URL.Query().Get("category"), pageNum, pageSize))
	if err != nil {
		c.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toPageDTO(res))
}

// listCategories отдаёт все категории для фильтра.
func (c *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := c.catalogUsecase.ListCategories(r.Context())
	if err != nil {
		c.logger.Errorf(err, "failed to list categories")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCategoryDTOs(categories))
}
