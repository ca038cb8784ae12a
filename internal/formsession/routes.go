package formsession

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/odyssey-console/internal/lineitems"
)

// MountRoutes registers list, search and form endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	submitLimiter := httprate.Limit(20, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/lists/{resource}", h.handleList)
	r.Post("/lists/{resource}", h.handleCreateRecord)
	r.Put("/lists/{resource}/{id}", h.handleUpdateRecord)
	r.Delete("/lists/{resource}/{id}", h.handleDeleteRecord)
	r.Get("/search/{resource}", h.handleSearch)
	r.Route("/forms", func(r chi.Router) {
		r.Post("/", h.handleCreateForm)
		r.Route("/{formID}", func(r chi.Router) {
			r.Get("/", h.handleGetForm)
			r.Delete("/", h.handleDeleteForm)
			r.Post("/rows", h.handleAddRow)
			r.Delete("/rows/{rowID}", h.handleRemoveRow)
			r.Patch("/rows/{rowID}", h.handleChangeField)
			r.Post("/rows/{rowID}/product", h.handleSelect(lineitems.LookupProducts))
			r.Post("/rows/{rowID}/uom", h.handleSelect(lineitems.LookupUOMs))
			r.Post("/rows/{rowID}/warehouse", h.handleSelect(lineitems.LookupWarehouses))
			r.Post("/rows/{rowID}/tax", h.handleSelect(lineitems.LookupTaxCodes))
			r.Post("/lookups/reload", h.handleReloadLookups)
			r.With(submitLimiter).Post("/submit", h.handleSubmit)
		})
	})
}
