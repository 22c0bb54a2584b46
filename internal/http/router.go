package httpapi

import (
	"expvar"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	httpopenapi "github.com/erpgo/pos-storefront/internal/http/openapi"
)

// NewRouter registers HTTP routes and returns the handler with middleware.
// Unmatched paths fall through to the caching reverse proxy so page-load
// traffic gets the same offline protection as the precached assets.
func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Use(WithRequestID, WithLogging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", app.getCatalogHandler)
		r.Post("/sync", app.postSyncHandler)
		r.Get("/status", app.statusHandler)

		r.Post("/carts", app.createCartHandler)
		r.Get("/carts/{sid}", app.getCartHandler)
		r.Post("/carts/{sid}/items", app.addItemHandler)
		r.Put("/carts/{sid}/items/{pid}", app.setQuantityHandler)
		r.Delete("/carts/{sid}/items/{pid}", app.removeItemHandler)
	})

	r.Post("/notify", app.notifyHandler)
	r.Get("/ws", app.Hub.ServeWS)
	r.Get("/healthz", app.healthHandler)
	r.Handle("/debug/vars", expvar.Handler())
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(httpopenapi.YAML)
	})
	r.Get("/docs", docsHandler)

	if app.Proxy != nil {
		r.NotFound(app.Proxy.ServeHTTP)
	}
	return r
}

func docsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}
