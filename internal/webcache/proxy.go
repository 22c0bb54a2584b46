package webcache

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/erpgo/pos-storefront/internal/obs"
)

// NewProxy returns a reverse proxy to base whose round trips go through
// the caching transport, so non-API paths (entry document, bundle,
// manifest) survive backend outages the same way precached assets do.
func NewProxy(base *url.URL, transport http.RoundTripper) http.Handler {
	rp := httputil.NewSingleHostReverseProxy(base)
	rp.Transport = transport
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		// The caching transport converts failures itself; this only fires
		// on request-building or streaming errors.
		obs.Logger.Error("proxy_error", "path", r.URL.Path, "error", err.Error())
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(offlineNotice))
	}
	return rp
}
