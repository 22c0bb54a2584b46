package webcache

import (
	"context"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/erpgo/pos-storefront/internal/obs"
)

// DefaultAssets is the built-in essential-asset manifest: the entry
// document, the bundle script, the app manifest descriptor, and the root
// path.
var DefaultAssets = []string{
	"/manifest.json",
	"/static/js/bundle.js",
	"/index.html",
	"/",
}

type manifestFile struct {
	Assets []string `yaml:"assets"`
}

// LoadManifest reads an asset manifest from a YAML file. An empty path or
// an empty asset list yields DefaultAssets.
func LoadManifest(path string) ([]string, error) {
	if path == "" {
		return DefaultAssets, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mf manifestFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, err
	}
	if len(mf.Assets) == 0 {
		return DefaultAssets, nil
	}
	return mf.Assets, nil
}

// Install pre-populates the store's generation with the essential assets
// fetched from base. Per-asset failures are logged loudly and skipped;
// install never aborts activation.
func Install(ctx context.Context, st *Store, base string, assets []string, hc *http.Client) {
	if hc == nil {
		hc = http.DefaultClient
	}
	for _, asset := range assets {
		url := base + asset
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			obs.Logger.Error("webcache_install_asset_failed", "asset", asset, "error", err.Error())
			continue
		}
		resp, err := hc.Do(req)
		if err != nil {
			obs.Logger.Error("webcache_install_asset_failed", "asset", asset, "error", err.Error())
			continue
		}
		entry, err := entryFromResponse(resp)
		resp.Body.Close()
		if err != nil {
			obs.Logger.Error("webcache_install_asset_failed", "asset", asset, "error", err.Error())
			continue
		}
		if resp.StatusCode != http.StatusOK {
			obs.Logger.Error("webcache_install_asset_failed", "asset", asset, "status", resp.StatusCode)
			continue
		}
		if err := st.Put(http.MethodGet, url, entry); err != nil {
			obs.Logger.Error("webcache_install_asset_failed", "asset", asset, "error", err.Error())
			continue
		}
		obs.Logger.Info("webcache_asset_cached", "asset", asset, "generation", st.Generation())
	}
}
