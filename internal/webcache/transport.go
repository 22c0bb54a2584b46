package webcache

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/erpgo/pos-storefront/internal/obs"
)

// offlineNotice is the synthesized body returned when the network failed
// and nothing is cached.
const offlineNotice = "You are offline and this content is not cached."

// Transport is an http.RoundTripper with a network-first policy: real
// responses pass through and are cached in the background; transport
// failures are answered from the cache, or with a synthesized offline
// notice. Callers never see a failed round trip.
type Transport struct {
	store  *Store
	writer *Writer
	next   http.RoundTripper
}

// NewTransport wraps next (nil means http.DefaultTransport) with caching
// through store. writer may be nil, in which case entries are written
// synchronously.
func NewTransport(store *Store, writer *Writer, next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{store: store, writer: writer, next: next}
}

// RoundTrip implements http.RoundTripper. Only successful GET responses
// are cached; the cache key is the request method plus target URI.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err == nil {
		if req.Method != http.MethodGet || resp.StatusCode != http.StatusOK {
			return resp, nil
		}
		entry, rerr := entryFromResponse(resp)
		if rerr == nil {
			t.persist(req.Method, req.URL.String(), entry)
			return resp, nil
		}
		// The headers arrived but the body died mid-read. The connection
		// is unusable, so this counts as a transport failure and takes
		// the same fallback path.
		err = rerr
	}

	if entry, ok := t.store.Get(req.Method, req.URL.String()); ok {
		obs.Logger.Info("webcache_hit_after_failure", "url", req.URL.String(), "error", err.Error())
		return entry.response(req), nil
	}
	obs.Logger.Warn("webcache_offline_notice", "url", req.URL.String(), "error", err.Error())
	return offlineResponse(req), nil
}

func (t *Transport) persist(method, url string, e *Entry) {
	if t.writer != nil {
		t.writer.Enqueue(method, url, e)
		return
	}
	if err := t.store.Put(method, url, e); err != nil {
		obs.Logger.Error("webcache_store_failed", "url", url, "error", err.Error())
	}
}

// entryFromResponse drains the response body into an Entry and replaces
// the body so the caller can still read it.
func entryFromResponse(resp *http.Response) (*Entry, error) {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	header := make(http.Header, len(resp.Header))
	for k, v := range resp.Header {
		header[k] = append([]string(nil), v...)
	}
	return &Entry{Status: resp.StatusCode, Header: header, Body: body}, nil
}

// response materializes the cached entry as an *http.Response.
func (e *Entry) response(req *http.Request) *http.Response {
	header := make(http.Header, len(e.Header))
	for k, v := range e.Header {
		header[k] = append([]string(nil), v...)
	}
	header.Set("X-Served-From-Cache", "true")
	return &http.Response{
		StatusCode:    e.Status,
		Status:        strconv.Itoa(e.Status) + " " + http.StatusText(e.Status),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// offlineResponse synthesizes the offline-notice payload.
func offlineResponse(req *http.Request) *http.Response {
	body := []byte(offlineNotice)
	header := http.Header{}
	header.Set("Content-Type", "text/plain; charset=utf-8")
	header.Set("X-Offline-Notice", "true")
	return &http.Response{
		StatusCode:    http.StatusServiceUnavailable,
		Status:        "503 " + http.StatusText(http.StatusServiceUnavailable),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
