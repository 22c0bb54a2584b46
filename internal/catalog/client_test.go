package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func serve(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != reportPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPivotsColumnarResponse(t *testing.T) {
	srv := serve(t, `{"message":{
		"keys":["name","item_name","item_code","description","standard_rate","stock_uom","image"],
		"values":[["I1","Widget","W-1","A widget","9.99","Nos",""]]}}`)
	c := NewClient(srv.URL, "key:secret", srv.Client())

	recs, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "I1", recs[0].ID)
	require.Equal(t, "Widget", recs[0].Name)
	require.Equal(t, "W-1", recs[0].Code)
	require.Equal(t, "9.99", recs[0].Price.String())
	require.Equal(t, "Nos", recs[0].UnitOfMeasure)
	require.Equal(t, placeholderImage, recs[0].ImageRef)
}

func TestFetchMinimalKeySet(t *testing.T) {
	srv := serve(t, `{"message":{
		"keys":["name","item_name","standard_rate"],
		"values":[["I1","Widget","9.99"]]}}`)
	c := NewClient(srv.URL, "", srv.Client())

	recs, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "I1", recs[0].ID)
	require.Equal(t, "Widget", recs[0].Name)
	require.True(t, recs[0].Price.Equal(mustDecimal(t, "9.99")))
}

func TestFetchPriceCoercion(t *testing.T) {
	srv := serve(t, `{"message":{
		"keys":["name","item_name","standard_rate"],
		"values":[["I1","A","not-a-number"],["I2","B",12.5],["I3","C","-3"]]}}`)
	c := NewClient(srv.URL, "", srv.Client())

	recs, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.True(t, recs[0].Price.IsZero(), "unparseable rate coerces to zero")
	require.Equal(t, "12.5", recs[1].Price.String())
	require.True(t, recs[2].Price.IsZero(), "negative rate coerces to zero")
}

func TestFetchEmptyCatalogIsValid(t *testing.T) {
	srv := serve(t, `{"message":{"keys":[],"values":[]}}`)
	c := NewClient(srv.URL, "", srv.Client())

	recs, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, recs)
	require.Empty(t, recs)
}

func TestFetchBackendErrors(t *testing.T) {
	cases := map[string]string{
		"missing message": `{"data":{}}`,
		"missing keys":    `{"message":{"keys":["name"],"values":[["I1","x"]]}}`,
		"ragged row":      `{"message":{"keys":["name","item_name","standard_rate"],"values":[["I1","x"]]}}`,
		"empty id":        `{"message":{"keys":["name","item_name","standard_rate"],"values":[["","x","1"]]}}`,
		"not json":        `<html>maintenance</html>`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := serve(t, body)
			c := NewClient(srv.URL, "", srv.Client())
			_, err := c.Fetch(context.Background())
			var be *BackendError
			require.ErrorAs(t, err, &be)
		})
	}
}

func TestFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := NewClient(addr, "", &http.Client{})
	_, err := c.Fetch(context.Background())
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
}

func TestFetchSendsAuthToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"message":{"keys":[],"values":[]}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "2b0c:3738", srv.Client())
	_, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token 2b0c:3738", got)
}
