package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"stock-admin/internal/application/forms"
	"stock-admin/internal/constants"
	"stock-admin/internal/domain"
	"stock-admin/internal/pkg/validation"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "success", "message": "ok", "data": data})
}

func TestResolve(t *testing.T) {
	out, _, err := run(t, "resolve", "stocks")
	require.NoError(t, err)
	assert.Equal(t, "stock\n", out)

	out, _, err = run(t, "resolve", "widgets")
	require.NoError(t, err)
	assert.Equal(t, "widgets\n", out)
}

func TestStocksCreate_InvalidDraftNeverCallsAPI(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	_, errOut, err := run(t, "--api", srv.URL, "--session-file", filepath.Join(t.TempDir(), "none"),
		"stocks", "create", "--predicted-price", "abc", "--valuation", "growth", "--timeframe", "1y")
	require.Error(t, err)
	assert.Contains(t, errOut, "name is a required field")
	assert.Contains(t, errOut, "predicted_price must be an integer")
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestReportResult_FieldsSorted(t *testing.T) {
	errs := validation.Errors{
		"timeframe":       "timeframe is a required field",
		"buying_price":    "buying_price must be an integer",
		"name":            "name is a required field",
		"predicted_price": "predicted_price must be an integer",
	}
	for i := 0; i < 5; i++ {
		var out bytes.Buffer
		err := reportResult(&out, forms.StockResult{Fields: errs})
		require.Error(t, err)
		assert.Equal(t, "buying_price: buying_price must be an integer\n"+
			"name: name is a required field\n"+
			"predicted_price: predicted_price must be an integer\n"+
			"timeframe: timeframe is a required field\n", out.String())
	}
}

func TestStocksCreate_RequiresLogin(t *testing.T) {
	_, _, err := run(t, "--session-file", filepath.Join(t.TempDir(), "none"),
		"stocks", "create", "--name", "AAPL", "--predicted-price", "150", "--buying-price", "140",
		"--selling-price", "160", "--valuation", "growth", "--timeframe", "1y")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestLoginThenCreate(t *testing.T) {
	var created map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			http.SetCookie(w, &http.Cookie{Name: constants.SessionCookieName, Value: "sid-123"})
			writeEnvelope(w, http.StatusOK, map[string]interface{}{
				"user": map[string]string{"user_id": "u1", "email": "ed@example.com", "role": "editor"},
			})
		case "/api/v1/stocks":
			ck, err := r.Cookie(constants.SessionCookieName)
			if !assert.NoError(t, err) || !assert.Equal(t, "sid-123", ck.Value) {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			body, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(body, &created))
			writeEnvelope(w, http.StatusCreated, map[string]interface{}{
				"id": "6f1c0b6e-8b0e-4d43-9a43-3b1f0f6d2a11", "name": "AAPL",
				"predicted_price": 150, "buying_price": 140, "selling_price": 160,
				"valuation": "growth", "timeframe": "1y",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	session := filepath.Join(t.TempDir(), "session")
	out, _, err := run(t, "--api", srv.URL, "--session-file", session,
		"login", "--email", "ed@example.com", "--password", "Secret#123")
	require.NoError(t, err)
	assert.Contains(t, out, "signed in as ed@example.com (editor)")
	saved, err := os.ReadFile(session)
	require.NoError(t, err)
	assert.Equal(t, "sid-123", string(saved))

	out, _, err = run(t, "--api", srv.URL, "--session-file", session,
		"stocks", "create", "--name", "AAPL", "--predicted-price", "150", "--buying-price", "140",
		"--selling-price", "160", "--valuation", "growth", "--timeframe", "1y")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "AAPL"`)
	assert.Equal(t, "AAPL", created["name"])
	assert.EqualValues(t, 150, created["predicted_price"])
	assert.Nil(t, created["organization_id"])
}

func TestOverlayKeepsUnsetFields(t *testing.T) {
	cmd := &cobra.Command{Use: "update"}
	sf := addStockFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--selling-price", "12", "--organization-id", ""}))

	orgID := "org-1"
	base := domain.StockInput{
		Name: "AAPL", PredictedPrice: domain.IntPtr(10), BuyingPrice: domain.IntPtr(9),
		SellingPrice: domain.IntPtr(11), Valuation: "growth", Timeframe: "1y", OrganizationID: &orgID,
	}
	d, errs := overlay(base, sf.fields(cmd, true))
	assert.Empty(t, errs)
	assert.Equal(t, "AAPL", d.Name)
	assert.Equal(t, 10, *d.PredictedPrice)
	assert.Equal(t, 12, *d.SellingPrice)
	assert.Nil(t, d.OrganizationID)

	require.NoError(t, cmd.ParseFlags([]string{"--buying-price", "cheap"}))
	_, errs = overlay(base, sf.fields(cmd, true))
	assert.Equal(t, "buying_price must be an integer", errs["buying_price"])
}
