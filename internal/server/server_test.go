package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bnbfun/launchpad/internal/factory"
	"github.com/bnbfun/launchpad/internal/token"
	"github.com/bnbfun/launchpad/internal/venue"
)

func u(t *testing.T, s string) *uint256.Int {
	t.Helper()
	v, err := uint256.FromDecimal(s)
	require.NoError(t, err)
	return v
}

func newTestServer(t *testing.T) (*Server, *token.Ledger) {
	t.Helper()

	bank := token.NewLedger("Wrapped BNB", "WBNB")
	amm := venue.NewAMM(bank, zap.NewNop())
	f, err := factory.New("owner", "platform",
		factory.Defaults{CreatorFeeBps: 50, PlatformFeeBps: 100}, bank, amm, zap.NewNop())
	require.NoError(t, err)

	s := New(Options{
		Factory:       f,
		Bank:          bank,
		Logger:        zap.NewNop(),
		FaucetEnabled: true,
		FaucetAmount:  u(t, "10000000000000000000"),
	})
	return s, bank
}

func doJSON(t *testing.T, s *Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func createTestLaunch(t *testing.T, s *Server) LaunchView {
	t.Helper()

	resp, data := doJSON(t, s, http.MethodPost, "/launches", CreateLaunchRequest{
		Name:                "Test Token",
		Symbol:              "TEST",
		Creator:             "alice",
		TotalSupply:         "1000000000000000000000000",
		InitialPrice:        "100000000000000",
		PriceIncrement:      "1000000000000",
		GraduationThreshold: "1000000000000000000000000000",
		EnableSell:          true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var view LaunchView
	require.NoError(t, json.Unmarshal(data, &view))
	return view
}

func TestCreateAndListLaunches(t *testing.T) {
	s, _ := newTestServer(t)

	view := createTestLaunch(t, s)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "TEST", view.Symbol)
	assert.Equal(t, uint16(50), view.CreatorFeeBps)
	assert.Equal(t, uint16(100), view.PlatformFeeBps)
	assert.Equal(t, "0.0001", view.PriceBNB)
	assert.False(t, view.Graduated)

	resp, data := doJSON(t, s, http.MethodGet, "/launches", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var views []LaunchView
	require.NoError(t, json.Unmarshal(data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, view.ID, views[0].ID)

	resp, _ = doJSON(t, s, http.MethodGet, "/launches/"+view.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, s, http.MethodGet, "/launches/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateLaunchRejectsBadInput(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name   string
		mutate func(*CreateLaunchRequest)
	}{
		{"missing symbol", func(r *CreateLaunchRequest) { r.Symbol = "" }},
		{"zero supply", func(r *CreateLaunchRequest) { r.TotalSupply = "0" }},
		{"garbage amount", func(r *CreateLaunchRequest) { r.InitialPrice = "1.5e18" }},
		{"missing threshold", func(r *CreateLaunchRequest) { r.GraduationThreshold = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := CreateLaunchRequest{
				Name:                "Test Token",
				Symbol:              "TEST",
				Creator:             "alice",
				TotalSupply:         "1000000000000000000000000",
				InitialPrice:        "100000000000000",
				GraduationThreshold: "1000000000000000000000000000",
			}
			tt.mutate(&req)
			resp, _ := doJSON(t, s, http.MethodPost, "/launches", req)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestFaucetAndAccount(t *testing.T) {
	s, bank := newTestServer(t)

	resp, data := doJSON(t, s, http.MethodPost, "/accounts/alice/fund", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var acct AccountView
	require.NoError(t, json.Unmarshal(data, &acct))
	assert.Equal(t, "10000000000000000000", acct.Balance)
	assert.Equal(t, "10", acct.BalanceBNB)
	assert.Equal(t, u(t, "10000000000000000000"), bank.BalanceOf("alice"))
}

func TestBuySellFlow(t *testing.T) {
	s, _ := newTestServer(t)
	view := createTestLaunch(t, s)

	resp, _ := doJSON(t, s, http.MethodPost, "/accounts/bob/fund", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := doJSON(t, s, http.MethodGet,
		"/launches/"+view.ID+"/quote/buy?payment=1000000000000000000", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var quote QuoteView
	require.NoError(t, json.Unmarshal(data, &quote))
	assert.NotEmpty(t, quote.TokensOut)
	assert.Equal(t, "15000000000000000", quote.Fee)

	resp, data = doJSON(t, s, http.MethodPost, "/launches/"+view.ID+"/buy", TradeRequest{
		Caller: "bob",
		Amount: "1000000000000000000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var buy BuyResponse
	require.NoError(t, json.Unmarshal(data, &buy))
	assert.Equal(t, quote.TokensOut, buy.TokensOut)
	assert.False(t, buy.Graduated)

	resp, data = doJSON(t, s, http.MethodGet, "/accounts/bob", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var acct AccountView
	require.NoError(t, json.Unmarshal(data, &acct))
	require.Len(t, acct.Holdings, 1)
	assert.Equal(t, buy.TokensOut, acct.Holdings[0].Balance)

	resp, data = doJSON(t, s, http.MethodPost, "/launches/"+view.ID+"/sell", TradeRequest{
		Caller: "bob",
		Amount: buy.TokensOut,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var sell SellResponse
	require.NoError(t, json.Unmarshal(data, &sell))
	assert.NotEqual(t, "0", sell.NetPayout)
}

func TestBuySlippageConflict(t *testing.T) {
	s, _ := newTestServer(t)
	view := createTestLaunch(t, s)

	resp, _ := doJSON(t, s, http.MethodPost, "/accounts/bob/fund", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// A limit above the full curve supply can never be met.
	resp, _ = doJSON(t, s, http.MethodPost, "/launches/"+view.ID+"/buy", TradeRequest{
		Caller: "bob",
		Amount: "1000000000000000000",
		Limit:  "10000000000000000000000000",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestBuyWithoutFunds(t *testing.T) {
	s, _ := newTestServer(t)
	view := createTestLaunch(t, s)

	resp, _ := doJSON(t, s, http.MethodPost, "/launches/"+view.ID+"/buy", TradeRequest{
		Caller: "pauper",
		Amount: "1000000000000000000",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAdminFees(t *testing.T) {
	s, _ := newTestServer(t)

	resp, _ := doJSON(t, s, http.MethodPost, "/admin/fees", SetFeesRequest{
		Caller: "mallory", CreatorFeeBps: 10, PlatformFeeBps: 10,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, s, http.MethodPost, "/admin/fees", SetFeesRequest{
		Caller: "owner", CreatorFeeBps: 6000, PlatformFeeBps: 6000,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data := doJSON(t, s, http.MethodPost, "/admin/fees", SetFeesRequest{
		Caller: "owner", CreatorFeeBps: 25, PlatformFeeBps: 75,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]uint16
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, uint16(25), out["creator_fee_bps"])
	assert.Equal(t, uint16(75), out["platform_fee_bps"])
}

func TestFaucetDisabled(t *testing.T) {
	bank := token.NewLedger("Wrapped BNB", "WBNB")
	amm := venue.NewAMM(bank, zap.NewNop())
	f, err := factory.New("owner", "platform", factory.Defaults{}, bank, amm, zap.NewNop())
	require.NoError(t, err)

	s := New(Options{Factory: f, Bank: bank, Logger: zap.NewNop()})
	resp, _ := doJSON(t, s, http.MethodPost, "/accounts/alice/fund", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
