package chains

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// rpcStub answers eth_chainId and nothing else.
func rpcStub(t *testing.T, chainIDHex string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if req.Method == "eth_chainId" {
			resp["result"] = chainIDHex
		} else {
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestDial_ChainMismatch(t *testing.T) {
	srv := rpcStub(t, "0x5")
	defer srv.Close()

	_, err := Dial(context.Background(), Config{RPCURL: srv.URL, ChainID: 1})
	require.ErrorIs(t, err, ErrChainMismatch)
}

func TestDial_HeaderFailureIsReported(t *testing.T) {
	srv := rpcStub(t, "0x1")
	defer srv.Close()

	_, err := Dial(context.Background(), Config{RPCURL: srv.URL, ChainID: 1})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrChainMismatch)
}

func TestDial_EmptyURL(t *testing.T) {
	_, err := Dial(context.Background(), Config{RPCURL: "  "})
	require.Error(t, err)
}

func TestHeaderAge_NoHeader(t *testing.T) {
	require.Zero(t, (&Client{}).HeaderAge())
}
