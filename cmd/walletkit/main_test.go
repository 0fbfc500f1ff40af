package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DFXswiss/services-sub002/pkg/chains/evm"
	"github.com/DFXswiss/services-sub002/pkg/delegation"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delegator = "0x63c0c19a282a1B52b07dD5a65b58948A07DAE32B"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("WALLETKIT_CONFIG", "")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestChainsCmd(t *testing.T) {
	out, err := run(t, "chains")
	require.NoError(t, err)

	assert.Contains(t, out, "CHAIN")
	for _, expected := range []string{"Ethereum", "0x2105", "Solana", "Tron", "TRX"} {
		assert.Contains(t, out, expected)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 11)
	assert.True(t, strings.HasPrefix(lines[1], "Ethereum"), "ordered by chain id")
}

func TestChainCmd(t *testing.T) {
	for _, arg := range []string{"8453", "0x2105", "Base"} {
		t.Run(arg, func(t *testing.T) {
			out, err := run(t, "chain", arg)
			require.NoError(t, err)

			var info map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &info))
			assert.Equal(t, "Base", info["Chain"])
			assert.Equal(t, "0x2105", info["Hex"])
		})
	}

	_, err := run(t, "chain", "0x539")
	assert.Error(t, err)
}

func TestChainCmdDefaultChain(t *testing.T) {
	out, err := run(t, "chain")
	require.NoError(t, err)
	assert.Contains(t, out, `"Chain": "Ethereum"`)

	cfgPath := filepath.Join(t.TempDir(), "walletkit.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"defaultChain":"Base"}`), 0o600))

	out, err = run(t, "--config", cfgPath, "chain")
	require.NoError(t, err)
	assert.Contains(t, out, `"Chain": "Base"`)
}

func TestAddChainCmd(t *testing.T) {
	out, err := run(t, "add-chain", "Polygon")
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "0x89", payload["chainId"])
	assert.Equal(t, "Polygon Mainnet", payload["chainName"])

	out, err = run(t, "add-chain", "Ethereum")
	require.NoError(t, err)
	assert.Contains(t, out, "known to every wallet")

	_, err = run(t, "add-chain", "Solana")
	assert.Error(t, err)
}

func TestAuthorizationCmd(t *testing.T) {
	out, err := run(t, "authorization", "8453", strings.ToLower(delegator), "0")
	require.NoError(t, err)

	var result struct {
		TypedData struct {
			PrimaryType string         `json:"primaryType"`
			Domain      map[string]any `json:"domain"`
			Message     map[string]any `json:"message"`
		} `json:"typedData"`
		Digest string `json:"digest"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	nonce := uint64(0)
	digest, err := evm.TypedDataHash(delegation.AuthorizationTypedData(8453, delegator, &nonce))
	require.NoError(t, err)

	assert.Equal(t, "Authorization", result.TypedData.PrimaryType)
	assert.Equal(t, "EIP-7702", result.TypedData.Domain["name"])
	assert.Equal(t, delegator, result.TypedData.Message["address"])
	assert.Equal(t, hexutil.Encode(digest), result.Digest)

	_, err = run(t, "authorization", "base", delegator)
	assert.Error(t, err)
	_, err = run(t, "authorization", "8453", "0x1234")
	assert.Error(t, err)
}

func TestParseSignatureCmd(t *testing.T) {
	r := strings.Repeat("ab", 32)
	s := strings.Repeat("cd", 32)

	out, err := run(t, "parse-signature", "0x"+r+s+"1c")
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, "0x"+r, parsed["r"])
	assert.Equal(t, "0x"+s, parsed["s"])
	assert.Equal(t, float64(1), parsed["yParity"])

	_, err = run(t, "parse-signature", "0x"+r+s+"05")
	assert.Error(t, err)
}

func TestStatusCmd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transaction/abc/status", r.URL.Path)
		assert.Equal(t, "Tron", r.URL.Query().Get("chain"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"confirmed","confirmations":19}`))
	}))
	defer server.Close()

	out, err := run(t, "status", "--backend", server.URL, "Tron", "abc")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "confirmed"`)

	cfgPath := filepath.Join(t.TempDir(), "walletkit.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"confirmationInterval":"10ms","confirmationTimeout":"1s"}`), 0o600))

	out, err = run(t, "--config", cfgPath, "status", "--backend", server.URL, "--wait", "Tron", "abc")
	require.NoError(t, err)
	assert.Contains(t, out, `"TxHash": "abc"`)
	assert.Contains(t, out, `"ConfirmationUnknown": false`)
}

func TestStatusCmdWithoutBackend(t *testing.T) {
	_, err := run(t, "status", "Tron", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--backend")
}

func TestCapabilitiesCmd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params []string        `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "wallet_getCapabilities", req.Method)
		assert.Equal(t, []string{"0x52908400098527886E0F7030069857D2E4169EE7"}, req.Params)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":{"0x2105":{"paymasterService":{"supported":true},"auxiliaryFunds":{"supported":true},"atomic":{"status":"ready"}}}}`))
	}))
	defer server.Close()

	out, err := run(t, "capabilities", "--rpc", server.URL, "--chain", "Base", "0x52908400098527886E0F7030069857D2E4169EE7")
	require.NoError(t, err)

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, true, summary["paymasterService"])
	assert.Equal(t, true, summary["auxiliaryFunds"])
	assert.Equal(t, false, summary["atomicBatch"])
	assert.Equal(t, "ready", summary["atomic"])

	_, err = run(t, "capabilities", "0x52908400098527886E0F7030069857D2E4169EE7")
	assert.Error(t, err)
}

func TestDetectCmd(t *testing.T) {
	tests := []struct {
		args     []string
		expected string
	}{
		{args: []string{"--flag", "ethereum", "--flag", "isMetaMask"}, expected: "MetaMask"},
		{args: []string{"--mobile", "--flag", "isMetaMask", "--user-agent", "Mozilla/5.0 MetaMaskMobile/7.24.0"}, expected: "InAppBrowser"},
		{args: []string{"--flag", "tronLink"}, expected: "TronLink"},
		{args: nil, expected: "no wallet detected"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			out, err := run(t, append([]string{"detect"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, strings.TrimSpace(out))
		})
	}
}

func TestInvalidConfig(t *testing.T) {
	_, err := run(t, "--config", "/nonexistent/walletkit.json", "chains")
	assert.Error(t, err)
}
