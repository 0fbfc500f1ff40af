package wallet

import (
	"testing"

	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/stretchr/testify/assert"
)

const (
	desktopUA        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"
	metaMaskMobileUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148 MetaMaskMobile/7.24.0"
	mobileSafariUA   = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1"
)

func flags(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, name := range names {
		m[name] = true
	}
	return m
}

func TestDetectActiveKind(t *testing.T) {
	tests := []struct {
		name     string
		env      Environment
		expected Kind
		found    bool
	}{
		{
			name:     "metamask extension",
			env:      Environment{UserAgent: desktopUA, Flags: flags(FlagEthereum, FlagMetaMask)},
			expected: KindMetaMask,
			found:    true,
		},
		{
			name:     "metamask in-app browser by user agent",
			env:      Environment{UserAgent: metaMaskMobileUA, Mobile: true, Flags: flags(FlagEthereum, FlagMetaMask)},
			expected: KindInAppBrowser,
			found:    true,
		},
		{
			name:     "mobile with brand flag",
			env:      Environment{UserAgent: mobileSafariUA, Mobile: true, Flags: flags(FlagEthereum, FlagTrust)},
			expected: KindInAppBrowser,
			found:    true,
		},
		{
			name:     "rabby also reports metamask",
			env:      Environment{UserAgent: desktopUA, Flags: flags(FlagEthereum, FlagMetaMask, FlagRabby)},
			expected: KindRabby,
			found:    true,
		},
		{
			name:     "coinbase wallet",
			env:      Environment{UserAgent: desktopUA, Flags: flags(FlagEthereum, FlagCoinbaseWallet)},
			expected: KindCoinbaseWallet,
			found:    true,
		},
		{
			name:     "phantom",
			env:      Environment{UserAgent: desktopUA, Flags: flags(FlagPhantom)},
			expected: KindPhantom,
			found:    true,
		},
		{
			name:     "tronlink",
			env:      Environment{UserAgent: desktopUA, Flags: flags(FlagTronLink)},
			expected: KindTronLink,
			found:    true,
		},
		{
			name:     "unbranded provider",
			env:      Environment{UserAgent: desktopUA, Flags: flags(FlagEthereum)},
			expected: KindBrowserExtension,
			found:    true,
		},
		{
			name: "mobile without wallet",
			env:  Environment{UserAgent: mobileSafariUA, Mobile: true},
		},
		{
			name: "nothing injected",
			env:  Environment{UserAgent: desktopUA},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, found := NewDetector(tt.env).DetectActiveKind()
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.expected, kind)
		})
	}
}

func TestDetectorCustomRules(t *testing.T) {
	env := Environment{UserAgent: desktopUA, Flags: flags(FlagPhantom, FlagTronLink)}

	kind, found := NewDetector(env, Rule{Kind: KindTronLink, Match: func(e Environment) bool { return e.Has(FlagTronLink) }}).DetectActiveKind()
	assert.True(t, found)
	assert.Equal(t, KindTronLink, kind)

	// A brand flag without a matching rule falls back to the generic extension
	kind, found = NewDetector(env, Rule{Kind: KindMetaMask, Match: func(e Environment) bool { return e.Has(FlagMetaMask) }}).DetectActiveKind()
	assert.True(t, found)
	assert.Equal(t, KindBrowserExtension, kind)
}

func TestIsInstalled(t *testing.T) {
	d := NewDetector(Environment{UserAgent: desktopUA, Flags: flags(FlagEthereum, FlagMetaMask, FlagPhantom)})

	assert.True(t, d.IsInstalled(KindMetaMask))
	assert.True(t, d.IsInstalled(KindPhantom))
	assert.True(t, d.IsInstalled(KindBrowserExtension))
	assert.False(t, d.IsInstalled(KindTronLink))
	assert.False(t, d.IsInstalled(KindInAppBrowser))
	assert.False(t, d.IsInstalled(Kind("Unknown")))

	inApp := NewDetector(Environment{UserAgent: metaMaskMobileUA, Mobile: true, Flags: flags(FlagEthereum, FlagMetaMask)})
	assert.True(t, inApp.IsInstalled(KindInAppBrowser))
	assert.True(t, inApp.IsInstalled(KindMetaMask))
}

func TestKindFamily(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected types.Family
		ok       bool
	}{
		{kind: KindMetaMask, expected: types.FamilyEVM, ok: true},
		{kind: KindRabby, expected: types.FamilyEVM, ok: true},
		{kind: KindPhantom, expected: types.FamilySolana, ok: true},
		{kind: KindTronLink, expected: types.FamilyTron, ok: true},
		{kind: KindInAppBrowser},
		{kind: KindBrowserExtension},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			family, ok := tt.kind.Family()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, family)
		})
	}
}
