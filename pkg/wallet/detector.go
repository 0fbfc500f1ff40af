// Package wallet detects the injected wallet and connects it per chain family
package wallet

import (
	"regexp"

	"github.com/DFXswiss/services-sub002/pkg/types"
)

// Kind identifies a wallet brand or the context the page runs in
type Kind string

const (
	KindMetaMask         Kind = "MetaMask"
	KindRabby            Kind = "Rabby"
	KindCoinbaseWallet   Kind = "CoinbaseWallet"
	KindTrustWallet      Kind = "TrustWallet"
	KindPhantom          Kind = "Phantom"
	KindTronLink         Kind = "TronLink"
	KindInAppBrowser     Kind = "InAppBrowser"
	KindBrowserExtension Kind = "BrowserExtension"
)

// Family returns the chain family a brand wallet is limited to
// Contextual kinds (in-app browser, generic extension) report false.
func (k Kind) Family() (types.Family, bool) {
	switch k {
	case KindMetaMask, KindRabby, KindCoinbaseWallet, KindTrustWallet:
		return types.FamilyEVM, true
	case KindPhantom:
		return types.FamilySolana, true
	case KindTronLink:
		return types.FamilyTron, true
	default:
		return "", false
	}
}

// Injected provider flags
const (
	FlagEthereum       = "ethereum"
	FlagMetaMask       = "isMetaMask"
	FlagRabby          = "isRabby"
	FlagCoinbaseWallet = "isCoinbaseWallet"
	FlagTrust          = "isTrust"
	FlagPhantom        = "phantom.solana"
	FlagTronLink       = "tronLink"
)

// Environment is a snapshot of what the page exposes about its wallet
type Environment struct {
	UserAgent string          `json:"userAgent"`
	Mobile    bool            `json:"mobile"`
	Flags     map[string]bool `json:"flags"`
}

// Has reports whether flag is set
func (e Environment) Has(flag string) bool {
	return e.Flags[flag]
}

// HasAny reports whether any of flags is set
func (e Environment) HasAny(flags ...string) bool {
	for _, flag := range flags {
		if e.Has(flag) {
			return true
		}
	}
	return false
}

var brandFlags = []string{FlagMetaMask, FlagRabby, FlagCoinbaseWallet, FlagTrust, FlagPhantom, FlagTronLink}

// in-app wallet browsers identify themselves in the user agent
var inAppUserAgent = regexp.MustCompile(`(?i)(MetaMaskMobile|Trust/|TrustWallet|CoinbaseWallet|Phantom|TokenPocket|imToken|Bitget)`)

// IsInAppBrowser reports whether the page runs inside a wallet's own browser
func IsInAppBrowser(env Environment) bool {
	if inAppUserAgent.MatchString(env.UserAgent) {
		return true
	}
	return env.Mobile && env.HasAny(brandFlags...)
}

// Rule maps an environment predicate to a wallet kind
type Rule struct {
	Kind  Kind
	Match func(Environment) bool
}

func flagRule(kind Kind, flag string) Rule {
	return Rule{Kind: kind, Match: func(env Environment) bool { return env.Has(flag) }}
}

// DefaultRules returns the detection rules in precedence order
// The in-app browser check runs before any brand flag; Rabby also sets isMetaMask.
func DefaultRules() []Rule {
	return []Rule{
		{Kind: KindInAppBrowser, Match: IsInAppBrowser},
		flagRule(KindRabby, FlagRabby),
		flagRule(KindCoinbaseWallet, FlagCoinbaseWallet),
		flagRule(KindTrustWallet, FlagTrust),
		flagRule(KindMetaMask, FlagMetaMask),
		flagRule(KindPhantom, FlagPhantom),
		flagRule(KindTronLink, FlagTronLink),
		flagRule(KindBrowserExtension, FlagEthereum),
	}
}

// Detector resolves the active wallet kind from an environment
type Detector struct {
	env   Environment
	rules []Rule
}

// NewDetector creates a detector; without rules DefaultRules is used
func NewDetector(env Environment, rules ...Rule) *Detector {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Detector{env: env, rules: rules}
}

// Environment returns the detected environment
func (d *Detector) Environment() Environment {
	return d.env
}

// DetectActiveKind returns the first matching kind
// DefaultRules covers every brand flag. With a custom rule set, an injected
// brand provider that no rule matches is reported as a generic browser extension.
func (d *Detector) DetectActiveKind() (Kind, bool) {
	for _, rule := range d.rules {
		if rule.Match(d.env) {
			return rule.Kind, true
		}
	}
	if d.env.HasAny(brandFlags...) {
		return KindBrowserExtension, true
	}
	return "", false
}

// IsInstalled reports whether a wallet of kind is available
func (d *Detector) IsInstalled(kind Kind) bool {
	switch kind {
	case KindInAppBrowser:
		return IsInAppBrowser(d.env)
	case KindBrowserExtension:
		return d.env.HasAny(append([]string{FlagEthereum}, brandFlags...)...)
	}

	for _, rule := range DefaultRules() {
		if rule.Kind == kind {
			return rule.Match(d.env)
		}
	}
	return false
}
