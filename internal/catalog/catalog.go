// Package catalog enumerates the ledger entry types the connected node
// knows about, fetched once at startup from its server_definitions
// method.
package catalog

import (
	"sort"
)

// ignoredEntryTypes are internal pseudo-types present in the definitions
// table that never appear as real ledger entries.
var ignoredEntryTypes = map[string]struct{}{
	"Invalid":      {},
	"Any":          {},
	"Child":        {},
	"Nickname":     {},
	"Contract":     {},
	"GeneratorMap": {},
}

// undisplayedEntryTypes are real entry types the presentation layer does
// not render yet. They are filtered at this boundary only; the
// accumulator still tracks their effects.
var undisplayedEntryTypes = map[string]struct{}{
	"Bridge":                          {},
	"XChainOwnedClaimID":              {},
	"XChainOwnedCreateAccountClaimID": {},
	"DID":                             {},
}

// Catalog is the cleaned, sorted set of known entry-type names.
type Catalog struct {
	names []string
}

// New builds a catalog from raw definition names, dropping the internal
// pseudo-types and duplicates.
func New(names []string) *Catalog {
	seen := make(map[string]struct{}, len(names))
	kept := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ignored := ignoredEntryTypes[name]; ignored {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		kept = append(kept, name)
	}
	sort.Strings(kept)
	return &Catalog{names: kept}
}

// EntryTypes returns all known entry-type names, sorted.
func (c *Catalog) EntryTypes() []string {
	return append([]string(nil), c.names...)
}

// Displayable returns the entry types the presentation layer renders:
// EntryTypes minus the not-yet-supported set.
func (c *Catalog) Displayable() []string {
	out := make([]string, 0, len(c.names))
	for _, name := range c.names {
		if _, skip := undisplayedEntryTypes[name]; skip {
			continue
		}
		out = append(out, name)
	}
	return out
}

// Len returns the number of known entry types.
func (c *Catalog) Len() int {
	return len(c.names)
}

// Fallback returns the built-in mainnet entry-type list, used when the
// node does not answer server_definitions.
func Fallback() *Catalog {
	return New([]string{
		"AMM",
		"AccountRoot",
		"Amendments",
		"Bridge",
		"Check",
		"DID",
		"DepositPreauth",
		"DirectoryNode",
		"Escrow",
		"FeeSettings",
		"LedgerHashes",
		"NFTokenOffer",
		"NFTokenPage",
		"NegativeUNL",
		"Offer",
		"Oracle",
		"PayChannel",
		"RippleState",
		"SignerList",
		"Ticket",
		"XChainOwnedClaimID",
		"XChainOwnedCreateAccountClaimID",
	})
}
