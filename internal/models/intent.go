// internal/models/intent.go
package models

// Intent is the classified purpose of a question.
type Intent string

const (
	IntentGreeting         Intent = "greeting"
	IntentHelp             Intent = "help"
	IntentPendingPurchases Intent = "pending_purchases"
	IntentSales            Intent = "sales"
	IntentStock            Intent = "stock"
	IntentOrderLookup      Intent = "order_lookup"
	IntentProductSearch    Intent = "product_search"
	IntentKnowledgeLookup  Intent = "knowledge_lookup"
	IntentRegenerateLast   Intent = "regenerate_last"
	IntentUnknown          Intent = "unknown"
)

// ScoredIntents is the fixed enumeration order used by the scorer. Ties between
// equal scores are broken by position in this slice.
var ScoredIntents = []Intent{
	IntentGreeting,
	IntentHelp,
	IntentPendingPurchases,
	IntentSales,
	IntentStock,
	IntentOrderLookup,
	IntentProductSearch,
	IntentKnowledgeLookup,
}

// ParseIntent maps an external label to a known intent. Unrecognized labels map
// to IntentUnknown.
func ParseIntent(s string) Intent {
	switch i := Intent(s); i {
	case IntentGreeting, IntentHelp, IntentPendingPurchases, IntentSales, IntentStock,
		IntentOrderLookup, IntentProductSearch, IntentKnowledgeLookup, IntentRegenerateLast:
		return i
	}
	return IntentUnknown
}

// IsTrivial reports whether the intent is answered without touching data.
func (i Intent) IsTrivial() bool {
	return i == IntentGreeting || i == IntentHelp
}

// IsData reports whether the intent produces rows worth caching in the context.
func (i Intent) IsData() bool {
	switch i {
	case IntentPendingPurchases, IntentSales, IntentStock, IntentOrderLookup, IntentProductSearch:
		return true
	}
	return false
}

func (i Intent) String() string { return string(i) }
