package constants

// Imprint (embellishment) type constants
const (
	ImprintEmbroidery    = "Embroidery"
	ImprintCapEmbroidery = "Cap Embroidery"
	ImprintDTG           = "DTG"
	ImprintScreenPrint   = "Screen Print"
	ImprintDTF           = "DTF"
)

// Cart item status constants
const (
	CartStatusActive        = "Active"
	CartStatusSavedForLater = "SavedForLater"
	CartStatusSubmitted     = "Submitted"
)

// Session id prefixes
const (
	// SessionPrefixRemote marks a session registered with the cart proxy.
	SessionPrefixRemote = "sess_"
	// SessionPrefixLocal marks a session that was never registered remotely
	// and is never retried against the proxy.
	SessionPrefixLocal = "local_"
)

// Cart event names
const (
	EventCartUpdated   = "cartUpdated"
	EventCartItemAdded = "cartItemAdded"
)

// Embellishment option keys
const (
	OptionKeyStitchCount = "stitchCount"
)

// Mirror metadata keys
const (
	MetaKeyLastSync = "last_sync"
)
