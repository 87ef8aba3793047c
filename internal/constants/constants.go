package constants

import "time"

// Pagination.
const (
	// DefaultPageSize is the default page size for list endpoints.
	DefaultPageSize = 10
	// MaxPageSize is the largest page size a caller may request.
	MaxPageSize = 100
)

// Renewal claim (distributed lock) settings.
const (
	// RenewalClaimTTL is how long a per-subscription renewal claim is held
	// before it lapses if the holder dies mid-sweep.
	RenewalClaimTTL = 10 * time.Minute
	// RenewalClaimTries is the number of acquisition attempts. A single try:
	// contention means another sweep already owns the subscription.
	RenewalClaimTries = 1
)

// Gateway settings.
const (
	// DefaultChargeTimeout bounds a single charge call. Expiry is treated as
	// a failed charge, never retried within the same attempt.
	DefaultChargeTimeout = 30 * time.Second
	// DefaultCurrency is the fallback currency for plans that carry none.
	DefaultCurrency = "PKR"
)

// Invoice numbering.
const (
	// InvoicePrefix prefixes derived invoice ids.
	InvoicePrefix = "INV-"
)
