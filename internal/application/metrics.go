package application

import "expvar"

// Lifecycle counters published on /api/debug/vars.
var (
	accountsMarked   = expvar.NewInt("accounts_marked")
	accountsRestored = expvar.NewInt("accounts_restored")
	accountsPurged   = expvar.NewInt("accounts_purged")
)
