package chaincfg

// Params groups the settings that differ between a production deployment and
// the simulation network.
type Params struct {
	Name string

	// DefaultRPCPort is the JSON-RPC listen port used when no listener is
	// configured.
	DefaultRPCPort string

	// DefaultRESTPort is the read-only REST listen port.
	DefaultRESTPort string

	// UseMemTokenLedger runs the pool against an in-process token with a
	// faucet instead of the persisted token ledger.
	UseMemTokenLedger bool

	// DefaultSignatureWindow is the default tolerance, in seconds, between a
	// signed request's timestamp and the server clock.
	DefaultSignatureWindow int64
}

// MainNetParams contains parameters of a production deployment.
var MainNetParams = Params{
	Name:                   "mainnet",
	DefaultRPCPort:         "8766",
	DefaultRESTPort:        "8767",
	UseMemTokenLedger:      false,
	DefaultSignatureWindow: 60,
}

// SimNetParams contains parameters specific to the simulation network.
var SimNetParams = Params{
	Name:                   "simnet",
	DefaultRPCPort:         "18766",
	DefaultRESTPort:        "18767",
	UseMemTokenLedger:      true,
	DefaultSignatureWindow: 600,
}

var ActiveNetParams = &MainNetParams

// StakingBackendVersion is set by the daemon at startup.
var StakingBackendVersion = "unknown"
