package config

const (
	// MaxRequestBodyBytes caps inbound JSON bodies. A query is a single
	// sentence; 1MB leaves plenty of room without buffering abuse.
	MaxRequestBodyBytes = 1 << 20

	// MaxUpstreamErrorBytes caps how much of an upstream error body is kept
	// for logging.
	MaxUpstreamErrorBytes = 64 << 10

	// DefaultLogMaxFiles is how many server log files are kept in LOG_DIR.
	DefaultLogMaxFiles = 10
)
