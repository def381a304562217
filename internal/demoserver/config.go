package demoserver

// Mode selects how the demo target behaves.
type Mode string

const (
	// ModeVulnerable serves pages that trip most probe families.
	ModeVulnerable Mode = "vulnerable"
	// ModeSafe serves the same pages hardened.
	ModeSafe Mode = "safe"
)

type Config struct {
	Port int
	Mode Mode
}

func DefaultConfig() Config {
	return Config{
		Port: 9999,
		Mode: ModeVulnerable,
	}
}
