package config

// RelayConfig holds the fixed values the relay stamps on every message.
type RelayConfig struct {
	ProductName string `env:"RELAY_PRODUCT_NAME" envDefault:"Bizflow"`
	// FromAddress is the verified sender address. When empty the caller's own
	// email address is used.
	FromAddress string `env:"RELAY_FROM_ADDRESS"`
	Signature   string `env:"RELAY_SIGNATURE" envDefault:"Sent with Bizflow"`
}
