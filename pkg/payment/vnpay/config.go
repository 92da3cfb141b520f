package vnpay

// Config represents the configuration for the VNPay client
type Config struct {
	// TmnCode is the merchant terminal code issued by VNPay
	TmnCode string

	// HashSecret is the shared secret used to sign and verify requests
	HashSecret string

	// BaseURL is the VNPay payment page URL the user is redirected to
	BaseURL string

	// ReturnURL is where VNPay sends the user back after payment
	ReturnURL string

	// Version is the gateway API version (vnp_Version)
	Version string

	// Locale is the payment page locale (vnp_Locale)
	Locale string

	// CurrCode is the ISO currency code (vnp_CurrCode)
	CurrCode string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.TmnCode == "" {
		return ErrInvalidConfig
	}
	if c.HashSecret == "" {
		return ErrInvalidConfig
	}
	if c.BaseURL == "" {
		return ErrInvalidConfig
	}
	if c.ReturnURL == "" {
		return ErrInvalidConfig
	}
	return nil
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.Version == "" {
		cfg.Version = "2.1.0"
	}
	if cfg.Locale == "" {
		cfg.Locale = "vn"
	}
	if cfg.CurrCode == "" {
		cfg.CurrCode = "VND"
	}
	return cfg
}
