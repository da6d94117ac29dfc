package payments

// Config carries the gateway credentials the factory hands to adapters.
type Config struct {
	PaystackSecretKey   string
	StripeSecretKey     string
	StripeWebhookSecret string
}

// Factory resolves a gateway name to its Provider implementation.
type Factory func(gateway string) (Provider, error)

// NewFactory builds the default factory. Gateways declared but not
// implemented fail fast; methods settled outside any gateway return
// ErrNoProviderRequired.
func NewFactory(cfg Config) Factory {
	return func(gateway string) (Provider, error) {
		switch gateway {
		case GatewayPaystack:
			return NewPaystackProvider(cfg.PaystackSecretKey), nil
		case GatewayStripe:
			return NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret), nil
		case GatewayFlutterwave:
			return nil, &UnsupportedGatewayError{Gateway: gateway}
		case MethodBankTransfer, MethodCashOnDelivery:
			return nil, ErrNoProviderRequired
		default:
			return nil, &UnsupportedGatewayError{Gateway: gateway}
		}
	}
}

// RequiresProvider reports whether a payment method is settled through an
// online gateway.
func RequiresProvider(method string) bool {
	switch method {
	case GatewayPaystack, GatewayStripe, GatewayFlutterwave:
		return true
	}
	return false
}

// IsValidMethod reports whether the checkout payment method is known.
func IsValidMethod(method string) bool {
	switch method {
	case GatewayPaystack, GatewayStripe, GatewayFlutterwave,
		MethodBankTransfer, MethodCashOnDelivery:
		return true
	}
	return false
}
