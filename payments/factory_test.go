package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFactory_KnownGateways(t *testing.T) {
	factory := NewFactory(Config{
		PaystackSecretKey:   "sk_test",
		StripeSecretKey:     "sk_stripe",
		StripeWebhookSecret: "whsec_test",
	})

	paystack, err := factory(GatewayPaystack)
	require.NoError(t, err)
	assert.Equal(t, GatewayPaystack, paystack.Name())

	stripe, err := factory(GatewayStripe)
	require.NoError(t, err)
	assert.Equal(t, GatewayStripe, stripe.Name())
}

func TestNewFactory_FlutterwaveNotImplemented(t *testing.T) {
	factory := NewFactory(Config{})

	_, err := factory(GatewayFlutterwave)

	var unsupported *UnsupportedGatewayError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, GatewayFlutterwave, unsupported.Gateway)
}

func TestNewFactory_OfflineMethods(t *testing.T) {
	factory := NewFactory(Config{})

	for _, method := range []string{MethodBankTransfer, MethodCashOnDelivery} {
		_, err := factory(method)
		assert.ErrorIs(t, err, ErrNoProviderRequired, method)
	}
}

func TestNewFactory_UnknownGateway(t *testing.T) {
	factory := NewFactory(Config{})

	_, err := factory("barter")

	var unsupported *UnsupportedGatewayError
	assert.ErrorAs(t, err, &unsupported)
}

func TestRequiresProvider(t *testing.T) {
	assert.True(t, RequiresProvider(GatewayPaystack))
	assert.True(t, RequiresProvider(GatewayStripe))
	assert.True(t, RequiresProvider(GatewayFlutterwave))
	assert.False(t, RequiresProvider(MethodBankTransfer))
	assert.False(t, RequiresProvider(MethodCashOnDelivery))
	assert.False(t, RequiresProvider("barter"))
}

func TestIsValidMethod(t *testing.T) {
	assert.True(t, IsValidMethod(GatewayPaystack))
	assert.True(t, IsValidMethod(MethodBankTransfer))
	assert.True(t, IsValidMethod(MethodCashOnDelivery))
	assert.False(t, IsValidMethod(""))
	assert.False(t, IsValidMethod("barter"))
}
