package payment

import (
	"testing"

	"bookstore/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	base := config.PaymentConfig{
		APIURL:         "https://api.bookstore.test",
		TimeoutSeconds: 5,
		PayU:           config.PayUConfig{MerchantKey: "k", MerchantSalt: "s", Mode: "test"},
		Razorpay:       config.RazorpayConfig{KeyID: "k", KeySecret: "s", BaseURL: "https://api.razorpay.com"},
		PhonePe:        config.PhonePeConfig{MerchantID: "M", SaltKey: "s", SaltIndex: "1", BaseURL: "https://phonepe"},
	}

	for _, name := range []string{config.GatewayPayU, config.GatewayRazorpay, config.GatewayPhonePe} {
		t.Run(name, func(t *testing.T) {
			cfg := base
			cfg.Gateway = name

			g, err := New(cfg, nil, zerolog.Nop())

			require.NoError(t, err)
			assert.Equal(t, name, g.Name())
		})
	}

	t.Run("unknown gateway", func(t *testing.T) {
		cfg := base
		cfg.Gateway = "stripe"

		g, err := New(cfg, nil, zerolog.Nop())

		require.Error(t, err)
		assert.Nil(t, g)
	})
}

func TestSignaturesEqual(t *testing.T) {
	assert.True(t, signaturesEqual("abcdef", "ABCDEF"))
	assert.True(t, signaturesEqual("abcdef", " abcdef "))
	assert.False(t, signaturesEqual("abcdef", "abcdee"))
	assert.False(t, signaturesEqual("abcdef", ""))
}
