package billing_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lessonkit/pkg/billing"
	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
)

func TestCRC16(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint16(0x29B1), billing.CRC16("123456789"))
}

func TestBRCode(t *testing.T) {
	t.Parallel()

	code := billing.BRCode{
		Key:          "pix@lessonkit.dev",
		MerchantName: "LessonKit",
		MerchantCity: "Sao Paulo",
		Amount:       entitlement.Money{Amount: 1990, Currency: "BRL"},
		TxID:         "a1b2-c3d4",
	}.String()

	t.Run("carries the merchant account and amount", func(t *testing.T) {
		t.Parallel()

		assert.True(t, strings.HasPrefix(code, "000201"))
		assert.Contains(t, code, "0014br.gov.bcb.pix0117pix@lessonkit.dev")
		assert.Contains(t, code, "5303986")
		assert.Contains(t, code, "540519.90")
		assert.Contains(t, code, "5802BR")
		assert.Contains(t, code, "5909LESSONKIT")
		assert.Contains(t, code, "6009SAO PAULO")
		assert.Contains(t, code, "62120508A1B2C3D4")
	})

	t.Run("ends with a valid checksum", func(t *testing.T) {
		t.Parallel()

		require.Greater(t, len(code), 8)
		body, sum := code[:len(code)-4], code[len(code)-4:]
		assert.True(t, strings.HasSuffix(body, "6304"))
		assert.Equal(t, fmt.Sprintf("%04X", billing.CRC16(body)), sum)
	})

	t.Run("empty txid becomes wildcard", func(t *testing.T) {
		t.Parallel()

		c := billing.BRCode{Key: "k", MerchantName: "M", MerchantCity: "C"}.String()
		assert.Contains(t, c, "62070503***")
		assert.NotContains(t, c, "5404")
	})
}
