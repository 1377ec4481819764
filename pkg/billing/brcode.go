package billing

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
)

// BRCode is a static PIX payment payload in the EMV merchant-presented format
// published by Banco Central do Brasil.
type BRCode struct {
	Key          string
	MerchantName string
	MerchantCity string
	Amount       entitlement.Money
	TxID         string
}

// String renders the payload with its trailing CRC16 field.
func (c BRCode) String() string {
	var b strings.Builder
	field(&b, "00", "01")
	field(&b, "26", subfields("00", "br.gov.bcb.pix", "01", c.Key))
	field(&b, "52", "0000")
	field(&b, "53", "986")
	if c.Amount.Amount > 0 {
		field(&b, "54", fmt.Sprintf("%d.%02d", c.Amount.Amount/100, c.Amount.Amount%100))
	}
	field(&b, "58", "BR")
	field(&b, "59", clip(c.MerchantName, 25))
	field(&b, "60", clip(c.MerchantCity, 15))
	txid := clip(alnum(c.TxID), 25)
	if txid == "" {
		txid = "***"
	}
	field(&b, "62", subfields("05", txid))

	b.WriteString("6304")
	fmt.Fprintf(&b, "%04X", crc16(b.String()))
	return b.String()
}

func field(b *strings.Builder, id, value string) {
	fmt.Fprintf(b, "%s%02d%s", id, len(value), value)
}

func subfields(kv ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		field(&b, kv[i], kv[i+1])
	}
	return b.String()
}

func clip(s string, n int) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) > n {
		return s[:n]
	}
	return s
}

func alnum(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, s)
}

// crc16 is CRC-16/CCITT-FALSE: polynomial 0x1021, initial value 0xFFFF.
func crc16(s string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
