package checkout

import (
	"fmt"
	"strings"
)

// Phone: kanonik 10 haneli form + gösterim formatı
type Phone struct {
	Digits    string // "5321234567"
	Formatted string // "532-123-4567"
}

// NormalizePhone: rakam olmayan her şeyi ayıklar, ilk 10 haneyi alır.
// 10 haneye ulaşamayan girdiler ErrInvalidPhone ile reddedilir.
func NormalizePhone(raw string) (Phone, error) {
	var b strings.Builder
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == 10 {
			break
		}
	}

	digits := b.String()
	if len(digits) != 10 {
		return Phone{}, fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}

	return Phone{
		Digits:    digits,
		Formatted: digits[:3] + "-" + digits[3:6] + "-" + digits[6:],
	}, nil
}
