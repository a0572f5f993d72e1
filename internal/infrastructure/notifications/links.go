package notifications

import (
	"net/url"
	"strings"
	"unicode"
)

// WhatsAppLink builds a wa.me share link that opens a chat with phone,
// prefilled with text. It returns "" when phone contains no digits.
func WhatsAppLink(phone, text string) string {
	digits := normalizePhone(phone)
	if digits == "" {
		return ""
	}
	link := "https://wa.me/" + digits
	if text != "" {
		link += "?text=" + url.QueryEscape(text)
	}
	return link
}

// normalizePhone keeps only the digits of a phone number.
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}
