package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLocale is used for every currency without an entry in Locales.
var DefaultLocale = language.AmericanEnglish

// Locales maps an ISO 4217 code to the locale its prices are displayed in.
var Locales = map[string]language.Tag{
	"INR": language.MustParse("en-IN"),
}

// LocaleFor returns the display locale for a currency code.
func LocaleFor(code string) language.Tag {
	if tag, ok := Locales[strings.ToUpper(code)]; ok {
		return tag
	}
	return DefaultLocale
}

// Format renders a price given in minor units, e.g. Format(123450, "USD")
// is "$1,234.50". Unknown codes are printed as "1234.50 XYZ".
func Format(minor int64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%s %s", decimal.New(minor, -2).StringFixed(2), code)
	}

	// golang.org/x/text/currency: ISO 4217 minor digits (2 for USD, 0 for JPY).
	scale, _ := currency.Standard.Rounding(unit)
	amount := decimal.New(minor, -int32(scale))

	p := message.NewPrinter(LocaleFor(code))
	var b strings.Builder
	b.WriteString(p.Sprint(currency.NarrowSymbol(unit)))
	if amount.IsNegative() {
		b.WriteByte('-')
		amount = amount.Abs()
	}
	// Integer digits go through number.Decimal as an int64 so large prices
	// keep every digit; only the fraction is appended by hand.
	b.WriteString(p.Sprint(number.Decimal(amount.IntPart())))
	if scale > 0 {
		fixed := amount.StringFixed(int32(scale))
		b.WriteString(decimalSeparator(p))
		b.WriteString(fixed[strings.IndexByte(fixed, '.')+1:])
	}
	return b.String()
}

// decimalSeparator returns the printer's decimal mark.
func decimalSeparator(p *message.Printer) string {
	s := p.Sprint(number.Decimal(1.5, number.Scale(1)))
	return strings.TrimSuffix(strings.TrimPrefix(s, "1"), "5")
}

// FormatPtr is Format for optional prices; nil yields "".
func FormatPtr(minor *int64, code string) string {
	if minor == nil {
		return ""
	}
	return Format(*minor, code)
}
