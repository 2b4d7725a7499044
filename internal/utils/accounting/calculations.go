package accounting

import (
	"fmt"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LineAmounts holds the computed money breakdown of one invoice line.
type LineAmounts struct {
	Subtotal decimal.Decimal // quantity * unitPrice
	Discount decimal.Decimal // subtotal * discountPercent/100
	Taxable  decimal.Decimal // subtotal - discount
	Tax      decimal.Decimal // taxable * taxRate/100
	Total    decimal.Decimal // taxable + tax
}

var hundred = decimal.NewFromInt(100)

// ComputeLineAmounts derives an invoice line's money breakdown. Taxable and tax
// are rounded half-even to the currency's minor-unit precision so that sums of
// lines stay representable in minor units.
func ComputeLineAmounts(line domain.InvoiceLine, precision int32) LineAmounts {
	subtotal := line.Quantity.Mul(line.UnitPrice)
	discount := subtotal.Mul(line.DiscountPercent).Div(hundred)
	taxable := subtotal.Sub(discount).RoundBank(precision)
	tax := taxable.Mul(line.TaxRate).Div(hundred).RoundBank(precision)
	return LineAmounts{
		Subtotal: subtotal,
		Discount: discount,
		Taxable:  taxable,
		Tax:      tax,
		Total:    taxable.Add(tax),
	}
}

// ConvertToBase applies a frozen exchange rate to an amount and rounds
// half-even to the base currency's minor-unit precision.
func ConvertToBase(amount decimal.Decimal, rate decimal.Decimal, precision int32) decimal.Decimal {
	return amount.Mul(rate).RoundBank(precision)
}

// MinorUnits returns the amount expressed in integer minor units. Amounts are
// expected to already be at the currency's scale; anything finer is a bug
// upstream and gets truncated.
func MinorUnits(amount decimal.Decimal, precision int32) int64 {
	return amount.Shift(precision).Truncate(0).IntPart()
}

// ValidateLinesBalance checks the double-entry invariant over a set of journal
// lines: sum(debit) == sum(credit), compared in integer minor units, never in
// floating point. Each line must carry exactly one positive side.
func ValidateLinesBalance(lines []domain.JournalLine, precision int32) error {
	if len(lines) < 2 {
		return fmt.Errorf("journal must have at least two lines")
	}

	debits := decimal.Zero
	credits := decimal.Zero
	for _, line := range lines {
		switch {
		case line.Debit.IsPositive() && line.Credit.IsZero():
			debits = debits.Add(line.Debit)
		case line.Credit.IsPositive() && line.Debit.IsZero():
			credits = credits.Add(line.Credit)
		default:
			return fmt.Errorf("journal line %s must have exactly one positive side (debit=%s credit=%s)",
				line.LineID, line.Debit.String(), line.Credit.String())
		}
	}

	if MinorUnits(debits, precision) != MinorUnits(credits, precision) {
		return fmt.Errorf("debits sum is %s and credits sum is %s", debits.String(), credits.String())
	}
	return nil
}

// SignedAmount applies the conventional sign to a journal line's amount based
// on the account's normal balance side. Lines on the account's normal side
// increase its balance.
func SignedAmount(line domain.JournalLine, balanceType domain.BalanceType) (decimal.Decimal, error) {
	switch balanceType {
	case domain.DebitBalance:
		if line.IsDebit() {
			return line.Debit, nil
		}
		return line.Credit.Neg(), nil
	case domain.CreditBalance:
		if line.IsDebit() {
			return line.Debit.Neg(), nil
		}
		return line.Credit, nil
	default:
		return decimal.Zero, fmt.Errorf("unknown balance type %q for account %s", balanceType, line.AccountID)
	}
}
