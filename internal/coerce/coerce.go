// Package coerce maps raw spreadsheet cells onto typed catalog records.
//
// Both the SQL batch generator and the direct importer go through Product, so the
// two paths can never disagree about defaults.
package coerce

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"catalog-migrate/internal/domain"
)

// Source column headers as they appear in the spreadsheet and the CSV snapshot.
const (
	ColExternalID     = "External ID"
	ColUPCCode        = "UPC Code"
	ColStyleNumber    = "Style Number"
	ColDisplayName    = "Display Name"
	ColStyleName      = "Style Name"
	ColLaunchSeason   = "Launch Season"
	ColBaseColor      = "Base Color"
	ColMarketingColor = "Marketing Color"
	ColProductType    = "Product Type"
	ColMSRP           = "MSRP"
	ColWholesale      = "WHLS"
)

// Headers is the expected source header row, in destination column order.
var Headers = []string{
	ColExternalID,
	ColUPCCode,
	ColStyleNumber,
	ColDisplayName,
	ColStyleName,
	ColLaunchSeason,
	ColBaseColor,
	ColMarketingColor,
	ColProductType,
	ColMSRP,
	ColWholesale,
}

var hundred = decimal.NewFromInt(100)

// Row is one source record keyed by header name.
type Row map[string]string

// Issue records a malformed cell that was replaced by its default.
type Issue struct {
	Column string
	Value  string
	Reason string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s=%q: %s", i.Column, i.Value, i.Reason)
}

// Product converts a raw row into a catalog record. It never fails: absent or
// malformed cells fall back to their defaults and malformed ones are reported as
// issues.
//
// Defaults: upc_code and the two color fields become null, msrp and wholesale
// become 0, every other string becomes "".
func Product(raw Row) (domain.Product, []Issue) {
	var issues []Issue

	p := domain.Product{
		ExternalID:     text(raw, ColExternalID),
		StyleNumber:    text(raw, ColStyleNumber),
		DisplayName:    text(raw, ColDisplayName),
		StyleName:      text(raw, ColStyleName),
		LaunchSeason:   text(raw, ColLaunchSeason),
		BaseColor:      optionalText(raw, ColBaseColor),
		MarketingColor: optionalText(raw, ColMarketingColor),
		ProductType:    text(raw, ColProductType),
	}

	if d, ok, issue := number(raw, ColUPCCode); issue != nil {
		issues = append(issues, *issue)
	} else if ok {
		if upc, fits := wholePart(d); fits {
			p.UPCCode = &upc
		} else {
			issues = append(issues, Issue{Column: ColUPCCode, Value: text(raw, ColUPCCode), Reason: "out of range"})
		}
	}

	if d, ok, issue := number(raw, ColMSRP); issue != nil {
		issues = append(issues, *issue)
	} else if ok {
		if cents, fits := MSRPCents(d); fits {
			p.MSRPCents = cents
		} else {
			issues = append(issues, Issue{Column: ColMSRP, Value: text(raw, ColMSRP), Reason: "out of range"})
		}
	}

	if d, ok, issue := number(raw, ColWholesale); issue != nil {
		issues = append(issues, *issue)
	} else if ok {
		p.WholesalePrice, _ = d.Float64()
	}

	return p, issues
}

// MSRPCents multiplies a dollar amount by 100 and truncates toward zero. ok is
// false when the result does not fit in an int64.
func MSRPCents(dollars decimal.Decimal) (cents int64, ok bool) {
	return wholePart(dollars.Mul(hundred))
}

// wholePart truncates d toward zero. IntPart wraps silently on overflow.
func wholePart(d decimal.Decimal) (int64, bool) {
	n := d.BigInt()
	if !n.IsInt64() {
		return 0, false
	}
	return n.Int64(), true
}

func text(raw Row, col string) string {
	return strings.TrimSpace(raw[col])
}

func optionalText(raw Row, col string) *string {
	v := text(raw, col)
	if v == "" {
		return nil
	}
	return &v
}

// number parses a numeric cell. ok is false when the cell is empty.
func number(raw Row, col string) (decimal.Decimal, bool, *Issue) {
	v := text(raw, col)
	if v == "" {
		return decimal.Zero, false, nil
	}
	clean := strings.NewReplacer("$", "", ",", "").Replace(v)
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, false, &Issue{Column: col, Value: v, Reason: "not a number"}
	}
	return d, true, nil
}
