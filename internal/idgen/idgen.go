// Package idgen produces the human-readable business identifiers printed
// on order slips, sample labels, and bills, e.g. LAB-482913-7QK. The
// format is a kind prefix, the last six digits of the current unix
// millisecond clock, and three random base-36 characters; no central
// sequence is involved, so concurrent callers need no coordination.
package idgen

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

type Kind string

const (
	KindLabOrder      Kind = "lab_order"
	KindPharmacyOrder Kind = "pharmacy_order"
	KindCollection    Kind = "sample_collection"
	KindBill          Kind = "bill"
	KindPrescription  Kind = "prescription"
)

var prefixes = map[Kind]string{
	KindLabOrder:      "LAB",
	KindPharmacyOrder: "PHARM",
	KindCollection:    "SAMP",
	KindBill:          "BILL",
	KindPrescription:  "PRESC",
}

const suffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const suffixLen = 3

// Generator is a pure function of its time and randomness sources, both
// injectable so tests can pin them.
type Generator struct {
	now  func() time.Time
	intn func(n int) int
}

func New() *Generator {
	return &Generator{now: time.Now, intn: rand.Intn}
}

// NewWithSources builds a generator with explicit sources. Tests use this
// to get reproducible identifiers.
func NewWithSources(now func() time.Time, intn func(n int) int) *Generator {
	return &Generator{now: now, intn: intn}
}

// Next returns a fresh identifier for the given kind. Unknown kinds fall
// back to the bare numeric form with no prefix, which no caller should
// rely on; all kinds in use are enumerated above.
func (g *Generator) Next(kind Kind) string {
	millis := g.now().UnixMilli()
	stamp := fmt.Sprintf("%06d", millis%1_000_000)

	var suffix strings.Builder
	for i := 0; i < suffixLen; i++ {
		suffix.WriteByte(suffixAlphabet[g.intn(len(suffixAlphabet))])
	}

	prefix, ok := prefixes[kind]
	if !ok {
		return stamp + "-" + suffix.String()
	}
	return prefix + "-" + stamp + "-" + suffix.String()
}
