// Package classify splits the free-text description of a Boursorama operation
// into a transaction type, the fragments embedded in card payment labels, and
// a cleaned description suitable for a payee.
package classify

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/hbconv/internal/model"
)

// Transaction types produced by the fallback rules.
const (
	TypeTransferSEPA    = "VIR SEPA"
	TypeDirectDebitSEPA = "PRLV SEPA"
	TypeCheck           = "CHQ."
	TypeWithdrawal      = "RETRAIT"
	TypeTransfer        = "VIR"
	TypeDirectDebit     = "PRLV"
	TypeCardStatement   = "Releve Carte"
	TypeUnknown         = "?"
)

// deferredPrefix starts the description of a deferred card statement.
const deferredPrefix = "Relevé différé "

// typedPattern matches "<TYPE> <DDMMYY> <PLACE><rest>", the shape of most
// card and point-of-sale labels.
var typedPattern = regexp.MustCompile(`^([A-Z .]*)([0-9]{6})\s*([A-Z0-9]{2})(.*)`)

// Result is the classification of one description. Type and Description are
// always set.
type Result struct {
	Type             string
	CounterpartyDate string
	Place            string
	Description      string
	CheckNumber      string
}

// Matched reports whether a rule recognized the description.
func (r Result) Matched() bool { return r.Type != TypeUnknown }

// Rule is one step of the classification ladder.
type Rule struct {
	Name  string
	Apply func(desc string) (Result, bool)
}

// Classifier evaluates its rules in order; the first match wins.
type Classifier struct {
	log   zerolog.Logger
	rules []Rule
}

// New returns a Classifier with the default rule ladder.
func New(log zerolog.Logger) *Classifier {
	return NewWithRules(log, DefaultRules())
}

// NewWithRules returns a Classifier evaluating rules in the given order.
func NewWithRules(log zerolog.Logger, rules []Rule) *Classifier {
	return &Classifier{log: log, rules: rules}
}

// Classify returns the first matching rule's result. An unrecognized
// description is logged and returned unchanged with TypeUnknown.
func (c *Classifier) Classify(desc string) Result {
	for _, r := range c.rules {
		if res, ok := r.Apply(desc); ok {
			return res
		}
	}
	c.log.Error().Err(model.ErrUnclassified).Str("description", desc).Msg("unrecognized operation, review manually")
	return Result{Type: TypeUnknown, Description: desc}
}

// DefaultRules returns the ladder used for Boursorama exports. Order matters:
// "VIR SEPA" must shadow "VIR", and "CHQ" is tested before "VIR" and "PRLV".
func DefaultRules() []Rule {
	return []Rule{
		{Name: "typed", Apply: matchTyped},
		{Name: "vir-sepa", Apply: stripMarker("VIR SEPA", TypeTransferSEPA)},
		{Name: "prlv-sepa", Apply: stripMarker("PRLV SEPA", TypeDirectDebitSEPA)},
		{Name: "check", Apply: matchCheck},
		{Name: "withdrawal", Apply: keepWhole("RETRAIT DAB", TypeWithdrawal)},
		{Name: "vir", Apply: keepWhole("VIR", TypeTransfer)},
		{Name: "prlv", Apply: keepWhole("PRLV", TypeDirectDebit)},
		{Name: "card-statement", Apply: matchCardStatement},
	}
}

func trim(s string) string { return strings.Trim(s, " ") }

func matchTyped(desc string) (Result, bool) {
	m := typedPattern.FindStringSubmatch(desc)
	if m == nil {
		return Result{}, false
	}
	return Result{
		Type:             trim(m[1]),
		CounterpartyDate: trim(m[2]),
		Place:            trim(m[3]),
		Description:      trim(m[4]),
	}, true
}

func stripMarker(marker, typ string) func(string) (Result, bool) {
	return func(desc string) (Result, bool) {
		if !strings.Contains(desc, marker) {
			return Result{}, false
		}
		cleaned := strings.ReplaceAll(desc, marker+" ", "")
		if cleaned == desc {
			cleaned = strings.ReplaceAll(desc, marker, "")
		}
		return Result{Type: typ, Description: trim(cleaned)}, true
	}
}

func keepWhole(marker, typ string) func(string) (Result, bool) {
	return func(desc string) (Result, bool) {
		if !strings.Contains(desc, marker) {
			return Result{}, false
		}
		return Result{Type: typ, Description: desc}, true
	}
}

func matchCheck(desc string) (Result, bool) {
	if !strings.Contains(desc, "CHQ") {
		return Result{}, false
	}
	res := Result{Type: TypeCheck, Description: desc}
	if _, num, ok := strings.Cut(desc, "N."); ok {
		res.CheckNumber = trim(num)
	}
	return res, true
}

func matchCardStatement(desc string) (Result, bool) {
	if !strings.Contains(desc, "Relev") {
		return Result{}, false
	}
	rest := desc
	if i := strings.Index(desc, "Carte"); i >= 0 {
		rest = desc[i:]
	}
	return Result{Type: TypeCardStatement, Description: deferredPrefix + rest}, true
}
