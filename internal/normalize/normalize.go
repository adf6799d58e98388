// Package normalize maps format-specific records onto model.Transaction,
// inferring the HomeBank payment mode.
package normalize

import (
	"strings"

	"github.com/cleared-dev/hbconv/internal/classify"
	"github.com/cleared-dev/hbconv/internal/model"
)

// CardInfo is written to Info for card payments.
const CardInfo = "CB"

// cardTypes are classifier types that denote a card payment.
var cardTypes = map[string]bool{
	"PAIEMENT CARTE": true,
	"CARTE":          true,
	"ACHAT CB":       true,
	"CB":             true,
}

// bookingTexts maps ING-DiBa "Buchungstext" labels to payment modes.
var bookingTexts = map[string]model.PayMode{
	"Lastschrifteinzug":               model.PayModeCreditCard,
	"Überweisung":                     model.PayModeTransfer,
	"Uberweisung":                     model.PayModeTransfer,
	"Gutschrift":                      model.PayModeTransfer,
	"Gutschrift aus Dauerauftrag":     model.PayModeTransfer,
	"Dauerauftrag/Terminueberweisung": model.PayModeTransfer,
}

// Describe infers the payment mode and info field from a classified
// description. The first matching rule wins.
func Describe(res classify.Result) (model.PayMode, string) {
	switch typ := res.Type; {
	case cardTypes[typ]:
		return model.PayModeCreditCard, CardInfo
	case strings.Contains(typ, "CHQ"):
		return model.PayModeCheck, res.CheckNumber
	case strings.Contains(typ, "VIR"):
		return model.PayModeTransfer, ""
	case strings.Contains(typ, "PRLV"):
		return model.PayModeStandingOrder, ""
	case strings.Contains(typ, "RETRAIT"):
		return model.PayModeUncategorized, ""
	default:
		return model.PayModeNone, ""
	}
}

// BookingText maps an explicit transaction-type label. Unknown labels
// return PayModeNone.
func BookingText(label string) model.PayMode {
	if m, ok := bookingTexts[strings.TrimSpace(label)]; ok {
		return m
	}
	return model.PayModeNone
}

// QIF converts a Boursorama record and its classified description.
func QIF(rec model.QIFRecord, res classify.Result) model.Transaction {
	mode, info := Describe(res)
	memo := rec.Description
	if rec.Memo != "" {
		memo = rec.Memo
	}
	return model.Transaction{
		Key:     rec.Key,
		Date:    rec.Date,
		PayMode: mode,
		Info:    info,
		Payee:   res.Description,
		Memo:    memo,
		Amount:  rec.Amount,
	}
}

// ING converts an ING-DiBa row. The booking date is the transaction date.
func ING(rec model.INGRecord) model.Transaction {
	return model.Transaction{
		Key:     rec.Key,
		Date:    rec.Booking,
		PayMode: BookingText(rec.BookingText),
		Payee:   rec.Counterparty,
		Memo:    rec.Purpose,
		Amount:  rec.Amount,
	}
}

// Linxo converts a Linxo row. The label serves as both payee and memo.
// TODO: map Linxo categories to payment modes once the category list is known.
func Linxo(rec model.LinxoRecord) model.Transaction {
	return model.Transaction{
		Key:     rec.Key,
		Date:    rec.Date,
		PayMode: model.PayModeNone,
		Payee:   rec.Label,
		Memo:    rec.Label,
		Amount:  rec.Amount,
	}
}
