package model

import "strconv"

// PayMode is an index into the HomeBank payment mode table.
type PayMode int

const (
	PayModeNone PayMode = iota
	PayModeCreditCard
	PayModeCheck
	PayModeCash
	PayModeTransfer
	PayModeInternalTransfer
	PayModeDebitCard
	PayModeStandingOrder
	PayModeElectronicPayment
	PayModeDeposit
	PayModeFIFees
)

// PayModeUncategorized marks an operation whose payment mode is left for
// the user to set in HomeBank. It is written as an empty paymode.
const PayModeUncategorized PayMode = -1

var payModeNames = [...]string{
	"None",
	"Credit Card",
	"Check",
	"Cash",
	"Transfer",
	"Internal Transfer",
	"Debit Card",
	"Standing Order",
	"Electronic Payment",
	"Deposit",
	"FI Fees",
}

// PayModeNames returns a copy of the payment mode table, in index order.
func PayModeNames() []string {
	names := make([]string, len(payModeNames))
	copy(names, payModeNames[:])
	return names
}

// Valid reports whether m is a table index or the uncategorized sentinel.
func (m PayMode) Valid() bool {
	return m == PayModeUncategorized || (m >= PayModeNone && int(m) < len(payModeNames))
}

// String returns the HomeBank display name.
func (m PayMode) String() string {
	if m == PayModeUncategorized {
		return "Uncategorized"
	}
	if !m.Valid() {
		return "PayMode(" + strconv.Itoa(int(m)) + ")"
	}
	return payModeNames[m]
}

// Code returns the value written to the HomeBank CSV paymode column.
// Uncategorized renders as an empty string.
func (m PayMode) Code() string {
	if m == PayModeUncategorized {
		return ""
	}
	return strconv.Itoa(int(m))
}
