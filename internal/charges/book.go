package charges

import (
	"errors"
	"fmt"
)

// Instrument identifies the traded security class used for slab selection.
type Instrument string

// Supported instrument classes.
const (
	InstrumentEquity         Instrument = "equity"
	InstrumentGovernmentBond Instrument = "government_bond"
	InstrumentOther          Instrument = "other"
)

// Instruments lists every supported instrument class in schedule order.
func Instruments() []Instrument {
	return []Instrument{InstrumentEquity, InstrumentGovernmentBond, InstrumentOther}
}

// ParseInstrument maps a wire value onto the closed instrument set.
func ParseInstrument(value string) (Instrument, error) {
	switch Instrument(value) {
	case InstrumentEquity, InstrumentGovernmentBond, InstrumentOther:
		return Instrument(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownInstrument, value)
	}
}

// TransactionType is the side of the trade being settled.
type TransactionType string

// Trade sides.
const (
	Buy  TransactionType = "buy"
	Sell TransactionType = "sell"
)

// ParseTransactionType maps a wire value onto buy or sell.
func ParseTransactionType(value string) (TransactionType, error) {
	switch TransactionType(value) {
	case Buy, Sell:
		return TransactionType(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTransactionType, value)
	}
}

// PayerCategory determines the capital-gains tax rate on sell transactions.
type PayerCategory string

// Payer categories.
const (
	PayerIndividual  PayerCategory = "individual"
	PayerInstitution PayerCategory = "institution"
)

// ParsePayerCategory maps a wire value onto the closed payer set.
func ParsePayerCategory(value string) (PayerCategory, error) {
	switch PayerCategory(value) {
	case PayerIndividual, PayerInstitution:
		return PayerCategory(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPayerCategory, value)
	}
}

// Book bundles every configurable rate the engine consults: the per-instrument
// slab schedules, the fixed regulatory-fee rate, both capital-gains tax rates,
// and the minimum standard lot size for the odd-lot advisory.
type Book struct {
	Tables         map[Instrument]Table `json:"tables"`
	RegulatoryRate float64              `json:"regulatoryRate"`
	IndividualCGT  float64              `json:"individualCgtRate"`
	InstitutionCGT float64              `json:"institutionCgtRate"`
	MinLotSize     int                  `json:"minLotSize"`
}

// DefaultBook returns the standard rate schedule.
func DefaultBook() Book {
	return Book{
		Tables: map[Instrument]Table{
			InstrumentEquity: {
				{UpTo: bound(50_000), Rate: 0.006},
				{UpTo: bound(500_000), Rate: 0.0055},
				{UpTo: bound(2_000_000), Rate: 0.005},
				{UpTo: bound(10_000_000), Rate: 0.0045},
				{Rate: 0.004},
			},
			InstrumentGovernmentBond: {
				{UpTo: bound(500_000), Rate: 0.001},
				{UpTo: bound(5_000_000), Rate: 0.0005},
				{Rate: 0.0002},
			},
			InstrumentOther: {
				{UpTo: bound(500_000), Rate: 0.0015},
				{UpTo: bound(5_000_000), Rate: 0.0012},
				{Rate: 0.001},
			},
		},
		RegulatoryRate: 0.0000015,
		IndividualCGT:  0.05,
		InstitutionCGT: 0.10,
		MinLotSize:     10,
	}
}

// Validate ensures every instrument has a well-formed table and the scalar
// rates are usable.
func (b Book) Validate() error {
	for _, instrument := range Instruments() {
		table, ok := b.Tables[instrument]
		if !ok {
			return fmt.Errorf("missing slab table for instrument %q", instrument)
		}
		if err := table.Validate(); err != nil {
			return fmt.Errorf("slab table for instrument %q: %w", instrument, err)
		}
	}
	if b.RegulatoryRate < 0 {
		return errors.New("regulatory rate must not be negative")
	}
	if b.IndividualCGT < 0 || b.InstitutionCGT < 0 {
		return errors.New("capital-gains tax rates must not be negative")
	}
	if b.MinLotSize <= 0 {
		return errors.New("minimum lot size must be positive")
	}
	return nil
}

// OddLot reports whether the unit count falls below the minimum standard lot.
// Zero units means the caller did not specify a quantity.
func (b Book) OddLot(units int) bool {
	return units > 0 && units < b.MinLotSize
}

func bound(v float64) *float64 {
	return &v
}
