package charges

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is the base error for every business validation failure.
// Specific violations wrap it so callers can match with errors.Is.
var ErrInvalidInput = errors.New("invalid transaction input")

var (
	// ErrNonFiniteNumber is returned when a numeric field is NaN or infinite.
	ErrNonFiniteNumber = fmt.Errorf("%w: numeric fields must be finite", ErrInvalidInput)
	// ErrNegativeAmount is returned for a negative transaction amount.
	ErrNegativeAmount = fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	// ErrNegativePurchaseCost is returned for a negative purchase cost.
	ErrNegativePurchaseCost = fmt.Errorf("%w: purchase cost must not be negative", ErrInvalidInput)
	// ErrNegativeDepositoryCharge is returned for a negative depository charge.
	ErrNegativeDepositoryCharge = fmt.Errorf("%w: depository charge must not be negative", ErrInvalidInput)
	// ErrNegativeUnits is returned for a negative unit count.
	ErrNegativeUnits = fmt.Errorf("%w: units must not be negative", ErrInvalidInput)
	// ErrMissingPurchaseCost is returned when a sell transaction omits the purchase cost.
	ErrMissingPurchaseCost = fmt.Errorf("%w: purchase cost is required for sell transactions", ErrInvalidInput)
	// ErrMissingPayerCategory is returned when a sell transaction omits the payer category.
	ErrMissingPayerCategory = fmt.Errorf("%w: payer category is required for sell transactions", ErrInvalidInput)
	// ErrPenaltyPercentRange is returned when an enabled penalty percent leaves [0,100].
	ErrPenaltyPercentRange = fmt.Errorf("%w: penalty percent must be between 0 and 100", ErrInvalidInput)
	// ErrUnknownInstrument is returned for a value outside the instrument set.
	ErrUnknownInstrument = fmt.Errorf("%w: unknown instrument", ErrInvalidInput)
	// ErrUnknownTransactionType is returned for a value that is neither buy nor sell.
	ErrUnknownTransactionType = fmt.Errorf("%w: unknown transaction type", ErrInvalidInput)
	// ErrUnknownPayerCategory is returned for a value outside the payer set.
	ErrUnknownPayerCategory = fmt.Errorf("%w: unknown payer category", ErrInvalidInput)
	// ErrFractionalUnits is returned when the unit count is not a whole number.
	ErrFractionalUnits = fmt.Errorf("%w: units must be a whole number", ErrInvalidInput)
)

// TransactionInput is the immutable snapshot of one trade handed to Compute.
// PurchaseCost is a pointer so a missing value is distinguishable from zero.
type TransactionInput struct {
	Type             TransactionType
	Instrument       Instrument
	Amount           float64
	PurchaseCost     *float64
	Payer            PayerCategory
	DepositoryCharge float64
	Units            int
	PenaltyEnabled   bool
	PenaltyPercent   float64
}

// Validate enforces the business rules on the snapshot. Enum fields are
// expected to have been parsed once at the input boundary; unknown values
// still fail here for programmatic callers that bypass parsing.
func (in TransactionInput) Validate() error {
	switch in.Type {
	case Buy, Sell:
	default:
		return ErrUnknownTransactionType
	}
	switch in.Instrument {
	case InstrumentEquity, InstrumentGovernmentBond, InstrumentOther:
	default:
		return ErrUnknownInstrument
	}
	if !finite(in.Amount) || !finite(in.DepositoryCharge) || !finite(in.PenaltyPercent) {
		return ErrNonFiniteNumber
	}
	if in.PurchaseCost != nil && !finite(*in.PurchaseCost) {
		return ErrNonFiniteNumber
	}
	if in.Amount < 0 {
		return ErrNegativeAmount
	}
	if in.DepositoryCharge < 0 {
		return ErrNegativeDepositoryCharge
	}
	if in.Units < 0 {
		return ErrNegativeUnits
	}
	if in.PurchaseCost != nil && *in.PurchaseCost < 0 {
		return ErrNegativePurchaseCost
	}
	if in.Type == Sell {
		if in.PurchaseCost == nil {
			return ErrMissingPurchaseCost
		}
		switch in.Payer {
		case PayerIndividual, PayerInstitution:
		case "":
			return ErrMissingPayerCategory
		default:
			return ErrUnknownPayerCategory
		}
		if in.PenaltyEnabled && (in.PenaltyPercent < 0 || in.PenaltyPercent > 100) {
			return ErrPenaltyPercentRange
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ChargeBreakdown is the full result of one computation. A negative NetAmount
// is a valid outcome: charges can exceed the trade value on small sells.
type ChargeBreakdown struct {
	AppliedRate      float64 `json:"appliedRate"`
	Brokerage        float64 `json:"brokerage"`
	RegulatoryFee    float64 `json:"regulatoryFee"`
	DepositoryCharge float64 `json:"depositoryCharge"`
	CapitalGainsTax  float64 `json:"capitalGainsTax"`
	Penalty          float64 `json:"penalty"`
	TotalDeductions  float64 `json:"totalDeductions"`
	NetAmount        float64 `json:"netAmount"`
	OddLotAdvisory   bool    `json:"oddLotAdvisory"`
}

// Engine computes charge breakdowns against a fixed rate book. It holds no
// mutable state, so a single engine is safe for concurrent use.
type Engine struct {
	book Book
}

// NewEngine validates the rate book and returns a ready engine.
func NewEngine(book Book) (*Engine, error) {
	if err := book.Validate(); err != nil {
		return nil, fmt.Errorf("rate book: %w", err)
	}
	return &Engine{book: book}, nil
}

// Book returns the rate schedule the engine was built with.
func (e *Engine) Book() Book {
	return e.book
}

// Compute derives the charge breakdown for one transaction snapshot.
//
// Brokerage uses the slab rate for the instrument and amount, the regulatory
// fee applies uniformly, and the depository charge passes through unchanged.
// Capital-gains tax applies to sell profit only, at the payer's rate. The
// optional penalty applies to sells on the full amount. Buys add the total
// charges on top of the amount; sells deduct them.
func (e *Engine) Compute(in TransactionInput) (ChargeBreakdown, error) {
	if err := in.Validate(); err != nil {
		return ChargeBreakdown{}, err
	}

	rate := e.book.Tables[in.Instrument].Resolve(in.Amount)
	brokerage := in.Amount * rate
	regulatory := in.Amount * e.book.RegulatoryRate
	components := brokerage + regulatory + in.DepositoryCharge

	var tax, penalty float64
	if in.Type == Sell {
		profit := math.Max(in.Amount-*in.PurchaseCost, 0)
		taxRate := e.book.IndividualCGT
		if in.Payer == PayerInstitution {
			taxRate = e.book.InstitutionCGT
		}
		tax = profit * taxRate
		if in.PenaltyEnabled {
			penalty = in.Amount * in.PenaltyPercent / 100
		}
	}

	total := components + tax + penalty
	net := in.Amount + total
	if in.Type == Sell {
		net = in.Amount - total
	}

	return ChargeBreakdown{
		AppliedRate:      rate,
		Brokerage:        brokerage,
		RegulatoryFee:    regulatory,
		DepositoryCharge: in.DepositoryCharge,
		CapitalGainsTax:  tax,
		Penalty:          penalty,
		TotalDeductions:  total,
		NetAmount:        net,
		OddLotAdvisory:   e.book.OddLot(in.Units),
	}, nil
}
