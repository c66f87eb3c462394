package charges

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(DefaultBook())
	require.NoError(t, err)
	return engine
}

func cost(v float64) *float64 {
	return &v
}

func TestComputeSellIndividualProfit(t *testing.T) {
	engine := newTestEngine(t)
	breakdown, err := engine.Compute(TransactionInput{
		Type:             Sell,
		Instrument:       InstrumentEquity,
		Amount:           40_000,
		PurchaseCost:     cost(30_000),
		Payer:            PayerIndividual,
		DepositoryCharge: 25,
	})
	require.NoError(t, err)
	require.InDelta(t, 0.006, breakdown.AppliedRate, tolerance)
	require.InDelta(t, 240, breakdown.Brokerage, tolerance)
	require.InDelta(t, 0.06, breakdown.RegulatoryFee, tolerance)
	require.InDelta(t, 25, breakdown.DepositoryCharge, tolerance)
	require.InDelta(t, 500, breakdown.CapitalGainsTax, tolerance)
	require.Zero(t, breakdown.Penalty)
	require.InDelta(t, 765.06, breakdown.TotalDeductions, tolerance)
	require.InDelta(t, 39_234.94, breakdown.NetAmount, tolerance)
	require.False(t, breakdown.OddLotAdvisory)
}

func TestComputeBuyAddsCharges(t *testing.T) {
	engine := newTestEngine(t)
	breakdown, err := engine.Compute(TransactionInput{
		Type:             Buy,
		Instrument:       InstrumentEquity,
		Amount:           600_000,
		DepositoryCharge: 25,
	})
	require.NoError(t, err)
	require.InDelta(t, 0.005, breakdown.AppliedRate, tolerance)
	require.InDelta(t, 3_000, breakdown.Brokerage, tolerance)
	require.InDelta(t, 0.9, breakdown.RegulatoryFee, tolerance)
	require.Zero(t, breakdown.CapitalGainsTax)
	require.Zero(t, breakdown.Penalty)
	require.InDelta(t, 3_025.9, breakdown.TotalDeductions, tolerance)
	require.InDelta(t, 603_025.9, breakdown.NetAmount, tolerance)
}

func TestComputeBuySecondSlab(t *testing.T) {
	engine := newTestEngine(t)
	breakdown, err := engine.Compute(TransactionInput{
		Type:             Buy,
		Instrument:       InstrumentEquity,
		Amount:           400_000,
		DepositoryCharge: 25,
	})
	require.NoError(t, err)
	require.InDelta(t, 0.0055, breakdown.AppliedRate, tolerance)
	require.InDelta(t, 2_200, breakdown.Brokerage, tolerance)
	require.InDelta(t, 0.6, breakdown.RegulatoryFee, tolerance)
	require.InDelta(t, 2_225.6, breakdown.TotalDeductions, tolerance)
	require.InDelta(t, 402_225.6, breakdown.NetAmount, tolerance)
}

func TestComputeSellLossWithPenalty(t *testing.T) {
	engine := newTestEngine(t)
	breakdown, err := engine.Compute(TransactionInput{
		Type:             Sell,
		Instrument:       InstrumentEquity,
		Amount:           10_000,
		PurchaseCost:     cost(30_000),
		Payer:            PayerIndividual,
		DepositoryCharge: 25,
		PenaltyEnabled:   true,
		PenaltyPercent:   20,
	})
	require.NoError(t, err)
	require.Zero(t, breakdown.CapitalGainsTax)
	require.InDelta(t, 2_000, breakdown.Penalty, tolerance)
	require.InDelta(t, 2_085.015, breakdown.TotalDeductions, tolerance)
	require.InDelta(t, 7_914.985, breakdown.NetAmount, tolerance)
}

func TestComputeSellInstitutionTaxRate(t *testing.T) {
	engine := newTestEngine(t)
	breakdown, err := engine.Compute(TransactionInput{
		Type:         Sell,
		Instrument:   InstrumentEquity,
		Amount:       40_000,
		PurchaseCost: cost(30_000),
		Payer:        PayerInstitution,
	})
	require.NoError(t, err)
	require.InDelta(t, 1_000, breakdown.CapitalGainsTax, tolerance)
}

func TestComputeSellBreakEvenHasNoTax(t *testing.T) {
	engine := newTestEngine(t)
	for _, purchase := range []float64{40_000, 45_000} {
		breakdown, err := engine.Compute(TransactionInput{
			Type:         Sell,
			Instrument:   InstrumentEquity,
			Amount:       40_000,
			PurchaseCost: cost(purchase),
			Payer:        PayerIndividual,
		})
		require.NoError(t, err)
		require.Zero(t, breakdown.CapitalGainsTax)
	}
}

func TestComputeNegativeNetIsValid(t *testing.T) {
	engine := newTestEngine(t)
	breakdown, err := engine.Compute(TransactionInput{
		Type:             Sell,
		Instrument:       InstrumentEquity,
		Amount:           10,
		PurchaseCost:     cost(10),
		Payer:            PayerIndividual,
		DepositoryCharge: 25,
	})
	require.NoError(t, err)
	require.Less(t, breakdown.NetAmount, 0.0)
}

func TestComputeBuyIgnoresPenaltyAndTax(t *testing.T) {
	engine := newTestEngine(t)
	breakdown, err := engine.Compute(TransactionInput{
		Type:           Buy,
		Instrument:     InstrumentGovernmentBond,
		Amount:         100_000,
		PenaltyEnabled: true,
		PenaltyPercent: 50,
	})
	require.NoError(t, err)
	require.Zero(t, breakdown.CapitalGainsTax)
	require.Zero(t, breakdown.Penalty)
	require.InDelta(t, 0.001, breakdown.AppliedRate, tolerance)
	require.InDelta(t, 100_000+breakdown.TotalDeductions, breakdown.NetAmount, tolerance)
}

func TestComputeIdempotent(t *testing.T) {
	engine := newTestEngine(t)
	input := TransactionInput{
		Type:             Sell,
		Instrument:       InstrumentOther,
		Amount:           250_000,
		PurchaseCost:     cost(200_000),
		Payer:            PayerIndividual,
		DepositoryCharge: 25,
		Units:            100,
	}
	first, err := engine.Compute(input)
	require.NoError(t, err)
	second, err := engine.Compute(input)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestComputeValidation(t *testing.T) {
	engine := newTestEngine(t)
	cases := map[string]struct {
		input TransactionInput
		want  error
	}{
		"negative amount": {
			TransactionInput{Type: Buy, Instrument: InstrumentEquity, Amount: -1},
			ErrNegativeAmount,
		},
		"negative purchase cost": {
			TransactionInput{Type: Sell, Instrument: InstrumentEquity, Amount: 100, PurchaseCost: cost(-5), Payer: PayerIndividual},
			ErrNegativePurchaseCost,
		},
		"negative depository charge": {
			TransactionInput{Type: Buy, Instrument: InstrumentEquity, Amount: 100, DepositoryCharge: -1},
			ErrNegativeDepositoryCharge,
		},
		"negative units": {
			TransactionInput{Type: Buy, Instrument: InstrumentEquity, Amount: 100, Units: -1},
			ErrNegativeUnits,
		},
		"sell missing purchase cost": {
			TransactionInput{Type: Sell, Instrument: InstrumentEquity, Amount: 100, Payer: PayerIndividual},
			ErrMissingPurchaseCost,
		},
		"sell missing payer": {
			TransactionInput{Type: Sell, Instrument: InstrumentEquity, Amount: 100, PurchaseCost: cost(50)},
			ErrMissingPayerCategory,
		},
		"penalty percent above range": {
			TransactionInput{Type: Sell, Instrument: InstrumentEquity, Amount: 100, PurchaseCost: cost(50), Payer: PayerIndividual, PenaltyEnabled: true, PenaltyPercent: 101},
			ErrPenaltyPercentRange,
		},
		"penalty percent below range": {
			TransactionInput{Type: Sell, Instrument: InstrumentEquity, Amount: 100, PurchaseCost: cost(50), Payer: PayerIndividual, PenaltyEnabled: true, PenaltyPercent: -1},
			ErrPenaltyPercentRange,
		},
		"unknown type": {
			TransactionInput{Type: "short", Instrument: InstrumentEquity, Amount: 100},
			ErrUnknownTransactionType,
		},
		"unknown instrument": {
			TransactionInput{Type: Buy, Instrument: "crypto", Amount: 100},
			ErrUnknownInstrument,
		},
		"unknown payer": {
			TransactionInput{Type: Sell, Instrument: InstrumentEquity, Amount: 100, PurchaseCost: cost(50), Payer: "trust"},
			ErrUnknownPayerCategory,
		},
		"nan amount": {
			TransactionInput{Type: Buy, Instrument: InstrumentEquity, Amount: math.NaN()},
			ErrNonFiniteNumber,
		},
		"infinite amount": {
			TransactionInput{Type: Buy, Instrument: InstrumentEquity, Amount: math.Inf(1)},
			ErrNonFiniteNumber,
		},
		"infinite depository charge": {
			TransactionInput{Type: Buy, Instrument: InstrumentEquity, Amount: 100, DepositoryCharge: math.Inf(1)},
			ErrNonFiniteNumber,
		},
		"nan purchase cost": {
			TransactionInput{Type: Sell, Instrument: InstrumentEquity, Amount: 100, PurchaseCost: cost(math.NaN()), Payer: PayerIndividual},
			ErrNonFiniteNumber,
		},
		"nan penalty percent": {
			TransactionInput{Type: Sell, Instrument: InstrumentEquity, Amount: 100, PurchaseCost: cost(50), Payer: PayerIndividual, PenaltyEnabled: true, PenaltyPercent: math.NaN()},
			ErrNonFiniteNumber,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := engine.Compute(tc.input)
			require.ErrorIs(t, err, tc.want)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestOddLotAdvisory(t *testing.T) {
	book := DefaultBook()
	cases := []struct {
		units int
		want  bool
	}{
		{0, false},
		{1, true},
		{9, true},
		{10, false},
		{11, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, book.OddLot(tc.units), "units=%d", tc.units)
	}

	engine := newTestEngine(t)
	breakdown, err := engine.Compute(TransactionInput{
		Type: Buy, Instrument: InstrumentEquity, Amount: 1_000, Units: 5,
	})
	require.NoError(t, err)
	require.True(t, breakdown.OddLotAdvisory)

	withoutUnits, err := engine.Compute(TransactionInput{
		Type: Buy, Instrument: InstrumentEquity, Amount: 1_000,
	})
	require.NoError(t, err)
	require.False(t, withoutUnits.OddLotAdvisory)
	breakdown.OddLotAdvisory = false
	require.Equal(t, withoutUnits, breakdown, "units must not affect monetary fields")
}

func TestNewEngineRejectsBrokenBook(t *testing.T) {
	book := DefaultBook()
	book.Tables[InstrumentEquity] = Table{{UpTo: bound(50_000), Rate: 0.006}}
	_, err := NewEngine(book)
	require.Error(t, err)

	missing := DefaultBook()
	delete(missing.Tables, InstrumentOther)
	_, err = NewEngine(missing)
	require.Error(t, err)
}
