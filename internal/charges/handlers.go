package charges

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sharecalc-api/internal/common"
	"github.com/noah-isme/sharecalc-api/internal/obs"
)

// Handler exposes the charge calculation endpoints.
type Handler struct {
	Engine   *Engine
	Validate *validator.Validate
	Log      *zerolog.Logger
}

type computeRequest struct {
	Type             string         `json:"type" validate:"required,oneof=buy sell"`
	Instrument       string         `json:"instrument" validate:"required,oneof=equity government_bond other"`
	Amount           common.Number  `json:"amount"`
	PurchaseCost     *common.Number `json:"purchaseCost"`
	PayerCategory    string         `json:"payerCategory" validate:"omitempty,oneof=individual institution"`
	DepositoryCharge common.Number  `json:"depositoryCharge"`
	Units            common.Number  `json:"units"`
	PenaltyEnabled   bool           `json:"penaltyEnabled"`
	PenaltyPercent   common.Number  `json:"penaltyPercent"`
}

func (p computeRequest) toInput() (TransactionInput, error) {
	txType, err := ParseTransactionType(p.Type)
	if err != nil {
		return TransactionInput{}, err
	}
	instrument, err := ParseInstrument(p.Instrument)
	if err != nil {
		return TransactionInput{}, err
	}
	units := p.Units.Float64()
	if units != math.Trunc(units) {
		return TransactionInput{}, ErrFractionalUnits
	}
	input := TransactionInput{
		Type:             txType,
		Instrument:       instrument,
		Amount:           p.Amount.Float64(),
		DepositoryCharge: p.DepositoryCharge.Float64(),
		Units:            int(units),
		PenaltyEnabled:   p.PenaltyEnabled,
		PenaltyPercent:   p.PenaltyPercent.Float64(),
	}
	if p.PurchaseCost != nil {
		cost := p.PurchaseCost.Float64()
		input.PurchaseCost = &cost
	}
	if p.PayerCategory != "" {
		payer, err := ParsePayerCategory(p.PayerCategory)
		if err != nil {
			return TransactionInput{}, err
		}
		input.Payer = payer
	}
	return input, nil
}

// Compute handles POST /api/v1/charges/compute.
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "charge engine not configured", nil)
		return
	}
	var payload computeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			h.countCompute(payload.Type, payload.Instrument, "invalid")
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", validationDetails(err))
			return
		}
	}
	input, err := payload.toInput()
	if err == nil {
		var breakdown ChargeBreakdown
		breakdown, err = h.Engine.Compute(input)
		if err == nil {
			h.countCompute(payload.Type, payload.Instrument, "ok")
			if breakdown.NetAmount < 0 {
				if obs.ComputeNegativeNetTotal != nil {
					obs.ComputeNegativeNetTotal.Inc()
				}
				if h.Log != nil {
					h.Log.Warn().
						Str("type", payload.Type).
						Str("instrument", payload.Instrument).
						Float64("amount", input.Amount).
						Float64("net_amount", breakdown.NetAmount).
						Msg("settlement net is negative")
				}
			}
			if breakdown.OddLotAdvisory && obs.ComputeOddLotTotal != nil {
				obs.ComputeOddLotTotal.Inc()
			}
			common.Data(w, http.StatusOK, breakdown)
			return
		}
	}
	if errors.Is(err, ErrInvalidInput) {
		h.countCompute(payload.Type, payload.Instrument, "invalid")
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	h.countCompute(payload.Type, payload.Instrument, "error")
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to compute charges", nil)
}

// Rates handles GET /api/v1/charges/rates and returns the active rate book
// so clients can render the slab schedules and tax constants.
func (h *Handler) Rates(w http.ResponseWriter, _ *http.Request) {
	if h.Engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "charge engine not configured", nil)
		return
	}
	common.Data(w, http.StatusOK, h.Engine.Book())
}

func (h *Handler) countCompute(txType, instrument, result string) {
	if obs.ComputeTotal == nil {
		return
	}
	if txType == "" {
		txType = "unknown"
	}
	if instrument == "" {
		instrument = "unknown"
	}
	obs.ComputeTotal.WithLabelValues(txType, instrument, result).Inc()
}

func validationDetails(err error) any {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
	}
	return details
}
