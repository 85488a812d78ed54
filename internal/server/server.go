// Package server exposes the simulator over HTTP: the simulate API consumed
// by the table/chart UI, stored price history, and operational endpoints.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"dca-lab/internal/domain"
	"dca-lab/internal/ingestion"
	"dca-lab/internal/observability"
	"dca-lab/internal/reporting"
	"dca-lab/internal/simulation"
	"dca-lab/internal/storage"
)

// Default query parameter values, mirroring the UI defaults.
const (
	DefaultLookbackDays = 120
	DefaultSymbol       = "BTC"
)

// Server handles HTTP requests for the DCA service.
type Server struct {
	runner  *simulation.Runner
	store   storage.PriceSeriesStore
	ticker  *ingestion.LiveTicker
	symbols []string
	logger  *log.Logger
	started time.Time
}

// Options contains configuration for creating a Server.
// Ticker is optional; without it /status omits spot prices.
type Options struct {
	Runner  *simulation.Runner
	Store   storage.PriceSeriesStore
	Ticker  *ingestion.LiveTicker
	Symbols []string
	Logger  *log.Logger
}

// New creates a Server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		runner:  opts.Runner,
		store:   opts.Store,
		ticker:  opts.Ticker,
		symbols: opts.Symbols,
		logger:  logger,
		started: time.Now(),
	}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/api/v1/simulate", s.instrument("/api/v1/simulate", s.handleSimulate))
	mux.HandleFunc("/api/v1/history", s.instrument("/api/v1/history", s.handleHistory))

	return mux
}

// instrument wraps a handler with request metrics.
func (s *Server) instrument(route string, h func(http.ResponseWriter, *http.Request) int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		code := h(w, r)
		observability.RecordHTTPRequest(route, strconv.Itoa(code), time.Since(start).Seconds())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// dayRecordJSON is the wire format of one simulated day.
type dayRecordJSON struct {
	Day             int     `json:"day"`
	Date            string  `json:"date"`
	Price           float64 `json:"price"`
	UnitsBought     float64 `json:"units_bought"`
	CumulativeUnits float64 `json:"cumulative_units"`
	PortfolioValue  float64 `json:"portfolio_value"`
	TotalInvested   float64 `json:"total_invested"`
}

// simulateResponse is the JSON response for /api/v1/simulate.
type simulateResponse struct {
	Symbol        string           `json:"symbol"`
	RequestedDays int              `json:"requested_days"`
	EffectiveDays int              `json:"effective_days"`
	Warning       string           `json:"warning,omitempty"`
	Records       []dayRecordJSON  `json:"records"`
	Chart         *reporting.Chart `json:"chart"`
}

// errorResponse is the JSON body of a failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// handleSimulate runs a simulation for ?symbol=&days=&amount=.
// Parameter violations are 400; bad stored prices are 422.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) int {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		symbol = DefaultSymbol
	}

	days := DefaultLookbackDays
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid days %q", v))
		}
		days = parsed
	}

	amount := float64(domain.DefaultDailyContribution)
	if v := r.URL.Query().Get("amount"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid amount %q", v))
		}
		amount = parsed
	}

	params := domain.SimulationParameters{
		LookbackDays:      days,
		DailyContribution: amount,
	}

	result, err := s.runner.Run(r.Context(), symbol, params)
	if err != nil {
		var priceErr *simulation.InvalidPriceError
		switch {
		case errors.Is(err, domain.ErrInvalidParameter):
			return s.writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &priceErr):
			return s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.logger.Printf("simulate %s: %v", symbol, err)
			return s.writeError(w, http.StatusInternalServerError, "simulation failed")
		}
	}

	resp := simulateResponse{
		Symbol:        result.Symbol,
		RequestedDays: result.RequestedDays,
		EffectiveDays: result.EffectiveDays,
		Records:       make([]dayRecordJSON, 0, len(result.Records)),
		Chart:         reporting.ChartData(result),
	}
	if result.Insufficient() {
		resp.Warning = fmt.Sprintf("only %d of the requested %d days were available",
			result.EffectiveDays, result.RequestedDays)
	}
	for _, rec := range result.Records {
		resp.Records = append(resp.Records, dayRecordJSON{
			Day:             rec.DayIndex,
			Date:            rec.Date.Format(domain.DateOnly),
			Price:           rec.Price,
			UnitsBought:     rec.UnitsBought,
			CumulativeUnits: rec.CumulativeUnits,
			PortfolioValue:  rec.PortfolioValue,
			TotalInvested:   rec.TotalInvested,
		})
	}

	return s.writeJSON(w, http.StatusOK, resp)
}

// historyRow is the wire format of one stored daily close.
type historyRow struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// handleHistory serves stored daily closes for ?symbol=&limit=.
// The response format matches what pricefeed.HTTPSource consumes, so one
// dca-lab instance can act as the price source of another.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) int {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		symbol = DefaultSymbol
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
		}
		limit = parsed
	}

	series, err := s.store.GetRecent(r.Context(), symbol, limit)
	if err != nil {
		s.logger.Printf("history %s: %v", symbol, err)
		return s.writeError(w, http.StatusInternalServerError, "history lookup failed")
	}
	if len(series) == 0 {
		return s.writeError(w, http.StatusNotFound, fmt.Sprintf("no history for symbol %q", symbol))
	}

	rows := make([]historyRow, 0, len(series))
	for _, obs := range series {
		rows = append(rows, historyRow{
			Date:  obs.Date.Format(domain.DateOnly),
			Close: obs.Price,
		})
	}

	return s.writeJSON(w, http.StatusOK, rows)
}

// statusResponse is the JSON response for /status.
type statusResponse struct {
	Status    string             `json:"status"`
	Uptime    string             `json:"uptime"`
	SpotPrice map[string]float64 `json:"spot_price,omitempty"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		Status: "running",
		Uptime: time.Since(s.started).String(),
	}

	if s.ticker != nil {
		resp.SpotPrice = make(map[string]float64)
		for _, symbol := range s.symbols {
			if tick, ok := s.ticker.Latest(symbol); ok {
				resp.SpotPrice[symbol] = tick.Price
			}
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
	return code
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, code int, msg string) int {
	return s.writeJSON(w, code, errorResponse{Error: msg})
}
