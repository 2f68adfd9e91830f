package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hepascope/platform/pkg/common/logger"
	"github.com/hepascope/platform/pkg/common/models"
	"github.com/hepascope/platform/pkg/correlation"
	"github.com/hepascope/platform/pkg/reference"
	"github.com/hepascope/platform/pkg/registry"
	"github.com/hepascope/platform/pkg/scoring"
	"github.com/hepascope/platform/pkg/series"
)

const chartDateLayout = "2006-01-02"

// HTTPHandler exposes the analytics read path: chart series, latest-values
// map, correlation, and scoring inputs.
type HTTPHandler struct {
	registry  *registry.Registry
	resolver  *series.Resolver
	engine    *correlation.Engine
	assembler *scoring.Assembler
}

func NewHTTPHandler(reg *registry.Registry, resolver *series.Resolver, engine *correlation.Engine, assembler *scoring.Assembler) *HTTPHandler {
	return &HTTPHandler{
		registry:  reg,
		resolver:  resolver,
		engine:    engine,
		assembler: assembler,
	}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/api/v1/users/{id}/series/{metric}", h.handleSeries).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/users/{id}/latest", h.handleLatest).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/users/{id}/correlation", h.handleCorrelation).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/users/{id}/scores/{score}/inputs", h.handleScoreInputs).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleSeries(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	metric, ok := h.registry.ResolveName(vars["metric"])
	if !ok {
		http.Error(w, "unknown metric", http.StatusNotFound)
		return
	}

	points, err := h.resolver.GetSeries(r.Context(), vars["id"], metric)
	if err != nil {
		logger.Log.WithError(err).Error("failed to resolve series")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := models.ChartSeries{Metric: metric, Data: make([]models.ChartPoint, 0, len(points))}
	for _, point := range points {
		resp.Data = append(resp.Data, models.ChartPoint{
			Date:  point.Date.Format(chartDateLayout),
			Value: point.Value,
		})
	}
	writeJSON(w, resp)
}

func (h *HTTPHandler) handleLatest(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	metrics := h.registry.Metrics()
	out := make(map[models.CanonicalMetric]models.LatestValue, len(metrics))
	for _, metric := range metrics {
		point, err := h.resolver.GetLatest(r.Context(), userID, metric)
		if err != nil {
			logger.Log.WithError(err).Error("failed to resolve latest value")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if point == nil {
			continue
		}
		unit, _ := h.registry.CanonicalUnit(metric)
		// Absent reference range means no classification, not "normal".
		classification, _ := reference.Classify(metric, point.Value)
		out[metric] = models.LatestValue{
			Value:          point.Value,
			Unit:           unit,
			Classification: classification,
			Date:           point.Date.Format(chartDateLayout),
		}
	}
	writeJSON(w, out)
}

func (h *HTTPHandler) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	timeframe := r.URL.Query().Get("timeframe")

	records, err := h.engine.Correlate(r.Context(), userID, timeframe)
	if err != nil {
		logger.Log.WithError(err).Error("correlation pass failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, models.CorrelationResponse{Correlations: records, Count: len(records)})
}

func (h *HTTPHandler) handleScoreInputs(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	inputs, err := h.assembler.AssembleFor(r.Context(), vars["id"], vars["score"])
	if err != nil {
		if errors.Is(err, scoring.ErrUnknownScore) {
			http.Error(w, "unknown score", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to assemble score inputs")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, inputs)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
