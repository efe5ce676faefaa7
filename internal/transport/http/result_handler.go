package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"greensys-quiz-service/internal/domain"
	"greensys-quiz-service/internal/quiz"
)

// ResultHandler serves GET /result/{nilaiId} for the result-display
// screen, passing through to whichever result source the server was
// wired with.
type ResultHandler struct {
	results quiz.ResultSource
}

func NewResultHandler(results quiz.ResultSource) *ResultHandler {
	return &ResultHandler{results: results}
}

func (h *ResultHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	nilaiID := strings.TrimPrefix(r.URL.Path, "/result/")
	if nilaiID == "" {
		http.Error(w, "missing result id", http.StatusBadRequest)
		return
	}

	res, err := h.results.FetchResult(r.Context(), bearerToken(r), nilaiID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.Printf("encode result: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAuth):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNetwork):
		status = http.StatusBadGateway
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": err.Error()})
}
