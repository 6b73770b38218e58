package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/KaramelBytes/tabdash/internal/dashboard"
	"github.com/KaramelBytes/tabdash/internal/dataset"
	"github.com/KaramelBytes/tabdash/internal/market"
	"github.com/KaramelBytes/tabdash/internal/render"
	"github.com/KaramelBytes/tabdash/internal/schema"
	"github.com/KaramelBytes/tabdash/internal/table"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

type errorBody struct {
	Error    string   `json:"error"`
	Expected []string `json:"expected,omitempty"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorBody{Error: message})
}

// respondWithErr maps domain errors to status codes. An empty selection is
// not a failure: the prompt is returned with 200 so clients can show it.
func respondWithErr(w http.ResponseWriter, err error) {
	var (
		empty    *dashboard.EmptySelectionError
		schemaE  *schema.SchemaError
		loadE    *dataset.DataLoadError
		notFound *market.NotFoundError
	)
	switch {
	case errors.As(err, &empty):
		respondWithJSON(w, http.StatusOK, map[string]string{"prompt": empty.Prompt})
	case errors.As(err, &schemaE):
		respondWithJSON(w, http.StatusUnprocessableEntity, errorBody{Error: schemaE.Error(), Expected: schemaE.Missing})
	case errors.As(err, &loadE):
		respondWithError(w, http.StatusUnprocessableEntity, loadE.Error())
	case errors.As(err, &notFound):
		respondWithError(w, http.StatusNotFound, notFound.Error())
	case isUpstream(err):
		respondWithError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, ErrDatasetNotFound), errors.Is(err, dashboard.ErrUnknownView):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dashboard.ErrUnknownChart):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, table.ErrUnknownColumn), errors.Is(err, render.ErrNothingToPlot):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "internal error")
	}
}

func isUpstream(err error) bool {
	var (
		apiE  *market.APIError
		rateE *market.RateLimitError
		srvE  *market.ServerError
	)
	return errors.As(err, &apiE) || errors.As(err, &rateE) || errors.As(err, &srvE)
}
