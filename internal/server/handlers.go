package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/KaramelBytes/tabdash/internal/analysis"
	"github.com/KaramelBytes/tabdash/internal/dashboard"
	"github.com/KaramelBytes/tabdash/internal/dataset"
	"github.com/KaramelBytes/tabdash/internal/market"
	"github.com/KaramelBytes/tabdash/internal/render"
	"github.com/KaramelBytes/tabdash/internal/schema"
	"github.com/KaramelBytes/tabdash/internal/table"
)

type columnInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Role string `json:"role"`
}

type schemaInfo struct {
	Layout     string            `json:"layout"`
	Columns    []columnInfo      `json:"columns"`
	Identifier string            `json:"identifier,omitempty"`
	Year       string            `json:"year,omitempty"`
	Gender     string            `json:"gender,omitempty"`
	Grouping   []string          `json:"grouping,omitempty"`
	Measures   []string          `json:"measures,omitempty"`
	Long       map[string]string `json:"long,omitempty"`
	Missing    []string          `json:"missing,omitempty"`
}

type datasetInfo struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Rows   int        `json:"rows"`
	Schema schemaInfo `json:"schema"`
}

func describe(t *table.Table) schemaInfo {
	roles := schema.Classify(t, schema.DefaultRules, schema.DefaultReserved)
	info := schemaInfo{
		Layout:     "wide",
		Identifier: roles.Identifier,
		Year:       roles.Year,
		Gender:     roles.Gender,
		Grouping:   roles.Grouping,
		Measures:   roles.Measures,
	}
	for _, c := range t.Columns() {
		info.Columns = append(info.Columns, columnInfo{Name: c, Kind: t.Kind(c).String(), Role: roles.Of(c).String()})
	}
	if long, err := schema.DetectLong(t); err == nil {
		info.Layout = "long"
		info.Long = long
		return info
	}
	var se *schema.SchemaError
	if err := roles.Require(schema.SlotIdentifier, schema.SlotYear); errors.As(err, &se) {
		info.Missing = se.Missing
	}
	return info
}

func (s *Server) listViews(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"views":    dashboard.Names(),
		"datasets": demoIDs(),
	})
}

func demoIDs() []string {
	var out []string
	for _, d := range dataset.Demos() {
		out = append(out, demoPrefix+d)
	}
	return out
}

func (s *Server) uploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.opt.MaxUploadMB)<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", s.opt.MaxUploadMB))
			return
		}
		respondWithError(w, http.StatusBadRequest, "Expected a multipart form")
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}
	t, err := s.resolver.Resolve(r.Context(), dataset.Source{Name: hdr.Filename, Data: data})
	if err != nil {
		respondWithErr(w, err)
		return
	}
	id := s.store.Put(t)
	respondWithJSON(w, http.StatusCreated, datasetInfo{ID: id, Name: t.Name, Rows: t.Len(), Schema: describe(t)})
}

func (s *Server) table(w http.ResponseWriter, r *http.Request) (*table.Table, bool) {
	t, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondWithErr(w, err)
		return nil, false
	}
	return t, true
}

func (s *Server) selection(w http.ResponseWriter, r *http.Request) (dashboard.Selection, bool) {
	sel, err := selectionFromQuery(r.URL.Query(), s.opt.Settings)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return sel, false
	}
	return sel, true
}

func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, describe(t))
}

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	opt := analysis.DefaultOptions()
	opt.GroupBy = r.URL.Query().Get("group_by")
	if v := r.URL.Query().Get("sample"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opt.SampleRows = n
		}
	}
	rep, err := analysis.Summarize(t, opt)
	if err != nil {
		respondWithErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(rep.Markdown()))
}

func (s *Server) getView(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	p, err := dashboard.Render(chi.URLParam(r, "view"), t, sel)
	if err != nil {
		respondWithErr(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

func (s *Server) getViewChart(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	p, err := dashboard.Render(chi.URLParam(r, "view"), t, sel)
	if err != nil {
		respondWithErr(w, err)
		return
	}
	s.writeChart(w, r, p)
}

// writeChart renders the chart picked by ?chart=N (default 0) as PNG.
func (s *Server) writeChart(w http.ResponseWriter, r *http.Request, p *dashboard.Payload) {
	idx := 0
	if v := r.URL.Query().Get("chart"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondWithError(w, http.StatusBadRequest, "invalid chart index")
			return
		}
		idx = n
	}
	if idx >= len(p.Charts) {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("view has %d chart(s)", len(p.Charts)))
		return
	}
	var buf bytes.Buffer
	if err := render.PNG(&buf, p.Charts[idx], s.opt.ChartWidth, s.opt.ChartHeight); err != nil {
		respondWithErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (s *Server) exportDataset(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	rows, err := dashboard.FilterRows(t, sel)
	if err != nil {
		respondWithErr(w, err)
		return
	}
	ext := filepath.Ext(r.URL.Path)
	var buf bytes.Buffer
	switch ext {
	case ".xlsx":
		err = dataset.WriteXLSX(&buf, rows, "")
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	default:
		ext = ".csv"
		err = table.WriteCSV(&buf, rows)
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	}
	if err != nil {
		respondWithErr(w, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(t.Name, ext)))
	w.Write(buf.Bytes())
}

// exportName derives a download name unique per request.
func exportName(source, ext string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." {
		base = "dataset"
	}
	return fmt.Sprintf("%s-filtered-%s%s", base, uuid.NewString()[:8], ext)
}

func (s *Server) listStocks(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"index":   market.IndexSymbol,
		"symbols": market.Nifty50,
		"start":   market.Start.Format("2006-01-02"),
		"end":     market.EndExclusive.Format("2006-01-02"),
	})
}

// fetch loads a stock and, best effort, the index. A failed index fetch
// leaves index nil so the price views still render.
func (s *Server) fetch(w http.ResponseWriter, r *http.Request) (prices, index *table.Table, ok bool) {
	ctx := r.Context()
	symbol, err := url.PathUnescape(chi.URLParam(r, "symbol"))
	if err != nil || !market.InUniverse(symbol) {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("unknown symbol %q", chi.URLParam(r, "symbol")))
		return nil, nil, false
	}
	if s.prices == nil {
		respondWithError(w, http.StatusServiceUnavailable, "market data is not configured")
		return nil, nil, false
	}
	prices, err = s.prices.FetchDaily(ctx, symbol, market.Start, market.EndExclusive)
	if err != nil {
		var nf *market.NotFoundError
		if errors.As(err, &nf) {
			respondWithError(w, http.StatusNotFound, nf.Error())
		} else {
			respondWithError(w, http.StatusBadGateway, err.Error())
		}
		return nil, nil, false
	}
	if symbol != market.IndexSymbol {
		index, err = s.prices.FetchDaily(ctx, market.IndexSymbol, market.Start, market.EndExclusive)
		if err != nil {
			log.Printf("index fetch failed: %v", err)
			index = nil
		}
	}
	return prices, index, true
}

func (s *Server) getStock(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	prices, index, ok := s.fetch(w, r)
	if !ok {
		return
	}
	p, err := dashboard.Stock(prices, index, sel)
	if err != nil {
		respondWithErr(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

func (s *Server) getStockChart(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	prices, index, ok := s.fetch(w, r)
	if !ok {
		return
	}
	p, err := dashboard.Stock(prices, index, sel)
	if err != nil {
		respondWithErr(w, err)
		return
	}
	s.writeChart(w, r, p)
}

func (s *Server) getStockData(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	prices, index, ok := s.fetch(w, r)
	if !ok {
		return
	}
	d, err := dashboard.EnrichStock(prices, index, sel)
	if err != nil {
		respondWithErr(w, err)
		return
	}
	var buf bytes.Buffer
	if err := table.WriteCSV(&buf, d); err != nil {
		respondWithErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Write(buf.Bytes())
}
