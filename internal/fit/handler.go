package fit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"meld/internal/dataset"
	"meld/internal/httputil"
	"meld/internal/logging"
	"meld/internal/manager"
)

const maxBodyBytes = 256 * 1024 * 1024

type request struct {
	Stack   string      `json:"stack"`
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
	Target  []string    `json:"target"`
}

func NewHandler(cfg *Config, trainer manager.Trainer) (http.Handler, error) {
	s := &handler{
		trainer: trainer,
		cfg:     cfg,
	}
	return s, nil
}

type handler struct {
	trainer manager.Trainer
	cfg     *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(fmt.Sprintf(`{"error": "%v"}`, "content-type is not application/json"))
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	if req.Stack == "" {
		httputil.RespBadRequest(ctx, w, `{"error": "stack name is required"}`)
		return
	}
	if len(req.Rows) == 0 {
		httputil.RespBadRequest(ctx, w, `{"error": "rows must not be empty"}`)
		return
	}
	if len(req.Rows) != len(req.Target) {
		httputil.RespBadRequest(ctx, w, `{"error": "got %d rows but %d targets"}`, len(req.Rows), len(req.Target))
		return
	}

	rows := make([]dataset.Vector, len(req.Rows))
	for i := range req.Rows {
		rows[i] = dataset.Vector(req.Rows[i])
	}
	table, err := dataset.NewTable(req.Columns, rows)
	if err != nil {
		httputil.RespBadRequest(ctx, w, `{"error": "%v"}`, err)
		return
	}

	if err := h.trainer.Train(manager.TrainRequest{
		Stack:  req.Stack,
		Table:  table,
		Target: dataset.ParseColumn(req.Target),
	}); err != nil {
		httputil.RespBadRequest(ctx, w, `{"error": "%v"}`, err)
		return
	}

	logger.Infof("queued refit of stack %s on %d rows", req.Stack, len(req.Rows))
	w.WriteHeader(http.StatusAccepted)
	_, _ = fmt.Fprintf(w, `{"status": "queued"}`)
}
