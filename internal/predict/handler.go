package predict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"meld/internal/dataset"
	"meld/internal/httputil"
	"meld/internal/learner"
	"meld/internal/logging"
	"meld/internal/manager"
)

const maxBodyBytes = 64 * 1024 * 1024

type request struct {
	Stack string `json:"stack"`
	Data  []struct {
		Vec   []float64   `json:"vector"`
		Extra interface{} `json:"extra"`
	} `json:"data"`
}

// Result is the JSON form of one prediction. Value is set for deterministic
// predictions; Mean/StdDev or Levels/Probs for probabilistic ones.
type Result struct {
	Kind   string    `json:"kind"`
	Value  *float64  `json:"value,omitempty"`
	Mean   *float64  `json:"mean,omitempty"`
	StdDev *float64  `json:"stddev,omitempty"`
	Levels []string  `json:"levels,omitempty"`
	Probs  []float64 `json:"probs,omitempty"`
}

type responseItem struct {
	Vec        []float64   `json:"vector"`
	Extra      interface{} `json:"extra"`
	Prediction Result      `json:"prediction"`
}

type response struct {
	Stack string         `json:"stack"`
	Data  []responseItem `json:"data"`
}

func NewHandler(cfg *Config, predictor manager.Predictor) (http.Handler, error) {
	return &handler{
		cfg:       cfg,
		predictor: predictor,
	}, nil
}

type handler struct {
	predictor manager.Predictor
	cfg       *Config
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
	if len(req.Data) > h.cfg.MaxDataItemsLen {
		httputil.RespBadRequest(ctx, w, `{"error": "data items is too large, max allowed len is %d"}`, h.cfg.MaxDataItemsLen)
		return
	}

	respData := make([]responseItem, len(req.Data))
	errGrp := errgroup.Group{}
	mtx := sync.Mutex{}
	for i, dat := range req.Data {
		i, dat := i, dat
		errGrp.Go(func() error {
			pred, err := h.predictor.Predict(ctx, req.Stack, dataset.Vector(dat.Vec))
			if err != nil {
				return fmt.Errorf("predict error: %w", err)
			}
			result, err := resultOf(pred)
			if err != nil {
				return err
			}
			mtx.Lock()
			respData[i] = responseItem{Vec: dat.Vec, Extra: dat.Extra, Prediction: result}
			mtx.Unlock()
			return nil
		})
	}
	if err := errGrp.Wait(); err != nil {
		if errors.Is(err, manager.ErrNotDeployed) {
			httputil.RespNotFound(ctx, w, `{"error": "stack %v is not deployed"}`, req.Stack)
			return
		}
		httputil.RespInternalError(ctx, w, `{"error": "predict processing error, %v"}`, err)
		return
	}

	resp := response{
		Stack: req.Stack,
		Data:  respData,
	}
	bytes, err := json.Marshal(resp)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}

func resultOf(pred learner.Prediction) (Result, error) {
	switch p := pred.(type) {
	case learner.Points:
		if len(p) != 1 {
			return Result{}, fmt.Errorf("expected a single prediction, got %d", len(p))
		}
		v := p[0]
		return Result{Kind: "deterministic", Value: &v}, nil
	case learner.Distributions:
		if len(p.Items) != 1 {
			return Result{}, fmt.Errorf("expected a single prediction, got %d", len(p.Items))
		}
		item := p.Items[0]
		if len(p.Levels) > 0 {
			return Result{Kind: "probabilistic", Levels: p.Levels, Probs: item.Probs}, nil
		}
		mean, stddev := item.Mean, item.StdDev
		return Result{Kind: "probabilistic", Mean: &mean, StdDev: &stddev}, nil
	default:
		return Result{}, fmt.Errorf("unexpected prediction type %T", pred)
	}
}
