package mqconsume

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type consumerStatus struct {
	Consumer string `json:"consumer"`
	Queue    string `json:"queue"`
	State    string `json:"state"`
	Stats    Stats  `json:"stats"`
}

// NewStatusRouter serves GET /healthz for the given consumers and GET /metrics
// from gatherer.
func NewStatusRouter(gatherer prometheus.Gatherer, consumers ...*Consumer) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthz(consumers)).Methods(http.MethodGet)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return r
}

// healthz answers 200 while every consumer holds an open queue, 503 otherwise.
func healthz(consumers []*Consumer) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		code := http.StatusOK
		out := make([]consumerStatus, 0, len(consumers))
		for _, c := range consumers {
			s := c.State()
			if !s.Healthy() {
				code = http.StatusServiceUnavailable
			}
			out = append(out, consumerStatus{
				Consumer: c.ID(),
				Queue:    c.Queue(),
				State:    s.String(),
				Stats:    c.Stats(),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(out)
	}
}

// ServeStatus listens on addr until ctx is done.
func ServeStatus(ctx context.Context, addr string, h http.Handler, log *logrus.Entry) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			log.Warnf("status server shutdown: %v", err)
		}
	}()

	log.Infof("Status server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
