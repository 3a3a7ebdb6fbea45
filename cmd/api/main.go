package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"earnings-dedup-go/internal/config"
	"earnings-dedup-go/internal/dataset"
	"earnings-dedup-go/internal/dedup"
	"earnings-dedup-go/internal/logger"
	"earnings-dedup-go/internal/processor"
)

const maxBodyBytes = 256 << 20

func main() {
	log := logger.New()
	cfg, err := config.Load("")
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	log.WithField("service", "earnings-dedup-go").Info("starting service")

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newMux(cfg, log),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func newMux(cfg config.Config, log *logger.Logger) *http.ServeMux {
	proc := processor.New(cfg, log)
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		log.WithRequest(r).Debug("health check")
		fmt.Fprint(w, "ok")
	})

	// in-memory run over a JSON array of components
	mux.HandleFunc("POST /process", func(w http.ResponseWriter, r *http.Request) {
		reqLog := log.WithRequest(r).WithField("handler", "process")
		comps, err := dataset.ReadJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			reqLog.WithError(err).Warn("bad request body")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		reqLog = reqLog.WithField("components", len(comps))
		reqLog.Info("process request received")

		res, err := proc.ProcessComponents(r.Context(), comps)
		writeResult(w, reqLog, res, err)
	})

	// file job: /run?input=...&output=...&company_limit=N
	mux.HandleFunc("POST /run", func(w http.ResponseWriter, r *http.Request) {
		reqLog := log.WithRequest(r).WithField("handler", "run")
		q := r.URL.Query()
		job := processor.Job{
			Input:        firstNonEmpty(q.Get("input"), cfg.Input),
			Output:       firstNonEmpty(q.Get("output"), cfg.Output),
			CompanyLimit: cfg.CompanyLimit,
			IncludeRows:  q.Get("include_rows") == "true",
		}
		if s := q.Get("company_limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				http.Error(w, "invalid company_limit", http.StatusBadRequest)
				return
			}
			job.CompanyLimit = n
		}
		if job.Input == "" {
			reqLog.Warn("missing input")
			http.Error(w, "missing input", http.StatusBadRequest)
			return
		}
		reqLog = reqLog.WithField("input", job.Input).WithField("output", job.Output)
		reqLog.Info("run request received")

		res, err := proc.Process(r.Context(), job)
		writeResult(w, reqLog, res, err)
	})

	// dataset profile: /summary?input=...
	mux.HandleFunc("GET /summary", func(w http.ResponseWriter, r *http.Request) {
		reqLog := log.WithRequest(r).WithField("handler", "summary")
		input := firstNonEmpty(r.URL.Query().Get("input"), cfg.Input)
		if input == "" {
			http.Error(w, "missing input", http.StatusBadRequest)
			return
		}
		comps, err := dataset.NewLoader(reqLog, cfg.FetchTimeout).Load(r.Context(), input)
		if err != nil {
			reqLog.WithError(err).Error("dataset load error")
			http.Error(w, "dataset load error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, reqLog, http.StatusOK, dataset.Summarize(comps, reqLog))
	})

	return mux
}

func writeResult(w http.ResponseWriter, log *logrus.Entry, res processor.Result, err error) {
	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
		var ie *dedup.InvariantError
		if errors.As(err, &ie) {
			log = log.WithField("invariant", ie.Invariant).WithField("event_id", ie.EventID)
		}
		log.WithError(err).Warn("processor returned error")
	} else {
		log.WithFields(logrus.Fields{
			"run_id":      res.RunID,
			"duration_ms": res.DurationMs,
			"rows_after":  res.Report.Summary.RowsAfter,
		}).Info("processor finished")
	}
	writeJSON(w, log, status, res)
}

func writeJSON(w http.ResponseWriter, log *logrus.Entry, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
