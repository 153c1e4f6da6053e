// Package server is the recorder's HTTP front: badges POST their queued
// games here and ops tooling reads stats back.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/rpc"
	"strconv"

	"github.com/wfunc/simonbadge/logger"
	"github.com/wfunc/simonbadge/models"
	"github.com/wfunc/simonbadge/monitor"
	"github.com/wfunc/simonbadge/persistence"
	simonbadge_rpc "github.com/wfunc/simonbadge/rpc"
	"github.com/wfunc/simonbadge/services"
)

type RecorderServer struct {
	addr      string
	recorder  *services.RecorderService
	rpcServer *simonbadge_rpc.Server
	metrics   *monitor.RecorderMetrics
}

func NewRecorderServer(addr, rpcAddr string, db persistence.Database,
	metrics *monitor.RecorderMetrics) (*RecorderServer, error) {

	s := &RecorderServer{
		addr:     addr,
		recorder: services.NewRecorderService(db),
		metrics:  metrics,
	}

	// 初始化RPC服务器
	if rpcAddr != "" {
		rpcServer, err := simonbadge_rpc.NewServer(rpcAddr)
		if err != nil {
			return nil, err
		}
		s.rpcServer = rpcServer

		// 注册RPC服务
		statsService := simonbadge_rpc.NewStatsService(s.recorder)
		if err := rpc.Register(statsService); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Handler exposes the endpoints, mountable in tests without a listener.
func (s *RecorderServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/record_games", s.handleRecordGames)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/games", s.handleGames)
	return mux
}

func (s *RecorderServer) Start() error {
	if s.rpcServer != nil {
		go s.rpcServer.Start()
	}

	logger.Log.Infof("Recorder server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

func (s *RecorderServer) Shutdown() {
	if s.rpcServer != nil {
		s.rpcServer.Stop()
	}
}

func (s *RecorderServer) handleRecordGames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var batch []models.GameRecord
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		s.badRequest(w, "undecodable batch: "+err.Error())
		return
	}

	if err := s.recorder.RecordGames(batch); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	if s.metrics != nil {
		s.metrics.GamesRecorded.Add(float64(len(batch)))
	}
	logger.Log.Infof("recorded %d game(s)", len(batch))
	w.WriteHeader(http.StatusOK)
}

func (s *RecorderServer) badRequest(w http.ResponseWriter, msg string) {
	logger.Log.Warnf("rejected upload: %s", msg)
	if s.metrics != nil {
		s.metrics.BadRequests.Inc()
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func (s *RecorderServer) handleStats(w http.ResponseWriter, r *http.Request) {
	badge := r.URL.Query().Get("badge")
	stats, err := s.recorder.GetBadgeStats(badge)
	if err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			http.Error(w, "no games for badge", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (s *RecorderServer) handleGames(w http.ResponseWriter, r *http.Request) {
	badge := r.URL.Query().Get("badge")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := s.recorder.ListGames(badge, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}
