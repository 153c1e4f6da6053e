package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/simonbadge/logger"
	"github.com/wfunc/simonbadge/models"
	"github.com/wfunc/simonbadge/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services are registered separately via
// the net/rpc package before Start.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// StatsService exposes recorder queries over RPC for ops tooling.
type StatsService struct {
	recorder *services.RecorderService
}

func NewStatsService(rs *services.RecorderService) *StatsService {
	return &StatsService{recorder: rs}
}

type GetBadgeStatsArgs struct {
	Badge string
}

type GetBadgeStatsReply struct {
	Stats models.BadgeStats
}

func (ss *StatsService) GetBadgeStats(args *GetBadgeStatsArgs, reply *GetBadgeStatsReply) error {
	stats, err := ss.recorder.GetBadgeStats(args.Badge)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}

type ListGamesArgs struct {
	Badge string
	Limit int
}

type ListGamesReply struct {
	Records []models.GameRecord
}

func (ss *StatsService) ListGames(args *ListGamesArgs, reply *ListGamesReply) error {
	records, err := ss.recorder.ListGames(args.Badge, args.Limit)
	if err != nil {
		return err
	}
	reply.Records = records
	return nil
}
