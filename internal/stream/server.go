// Package stream serves a live scene over WebSocket. One goroutine owns the
// controller and runs the frame loop; client commands reach it through a
// channel and every event is broadcast to all clients.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/cartbox/internal/config"
	"github.com/san-kum/cartbox/internal/scene"
	"github.com/san-kum/cartbox/internal/sim"
)

var ErrUnknownCommand = errors.New("stream: unknown command")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type request struct {
	cmd   ClientCommand
	reply chan error
}

// Server drives one controller and streams it to WebSocket clients.
type Server struct {
	cfg      *config.Config
	log      *zap.Logger
	hub      *Hub
	ctrl     *scene.Controller
	params   scene.Params
	requests chan request

	// FrameEvery sends a frame message every n frames.
	FrameEvery int

	phase     atomic.Int32
	done      chan struct{}
	elapsed   float64
	frames    int
	completed bool
}

func NewServer(cfg *config.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:        cfg,
		log:        log,
		hub:        NewHub(log),
		params:     cfg.Params,
		requests:   make(chan request),
		FrameEvery: 2,
		done:       make(chan struct{}),
	}

	opts := cfg.SceneOptions(log)
	opts.Hooks = scene.Hooks{
		OnPhaseChange: func(from, to scene.Phase) {
			s.phase.Store(int32(to))
			if to == scene.PhaseRunning {
				s.completed = false
			}
			s.broadcast(Message{Type: TypePhase, Phase: to.String(), From: from.String()})
		},
		OnObjectSelect: func(info *scene.ObjectInfo) {
			s.broadcast(Message{Type: TypeSelect, Object: info})
		},
		OnSimulationComplete: func(t scene.Telemetry) {
			s.completed = true
			s.broadcast(Message{Type: TypeComplete, Telemetry: &t})
		},
	}
	s.ctrl = scene.New(cfg.Params, opts)
	return s
}

func (s *Server) Hub() *Hub { return s.hub }

// Phase is safe to call from any goroutine.
func (s *Server) Phase() scene.Phase { return scene.Phase(s.phase.Load()) }

func (s *Server) broadcast(msg Message) {
	msg.Time = s.elapsed
	if sess := s.ctrl.Session(); sess != nil {
		msg.Session = sess.ID
	}
	s.hub.Broadcast(msg)
}

// Handler serves /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"phase":   s.Phase().String(),
		"clients": s.hub.Len(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := s.hub.add(conn)
	go c.writePump()
	s.hub.sendTo(c, Message{Type: TypePhase, Phase: s.Phase().String()})

	defer s.hub.remove(c)
	for {
		var cmd ClientCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("websocket read", zap.Error(err))
			}
			return
		}

		req := request{cmd: cmd, reply: make(chan error, 1)}
		select {
		case s.requests <- req:
		case <-s.done:
			return
		}
		if err := <-req.reply; err != nil {
			s.hub.sendTo(c, Message{Type: TypeError, Error: err.Error()})
		}
	}
}

// Run owns the controller until ctx is done. It advances one frame per tick
// at the configured FPS and applies client commands between frames.
func (s *Server) Run(ctx context.Context) error {
	fps := s.cfg.Frame.FPS
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	defer s.hub.Close()
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-s.requests:
			req.reply <- s.apply(req.cmd)
		case <-ticker.C:
			s.frame()
		}
	}
}

func (s *Server) frame() {
	s.ctrl.Frame(s.cfg.Frame.Dt, s.params)
	s.elapsed += s.cfg.Frame.Dt
	s.frames++

	if s.completed && s.ctrl.Phase() == scene.PhaseRunning {
		if err := s.ctrl.Stop(); err != nil {
			s.log.Error("stop after completion", zap.Error(err))
		}
	}

	if s.FrameEvery <= 1 || s.frames%s.FrameEvery == 0 {
		sample := sim.Snapshot(s.elapsed, s.ctrl)
		s.broadcast(Message{Type: TypeFrame, Phase: sample.Phase, Sample: &sample})
	}
}

func (s *Server) apply(cmd ClientCommand) error {
	if cmd.Command == "params" {
		if cmd.Params == nil {
			return fmt.Errorf("%w: params without values", ErrUnknownCommand)
		}
		check := *s.cfg
		check.Params = *cmd.Params
		if err := check.Validate(); err != nil {
			return err
		}
		s.params = *cmd.Params
		s.log.Info("params updated", zap.Any("params", s.params))
		return nil
	}

	err := sim.Apply(s.ctrl, sim.Command{Action: cmd.Command, Target: cmd.Target})
	if err != nil {
		s.log.Debug("command rejected", zap.String("command", cmd.Command), zap.Error(err))
		return err
	}
	s.log.Info("command", zap.String("command", cmd.Command), zap.String("phase", s.ctrl.Phase().String()))
	return nil
}

// ListenAndServe runs the frame loop and the HTTP server until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Run(ctx)
	})
	g.Go(func() error {
		s.log.Info("stream listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
