package vizserver

import (
	"context"
	"net/http"
	"time"

	"trafsim/log"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	writeWait       = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Server 通过HTTP和websocket提供模拟状态
type Server struct {
	addr     string
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewServer 创建状态服务
func NewServer(addr string, hub *Hub) *Server {
	return &Server{
		addr: addr,
		hub:  hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Handler 返回路由
//
//	GET /state  最新一帧的JSON
//	GET /ws     每一帧推送一条消息
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/state", s.handleState).Methods("GET")
	router.HandleFunc("/ws", s.handleStream).Methods("GET")
	return router
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	data := s.hub.Latest()
	if data == nil {
		http.Error(w, "no frame yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	c, ok := s.hub.register()
	if !ok {
		return
	}
	defer s.hub.unregister(c)
	log.WithFields(log.Fields{"client": c.id, "remote": r.RemoteAddr}).Info("viz client connected")

	// 必须持续读取才能发现客户端关闭了连接
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			log.WithFields(log.Fields{"client": c.id}).Info("viz client disconnected")
			return
		case data, ok := <-c.send:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

// ListenAndServe 监听addr直到ctx被取消
func (s *Server) ListenAndServe(ctx context.Context) error {
	access := log.Writer()
	defer access.Close()

	srv := &http.Server{
		Addr:    s.addr,
		Handler: handlers.CombinedLoggingHandler(access, s.Handler()),
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(log.Fields{"addr": s.addr}).Info("viz server listening")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrapf(err, "listen on %s", s.addr)
	}
	return errors.Wrap(<-shutdownErr, "shutdown viz server")
}
