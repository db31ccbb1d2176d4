package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/khelghar/gametable/internal/housie"
	"github.com/khelghar/gametable/internal/teenpatti"
)

// Server represents the WebSocket server
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	gameService *GameService
}

// NewServer creates a new WebSocket server
func NewServer(addr string, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the WebSocket server
func (s *Server) Start() error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.logger.Info("Starting WebSocket server", "addr", s.addr)
	return http.ListenAndServe(s.addr, mux)
}

// Stop stops the WebSocket server
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	return nil
}

// run handles connection lifecycle
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", len(s.connections))

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)

				// Fold out and unseat a player who dropped mid-hand
				playerUID := conn.PlayerUID()
				tableID := conn.GetTable()
				if playerUID != "" && tableID != "" && s.gameService != nil {
					s.logger.Info("Cleaning up disconnected player", "player", conn.PlayerName(), "table", tableID)
					_ = s.gameService.LeaveTable(tableID, playerUID)
				}

				_ = conn.Close()
			}
			s.mu.Unlock()
			s.logger.Info("Client disconnected", "total", len(s.connections))

		case <-s.ctx.Done():
			return
		}
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.gameService)
	s.register <- client
	client.Start()

	go func() {
		<-client.ctx.Done()
		s.unregister <- client
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// BroadcastTableState sends each viewer at a table their own redacted
// projection of the committed state.
func (s *Server) BroadcastTableState(tableID string, st teenpatti.TableState) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for conn := range s.connections {
		if conn.GetTable() != tableID {
			continue
		}
		msg, err := NewMessage(MessageTypeTableState, TableStateView(tableID, st, conn.PlayerUID()))
		if err != nil {
			s.logger.Error("Failed to build table state", "error", err)
			continue
		}
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Error("Failed to send message to client", "error", err, "player", conn.PlayerName())
		} else {
			count++
		}
	}

	s.logger.Debug("Broadcasted table state", "tableId", tableID, "recipients", count)
}

// BroadcastTableClosed tells viewers the table document is gone.
func (s *Server) BroadcastTableClosed(tableID string) {
	msg, err := NewMessage(MessageTypeTableClosed, TableClosedData{TableID: tableID})
	if err != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.connections {
		if conn.GetTable() == tableID {
			_ = conn.SendMessage(msg)
			conn.SetTable("")
		}
	}
}

// BroadcastHousieState sends each housie subscriber their redacted view.
func (s *Server) BroadcastHousieState(g *housie.Game) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for conn := range s.connections {
		if !conn.HousieSubscribed() {
			continue
		}
		msg, err := NewMessage(MessageTypeHousieState, HousieStateView(g, conn.PlayerUID()))
		if err != nil {
			continue
		}
		_ = conn.SendMessage(msg)
	}
}

// BroadcastHousie sends one shared message to every housie subscriber.
func (s *Server) BroadcastHousie(mt MessageType, data interface{}) {
	msg, err := NewMessage(mt, data)
	if err != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.connections {
		if conn.HousieSubscribed() {
			_ = conn.SendMessage(msg)
		}
	}
}

// SendToPlayer sends a message to a specific player
func (s *Server) SendToPlayer(playerUID string, msg *Message) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for conn := range s.connections {
		if conn.PlayerUID() == playerUID {
			return conn.SendMessage(msg)
		}
	}

	return fmt.Errorf("player not found: %s", playerUID)
}

// GetConnectedPlayers returns a list of connected player names
func (s *Server) GetConnectedPlayers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var players []string
	for conn := range s.connections {
		if name := conn.PlayerName(); name != "" {
			players = append(players, name)
		}
	}

	return players
}

// SetGameService sets the game service for the server
func (s *Server) SetGameService(gameService *GameService) {
	s.gameService = gameService
	gameService.SetServer(s)
}
