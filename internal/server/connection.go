package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/khelghar/gametable/internal/teenpatti"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn        *websocket.Conn
	send        chan *Message
	playerUID   string
	playerName  string
	tableID     string
	housieSub   bool
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.RWMutex
	closeOnce   sync.Once
	gameService *GameService
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, gameService *GameService) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:        conn,
		send:        make(chan *Message, 256),
		logger:      logger.WithPrefix("conn"),
		ctx:         ctx,
		cancel:      cancel,
		gameService: gameService,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetPlayer associates this connection with an authenticated player
func (c *Connection) SetPlayer(uid, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerUID = uid
	c.playerName = name
}

// PlayerUID returns the session identity, empty before auth
func (c *Connection) PlayerUID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerUID
}

// PlayerName returns the display name
func (c *Connection) PlayerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerName
}

// SetTable associates this connection with a table
func (c *Connection) SetTable(tableID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tableID = tableID
}

// GetTable returns the associated table ID
func (c *Connection) GetTable() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tableID
}

// SetHousieSubscribed marks this connection as a housie viewer
func (c *Connection) SetHousieSubscribed(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.housieSub = on
}

// HousieSubscribed reports whether this connection views housie
func (c *Connection) HousieSubscribed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.housieSub
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.PlayerName())

	switch msg.Type {
	case MessageTypeAuth:
		var data AuthData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse auth data")
			return
		}
		c.handleAuth(data)

	case MessageTypeJoinTable:
		var data JoinTableData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join table data")
			return
		}
		c.handleJoinTable(data)

	case MessageTypeLeaveTable:
		var data LeaveTableData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse leave table data")
			return
		}
		c.handleLeaveTable(data)

	case MessageTypeListTables:
		c.handleListTables()

	case MessageTypeDeal, MessageTypeSee, MessageTypeChaal, MessageTypeFold,
		MessageTypeShow, MessageTypeSideShow, MessageTypePlayAgain:
		c.handleTableAction(msg.Type)

	case MessageTypeSideShowResponse:
		var data SideShowResponseData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse side show response")
			return
		}
		c.handleSideShowResponse(data)

	case MessageTypeHousieSubscribe:
		c.handleHousieSubscribe()

	case MessageTypeHousieBook, MessageTypeHousieUnbook:
		var data HousieBookData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse housie booking")
			return
		}
		c.handleHousieBooking(msg.Type, data)

	case MessageTypeHousieCall, MessageTypeHousieAutoPlay, MessageTypeHousieReset:
		var data HousieAdminData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse housie admin data")
			return
		}
		c.handleHousieAdmin(msg.Type, data)

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}

func (c *Connection) handleAuth(data AuthData) {
	c.logger.Info("Auth request", "playerName", data.PlayerName)

	if data.PlayerName == "" {
		c.sendError("invalid_auth", "Player name required")
		return
	}

	c.SetPlayer(uuid.NewString(), data.PlayerName)

	response, _ := NewMessage(MessageTypeAuthResponse, AuthResponseData{
		Success:  true,
		PlayerID: c.PlayerUID(),
	})
	_ = c.SendMessage(response)
}

// authed guards every post-auth handler.
func (c *Connection) authed() bool {
	if c.PlayerUID() == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return false
	}
	return true
}

func (c *Connection) handleJoinTable(data JoinTableData) {
	c.logger.Info("Join table request", "tableId", data.TableID, "player", c.PlayerName())

	if !c.authed() {
		return
	}

	seatID, err := c.gameService.JoinTable(data.TableID, c.PlayerUID(), c.PlayerName())
	if err != nil {
		c.sendError("join_failed", err.Error())
		return
	}

	c.SetTable(data.TableID)

	response, _ := NewMessage(MessageTypeTableJoined, TableJoinedData{
		TableID: data.TableID,
		SeatID:  seatID,
	})
	_ = c.SendMessage(response)
}

func (c *Connection) handleLeaveTable(data LeaveTableData) {
	c.logger.Info("Leave table request", "tableId", data.TableID, "player", c.PlayerName())

	if !c.authed() {
		return
	}

	if err := c.gameService.LeaveTable(data.TableID, c.PlayerUID()); err != nil {
		c.sendError("leave_failed", err.Error())
		return
	}

	c.SetTable("")

	response, _ := NewMessage(MessageTypeTableLeft, map[string]string{"tableId": data.TableID})
	_ = c.SendMessage(response)
}

func (c *Connection) handleListTables() {
	response, _ := NewMessage(MessageTypeTableList, TableListData{
		Tables: c.gameService.ListTables(),
	})
	_ = c.SendMessage(response)
}

func (c *Connection) handleTableAction(mt MessageType) {
	if !c.authed() {
		return
	}
	tableID := c.GetTable()
	if tableID == "" {
		c.sendError("not_seated", "Join a table first")
		return
	}

	var action teenpatti.Action
	switch mt {
	case MessageTypeDeal:
		action = teenpatti.ActionDeal
	case MessageTypeSee:
		action = teenpatti.ActionSee
	case MessageTypeChaal:
		action = teenpatti.ActionChaal
	case MessageTypeFold:
		action = teenpatti.ActionFold
	case MessageTypeShow:
		action = teenpatti.ActionShow
	case MessageTypeSideShow:
		action = teenpatti.ActionSideShow
	case MessageTypePlayAgain:
		action = teenpatti.ActionPlayAgain
	}

	if err := c.gameService.HandleAction(tableID, c.PlayerUID(), action); err != nil {
		c.sendError("action_failed", err.Error())
	}
}

func (c *Connection) handleSideShowResponse(data SideShowResponseData) {
	if !c.authed() {
		return
	}
	tableID := c.GetTable()
	if tableID == "" {
		c.sendError("not_seated", "Join a table first")
		return
	}
	if err := c.gameService.HandleSideShowResponse(tableID, c.PlayerUID(), data.Accept); err != nil {
		c.sendError("action_failed", err.Error())
	}
}

func (c *Connection) handleHousieSubscribe() {
	if !c.authed() {
		return
	}
	hs := c.gameService.Housie()
	if hs == nil {
		c.sendError("feature_disabled", "Housie is not configured")
		return
	}

	c.SetHousieSubscribed(true)

	g, err := hs.Current()
	if err != nil {
		c.sendError("housie_failed", err.Error())
		return
	}
	response, _ := NewMessage(MessageTypeHousieState, HousieStateView(g, c.PlayerUID()))
	_ = c.SendMessage(response)
}

func (c *Connection) handleHousieBooking(mt MessageType, data HousieBookData) {
	if !c.authed() {
		return
	}
	hs := c.gameService.Housie()
	if hs == nil {
		c.sendError("feature_disabled", "Housie is not configured")
		return
	}

	var err error
	if mt == MessageTypeHousieBook {
		err = hs.Book(c.PlayerUID(), data.TicketID)
	} else {
		err = hs.Unbook(c.PlayerUID(), data.TicketID)
	}
	if err != nil {
		c.sendError("booking_failed", err.Error())
	}
}

func (c *Connection) handleHousieAdmin(mt MessageType, data HousieAdminData) {
	if !c.authed() {
		return
	}
	hs := c.gameService.Housie()
	if hs == nil {
		c.sendError("feature_disabled", "Housie is not configured")
		return
	}

	var err error
	switch mt {
	case MessageTypeHousieCall:
		_, err = hs.Call(data.Password)
	case MessageTypeHousieAutoPlay:
		err = hs.SetAutoPlay(data.Password, data.Enable)
	case MessageTypeHousieReset:
		err = hs.Reset(data.Password)
	}
	if err != nil {
		c.sendError("admin_failed", err.Error())
	}
}
