package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
// These are used for client-server communication protocol
const (
	// Client to server messages
	MessageTypeAuth             MessageType = "auth"
	MessageTypeJoinTable        MessageType = "join_table"
	MessageTypeLeaveTable       MessageType = "leave_table"
	MessageTypeListTables       MessageType = "list_tables"
	MessageTypeDeal             MessageType = "deal"
	MessageTypeSee              MessageType = "see"
	MessageTypeChaal            MessageType = "chaal"
	MessageTypeFold             MessageType = "fold"
	MessageTypeShow             MessageType = "show"
	MessageTypeSideShow         MessageType = "side_show"
	MessageTypeSideShowResponse MessageType = "side_show_response"
	MessageTypePlayAgain        MessageType = "play_again"
	MessageTypeHousieSubscribe  MessageType = "housie_subscribe"
	MessageTypeHousieBook       MessageType = "housie_book"
	MessageTypeHousieUnbook     MessageType = "housie_unbook"
	MessageTypeHousieCall       MessageType = "housie_call"
	MessageTypeHousieAutoPlay   MessageType = "housie_auto_play"
	MessageTypeHousieReset      MessageType = "housie_reset"

	// Server to client messages
	MessageTypeError        MessageType = "error"
	MessageTypeAuthResponse MessageType = "auth_response"
	MessageTypeTableJoined  MessageType = "table_joined"
	MessageTypeTableLeft    MessageType = "table_left"
	MessageTypeTableList    MessageType = "table_list"
	MessageTypeTableState   MessageType = "table_state"
	MessageTypeTableClosed  MessageType = "table_closed"
	MessageTypeHousieState  MessageType = "housie_state"
	MessageTypeNumberCalled MessageType = "number_called"
	MessageTypePrizeAwarded MessageType = "prize_awarded"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
