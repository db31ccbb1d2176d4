package teenpatti

// Action is the closed set of intents the table engine understands.
// Keeping this an enum (rather than string tags) means dispatch in Apply is
// exhaustive and new actions cannot be silently mis-routed.
type Action int

const (
	ActionUnknown Action = iota
	ActionJoin
	ActionDeal
	ActionSee
	ActionChaal
	ActionFold
	ActionShow
	ActionSideShow
	ActionSideShowAccept
	ActionSideShowDeny
	ActionTick
	ActionTimeout
	ActionLeave
	ActionPlayAgain
)

// String returns the wire name of the action.
func (a Action) String() string {
	switch a {
	case ActionJoin:
		return "join"
	case ActionDeal:
		return "deal"
	case ActionSee:
		return "see"
	case ActionChaal:
		return "chaal"
	case ActionFold:
		return "fold"
	case ActionShow:
		return "show"
	case ActionSideShow:
		return "side_show"
	case ActionSideShowAccept:
		return "side_show_accept"
	case ActionSideShowDeny:
		return "side_show_deny"
	case ActionTick:
		return "tick"
	case ActionTimeout:
		return "timeout"
	case ActionLeave:
		return "leave"
	case ActionPlayAgain:
		return "play_again"
	default:
		return "unknown"
	}
}

// ParseAction maps a wire name onto an Action. Unknown names return
// ActionUnknown, which Apply treats as a no-op.
func ParseAction(s string) Action {
	switch s {
	case "join":
		return ActionJoin
	case "deal":
		return ActionDeal
	case "see":
		return ActionSee
	case "chaal":
		return ActionChaal
	case "fold":
		return ActionFold
	case "show":
		return ActionShow
	case "side_show":
		return ActionSideShow
	case "side_show_accept":
		return ActionSideShowAccept
	case "side_show_deny":
		return ActionSideShowDeny
	case "leave":
		return ActionLeave
	case "play_again":
		return ActionPlayAgain
	default:
		return ActionUnknown
	}
}

// Intent is one submitted action. UniqueID names the acting player; it is
// ignored for table-level intents like Tick.
type Intent struct {
	Action   Action
	UniqueID string

	// Join parameters.
	Name  string
	Chips int
	IsBot bool
}
