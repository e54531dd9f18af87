package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionGoto   Action = "goto"
	ActionSubmit Action = "submit"
	ActionPing   Action = "ping"
)

// RequestPayload carries every client action; unused fields stay empty.
type RequestPayload struct {
	Action Action `json:"action"`
	QID    string `json:"q_id,omitempty"`
	Answer string `json:"ans,omitempty"`
	Index  *int   `json:"index,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError   Event = "error"
	EventSuccess Event = "success"
	EventTick    Event = "tick"
	EventResult  Event = "result"
	EventExpired Event = "expired"
	EventPong    Event = "pong"
)

// SuccessResponse acknowledges an answer or cursor action.
type SuccessResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

// TickResponse is pushed once per second on timed attempts.
type TickResponse struct {
	Event                Event `json:"event"`
	TimeRemainingSeconds int   `json:"time_remaining_seconds"`
}

// ResultResponse delivers the graded outcome after submission or
// expiry. Expiry uses EventExpired with the same shape.
type ResultResponse struct {
	Event       Event  `json:"event"`
	Status      string `json:"status"`
	Score       int    `json:"score"`
	TotalPoints int    `json:"total_points"`
	Percentage  int    `json:"percentage"`
	IsPassed    bool   `json:"is_passed"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
