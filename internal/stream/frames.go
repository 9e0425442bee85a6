package stream

import "encoding/json"

// Channel kinds understood by the exchange's streaming endpoint.
const (
	ChannelTicker         = "ticker"
	ChannelTrade          = "trade"
	ChannelOrderbookDelta = "orderbook_delta"
	ChannelFill           = "fill"
	ChannelLifecycle      = "market_lifecycle"
)

// Command is an outbound control frame. The ID is the client-generated
// correlation id linking the command to its acknowledgement.
type Command struct {
	ID     int64         `json:"id"`
	Cmd    string        `json:"cmd"`
	Params CommandParams `json:"params"`
}

// Command verbs.
const (
	CmdSubscribe   = "subscribe"
	CmdUnsubscribe = "unsubscribe"
)

// CommandParams carries the arguments of a control frame. Subscribe commands
// set Channels and optionally MarketTicker; unsubscribe commands set SIDs.
type CommandParams struct {
	Channels     []string `json:"channels,omitempty"`
	MarketTicker string   `json:"market_ticker,omitempty"`
	SIDs         []int64  `json:"sids,omitempty"`
}

// Event is an inbound frame. Acknowledgements carry the originating command's
// ID; data frames carry the server-assigned SID of their subscription;
// broadcast frames carry neither and are routed by Type.
type Event struct {
	ID   int64           `json:"id,omitempty"`
	SID  int64           `json:"sid,omitempty"`
	Seq  int64           `json:"seq,omitempty"`
	Type string          `json:"type"`
	Msg  json.RawMessage `json:"msg,omitempty"`
}

// Event types used for command acknowledgement.
const (
	EventSubscribed   = "subscribed"
	EventUnsubscribed = "unsubscribed"
	EventError        = "error"
	EventOK           = "ok"
)

// SubscribedMsg is the payload of a "subscribed" acknowledgement.
type SubscribedMsg struct {
	Channel string `json:"channel"`
	SID     int64  `json:"sid"`
}

// ErrorMsg is the payload of an "error" event.
type ErrorMsg struct {
	Code    string `json:"code"`
	Message string `json:"msg"`
}
