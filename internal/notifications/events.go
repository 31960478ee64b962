// Package notifications provides real-time event delivery to live websocket
// connections, addressed by userID or by sessionID.
package notifications

import "encoding/json"

// Event names emitted by mutations. The payload shape is owned by the
// emitting service.
const (
	EventSessionUpdate = "session:update"
	EventSessionDelete = "session:delete"

	EventActiveUserUpdate = "activeUser:update"
	EventUsersUpdate      = "users:update"

	EventFriendshipNew    = "friendship:new"
	EventFriendshipAccept = "friendship:accept"
	EventFriendshipReject = "friendship:reject"
	EventFriendshipRemove = "friendship:remove"

	EventRoomsCreate    = "rooms:create"
	EventRoomsUpdate    = "rooms:update"
	EventRoomsDeleteOne = "rooms:deleteOne"
	EventRoomsJoin      = "rooms:join"
	EventRoomsLeave     = "rooms:leave"
	EventDMsCreate      = "DMs:create"
	EventDMsDeleteOne   = "DMs:deleteOne"

	EventChannelsNew    = "channels:new"
	EventChannelsUpdate = "channels:update"
	EventChannelsRemove = "channels:remove"

	EventMessagesNew       = "messages:new"
	EventMessagesUpdate    = "messages:update"
	EventMessagesDeleteOne = "messages:deleteOne"

	EventNotesUpdate    = "notes:update"
	EventSettingsUpdate = "settings:update"
)

// Envelope is the wire shape of a fanned-out event.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Encode marshals the envelope for delivery. Marshal failures return nil;
// callers drop the event (best-effort delivery).
func (e Envelope) Encode() []byte {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	return raw
}
