package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	chatdomain "realtime_chat_service/internal/chat/domain"
	memberdomain "realtime_chat_service/internal/member/domain"
)

// EventName websocket event 名稱
type EventName string

// client -> server
const (
	EventJoinRoom         EventName = "join_room"
	EventLeaveRoom        EventName = "leave_room"
	EventSendMessage      EventName = "send_message"
	EventMarkMessagesRead EventName = "mark_messages_read"
)

// server -> client
const (
	EventReceiveMessage       EventName = "receive_message"
	EventMessageError         EventName = "message_error"
	EventFriendAdded          EventName = "friend_added"
	EventFriendAddedSuccess   EventName = "friend_added_success"
	EventFriendRemoved        EventName = "friend_removed"
	EventFriendRemovedSuccess EventName = "friend_removed_success"
	EventMessagesRead         EventName = "messages_read"
	EventError                EventName = "error"
)

var (
	// ErrMalformedFrame frame 不是 {event, data}
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrUnknownEvent 不認得的 event
	ErrUnknownEvent = errors.New("unknown event")
	// ErrRoomRequired room id 為空
	ErrRoomRequired = errors.New("roomId required")
	// ErrContentRequired 訊息內容為空
	ErrContentRequired = errors.New("content required")
)

// Envelope 所有 frame 的外層
type Envelope struct {
	Event EventName       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServerEvent server 送出的 event, 只有本 package 的型別能實作
type ServerEvent interface {
	EventName() EventName
	serverEvent()
}

// ClientEvent client 送來的 event
type ClientEvent interface {
	EventName() EventName
	Validate() error
	clientEvent()
}

// ---- server events ----

// ReceiveMessage 新訊息
type ReceiveMessage struct {
	Message *chatdomain.Message `json:"message"`
	RoomID  string              `json:"roomId"`
}

// MessageError 只回給送出訊息的連線
type MessageError struct {
	Error string `json:"error"`
}

// FriendAdded 通知被加的人
type FriendAdded struct {
	NewFriend memberdomain.PublicProfile `json:"newFriend"`
	Message   string                     `json:"message"`
}

// FriendAddedSuccess 回給發起的人
type FriendAddedSuccess struct {
	NewFriend memberdomain.PublicProfile `json:"newFriend"`
	Message   string                     `json:"message"`
}

// FriendRemoved 通知被刪的人
type FriendRemoved struct {
	RemovedBy string `json:"removedBy"`
	Message   string `json:"message"`
}

// FriendRemovedSuccess 回給發起的人
type FriendRemovedSuccess struct {
	RemovedFriend memberdomain.PublicProfile `json:"removedFriend"`
	Message       string                     `json:"message"`
}

// MessagesRead reader 已讀了 roomId 的訊息
type MessagesRead struct {
	RoomID   string `json:"roomId"`
	ReaderID string `json:"readerId"`
}

// Error client frame 無法處理
type Error struct {
	Error string `json:"error"`
}

func (ReceiveMessage) EventName() EventName       { return EventReceiveMessage }
func (MessageError) EventName() EventName         { return EventMessageError }
func (FriendAdded) EventName() EventName          { return EventFriendAdded }
func (FriendAddedSuccess) EventName() EventName   { return EventFriendAddedSuccess }
func (FriendRemoved) EventName() EventName        { return EventFriendRemoved }
func (FriendRemovedSuccess) EventName() EventName { return EventFriendRemovedSuccess }
func (MessagesRead) EventName() EventName         { return EventMessagesRead }
func (Error) EventName() EventName                { return EventError }

func (ReceiveMessage) serverEvent()       {}
func (MessageError) serverEvent()         {}
func (FriendAdded) serverEvent()          {}
func (FriendAddedSuccess) serverEvent()   {}
func (FriendRemoved) serverEvent()        {}
func (FriendRemovedSuccess) serverEvent() {}
func (MessagesRead) serverEvent()         {}
func (Error) serverEvent()                {}

// ---- client events ----

// JoinRoom data 是單純的字串
type JoinRoom struct {
	RoomID string
}

// LeaveRoom data 是單純的字串
type LeaveRoom struct {
	RoomID string
}

// SendMessage 透過 websocket 送訊息
type SendMessage struct {
	Content  string `json:"content"`
	RoomID   string `json:"roomId"`
	ToUserID string `json:"toUserId,omitempty"`
	GroupID  string `json:"groupId,omitempty"`
}

// MarkMessagesRead 已讀回報, SenderID 為空時只通知自己
type MarkMessagesRead struct {
	RoomID   string `json:"roomId"`
	SenderID string `json:"senderId,omitempty"`
}

func (JoinRoom) EventName() EventName         { return EventJoinRoom }
func (LeaveRoom) EventName() EventName        { return EventLeaveRoom }
func (SendMessage) EventName() EventName      { return EventSendMessage }
func (MarkMessagesRead) EventName() EventName { return EventMarkMessagesRead }

func (JoinRoom) clientEvent()         {}
func (LeaveRoom) clientEvent()        {}
func (SendMessage) clientEvent()      {}
func (MarkMessagesRead) clientEvent() {}

// Validate room 不可為空
func (e JoinRoom) Validate() error {
	if strings.TrimSpace(e.RoomID) == "" {
		return ErrRoomRequired
	}
	return nil
}

// Validate room 不可為空
func (e LeaveRoom) Validate() error {
	if strings.TrimSpace(e.RoomID) == "" {
		return ErrRoomRequired
	}
	return nil
}

// Validate 內容與收件對象
func (e SendMessage) Validate() error {
	if strings.TrimSpace(e.Content) == "" {
		return ErrContentRequired
	}
	_, err := e.Target()
	return err
}

// Target 決定收件對象
func (e SendMessage) Target() (chatdomain.Target, error) {
	return chatdomain.ResolveTarget(e.GroupID, e.ToUserID, e.RoomID)
}

// Validate room 不可為空
func (e MarkMessagesRead) Validate() error {
	if strings.TrimSpace(e.RoomID) == "" {
		return ErrRoomRequired
	}
	return nil
}

// Encode event 轉成 frame
func Encode(ev ServerEvent) ([]byte, error) {
	return encode(ev.EventName(), ev)
}

// EncodeClient client 端送出用
func EncodeClient(ev ClientEvent) ([]byte, error) {
	switch e := ev.(type) {
	case JoinRoom:
		return encode(e.EventName(), e.RoomID)
	case LeaveRoom:
		return encode(e.EventName(), e.RoomID)
	default:
		return encode(ev.EventName(), ev)
	}
}

func encode(name EventName, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return json.Marshal(Envelope{Event: name, Data: data})
}

func decodeEnvelope(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if env.Event == "" {
		return env, fmt.Errorf("%w: event missing", ErrMalformedFrame)
	}
	return env, nil
}

// DecodeClient 解析並驗證 client frame
func DecodeClient(frame []byte) (ClientEvent, error) {
	env, err := decodeEnvelope(frame)
	if err != nil {
		return nil, err
	}

	var ev ClientEvent
	switch env.Event {
	case EventJoinRoom:
		var room string
		err = json.Unmarshal(env.Data, &room)
		ev = JoinRoom{RoomID: room}
	case EventLeaveRoom:
		var room string
		err = json.Unmarshal(env.Data, &room)
		ev = LeaveRoom{RoomID: room}
	case EventSendMessage:
		var e SendMessage
		err = json.Unmarshal(env.Data, &e)
		ev = e
	case EventMarkMessagesRead:
		var e MarkMessagesRead
		err = json.Unmarshal(env.Data, &e)
		ev = e
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, env.Event)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedFrame, env.Event, err)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

// DecodeServer 解析 server frame, client 使用
func DecodeServer(frame []byte) (ServerEvent, error) {
	env, err := decodeEnvelope(frame)
	if err != nil {
		return nil, err
	}

	var ev ServerEvent
	switch env.Event {
	case EventReceiveMessage:
		var e ReceiveMessage
		err = json.Unmarshal(env.Data, &e)
		ev = e
	case EventMessageError:
		var e MessageError
		err = json.Unmarshal(env.Data, &e)
		ev = e
	case EventFriendAdded:
		var e FriendAdded
		err = json.Unmarshal(env.Data, &e)
		ev = e
	case EventFriendAddedSuccess:
		var e FriendAddedSuccess
		err = json.Unmarshal(env.Data, &e)
		ev = e
	case EventFriendRemoved:
		var e FriendRemoved
		err = json.Unmarshal(env.Data, &e)
		ev = e
	case EventFriendRemovedSuccess:
		var e FriendRemovedSuccess
		err = json.Unmarshal(env.Data, &e)
		ev = e
	case EventMessagesRead:
		var e MessagesRead
		err = json.Unmarshal(env.Data, &e)
		ev = e
	case EventError:
		var e Error
		err = json.Unmarshal(env.Data, &e)
		ev = e
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, env.Event)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedFrame, env.Event, err)
	}
	return ev, nil
}
