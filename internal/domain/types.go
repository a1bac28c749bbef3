package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrNoSession is returned when a component needs the logged-in user and none is stored.
	ErrNoSession = errors.New("no logged-in user")
	ErrNotFound  = errors.New("not found")
	// ErrRemote marks failures reported by the remote message store.
	ErrRemote = errors.New("remote store error")
)

// InitialStatus is the status every outgoing message carries. It is never transitioned.
const InitialStatus = "neprichitano"

// ID is an identifier the remote store may encode either as a JSON string or a JSON number.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// MediaRef points at an audio or video attachment. Empty refs encode as null.
type MediaRef string

func (m MediaRef) MarshalJSON() ([]byte, error) {
	if m == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(m))
}

func (m *MediaRef) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*m = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*m = MediaRef(s)
	return nil
}

type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

// User is a record of the remote /users collection.
type User struct {
	ID       ID     `json:"id,omitempty"`
	Email    string `json:"email"`
	NickName string `json:"nickName"`
}

// ContactKey is the identifier the contact list matches users on.
func (u User) ContactKey() string { return u.Email }

// ThreadKey is the identifier the conversation view matches senders and receivers on.
// It differs from ContactKey; the remote data does not reconcile the two.
func (u User) ThreadKey() string { return u.NickName }

// Message is a record of the remote /messages collection.
type Message struct {
	ID       ID       `json:"id,omitempty"`
	Sender   string   `json:"sender"`
	Receiver string   `json:"receiver"`
	Text     string   `json:"text"`
	Time     string   `json:"time"`
	Audio    MediaRef `json:"audio"`
	Video    MediaRef `json:"video"`
	Status   string   `json:"status"`
}

// Touches reports whether the message was sent or received by who.
func (m Message) Touches(who string) bool {
	return m.Sender == who || m.Receiver == who
}

// Counterpart returns the other side of a message touching who.
func (m Message) Counterpart(who string) string {
	if m.Sender == who {
		return m.Receiver
	}
	return m.Sender
}

// HasContent reports whether the message carries text or media.
func (m Message) HasContent() bool {
	return strings.TrimSpace(m.Text) != "" || m.Audio != "" || m.Video != ""
}
