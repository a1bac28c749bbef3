package domain

import "context"

// RemoteStore is the hosted HTTP service holding the users and messages collections.
type RemoteStore interface {
	ListUsers(ctx context.Context) ([]User, error)
	ListMessages(ctx context.Context) ([]Message, error)
	// PostMessage submits one message. The returned message is the server echo when
	// the store sends one back, otherwise the submitted message unchanged.
	PostMessage(ctx context.Context, msg Message) (Message, error)
}

// LocalState is the client-side key/value store the session lives in.
type LocalState interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// MediaStore turns a local recording into a stored reference before it is sent.
type MediaStore interface {
	Put(ctx context.Context, kind MediaKind, sourcePath string) (MediaRef, error)
}

// UserStore defines user persistence for the store server.
type UserStore interface {
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, user User) error
}

// MessageStore defines message persistence for the store server.
// ListMessages returns messages in append order.
type MessageStore interface {
	ListMessages(ctx context.Context) ([]Message, error)
	AppendMessage(ctx context.Context, msg Message) error
}
