// Package conversation holds the conversation view: the thread with the selected
// counterpart, the composer, and sending.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PabloGalante/messenger/internal/app/session"
	"github.com/PabloGalante/messenger/internal/domain"
	"github.com/PabloGalante/messenger/internal/observability"
)

var (
	ErrNothingToSend = errors.New("nothing to send")
	ErrNoPeer        = errors.New("no conversation selected")
)

// TimeLayout is the client timestamp format stamped on outgoing messages.
const TimeLayout = "1/2/2006, 3:04:05 PM"

const outboxLimit = 20

type Session interface {
	Current() (domain.User, error)
	SelectedNickName() (string, bool)
	SetSelectedNickName(nick string) error
}

// Subscriber delivers session changes.
type Subscriber interface {
	Subscribe(fn session.Listener) (unsubscribe func())
}

type DeliveryState string

const (
	DeliveryPending DeliveryState = "pending"
	DeliverySent    DeliveryState = "sent"
	DeliveryFailed  DeliveryState = "failed"
)

// Outgoing tracks one send attempt on this client. It is local bookkeeping; the
// message status field is not touched.
type Outgoing struct {
	Seq     int
	Message domain.Message
	State   DeliveryState
	Err     error
}

type Service struct {
	remote   domain.RemoteStore
	media    domain.MediaStore
	session  Session
	now      func() time.Time
	onChange func()

	mu          sync.Mutex
	messages    []domain.Message
	peer        *domain.User
	draft       string
	attachments map[domain.MediaKind]string
	emojiOpen   bool
	loading     bool
	sending     bool
	outbox      []Outgoing
	nextSeq     int
}

// NewService wires the view. media may be nil, in which case attachments cannot be sent.
// onChange, if set, runs after every state change.
func NewService(remote domain.RemoteStore, media domain.MediaStore, sess Session, onChange func()) *Service {
	return &Service{
		remote:      remote,
		media:       media,
		session:     sess,
		now:         time.Now,
		onChange:    onChange,
		attachments: make(map[domain.MediaKind]string),
	}
}

// Load fetches the whole message collection. On failure the previous messages stay.
func (s *Service) Load(ctx context.Context) error {
	log := observability.LoggerFromContext(ctx)

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	s.changed()

	msgs, err := s.remote.ListMessages(ctx)

	s.mu.Lock()
	s.loading = false
	if err == nil {
		s.messages = msgs
	}
	s.mu.Unlock()
	s.changed()

	if err != nil {
		log.Error("error fetching messages", "error", err)
		return err
	}
	log.Info("fetched messages", "message_count", len(msgs))
	return nil
}

// ReloadOnLogin re-fetches messages whenever a user logs in and clears the view on logout.
func (s *Service) ReloadOnLogin(ctx context.Context, sub Subscriber) (stop func()) {
	return sub.Subscribe(func(u *domain.User) {
		if u == nil {
			s.mu.Lock()
			s.messages = nil
			s.peer = nil
			s.resetComposerLocked()
			s.mu.Unlock()
			s.changed()
			return
		}
		go s.Load(ctx)
	})
}

// Poll reloads messages every interval until ctx is done.
func (s *Service) Poll(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.session.Current(); err != nil {
				continue
			}
			s.Load(ctx)
		}
	}
}

// Select opens the conversation with u, persisting its nickname and resetting the composer.
func (s *Service) Select(u domain.User) error {
	s.mu.Lock()
	s.peer = &u
	s.resetComposerLocked()
	s.mu.Unlock()
	s.changed()

	if err := s.session.SetSelectedNickName(u.ThreadKey()); err != nil {
		observability.Logger().Warn("failed to persist selection", "error", err)
		return err
	}
	return nil
}

// ClearSelection closes the conversation. The persisted nickname is kept.
func (s *Service) ClearSelection() {
	s.mu.Lock()
	s.peer = nil
	s.mu.Unlock()
	s.changed()
}

// Restore reopens the conversation whose nickname was persisted, if it matches one of users.
func (s *Service) Restore(users []domain.User) bool {
	nick, ok := s.session.SelectedNickName()
	if !ok {
		return false
	}
	for _, u := range users {
		if u.ThreadKey() == nick {
			s.mu.Lock()
			s.peer = &u
			s.mu.Unlock()
			s.changed()
			return true
		}
	}
	observability.Logger().Info("persisted selection matches no user", "nick_name", nick)
	return false
}

func (s *Service) Peer() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.peer == nil {
		return domain.User{}, false
	}
	return *s.peer, true
}

// Thread returns the messages between the logged-in user and the selected counterpart.
func (s *Service) Thread() ([]domain.Message, error) {
	me, err := s.session.Current()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.peer == nil {
		return nil, ErrNoPeer
	}
	return Thread(s.messages, me.ThreadKey(), s.peer.ThreadKey()), nil
}

func (s *Service) SetDraft(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
	s.changed()
}

func (s *Service) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *Service) ToggleEmojiPicker() bool {
	s.mu.Lock()
	s.emojiOpen = !s.emojiOpen
	open := s.emojiOpen
	s.mu.Unlock()
	s.changed()
	return open
}

func (s *Service) EmojiPickerOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emojiOpen
}

// InsertEmoji appends emoji to the draft and closes the picker.
func (s *Service) InsertEmoji(emoji string) {
	s.mu.Lock()
	s.draft += emoji
	s.emojiOpen = false
	s.mu.Unlock()
	s.changed()
}

// Attach holds a local recording for the next send. An empty path removes the attachment.
func (s *Service) Attach(kind domain.MediaKind, path string) error {
	if kind != domain.MediaAudio && kind != domain.MediaVideo {
		return fmt.Errorf("unknown media kind %q", kind)
	}

	s.mu.Lock()
	if path == "" {
		delete(s.attachments, kind)
	} else {
		s.attachments[kind] = path
	}
	s.mu.Unlock()
	s.changed()
	return nil
}

func (s *Service) Attachment(kind domain.MediaKind) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attachments[kind]
}

func (s *Service) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Service) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// Outbox returns the most recent send attempts, oldest first.
func (s *Service) Outbox() []Outgoing {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Outgoing, len(s.outbox))
	copy(out, s.outbox)
	return out
}

// Send submits the draft and attachments to the selected counterpart.
//
// A blank draft without attachments returns ErrNothingToSend and changes nothing.
// Attachments are uploaded first so the message carries media store references rather than local paths.
// On success the stored message is appended locally and, if the same contact is
// still selected, the composer is cleared;
// on failure the local thread and the composer are left as they were.
func (s *Service) Send(ctx context.Context) error {
	me, err := s.session.Current()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.peer == nil {
		s.mu.Unlock()
		return ErrNoPeer
	}
	peer := *s.peer
	draft := s.draft
	audio := s.attachments[domain.MediaAudio]
	video := s.attachments[domain.MediaVideo]
	if strings.TrimSpace(draft) == "" && audio == "" && video == "" {
		s.mu.Unlock()
		return ErrNothingToSend
	}
	s.sending = true
	s.mu.Unlock()
	s.changed()

	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
		s.changed()
	}()

	log := observability.LoggerFromContext(ctx).With(
		"sender", me.ThreadKey(),
		"receiver", peer.ThreadKey(),
	)

	msg := domain.Message{
		Sender:   me.ThreadKey(),
		Receiver: peer.ThreadKey(),
		Text:     draft,
		Time:     s.now().Format(TimeLayout),
		Status:   domain.InitialStatus,
	}
	seq := s.track(msg)

	if audio != "" || video != "" {
		if s.media == nil {
			err := errors.New("no media store configured")
			s.settle(seq, msg, err)
			log.Error("error sending message", "error", err)
			return err
		}
		if audio != "" {
			if msg.Audio, err = s.media.Put(ctx, domain.MediaAudio, audio); err != nil {
				s.settle(seq, msg, err)
				log.Error("error uploading audio", "error", err)
				return fmt.Errorf("upload audio: %w", err)
			}
		}
		if video != "" {
			if msg.Video, err = s.media.Put(ctx, domain.MediaVideo, video); err != nil {
				s.settle(seq, msg, err)
				log.Error("error uploading video", "error", err)
				return fmt.Errorf("upload video: %w", err)
			}
		}
	}

	stored, err := s.remote.PostMessage(ctx, msg)
	if err != nil {
		s.settle(seq, msg, err)
		log.Error("error sending message", "error", err)
		return err
	}

	s.mu.Lock()
	s.messages = append(s.messages, stored)
	// the composer belongs to another contact if the selection changed mid-send
	if s.peer != nil && *s.peer == peer {
		s.resetComposerLocked()
	}
	s.mu.Unlock()
	s.settle(seq, stored, nil)

	log.Info("message sent", "message_id", stored.ID)
	return nil
}

func (s *Service) track(msg domain.Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	s.outbox = append(s.outbox, Outgoing{Seq: s.nextSeq, Message: msg, State: DeliveryPending})
	if len(s.outbox) > outboxLimit {
		s.outbox = s.outbox[len(s.outbox)-outboxLimit:]
	}
	return s.nextSeq
}

func (s *Service) settle(seq int, msg domain.Message, err error) {
	s.mu.Lock()
	for i := range s.outbox {
		if s.outbox[i].Seq != seq {
			continue
		}
		s.outbox[i].Message = msg
		if err != nil {
			s.outbox[i].State = DeliveryFailed
			s.outbox[i].Err = err
		} else {
			s.outbox[i].State = DeliverySent
		}
		break
	}
	s.mu.Unlock()
	s.changed()
}

func (s *Service) resetComposerLocked() {
	s.draft = ""
	s.attachments = make(map[domain.MediaKind]string)
	s.emojiOpen = false
}

func (s *Service) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
