package conversation_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PabloGalante/messenger/internal/adapters/localstate"
	"github.com/PabloGalante/messenger/internal/adapters/media"
	"github.com/PabloGalante/messenger/internal/app/conversation"
	"github.com/PabloGalante/messenger/internal/app/session"
	"github.com/PabloGalante/messenger/internal/domain"
)

// fakeRemote records posts. With postGate set, PostMessage signals postStarted
// and blocks until the gate is closed.
type fakeRemote struct {
	postStarted chan struct{}
	postGate    chan struct{}

	mu       sync.Mutex
	messages []domain.Message
	listErr  error
	postErr  error
	posted   []domain.Message
	lists    int
}

func (f *fakeRemote) ListUsers(context.Context) ([]domain.User, error) { return nil, nil }

func (f *fakeRemote) ListMessages(context.Context) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return append([]domain.Message(nil), f.messages...), f.listErr
}

func (f *fakeRemote) PostMessage(_ context.Context, m domain.Message) (domain.Message, error) {
	if f.postGate != nil {
		f.postStarted <- struct{}{}
		<-f.postGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, m)
	if f.postErr != nil {
		return domain.Message{}, f.postErr
	}
	m.ID = "srv-1"
	return m, nil
}

func (f *fakeRemote) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

var (
	alice = domain.User{ID: "1", Email: "alice@x.com", NickName: "alice"}
	bob   = domain.User{ID: "2", Email: "bob@x.com", NickName: "bob"}
	carol = domain.User{ID: "3", Email: "carol@x.com", NickName: "carol"}
)

func newService(t *testing.T, remote *fakeRemote) (*conversation.Service, *session.Store) {
	t.Helper()

	sess := session.NewStore(localstate.NewMemory())
	if err := sess.Login(alice); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	store, err := media.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	svc := conversation.NewService(remote, store, sess, nil)
	svc.SetClock(func() time.Time { return time.Date(2026, 10, 19, 15, 4, 5, 0, time.UTC) })
	return svc, sess
}

func TestThreadIsSymmetric(t *testing.T) {
	msgs := []domain.Message{
		{Sender: "alice", Receiver: "bob", Text: "1"},
		{Sender: "carol", Receiver: "alice", Text: "x"},
		{Sender: "bob", Receiver: "alice", Text: "2"},
		{Sender: "bob", Receiver: "carol", Text: "y"},
		{Sender: "alice", Receiver: "bob", Text: "3"},
	}

	ab := conversation.Thread(msgs, "alice", "bob")
	ba := conversation.Thread(msgs, "bob", "alice")

	if !reflect.DeepEqual(ab, ba) {
		t.Fatalf("thread not symmetric: %v vs %v", ab, ba)
	}
	var texts []string
	for _, m := range ab {
		texts = append(texts, m.Text)
	}
	if strings.Join(texts, "") != "123" {
		t.Fatalf("expected fetched order 1,2,3, got %v", texts)
	}
}

func TestLoadAndThreadByNickname(t *testing.T) {
	remote := &fakeRemote{messages: []domain.Message{
		{Sender: "alice", Receiver: "bob", Text: "hi"},
		{Sender: "alice@x.com", Receiver: "bob@x.com", Text: "keyed by email"},
		{Sender: "carol", Receiver: "alice", Text: "other"},
	}}
	svc, _ := newService(t, remote)

	if _, err := svc.Thread(); !errors.Is(err, conversation.ErrNoPeer) {
		t.Fatalf("expected ErrNoPeer, got %v", err)
	}
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	_ = svc.Select(bob)

	thread, err := svc.Thread()
	if err != nil {
		t.Fatalf("Thread failed: %v", err)
	}
	if len(thread) != 1 || thread[0].Text != "hi" {
		t.Fatalf("unexpected thread %+v", thread)
	}
}

func TestSendEmptyIsNoop(t *testing.T) {
	remote := &fakeRemote{}
	svc, _ := newService(t, remote)
	_ = svc.Select(bob)
	svc.SetDraft("   \n")

	if err := svc.Send(context.Background()); !errors.Is(err, conversation.ErrNothingToSend) {
		t.Fatalf("expected ErrNothingToSend, got %v", err)
	}
	if len(remote.posted) != 0 {
		t.Fatalf("remote must not be called")
	}
	if svc.Draft() != "   \n" || len(svc.Outbox()) != 0 {
		t.Fatalf("state changed on empty send")
	}
}

func TestSendSuccess(t *testing.T) {
	remote := &fakeRemote{}
	svc, _ := newService(t, remote)
	_ = svc.Select(bob)
	svc.SetDraft("hi")

	if err := svc.Send(context.Background()); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	thread, _ := svc.Thread()
	if len(thread) != 1 {
		t.Fatalf("expected one message, got %d", len(thread))
	}
	got := thread[0]
	if got.Status != domain.InitialStatus || got.Text != "hi" || got.Sender != "alice" || got.Receiver != "bob" {
		t.Fatalf("unexpected message %+v", got)
	}
	if got.ID != "srv-1" {
		t.Fatalf("expected server id reconciled, got %q", got.ID)
	}
	if got.Time != "10/19/2026, 3:04:05 PM" {
		t.Fatalf("unexpected time %q", got.Time)
	}
	if svc.Draft() != "" || svc.Sending() {
		t.Fatalf("expected composer reset and sending cleared")
	}
	if remote.listCount() != 0 {
		t.Fatalf("send must not re-fetch")
	}
	if ob := svc.Outbox(); len(ob) != 1 || ob[0].State != conversation.DeliverySent {
		t.Fatalf("unexpected outbox %+v", ob)
	}
}

func TestSendFailureKeepsDraft(t *testing.T) {
	remote := &fakeRemote{postErr: errors.New("network down")}
	svc, _ := newService(t, remote)
	_ = svc.Select(bob)
	svc.SetDraft("hi")

	if err := svc.Send(context.Background()); err == nil {
		t.Fatalf("expected error")
	}

	thread, _ := svc.Thread()
	if len(thread) != 0 {
		t.Fatalf("thread must be unchanged, got %+v", thread)
	}
	if svc.Draft() != "hi" {
		t.Fatalf("expected draft retained, got %q", svc.Draft())
	}
	if svc.Sending() {
		t.Fatalf("sending flag must be reset")
	}
	if ob := svc.Outbox(); len(ob) != 1 || ob[0].State != conversation.DeliveryFailed {
		t.Fatalf("unexpected outbox %+v", ob)
	}
}

func TestSendUploadsAttachments(t *testing.T) {
	remote := &fakeRemote{}
	svc, _ := newService(t, remote)
	_ = svc.Select(bob)

	rec := filepath.Join(t.TempDir(), "voice.mp3")
	if err := os.WriteFile(rec, []byte("audio"), 0o600); err != nil {
		t.Fatalf("write recording: %v", err)
	}
	if err := svc.Attach(domain.MediaAudio, rec); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	if err := svc.Send(context.Background()); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	posted := remote.posted[0]
	if !strings.HasPrefix(string(posted.Audio), "file://") || posted.Video != "" {
		t.Fatalf("expected stored audio ref, got %+v", posted)
	}
	if svc.Attachment(domain.MediaAudio) != "" {
		t.Fatalf("attachment must be cleared after send")
	}
}

func TestSendUploadFailureAbortsSend(t *testing.T) {
	remote := &fakeRemote{}
	svc, _ := newService(t, remote)
	_ = svc.Select(bob)
	_ = svc.Attach(domain.MediaVideo, filepath.Join(t.TempDir(), "missing.mp4"))

	if err := svc.Send(context.Background()); err == nil {
		t.Fatalf("expected upload error")
	}
	if len(remote.posted) != 0 {
		t.Fatalf("message must not be posted after failed upload")
	}
	if svc.Attachment(domain.MediaVideo) == "" {
		t.Fatalf("attachment must be kept for retry")
	}
}

func TestSendWithoutSession(t *testing.T) {
	remote := &fakeRemote{}
	svc, sess := newService(t, remote)
	_ = svc.Select(bob)
	svc.SetDraft("hi")
	_ = sess.Logout()

	if err := svc.Send(context.Background()); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestComposerEmojiAndSelection(t *testing.T) {
	svc, sess := newService(t, &fakeRemote{})
	_ = svc.Select(bob)

	if !svc.ToggleEmojiPicker() {
		t.Fatalf("expected picker open")
	}
	svc.SetDraft("hey ")
	svc.InsertEmoji("🙂")
	if svc.Draft() != "hey 🙂" || svc.EmojiPickerOpen() {
		t.Fatalf("unexpected composer state %q open=%v", svc.Draft(), svc.EmojiPickerOpen())
	}

	_ = svc.Select(carol)
	if svc.Draft() != "" {
		t.Fatalf("selecting a contact must clear the draft")
	}
	if nick, _ := sess.SelectedNickName(); nick != "carol" {
		t.Fatalf("expected carol persisted, got %q", nick)
	}
}

func TestRestoreSelection(t *testing.T) {
	svc, sess := newService(t, &fakeRemote{})
	_ = sess.SetSelectedNickName("bob")

	if svc.Restore([]domain.User{carol}) {
		t.Fatalf("restore must fail when no user matches")
	}
	if !svc.Restore([]domain.User{carol, bob}) {
		t.Fatalf("expected restore to succeed")
	}
	if peer, ok := svc.Peer(); !ok || peer.Email != "bob@x.com" {
		t.Fatalf("unexpected peer %+v", peer)
	}
}

func TestReloadOnLogin(t *testing.T) {
	remote := &fakeRemote{messages: []domain.Message{{Sender: "alice", Receiver: "bob", Text: "hi"}}}
	svc, sess := newService(t, remote)
	stop := svc.ReloadOnLogin(context.Background(), sess)
	defer stop()

	_ = svc.Select(bob)
	_ = sess.Logout()
	if _, ok := svc.Peer(); ok {
		t.Fatalf("logout must close the conversation")
	}

	_ = sess.Login(alice)
	deadline := time.Now().Add(2 * time.Second)
	for remote.listCount() == 0 || svc.Loading() {
		if time.Now().After(deadline) {
			t.Fatalf("messages were not reloaded after login")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSendingWhilePostInFlight(t *testing.T) {
	remote := &fakeRemote{postStarted: make(chan struct{}, 1), postGate: make(chan struct{})}
	svc, _ := newService(t, remote)
	_ = svc.Select(bob)
	svc.SetDraft("hi")

	errc := make(chan error, 1)
	go func() { errc <- svc.Send(context.Background()) }()

	<-remote.postStarted
	if !svc.Sending() {
		t.Fatalf("expected sending while the post is in flight")
	}
	if ob := svc.Outbox(); len(ob) != 1 || ob[0].State != conversation.DeliveryPending {
		t.Fatalf("expected a pending outbox entry, got %+v", ob)
	}

	close(remote.postGate)
	if err := <-errc; err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if svc.Sending() {
		t.Fatalf("sending must be cleared once the post resolves")
	}
}

func TestSendKeepsComposerOfNewSelection(t *testing.T) {
	remote := &fakeRemote{postStarted: make(chan struct{}, 1), postGate: make(chan struct{})}
	svc, _ := newService(t, remote)
	_ = svc.Select(bob)
	svc.SetDraft("for bob")

	errc := make(chan error, 1)
	go func() { errc <- svc.Send(context.Background()) }()
	<-remote.postStarted

	_ = svc.Select(carol)
	svc.SetDraft("for carol")
	close(remote.postGate)
	if err := <-errc; err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if svc.Draft() != "for carol" {
		t.Fatalf("draft for the new contact was wiped: %q", svc.Draft())
	}
	_ = svc.Select(bob)
	thread, _ := svc.Thread()
	if len(thread) != 1 || thread[0].Text != "for bob" {
		t.Fatalf("expected the sent message in bob's thread, got %+v", thread)
	}
}

func TestPoll(t *testing.T) {
	remote := &fakeRemote{}
	svc, sess := newService(t, remote)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Poll(ctx, 5*time.Millisecond)
		close(done)
	}()

	waitFor(t, func() bool { return remote.listCount() >= 2 })

	_ = sess.Logout()
	time.Sleep(20 * time.Millisecond)
	settled := remote.listCount()
	time.Sleep(40 * time.Millisecond)
	if n := remote.listCount(); n != settled {
		t.Fatalf("poll must skip ticks without a session, fetches went from %d to %d", settled, n)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("poll did not stop after cancel")
	}
}

func TestPollDisabled(t *testing.T) {
	svc, _ := newService(t, &fakeRemote{})

	done := make(chan struct{})
	go func() {
		svc.Poll(context.Background(), 0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("poll with a zero interval must return at once")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
