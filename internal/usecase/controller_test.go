package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"kittydesk/internal/domain"
	"kittydesk/internal/ports"
)

type fakeChatService struct {
	mu         sync.Mutex
	loginErr   error
	reply      domain.ChatReply
	replyErr   error
	resetErr   error
	textReqs   []ports.TextRequest
	audioReqs  []ports.AudioRequest
	resetCalls int
}

func (f *fakeChatService) Login(_ context.Context, name string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return name, nil
}

func (f *fakeChatService) SendText(_ context.Context, req ports.TextRequest) (domain.ChatReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textReqs = append(f.textReqs, req)
	return f.reply, f.replyErr
}

func (f *fakeChatService) SendAudio(_ context.Context, req ports.AudioRequest) (domain.ChatReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audioReqs = append(f.audioReqs, req)
	return f.reply, f.replyErr
}

func (f *fakeChatService) Reset(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls++
	return f.resetErr
}

type fakeVault struct {
	mu       sync.Mutex
	username string
	loadErr  error
	storeErr error
	cleared  int
}

func (f *fakeVault) Load() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.username, f.loadErr
}

func (f *fakeVault) Store(username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.storeErr != nil {
		return f.storeErr
	}
	f.username = username
	return nil
}

func (f *fakeVault) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	f.username = ""
	return nil
}

type fakeCaptureSession struct {
	reader  io.Reader
	mu      sync.Mutex
	stopped int
}

func (f *fakeCaptureSession) Read(p []byte) (int, error) { return f.reader.Read(p) }

func (f *fakeCaptureSession) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	return nil
}

func (f *fakeCaptureSession) Close() error { return nil }

type fakeCapture struct {
	mu       sync.Mutex
	startErr error
	session  *fakeCaptureSession
	starts   int
}

func (f *fakeCapture) Start(_ context.Context, _ ports.AudioConfig) (ports.CaptureSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.session, nil
}

type fakePlayer struct {
	mu    sync.Mutex
	plays []string
	mimes []string
	stops int
}

func (f *fakePlayer) Play(base64Data, mimeType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays = append(f.plays, base64Data)
	f.mimes = append(f.mimes, mimeType)
}

func (f *fakePlayer) StopCurrent() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakePlayer) playCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.plays)
}

type fakeChatLog struct {
	mu      sync.Mutex
	entries []domain.TranscriptEntry
	users   []string
}

func (f *fakeChatLog) Append(username string, entry domain.TranscriptEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, username)
	f.entries = append(f.entries, entry)
	return nil
}

type sinkEvent struct {
	kind    string
	page    domain.Page
	user    string
	mode    domain.InteractionMode
	active  bool
	banner  string
	aff     domain.Affordances
	index   int
	entry   domain.TranscriptEntry
	code    domain.ErrorCode
	detail  string
	message string
}

type fakeSink struct {
	mu     sync.Mutex
	events []sinkEvent
}

func (f *fakeSink) record(ev sinkEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeSink) PageChanged(page domain.Page, username string) {
	f.record(sinkEvent{kind: "page", page: page, user: username})
}

func (f *fakeSink) ModeChanged(mode domain.InteractionMode) {
	f.record(sinkEvent{kind: "mode", mode: mode})
}

func (f *fakeSink) ActivationChanged(active bool, banner string) {
	f.record(sinkEvent{kind: "activation", active: active, banner: banner})
}

func (f *fakeSink) AffordancesChanged(a domain.Affordances) {
	f.record(sinkEvent{kind: "affordances", aff: a})
}

func (f *fakeSink) TranscriptAppended(entry domain.TranscriptEntry) {
	f.record(sinkEvent{kind: "append", entry: entry})
}

func (f *fakeSink) TranscriptUpdated(index int, entry domain.TranscriptEntry) {
	f.record(sinkEvent{kind: "update", index: index, entry: entry})
}

func (f *fakeSink) TranscriptCleared() {
	f.record(sinkEvent{kind: "clear"})
}

func (f *fakeSink) SessionError(code domain.ErrorCode, detail string) {
	f.record(sinkEvent{kind: "error", code: code, detail: detail})
}

func (f *fakeSink) Alert(message string) {
	f.record(sinkEvent{kind: "alert", message: message})
}

func (f *fakeSink) last(kind string) (sinkEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].kind == kind {
			return f.events[i], true
		}
	}
	return sinkEvent{}, false
}

func (f *fakeSink) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for _, ev := range f.events {
		if ev.kind == kind {
			n++
		}
	}
	return n
}

type fixture struct {
	controller *ChatController
	api        *fakeChatService
	vault      *fakeVault
	capture    *fakeCapture
	player     *fakePlayer
	chatLog    *fakeChatLog
	sink       *fakeSink
}

func newFixture() *fixture {
	api := &fakeChatService{reply: domain.ChatReply{Success: true}}
	vault := &fakeVault{}
	capture := &fakeCapture{session: &fakeCaptureSession{reader: bytes.NewReader([]byte("webm-bytes"))}}
	player := &fakePlayer{}
	chatLog := &fakeChatLog{}
	sink := &fakeSink{}
	controller := NewChatController(api, vault, capture, player, chatLog, sink, Config{})
	return &fixture{
		controller: controller,
		api:        api,
		vault:      vault,
		capture:    capture,
		player:     player,
		chatLog:    chatLog,
		sink:       sink,
	}
}

func loggedIn(t *testing.T) *fixture {
	t.Helper()
	f := newFixture()
	if _, err := f.controller.Login(context.Background(), "ava"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return f
}

func TestLoginRejectsEmptyName(t *testing.T) {
	t.Parallel()
	f := newFixture()

	if _, err := f.controller.Login(context.Background(), "   "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if f.vault.username != "" {
		t.Fatalf("vault should stay empty, got %q", f.vault.username)
	}
}

func TestLoginPersistsAndIssuesInitialDispatch(t *testing.T) {
	t.Parallel()
	f := newFixture()

	username, err := f.controller.Login(context.Background(), " ava ")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if username != "ava" {
		t.Fatalf("expected trimmed username, got %q", username)
	}
	if f.vault.username != "ava" {
		t.Fatalf("session not persisted, vault holds %q", f.vault.username)
	}

	if len(f.api.textReqs) != 1 {
		t.Fatalf("expected one initial dispatch, got %d", len(f.api.textReqs))
	}
	req := f.api.textReqs[0]
	if req.Message != "" || !req.IsInitialLoad {
		t.Fatalf("unexpected initial request: %+v", req)
	}

	page, ok := f.sink.last("page")
	if !ok || page.page != domain.PageChat || page.user != "ava" {
		t.Fatalf("expected chat page for ava, got %+v", page)
	}
}

func TestLoginSurfacesBackendRejection(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.api.loginErr = errors.New("name already taken")

	if _, err := f.controller.Login(context.Background(), "ava"); err == nil {
		t.Fatal("expected login error")
	}
	if f.vault.username != "" {
		t.Fatalf("rejected login must not persist, vault holds %q", f.vault.username)
	}
	if len(f.api.textReqs) != 0 {
		t.Fatalf("rejected login must not dispatch, got %d requests", len(f.api.textReqs))
	}
}

func TestStartupRestoresPersistedSession(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.vault.username = "ben"

	f.controller.Startup(context.Background())

	status := f.controller.Status()
	if status.Page != domain.PageChat || status.Username != "ben" {
		t.Fatalf("expected restored chat session, got %+v", status)
	}
	if len(f.api.textReqs) != 1 || !f.api.textReqs[0].IsInitialLoad {
		t.Fatalf("expected initial-load dispatch, got %+v", f.api.textReqs)
	}
}

func TestStartupWithoutSessionShowsLogin(t *testing.T) {
	t.Parallel()
	f := newFixture()

	f.controller.Startup(context.Background())

	page, ok := f.sink.last("page")
	if !ok || page.page != domain.PageLogin {
		t.Fatalf("expected login page, got %+v", page)
	}
	if len(f.api.textReqs) != 0 {
		t.Fatalf("no dispatch expected without a session, got %d", len(f.api.textReqs))
	}
}

func TestSendTextAppendsAndDispatches(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)
	f.api.reply = domain.ChatReply{Success: true, ResponseText: "hi ava", WakeMode: true}

	if err := f.controller.SendText(context.Background(), " hello "); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	transcript := f.controller.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("expected user + assistant entries, got %+v", transcript)
	}
	if transcript[0].Speaker != domain.SpeakerUser || transcript[0].Text != "hello" {
		t.Fatalf("unexpected user entry: %+v", transcript[0])
	}
	if transcript[1].Speaker != domain.SpeakerAssistant || transcript[1].Text != "hi ava" {
		t.Fatalf("unexpected assistant entry: %+v", transcript[1])
	}
	if !f.controller.Status().Activated {
		t.Fatal("wake_mode:true must activate the session")
	}
}

func TestSendTextRejectsBlankMessage(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)
	before := len(f.api.textReqs)

	if err := f.controller.SendText(context.Background(), "  \t "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if len(f.api.textReqs) != before {
		t.Fatal("blank message must not reach the backend")
	}
}

func TestSendTextRequiresSession(t *testing.T) {
	t.Parallel()
	f := newFixture()

	if err := f.controller.SendText(context.Background(), "hello"); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
	if len(f.api.textReqs) != 0 {
		t.Fatal("dispatch without a session must not reach the backend")
	}
}

func TestStartRecordingRequiresSession(t *testing.T) {
	t.Parallel()
	f := newFixture()

	if err := f.controller.StartRecording(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
	if f.capture.starts != 0 {
		t.Fatal("recording without a session must not touch the device")
	}
}

func TestTransportFailureAddsFixedNetworkError(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)
	f.api.replyErr = ports.ErrTransport

	if err := f.controller.SendText(context.Background(), "hello"); err == nil {
		t.Fatal("expected transport error")
	}

	transcript := f.controller.Transcript()
	last := transcript[len(transcript)-1]
	if last.Speaker != domain.SpeakerAssistant || last.Text != networkErrorText {
		t.Fatalf("expected fixed network error entry, got %+v", last)
	}
	ev, ok := f.sink.last("error")
	if !ok || ev.code != domain.ErrorCodeTransport {
		t.Fatalf("expected transport session error, got %+v", ev)
	}
	if f.controller.Status().Activated {
		t.Fatal("transport failure must not change activation")
	}
}

func TestApplicationFailureAddsErrorEntryWithoutActivation(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)
	f.controller.ApplyActivation(true)
	f.api.reply = domain.ChatReply{Success: false, Message: "model overloaded", WakeMode: false}

	if err := f.controller.SendText(context.Background(), "hello"); err != nil {
		t.Fatalf("application failure is not a dispatch error: %v", err)
	}

	transcript := f.controller.Transcript()
	last := transcript[len(transcript)-1]
	if last.Text != "Error: model overloaded" {
		t.Fatalf("unexpected failure entry: %+v", last)
	}
	if !f.controller.Status().Activated {
		t.Fatal("failed reply must leave activation untouched")
	}
}

func TestVoiceModeReplyPlaysAudio(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)
	f.api.reply = domain.ChatReply{Success: true, ResponseText: "hi", AudioData: "b64payload", AudioMimeType: "audio/mpeg"}

	if err := f.controller.SendText(context.Background(), "hello"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if f.player.playCount() != 1 {
		t.Fatalf("expected one playback, got %d", f.player.playCount())
	}
	if f.player.plays[0] != "b64payload" || f.player.mimes[0] != "audio/mpeg" {
		t.Fatalf("unexpected playback args: %q %q", f.player.plays[0], f.player.mimes[0])
	}
}

func TestTextModeReplySkipsAudio(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)
	if err := f.controller.SetMode(domain.ModeText); err != nil {
		t.Fatalf("set mode failed: %v", err)
	}
	f.api.reply = domain.ChatReply{Success: true, ResponseText: "hi", AudioData: "b64payload"}

	if err := f.controller.SendText(context.Background(), "hello"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if f.player.playCount() != 0 {
		t.Fatal("text mode must not start playback")
	}
}

func TestSendTextPreemptsPlayback(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)
	before := f.player.stops

	if err := f.controller.SendText(context.Background(), "hello"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if f.player.stops <= before {
		t.Fatal("sending must stop current playback first")
	}
}

func TestRecordingLifecycle(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)
	f.api.reply = domain.ChatReply{Success: true, ResponseText: "heard you", RecognizedText: "turn on the lights"}

	if err := f.controller.StartRecording(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !f.controller.Status().Recording {
		t.Fatal("status must report active recording")
	}
	aff, ok := f.sink.last("affordances")
	if !ok || !aff.aff.RecordActive || aff.aff.InputEnabled {
		t.Fatalf("expected recording affordances, got %+v", aff.aff)
	}

	if err := f.controller.StopRecording(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if f.controller.Status().Recording {
		t.Fatal("recording must be released after stop")
	}

	if len(f.api.audioReqs) != 1 {
		t.Fatalf("expected one audio dispatch, got %d", len(f.api.audioReqs))
	}
	if string(f.api.audioReqs[0].Audio) != "webm-bytes" {
		t.Fatalf("unexpected payload: %q", f.api.audioReqs[0].Audio)
	}

	transcript := f.controller.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("expected recognized echo + reply, got %+v", transcript)
	}
	if transcript[0].Text != "turn on the lights" || transcript[0].Speaker != domain.SpeakerUser {
		t.Fatalf("placeholder not replaced: %+v", transcript[0])
	}
	update, ok := f.sink.last("update")
	if !ok || update.index != 0 {
		t.Fatalf("expected transcript update at index 0, got %+v", update)
	}
}

func TestVoicePlaceholderKeptWithoutRecognizedText(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)
	f.api.reply = domain.ChatReply{Success: true, ResponseText: "hi"}

	if err := f.controller.StartRecording(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := f.controller.StopRecording(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	transcript := f.controller.Transcript()
	if transcript[0].Text != voiceInputText {
		t.Fatalf("placeholder must survive without recognized text, got %+v", transcript[0])
	}
	if f.sink.count("update") != 0 {
		t.Fatal("no transcript update expected without recognized text")
	}
}

func TestStartRecordingGuardsReentry(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)

	if err := f.controller.StartRecording(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := f.controller.StartRecording(context.Background()); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("expected ErrAlreadyRecording, got %v", err)
	}
	if f.capture.starts != 1 {
		t.Fatalf("second start must not reach the device, got %d starts", f.capture.starts)
	}
}

func TestStopRecordingWithoutActiveSession(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)

	if err := f.controller.StopRecording(context.Background()); !errors.Is(err, ErrNoActiveRecording) {
		t.Fatalf("expected ErrNoActiveRecording, got %v", err)
	}
}

func TestStartRecordingPermissionFailure(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)
	f.capture.startErr = errors.New("device busy")

	err := f.controller.StartRecording(context.Background())
	if err == nil {
		t.Fatal("expected capture error")
	}
	if f.controller.Status().Recording {
		t.Fatal("failed start must leave state idle")
	}
	alert, ok := f.sink.last("alert")
	if !ok || !strings.Contains(alert.message, "microphone") {
		t.Fatalf("expected microphone alert, got %+v", alert)
	}
	ev, ok := f.sink.last("error")
	if !ok || ev.code != domain.ErrorCodePermission {
		t.Fatalf("expected permission session error, got %+v", ev)
	}
}

func TestSetModePreservesActivation(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)
	f.controller.ApplyActivation(true)

	if err := f.controller.SetMode(domain.ModeText); err != nil {
		t.Fatalf("set mode failed: %v", err)
	}

	if !f.controller.Status().Activated {
		t.Fatal("mode switch must not change activation")
	}
	ev, ok := f.sink.last("activation")
	if !ok || !ev.active {
		t.Fatalf("activation re-render lost the value: %+v", ev)
	}
}

func TestSetModeRejectsUnknownMode(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)

	if err := f.controller.SetMode("loud"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if f.controller.Status().Mode != domain.ModeVoice {
		t.Fatal("invalid mode must not be applied")
	}
}

func TestNewChatResetsConversation(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)
	f.controller.ApplyActivation(true)
	if err := f.controller.SendText(context.Background(), "hello"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if err := f.controller.NewChat(context.Background()); err != nil {
		t.Fatalf("new chat failed: %v", err)
	}

	if f.api.resetCalls != 1 {
		t.Fatalf("expected one backend reset, got %d", f.api.resetCalls)
	}
	if len(f.controller.Transcript()) != 0 {
		t.Fatalf("transcript must be empty, got %+v", f.controller.Transcript())
	}
	reqs := f.api.textReqs
	if !reqs[len(reqs)-1].IsInitialLoad {
		t.Fatal("new chat must end with an initial-load dispatch")
	}
}

func TestNewChatRequiresSession(t *testing.T) {
	t.Parallel()
	f := newFixture()

	if err := f.controller.NewChat(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
	if f.api.resetCalls != 0 {
		t.Fatal("rejected new chat must not reach the backend")
	}
	if f.sink.count("clear") != 0 || f.player.stops != 0 {
		t.Fatal("rejected new chat must not mutate state")
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)
	f.controller.ApplyActivation(true)

	f.controller.Logout()

	status := f.controller.Status()
	if status.Page != domain.PageLogin || status.Username != "" || status.Activated {
		t.Fatalf("expected clean login state, got %+v", status)
	}
	if f.vault.cleared != 1 {
		t.Fatalf("persisted session must be cleared, got %d clears", f.vault.cleared)
	}
	page, ok := f.sink.last("page")
	if !ok || page.page != domain.PageLogin {
		t.Fatalf("expected login page event, got %+v", page)
	}
}

func TestDraftTogglesAffordances(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)

	f.controller.SetDraft(true)
	aff, ok := f.sink.last("affordances")
	if !ok || !aff.aff.ShowSend || aff.aff.ShowRecord {
		t.Fatalf("voice mode with draft must show send only, got %+v", aff.aff)
	}

	f.controller.SetDraft(false)
	aff, _ = f.sink.last("affordances")
	if aff.aff.ShowSend || !aff.aff.ShowRecord {
		t.Fatalf("voice mode without draft must show record, got %+v", aff.aff)
	}
}

func TestChatLogRecordsBothSpeakers(t *testing.T) {
	t.Parallel()
	f := loggedIn(t)
	f.api.reply = domain.ChatReply{Success: true, ResponseText: "hi there"}

	if err := f.controller.SendText(context.Background(), "hello"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	f.chatLog.mu.Lock()
	defer f.chatLog.mu.Unlock()
	if len(f.chatLog.entries) != 2 {
		t.Fatalf("expected 2 logged entries, got %d", len(f.chatLog.entries))
	}
	if f.chatLog.users[0] != "ava" {
		t.Fatalf("unexpected logged user: %q", f.chatLog.users[0])
	}
}
