package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/jisjis-ai/telbotfun/internal/config"
	"github.com/jisjis-ai/telbotfun/internal/domain"
	"github.com/jisjis-ai/telbotfun/internal/ledger"
	"github.com/jisjis-ai/telbotfun/internal/session"
	"github.com/jisjis-ai/telbotfun/internal/store"
)

const testAdminID = int64(9999)

type fakeBot struct {
	mu          sync.Mutex
	startedWith context.Context

	sent   []bot.SendMessageParams
	photos []bot.SendPhotoParams

	memberType  models.ChatMemberType
	memberErr   error
	memberCount int
	chat        *models.ChatFullInfo
	chatErr     error
}

func newFakeBot() *fakeBot {
	return &fakeBot{memberType: models.ChatMemberTypeMember, memberCount: 25}
}

func (f *fakeBot) Start(ctx context.Context) { f.startedWith = ctx }

func (f *fakeBot) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, *params)
	return &models.Message{}, nil
}

func (f *fakeBot) SendPhoto(_ context.Context, params *bot.SendPhotoParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, *params)
	return &models.Message{}, nil
}

func (f *fakeBot) SendVideo(context.Context, *bot.SendVideoParams) (*models.Message, error) {
	return &models.Message{}, nil
}

func (f *fakeBot) SendDocument(context.Context, *bot.SendDocumentParams) (*models.Message, error) {
	return &models.Message{}, nil
}

func (f *fakeBot) AnswerCallbackQuery(context.Context, *bot.AnswerCallbackQueryParams) (bool, error) {
	return true, nil
}

func (f *fakeBot) GetMe(context.Context) (*models.User, error) {
	return &models.User{ID: 42, Username: "signals_test_bot"}, nil
}

func (f *fakeBot) GetChat(context.Context, *bot.GetChatParams) (*models.ChatFullInfo, error) {
	return f.chat, f.chatErr
}

func (f *fakeBot) GetChatMember(context.Context, *bot.GetChatMemberParams) (*models.ChatMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.memberErr != nil {
		return nil, f.memberErr
	}
	return &models.ChatMember{Type: f.memberType}, nil
}

func (f *fakeBot) GetChatMemberCount(context.Context, *bot.GetChatMemberCountParams) (int, error) {
	return f.memberCount, nil
}

func (f *fakeBot) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	texts := make([]string, 0, len(f.sent))
	for _, p := range f.sent {
		texts = append(texts, p.Text)
	}
	return texts
}

func (f *fakeBot) lastText(t *testing.T) string {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("no message was sent")
	}
	return f.sent[len(f.sent)-1].Text
}

func newTestClient(t *testing.T) (*Client, *fakeBot, *store.Memory) {
	t.Helper()

	origCreateBot := createBot
	t.Cleanup(func() { createBot = origCreateBot })

	fake := newFakeBot()
	createBot = func(string, ...bot.Option) (botAPI, error) {
		return fake, nil
	}

	cfg := config.Config{
		TelegramToken:     "token-123",
		AdminID:           testAdminID,
		ChannelID:         -100200300,
		ChannelLink:       "https://t.me/signals_channel",
		RegisterURL:       "https://example.com/register",
		DepositURL:        "https://example.com/deposit",
		Timezone:          time.UTC,
		SignupBonus:       20,
		InviteBonus:       4,
		ChannelMinMembers: 20,
	}

	mem := store.NewMemory()
	lg := ledger.New(mem, cfg.SignupBonus, cfg.InviteBonus, nil)
	onboarding := session.NewOnboarding(mem, lg, nil)

	hookLogger, _ := logtest.NewNullLogger()
	client, err := NewClient(cfg, mem, lg, onboarding, session.NewManager(), logrus.NewEntry(hookLogger))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	return client, fake, mem
}

func privateMessage(userID int64, text string) *models.Message {
	return &models.Message{
		From: &models.User{ID: userID, FirstName: "Ana", Username: "ana"},
		Chat: models.Chat{ID: userID, Type: models.ChatTypePrivate},
		Text: text,
	}
}

func photoMessage(userID int64) *models.Message {
	msg := privateMessage(userID, "")
	msg.Photo = []models.PhotoSize{{FileID: "thumb"}, {FileID: "full"}}
	return msg
}

func callback(userID int64, data string) *models.CallbackQuery {
	return &models.CallbackQuery{
		ID:   "cb-1",
		From: models.User{ID: userID, FirstName: "Ana"},
		Data: data,
		Message: models.MaybeInaccessibleMessage{
			Type:    models.MaybeInaccessibleMessageTypeMessage,
			Message: &models.Message{ID: 7, Chat: models.Chat{ID: userID}},
		},
	}
}

func TestNewClientCreatesBot(t *testing.T) {
	origCreateBot := createBot
	defer func() { createBot = origCreateBot }()

	var gotToken string
	var gotOptions []bot.Option
	fake := newFakeBot()

	createBot = func(token string, options ...bot.Option) (botAPI, error) {
		gotToken = token
		gotOptions = options
		return fake, nil
	}

	mem := store.NewMemory()
	lg := ledger.New(mem, 20, 4, nil)
	client, err := NewClient(config.Config{TelegramToken: "token-123"}, mem, lg, session.NewOnboarding(mem, lg, nil), nil, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	if client == nil || client.bot == nil {
		t.Fatal("expected client and bot to be initialized")
	}
	if gotToken != "token-123" {
		t.Fatalf("expected token %q, got %q", "token-123", gotToken)
	}
	if len(gotOptions) != 3 {
		t.Fatalf("expected 3 bot options (allowed updates, default handler, error handler), got %d", len(gotOptions))
	}
}

func TestNewClientPropagatesBotError(t *testing.T) {
	origCreateBot := createBot
	defer func() { createBot = origCreateBot }()

	expected := errors.New("boom")
	createBot = func(string, ...bot.Option) (botAPI, error) {
		return nil, expected
	}

	mem := store.NewMemory()
	lg := ledger.New(mem, 20, 4, nil)
	_, err := NewClient(config.Config{TelegramToken: "token"}, mem, lg, session.NewOnboarding(mem, lg, nil), nil, nil)
	if !errors.Is(err, expected) {
		t.Fatalf("expected error %v, got %v", expected, err)
	}
}

func TestOnboardingFlowCreatesUserAndCreditsInviter(t *testing.T) {
	ctx := context.Background()
	client, fake, mem := newTestClient(t)

	inviter := domain.User{UserID: 2002, Username: "carol", Status: domain.StatusActive}
	if err := mem.UpsertUser(ctx, inviter); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}

	client.handleMessage(ctx, privateMessage(1001, "/start 2002"))

	sess := client.sessions.Get(1001)
	if sess == nil || sess.Step != session.StepAccountProof {
		t.Fatalf("session = %+v", sess)
	}
	if sess.InvitedBy != 2002 {
		t.Fatalf("referral not captured: %d", sess.InvitedBy)
	}
	if !strings.Contains(fake.lastText(t), "conta") {
		t.Fatalf("expected account prompt, got %q", fake.lastText(t))
	}

	// A plain text message does not pass the proof gate.
	client.handleMessage(ctx, privateMessage(1001, "aqui está"))
	if client.sessions.Get(1001).Step != session.StepAccountProof {
		t.Fatal("text advanced the proof step")
	}

	client.handleMessage(ctx, photoMessage(1001))
	if client.sessions.Get(1001).Step != session.StepDepositProof {
		t.Fatal("photo did not advance to deposit proof")
	}

	client.handleMessage(ctx, photoMessage(1001))
	if client.sessions.Get(1001).Step != session.StepShareAck {
		t.Fatal("photo did not advance to share step")
	}

	client.handleMessage(ctx, privateMessage(1001, "compartilhei"))
	if client.sessions.Get(1001) != nil {
		t.Fatal("session not cleared after completion")
	}

	user, err := mem.GetUser(ctx, 1001)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user.Credits != 20 {
		t.Fatalf("signup balance = %d, want 20", user.Credits)
	}

	got, err := mem.GetUser(ctx, 2002)
	if err != nil {
		t.Fatalf("GetUser inviter: %v", err)
	}
	if got.Credits != 4 || len(got.Invites) != 1 || got.Invites[0].InvitedID != 1001 {
		t.Fatalf("inviter not credited: %+v", got)
	}
}

func TestMembershipGateBlocksNonMembers(t *testing.T) {
	origRecheck := membershipRecheck
	membershipRecheck = 10 * time.Millisecond
	defer func() { membershipRecheck = origRecheck }()

	ctx := context.Background()
	client, fake, _ := newTestClient(t)
	fake.memberType = models.ChatMemberTypeLeft

	client.handleMessage(ctx, privateMessage(1001, "/start"))

	if client.sessions.Get(1001) != nil {
		t.Fatal("non-member got a session")
	}
	if !strings.Contains(fake.lastText(t), "canal") {
		t.Fatalf("expected join prompt, got %q", fake.lastText(t))
	}

	// The user joins before the delayed recheck fires.
	fake.mu.Lock()
	fake.memberType = models.ChatMemberTypeMember
	before := len(fake.sent)
	fake.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	for {
		fake.mu.Lock()
		n := len(fake.sent)
		fake.mu.Unlock()
		if n > before {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("recheck never delivered the welcome")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestGatedReferralCreditsInviter(t *testing.T) {
	ctx := context.Background()
	client, fake, mem := newTestClient(t)

	inviter := domain.User{UserID: 2002, Username: "carol", Status: domain.StatusActive}
	if err := mem.UpsertUser(ctx, inviter); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}

	// The referred user is not a channel member yet, so the /start payload
	// arrives before the gate lets them through.
	fake.memberType = models.ChatMemberTypeLeft
	client.handleMessage(ctx, privateMessage(1001, "/start 2002"))
	if client.sessions.Get(1001) != nil {
		t.Fatal("non-member got a session")
	}

	fake.mu.Lock()
	fake.memberType = models.ChatMemberTypeMember
	fake.mu.Unlock()

	client.handleCallback(ctx, callback(1001, cbCheckMembership))

	sess := client.sessions.Get(1001)
	if sess == nil || sess.Step != session.StepAccountProof {
		t.Fatalf("expected onboarding after gate recovery, session = %+v", sess)
	}
	if sess.InvitedBy != 2002 {
		t.Fatalf("referral lost across the gate: InvitedBy = %d", sess.InvitedBy)
	}

	client.handleMessage(ctx, photoMessage(1001))
	client.handleMessage(ctx, photoMessage(1001))
	client.handleMessage(ctx, privateMessage(1001, "compartilhei"))

	got, err := mem.GetUser(ctx, 2002)
	if err != nil {
		t.Fatalf("GetUser inviter: %v", err)
	}
	if got.Credits != 4 || len(got.Invites) != 1 || got.Invites[0].InvitedID != 1001 {
		t.Fatalf("inviter not credited after gated referral: %+v", got)
	}
}

func TestMembershipRecheckOnboardsNewUser(t *testing.T) {
	origRecheck := membershipRecheck
	membershipRecheck = 10 * time.Millisecond
	defer func() { membershipRecheck = origRecheck }()

	ctx := context.Background()
	client, fake, _ := newTestClient(t)
	fake.memberType = models.ChatMemberTypeLeft

	client.handleMessage(ctx, privateMessage(1001, "/start 2002"))

	// The user joins before the delayed recheck fires.
	fake.mu.Lock()
	fake.memberType = models.ChatMemberTypeMember
	fake.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	for !strings.Contains(fake.lastText(t), "conta") {
		if time.Now().After(deadline) {
			t.Fatalf("recheck never started onboarding, last = %q", fake.lastText(t))
		}
		time.Sleep(5 * time.Millisecond)
	}

	sess := client.sessions.Get(1001)
	if sess == nil || sess.Step != session.StepAccountProof {
		t.Fatalf("recheck session = %+v", sess)
	}
	if sess.InvitedBy != 2002 {
		t.Fatalf("referral lost across the recheck: InvitedBy = %d", sess.InvitedBy)
	}
	if !strings.Contains(fake.lastText(t), "conta") {
		t.Fatalf("expected account prompt, got %q", fake.lastText(t))
	}
}

func TestMembershipRecheckShowsBalanceToExistingUser(t *testing.T) {
	origRecheck := membershipRecheck
	membershipRecheck = 10 * time.Millisecond
	defer func() { membershipRecheck = origRecheck }()

	ctx := context.Background()
	client, fake, mem := newTestClient(t)
	user := domain.User{UserID: 1001, Username: "ana", Credits: 7, Status: domain.StatusActive}
	if err := mem.UpsertUser(ctx, user); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}

	fake.memberType = models.ChatMemberTypeLeft
	client.handleMessage(ctx, privateMessage(1001, "oi"))

	fake.mu.Lock()
	fake.memberType = models.ChatMemberTypeMember
	fake.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	for !strings.Contains(fake.lastText(t), "créditos: 7") {
		if time.Now().After(deadline) {
			t.Fatalf("recheck never showed the balance, last = %q", fake.lastText(t))
		}
		time.Sleep(5 * time.Millisecond)
	}
	if client.sessions.Get(1001) != nil {
		t.Fatal("existing user got an onboarding session")
	}
}

func TestCheckMembershipCallbackStartsOnboarding(t *testing.T) {
	ctx := context.Background()
	client, fake, _ := newTestClient(t)

	client.handleCallback(ctx, callback(1001, cbCheckMembership))

	sess := client.sessions.Get(1001)
	if sess == nil || sess.Step != session.StepAccountProof {
		t.Fatalf("expected onboarding to start, session = %+v", sess)
	}
	if !strings.Contains(fake.lastText(t), "conta") {
		t.Fatalf("got %q", fake.lastText(t))
	}
}

func TestGenerateMinesDebitsAndRespectsWindow(t *testing.T) {
	ctx := context.Background()
	client, fake, mem := newTestClient(t)

	user := domain.User{UserID: 1001, Username: "ana", Credits: 1, Status: domain.StatusActive}
	if err := mem.UpsertUser(ctx, user); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if err := mem.SetOperationFlag(ctx, domain.GameMines, true); err != nil {
		t.Fatalf("SetOperationFlag: %v", err)
	}
	client.now = func() time.Time {
		return time.Date(2025, time.March, 10, 5, 0, 0, 0, time.UTC)
	}

	client.handleCallback(ctx, callback(1001, cbGenerateMines))
	if !strings.Contains(fake.lastText(t), "Minas") {
		t.Fatalf("expected a mines signal, got %q", fake.lastText(t))
	}
	got, _ := mem.GetUser(ctx, 1001)
	if got.Credits != 0 {
		t.Fatalf("credit not debited: %d", got.Credits)
	}

	// Out of credits now.
	client.handleCallback(ctx, callback(1001, cbGenerateMines))
	if !strings.Contains(fake.lastText(t), "créditos acabaram") {
		t.Fatalf("expected no-credits notice, got %q", fake.lastText(t))
	}
	got, _ = mem.GetUser(ctx, 1001)
	if got.Credits != 0 {
		t.Fatalf("balance went negative: %d", got.Credits)
	}

	// Outside the mines window nothing is debited.
	client.now = func() time.Time {
		return time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)
	}
	mem.UpsertUser(ctx, domain.User{UserID: 1001, Username: "ana", Credits: 5, Status: domain.StatusActive})

	client.handleCallback(ctx, callback(1001, cbGenerateMines))
	if !strings.Contains(fake.lastText(t), "00h às 12h") {
		t.Fatalf("expected window notice, got %q", fake.lastText(t))
	}
	got, _ = mem.GetUser(ctx, 1001)
	if got.Credits != 5 {
		t.Fatalf("debit happened outside the window: %d", got.Credits)
	}
}

func TestSignalGateErrors(t *testing.T) {
	ctx := context.Background()
	client, _, mem := newTestClient(t)

	if err := mem.SetOperationFlag(ctx, domain.GameMines, true); err != nil {
		t.Fatalf("SetOperationFlag: %v", err)
	}
	insideWindow := func() time.Time {
		return time.Date(2025, time.March, 10, 5, 0, 0, 0, time.UTC)
	}
	client.now = insideWindow

	// Nobody with that id exists, so the debit is refused.
	if err := client.signalGate(ctx, 1001, domain.GameMines); !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("gate error = %v, want ErrInsufficientCredits", err)
	}

	user := domain.User{UserID: 1001, Username: "ana", Credits: 0, Status: domain.StatusActive}
	if err := mem.UpsertUser(ctx, user); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if err := client.signalGate(ctx, 1001, domain.GameMines); !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("gate error at zero balance = %v, want ErrInsufficientCredits", err)
	}

	client.now = func() time.Time {
		return time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)
	}
	if err := client.signalGate(ctx, 1001, domain.GameMines); !errors.Is(err, domain.ErrOutsideOperatingWindow) {
		t.Fatalf("gate error outside window = %v, want ErrOutsideOperatingWindow", err)
	}

	// Window open but the stored flag is off.
	client.now = insideWindow
	if err := mem.SetOperationFlag(ctx, domain.GameMines, false); err != nil {
		t.Fatalf("SetOperationFlag: %v", err)
	}
	if err := client.signalGate(ctx, 1001, domain.GameMines); !errors.Is(err, domain.ErrOutsideOperatingWindow) {
		t.Fatalf("gate error with flag off = %v, want ErrOutsideOperatingWindow", err)
	}
}

func TestRedeemGiftCodeConversation(t *testing.T) {
	ctx := context.Background()
	client, fake, mem := newTestClient(t)

	user := domain.User{UserID: 1001, Username: "ana", Credits: 20, Status: domain.StatusActive}
	if err := mem.UpsertUser(ctx, user); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	code, err := mem.CreateGiftCode(ctx, 50, "admin")
	if err != nil {
		t.Fatalf("CreateGiftCode: %v", err)
	}

	client.handleCallback(ctx, callback(1001, cbRedeemGift))
	if sess := client.sessions.Get(1001); sess == nil || sess.Step != session.StepGiftCodeEntry {
		t.Fatalf("session = %+v", sess)
	}

	// Codes are matched case-insensitively.
	client.handleMessage(ctx, privateMessage(1001, strings.ToLower(code)))

	if !strings.Contains(fake.lastText(t), "resgatado") {
		t.Fatalf("got %q", fake.lastText(t))
	}
	got, _ := mem.GetUser(ctx, 1001)
	if got.Credits != 70 {
		t.Fatalf("balance = %d, want 70", got.Credits)
	}
	if client.sessions.Get(1001) != nil {
		t.Fatal("session not cleared after redemption")
	}
}

func TestAdminCreatesGiftCode(t *testing.T) {
	ctx := context.Background()
	client, fake, mem := newTestClient(t)

	client.handleCallback(ctx, callback(testAdminID, cbCreateGift))
	client.handleMessage(ctx, privateMessage(testAdminID, "/admin")) // command interrupts nothing
	client.handleMessage(ctx, privateMessage(testAdminID, "abc"))
	if !strings.Contains(fake.lastText(t), "inválido") {
		t.Fatalf("bad value accepted: %q", fake.lastText(t))
	}

	client.handleMessage(ctx, privateMessage(testAdminID, "75"))
	last := fake.lastText(t)
	if !strings.Contains(last, "Gift card criado") || !strings.Contains(last, "75") {
		t.Fatalf("got %q", last)
	}
	if client.sessions.Get(testAdminID) != nil {
		t.Fatal("value session not cleared")
	}

	// The announced code is stored and redeemable.
	start := strings.Index(last, "<code>") + len("<code>")
	end := strings.Index(last, "</code>")
	if start < 0 || end <= start {
		t.Fatalf("no code in %q", last)
	}
	gift, err := mem.GetGiftCode(ctx, last[start:end])
	if err != nil {
		t.Fatalf("GetGiftCode: %v", err)
	}
	if gift.Credits != 75 || gift.CreatedBy != "9999" {
		t.Fatalf("stored gift = %+v", gift)
	}
}

func TestAdminBroadcastToUsers(t *testing.T) {
	ctx := context.Background()
	client, fake, mem := newTestClient(t)

	for _, id := range []int64{1001, 1002} {
		if err := mem.UpsertUser(ctx, domain.User{UserID: id, Status: domain.StatusActive}); err != nil {
			t.Fatalf("UpsertUser: %v", err)
		}
	}

	client.handleCallback(ctx, callback(testAdminID, cbBroadcastUsers))
	client.handleMessage(ctx, privateMessage(testAdminID, "Promoção de hoje!"))
	client.handleCallback(ctx, callback(testAdminID, session.CallbackNoButton))
	client.handleCallback(ctx, callback(testAdminID, session.CallbackConfirmSend))

	var delivered int
	fake.mu.Lock()
	for _, p := range fake.sent {
		if p.Text == "Promoção de hoje!" {
			if id, ok := p.ChatID.(int64); ok && (id == 1001 || id == 1002) {
				delivered++
			}
		}
	}
	fake.mu.Unlock()
	if delivered != 2 {
		t.Fatalf("delivered = %d, want one per registered user", delivered)
	}

	if !strings.Contains(fake.lastText(t), "Entregues: 2") {
		t.Fatalf("missing tally: %q", fake.lastText(t))
	}
	if client.sessions.Get(testAdminID) != nil {
		t.Fatal("composer session not cleared")
	}
}

func TestBroadcastSignalReachesActiveChannels(t *testing.T) {
	ctx := context.Background()
	client, fake, mem := newTestClient(t)

	channels := []domain.Channel{
		{ChatID: -2001, Title: "ativo", Status: domain.ChannelActive},
		{ChatID: -2002, Title: "pendente", Status: domain.ChannelPending},
	}
	for _, ch := range channels {
		if err := mem.AddChannel(ctx, ch); err != nil {
			t.Fatalf("AddChannel: %v", err)
		}
	}

	if err := client.BroadcastSignal(ctx, domain.GameMines, "sinal"); err != nil {
		t.Fatalf("BroadcastSignal: %v", err)
	}

	texts := fake.sentTexts()
	if len(texts) != 2 {
		t.Fatalf("%d deliveries, want primary plus one active channel", len(texts))
	}
}

func TestParseStartPayload(t *testing.T) {
	cases := []struct {
		text string
		want int64
	}{
		{"/start 2002", 2002},
		{"/start", 0},
		{"/start abc", 0},
		{"/start -5", 0},
		{"hello", 0},
	}

	for _, tc := range cases {
		if got := parseStartPayload(tc.text); got != tc.want {
			t.Errorf("parseStartPayload(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestChannelUsername(t *testing.T) {
	cases := []struct {
		link string
		want string
	}{
		{"https://t.me/mychannel", "mychannel"},
		{"t.me/mychannel", "mychannel"},
		{"https://t.me/@mychannel", "mychannel"},
		{"https://t.me/mychannel?start=1", "mychannel"},
		{"https://t.me/+AbCdEf", ""},
		{"https://example.com/mychannel", ""},
	}

	for _, tc := range cases {
		if got := channelUsername(tc.link); got != tc.want {
			t.Errorf("channelUsername(%q) = %q, want %q", tc.link, got, tc.want)
		}
	}
}

func TestClientStartUsesContext(t *testing.T) {
	hookLogger, _ := logtest.NewNullLogger()
	fake := newFakeBot()
	client := &Client{bot: fake, logger: logrus.NewEntry(hookLogger)}

	ctx := context.Background()
	client.Start(ctx)

	if fake.startedWith != ctx {
		t.Fatal("bot started with a different context")
	}
}
