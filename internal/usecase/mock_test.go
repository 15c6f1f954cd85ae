package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"messaging-bridge/internal/domain"
	"messaging-bridge/internal/domain/model"
	"messaging-bridge/internal/domain/ports/adapter"
	"messaging-bridge/internal/domain/ports/repository"
	"messaging-bridge/internal/infra/worker"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// --- In-memory user repository ---

var _ repository.PlatformUserRepository = (*MemUserRepo)(nil)

type MemUserRepo struct {
	mu      sync.Mutex
	rows    map[string]*model.PlatformUser
	calls   int
	FailErr error
}

func NewMemUserRepo() *MemUserRepo {
	return &MemUserRepo{rows: map[string]*model.PlatformUser{}}
}

func (r *MemUserRepo) Upsert(ctx context.Context, u *model.PlatformUser) (*model.PlatformUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.FailErr != nil {
		return nil, r.FailErr
	}
	existing, ok := r.rows[u.UserID]
	if !ok {
		cp := *u
		cp.Meta = copyMeta(u.Meta)
		r.rows[u.UserID] = &cp
		out := cp
		return &out, nil
	}
	if !model.IsPlaceholderName(u.DisplayName) {
		existing.DisplayName = u.DisplayName
	}
	if existing.Meta == nil {
		existing.Meta = map[string]string{}
	}
	for k, v := range u.Meta {
		existing.Meta[k] = v
	}
	existing.IsActive = true
	existing.UpdatedAt = time.Now().UTC()
	out := *existing
	out.Meta = copyMeta(existing.Meta)
	return &out, nil
}

func (r *MemUserRepo) FindByID(ctx context.Context, userID string) (*model.PlatformUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailErr != nil {
		return nil, r.FailErr
	}
	u, ok := r.rows[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *MemUserRepo) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *MemUserRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func copyMeta(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// --- In-memory message log ---

var _ repository.MessageLogRepository = (*MemMessageLogRepo)(nil)

type MemMessageLogRepo struct {
	mu      sync.Mutex
	rows    []*model.MessageLogEntry
	seq     int64
	clock   time.Time
	calls   int
	FailErr error
}

func NewMemMessageLogRepo() *MemMessageLogRepo {
	return &MemMessageLogRepo{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *MemMessageLogRepo) Append(ctx context.Context, e *model.MessageLogEntry) (*model.MessageLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.FailErr != nil {
		return nil, r.FailErr
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	r.seq++
	r.clock = r.clock.Add(time.Second)
	cp := *e
	cp.ID = r.seq
	cp.CreatedAt = r.clock
	r.rows = append(r.rows, &cp)
	out := cp
	return &out, nil
}

func (r *MemMessageLogRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.MessageLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailErr != nil {
		return nil, r.FailErr
	}
	if limit <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	var out []*model.MessageLogEntry
	for _, e := range r.rows {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemMessageLogRepo) Entries(userID string) []*model.MessageLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.MessageLogEntry
	for _, e := range r.rows {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

func (r *MemMessageLogRepo) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// --- Platform gateway fakes ---

var _ adapter.PlatformGateway = (*MockGateway)(nil)

type MockGateway struct {
	PlatformName model.Platform
	LoginFunc    func(ctx context.Context, token string, onInbound adapter.InboundHandler) (adapter.PlatformConnection, error)

	mu        sync.Mutex
	onInbound adapter.InboundHandler
	logins    int
}

func (g *MockGateway) Platform() model.Platform { return g.PlatformName }

func (g *MockGateway) Login(ctx context.Context, token string, onInbound adapter.InboundHandler) (adapter.PlatformConnection, error) {
	g.mu.Lock()
	g.logins++
	g.onInbound = onInbound
	g.mu.Unlock()
	return g.LoginFunc(ctx, token, onInbound)
}

func (g *MockGateway) Logins() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.logins
}

// Deliver simulates a direct message arriving on the live connection.
func (g *MockGateway) Deliver(msg adapter.InboundMessage) {
	g.mu.Lock()
	h := g.onInbound
	g.mu.Unlock()
	h(msg)
}

var _ adapter.PlatformConnection = (*MockConnection)(nil)

type MockConnection struct {
	Bot           model.BotIdentity
	IsReady       bool
	KnownUsers    map[string]bool
	Profiles      map[string]*adapter.Recipient
	ResolveErr    error
	SendErr       error
	NextMessageID string
	ClosedTimes   int
	Sent          []string
	mu            sync.Mutex
}

func (c *MockConnection) Identity() model.BotIdentity { return c.Bot }
func (c *MockConnection) Ready() bool                 { return c.IsReady }

func (c *MockConnection) ResolveUser(ctx context.Context, userID string) (*adapter.Recipient, error) {
	if c.ResolveErr != nil {
		return nil, c.ResolveErr
	}
	if !c.KnownUsers[userID] {
		return nil, adapter.ErrRecipientUnknown
	}
	if p, ok := c.Profiles[userID]; ok {
		return p, nil
	}
	return &adapter.Recipient{ID: userID}, nil
}

func (c *MockConnection) SendDirectMessage(ctx context.Context, to *adapter.Recipient, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return "", c.SendErr
	}
	c.Sent = append(c.Sent, to.ID+":"+text)
	return c.NextMessageID, nil
}

func (c *MockConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ClosedTimes++
	return nil
}

// --- Inbound queue ---

// syncQueue runs tasks inline so tests can observe their effects.
type syncQueue struct {
	submitted int
	full      bool
}

func (q *syncQueue) Submit(task worker.Task) error {
	if q.full {
		return worker.ErrQueueFull
	}
	q.submitted++
	return task(context.Background())
}
