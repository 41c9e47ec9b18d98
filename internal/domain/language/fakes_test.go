package language

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"tolk-server-go/internal/domain/provider"
	"tolk-server-go/internal/platform/errors"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[string]Setting
}

func newMemRepo(settings ...Setting) *memRepo {
	r := &memRepo{rows: make(map[string]Setting)}
	for _, s := range settings {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		r.rows[s.Code] = s
	}
	return r
}

func (r *memRepo) FindByCode(_ context.Context, code string) (*Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[code]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *memRepo) sorted(filter func(Setting) bool) []*Setting {
	out := make([]*Setting, 0, len(r.rows))
	for _, s := range r.rows {
		if filter(s) {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (r *memRepo) List(context.Context) ([]*Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(Setting) bool { return true }), nil
}

func (r *memRepo) ListEnabled(context.Context) ([]*Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(s Setting) bool { return s.Enabled }), nil
}

func (r *memRepo) Create(_ context.Context, s *Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[s.Code]; ok {
		return errors.New(errors.KindStorage, "test.create", "duplicate code")
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	r.rows[s.Code] = *s
	return nil
}

func (r *memRepo) Update(_ context.Context, s *Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[s.Code] = *s
	return nil
}

func (r *memRepo) ApplyPatches(_ context.Context, patches []SettingPatch) ([]*Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Setting, 0, len(patches))
	for _, p := range patches {
		s, ok := r.rows[p.Code]
		if !ok {
			s = Setting{ID: uuid.NewString(), Code: p.Code}
		}
		p.Apply(&s)
		r.rows[p.Code] = s
		copied := s
		out = append(out, &copied)
	}
	return out, nil
}

type mockLister struct {
	mock.Mock
}

func (m *mockLister) ListVoices(ctx context.Context) ([]provider.Voice, error) {
	args := m.Called(ctx)
	voices, _ := args.Get(0).([]provider.Voice)
	return voices, args.Error(1)
}

type fakeSessions map[string][2]string

func (f fakeSessions) SessionLanguages(_ context.Context, id string) (string, string, error) {
	pair, ok := f[id]
	if !ok {
		return "", "", errors.SessionNotFound("test.session_languages", id)
	}
	return pair[0], pair[1], nil
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
