package common

import (
	"encoding/json"
	"net/http"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// SessionName is the cookie holding the console's per-browser view state.
const SessionName = "taxonomy"

const (
	keySID       = "sid"
	keyFilter    = "filter"
	keyCollapsed = "collapsed"
)

// ViewState is what the console remembers per browser between requests.
type ViewState struct {
	// SID identifies the browser for load generations
	SID    string
	Filter core.FilterSpec
	// Collapsed holds the uids of tree nodes the user closed; everything
	// else is expanded
	Collapsed map[string]bool
}

func newViewState() ViewState {
	return ViewState{
		SID:       uuid.NewString(),
		Filter:    core.DefaultFilterSpec(),
		Collapsed: map[string]bool{},
	}
}

func (vs ViewState) clone() ViewState {
	collapsed := make(map[string]bool, len(vs.Collapsed))
	for k, v := range vs.Collapsed {
		collapsed[k] = v
	}
	vs.Collapsed = collapsed
	return vs
}

// Sessions persists view state in a cookie session and mirrors the latest
// state of every browser in memory, so long-lived SSE streams render with
// the filter chosen after they were opened.
type Sessions struct {
	store sessions.Store

	mu   sync.RWMutex
	live map[string]ViewState
}

// NewSessions wraps a gorilla session store.
func NewSessions(store sessions.Store) *Sessions {
	return &Sessions{store: store, live: make(map[string]ViewState)}
}

// Load reads the view state of the request. A missing, expired or tampered
// cookie yields the defaults and a fresh SID.
func (s *Sessions) Load(r *http.Request) (ViewState, *sessions.Session) {
	// Get returns a new session alongside a decode error
	sess, _ := s.store.Get(r, SessionName)

	vs := newViewState()
	if sid, ok := sess.Values[keySID].(string); ok && sid != "" {
		vs.SID = sid
	}
	if live, ok := s.lookup(vs.SID); ok {
		return live, sess
	}
	if raw, ok := sess.Values[keyFilter].(string); ok {
		var spec core.FilterSpec
		if json.Unmarshal([]byte(raw), &spec) == nil && spec.Validate() == nil {
			vs.Filter = spec.Normalize()
		}
	}
	if raw, ok := sess.Values[keyCollapsed].(string); ok {
		var uids []string
		if json.Unmarshal([]byte(raw), &uids) == nil {
			for _, uid := range uids {
				vs.Collapsed[uid] = true
			}
		}
	}
	return vs, sess
}

// Save writes vs back to the session cookie. It must run before any SSE
// output because it sets a header.
func (s *Sessions) Save(w http.ResponseWriter, r *http.Request, sess *sessions.Session, vs ViewState) error {
	filter, err := json.Marshal(vs.Filter.Normalize())
	if err != nil {
		return err
	}
	uids := make([]string, 0, len(vs.Collapsed))
	for uid, closed := range vs.Collapsed {
		if closed {
			uids = append(uids, uid)
		}
	}
	slices.Sort(uids)
	collapsed, err := json.Marshal(uids)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.live[vs.SID] = vs.clone()
	s.mu.Unlock()

	sess.Values[keySID] = vs.SID
	sess.Values[keyFilter] = string(filter)
	sess.Values[keyCollapsed] = string(collapsed)
	return sess.Save(r, w)
}

// Current returns the latest saved state of sid, or fallback when none
// was saved in this process.
func (s *Sessions) Current(sid string, fallback ViewState) ViewState {
	if vs, ok := s.lookup(sid); ok {
		return vs
	}
	return fallback
}

func (s *Sessions) lookup(sid string) (ViewState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vs, ok := s.live[sid]
	if !ok {
		return ViewState{}, false
	}
	return vs.clone(), true
}

// NewSessionStore creates the cookie store used by the console.
func NewSessionStore(secret []byte) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
