package handler

import (
	"context"
	"errors"
	"sync"

	"attendance-bot/internal/geo"
	"attendance-bot/internal/models"
)

var (
	ErrForwardedLocation = errors.New("lokasi terusan tidak diterima")
	ErrSessionCancelled  = errors.New("presensi dibatalkan")
)

type sessionKind int

const (
	awaitingPresence sessionKind = iota + 1
	awaitingEvidence
	awaitingTarget
)

type locationResult struct {
	coord geo.Coordinate
	err   error
}

// session is the pending conversation step of one chat.
type session struct {
	kind     sessionKind
	status   models.AttendanceStatus
	student  models.User
	location chan locationResult
	cancel   context.CancelFunc
}

// deliver hands a location to the waiting provider. It never blocks: only the
// first location of a session counts.
func (s *session) deliver(coord geo.Coordinate, err error) bool {
	if s.location == nil {
		return false
	}
	select {
	case s.location <- locationResult{coord: coord, err: err}:
		return true
	default:
		return false
	}
}

// provider resolves once the chat shares a location, or fails when ctx ends.
func (s *session) provider() geo.PositionProvider {
	return geo.ProviderFunc(func(ctx context.Context) (geo.Coordinate, error) {
		select {
		case res := <-s.location:
			return res.coord, res.err
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return geo.Coordinate{}, ErrSessionCancelled
			}
			return geo.Coordinate{}, ctx.Err()
		}
	})
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[int64]*session)}
}

func (st *sessionStore) get(chatID int64) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[chatID]
	return s, ok
}

// start replaces any pending step of the chat, cancelling the old one.
func (st *sessionStore) start(chatID int64, s *session) {
	st.mu.Lock()
	old := st.sessions[chatID]
	st.sessions[chatID] = s
	st.mu.Unlock()

	if old != nil && old.cancel != nil {
		old.cancel()
	}
}

// finish removes s if it is still the chat's current session.
func (st *sessionStore) finish(chatID int64, s *session) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.sessions[chatID] == s {
		delete(st.sessions, chatID)
	}
}

// cancel drops the chat's pending step and reports whether there was one.
func (st *sessionStore) cancel(chatID int64) bool {
	st.mu.Lock()
	s, ok := st.sessions[chatID]
	delete(st.sessions, chatID)
	st.mu.Unlock()

	if ok && s.cancel != nil {
		s.cancel()
	}
	return ok
}
