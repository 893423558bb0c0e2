// Package session tracks conversion sessions. A session owns the
// converted Excalidraw bytes until they are downloaded or the session
// ages out.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gliffy-migrator/backend/internal/convert"
	"github.com/gliffy-migrator/backend/internal/models"
)

// MaxSessions limits concurrent sessions to bound memory held by
// conversion outputs.
const MaxSessions = 50

// SessionMaxAge is how long to keep completed sessions before cleanup.
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow is how long recently accessed sessions are
// protected from cleanup.
const SessionKeepAliveWindow = 5 * time.Minute

// sessionState holds session metadata plus the converted document.
type sessionState struct {
	session      *models.ConvertSession
	output       []byte
	lastAccessed time.Time
}

// Manager runs conversions in the background and serves their results.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*sessionState
	converter *convert.Converter
}

// NewManager creates a session manager converting with opts.
func NewManager(opts convert.Options) *Manager {
	return &Manager{
		sessions:  make(map[string]*sessionState),
		converter: convert.NewConverter(opts),
	}
}

// StartSession begins converting raw Gliffy bytes in the background and
// returns the pending session.
func (m *Manager) StartSession(fileID, fileName string, raw []byte) *models.ConvertSession {
	m.evictIfFull()

	sessionID := uuid.New().String()
	sess := models.NewConvertSession(sessionID, fileID)
	sess.FileName = fileName
	sess.Status = models.SessionStatusConverting
	sess.StartTime = time.Now().UnixMilli()

	m.mu.Lock()
	m.sessions[sessionID] = &sessionState{session: sess, lastAccessed: time.Now()}
	m.mu.Unlock()

	go m.runConvert(sessionID, raw)

	return sess
}

func (m *Manager) runConvert(sessionID string, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			m.fail(sessionID, fmt.Sprintf("conversion panicked: %v", r))
		}
	}()

	out, result, err := m.converter.Convert(raw)
	if err != nil {
		m.fail(sessionID, err.Error())
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	state.output = out
	state.session.Status = models.SessionStatusComplete
	state.session.Result = result
	state.session.EndTime = time.Now().UnixMilli()
}

func (m *Manager) fail(sessionID, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	state.session.Status = models.SessionStatusError
	state.session.Error = reason
	state.session.EndTime = time.Now().UnixMilli()
}

// GetSession returns session metadata by ID.
func (m *Manager) GetSession(id string) (*models.ConvertSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return state.session, true
}

// GetOutput returns the converted document for a completed session.
func (m *Manager) GetOutput(id string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok || state.session.Status != models.SessionStatusComplete {
		return nil, false
	}
	return state.output, true
}

// TouchSession refreshes a session's keep-alive window. Called by
// status polls and downloads.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.lastAccessed = time.Now()
	return true
}

// evictIfFull drops finished sessions when at capacity so a new one can
// start.
func (m *Manager) evictIfFull() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < MaxSessions {
		return
	}

	toFree := len(m.sessions) - MaxSessions + 1
	for id, state := range m.sessions {
		if toFree == 0 {
			break
		}
		if state.session.Status == models.SessionStatusComplete ||
			state.session.Status == models.SessionStatusError {
			delete(m.sessions, id)
			toFree--
		}
	}
}

// CleanupOldSessions removes finished sessions older than maxAge,
// sparing any accessed within the keep-alive window.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	keepAliveCutoff := time.Now().Add(-SessionKeepAliveWindow)

	for id, state := range m.sessions {
		if state.session.Status != models.SessionStatusComplete &&
			state.session.Status != models.SessionStatusError {
			continue
		}
		if state.lastAccessed.After(keepAliveCutoff) {
			continue
		}
		if state.lastAccessed.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
