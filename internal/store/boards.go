package store

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/naveenspark/taskboard/pkg/domain"
)

// BoardState is the cached board list and the board currently open.
type BoardState struct {
	Boards         []domain.Board `json:"boards"`
	CurrentBoardID string         `json:"current_board_id"`
}

// BoardStore holds the board collection. Safe for concurrent use.
type BoardStore struct {
	mu      sync.Mutex
	state   BoardState
	version uint64
	persist *Persister
	log     logrus.FieldLogger
}

// NewBoardStore creates an empty store. persist may be nil.
func NewBoardStore(persist *Persister, log logrus.FieldLogger) *BoardStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BoardStore{persist: persist, log: log}
}

// Load rehydrates from the persisted blob, if any.
func (s *BoardStore) Load() {
	if s.persist == nil {
		return
	}
	var st BoardState
	if !s.persist.Load(NamespaceBoards, &st) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = copyBoards(st)
	s.version++
}

// Snapshot returns a copy of the state and its version.
func (s *BoardStore) Snapshot() (BoardState, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyBoards(s.state), s.version
}

// Boards returns a copy of the board list.
func (s *BoardStore) Boards() []domain.Board {
	st, _ := s.Snapshot()
	return st.Boards
}

// SetBoards replaces the whole collection.
func (s *BoardStore) SetBoards(boards []domain.Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state
	next.Boards = boards
	s.replaceLocked(next)
}

// SetCurrentBoardID records the board being viewed.
func (s *BoardStore) SetCurrentBoardID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state
	next.CurrentBoardID = id
	s.replaceLocked(next)
}

// ClearCurrentBoard forgets the board being viewed.
func (s *BoardStore) ClearCurrentBoard() {
	s.SetCurrentBoardID("")
}

// Clear drops everything.
func (s *BoardStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(BoardState{})
}

// GetBoardByID finds a board in the cached collection.
func (s *BoardStore) GetBoardByID(id string) (domain.Board, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.state.Boards {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Board{}, false
}

// CompareAndSet replaces the state only if it is still at version.
func (s *BoardStore) CompareAndSet(version uint64, next BoardState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return false
	}
	s.replaceLocked(next)
	return true
}

func (s *BoardStore) replaceLocked(next BoardState) {
	s.state = copyBoards(next)
	s.version++
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(NamespaceBoards, s.state); err != nil {
		s.log.WithError(err).Error("persist board state")
	}
}

func copyBoards(st BoardState) BoardState {
	if st.Boards != nil {
		st.Boards = append([]domain.Board(nil), st.Boards...)
	}
	return st
}
