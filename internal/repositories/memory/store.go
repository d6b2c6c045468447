// Package memory is an in-process implementation of repositories.Repository.
// It backs the test suites and the STORE_DRIVER=memory mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
)

// Store keeps every table in maps guarded by one lock. Transactions are
// serialized with every other write and roll back by restoring a snapshot
// taken when they began.
type Store struct {
	*tables

	// inTx marks the view handed to a transaction, which already holds txMu
	inTx bool
}

type tables struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	nextID map[string]uint

	students   map[uint]models.Student
	admins     map[uint]models.Admin
	sessions   map[uint]models.StudentSession
	videos     map[uint]models.Video
	freeVideos map[uint]models.FreeVideo
	exams      map[uint]models.Exam
	questions  map[uint]models.Question
	results    map[uint]models.Result

	// NowFunc stamps CreatedAt/UpdatedAt.
	NowFunc func() time.Time
}

func New() *Store {
	return &Store{tables: &tables{
		nextID:     make(map[string]uint),
		students:   make(map[uint]models.Student),
		admins:     make(map[uint]models.Admin),
		sessions:   make(map[uint]models.StudentSession),
		videos:     make(map[uint]models.Video),
		freeVideos: make(map[uint]models.FreeVideo),
		exams:      make(map[uint]models.Exam),
		questions:  make(map[uint]models.Question),
		results:    make(map[uint]models.Result),
		NowFunc:    time.Now,
	}}
}

var _ repositories.Repository = (*Store)(nil)

func (s *Store) Student() repositories.StudentRepository     { return studentRepo{s} }
func (s *Store) Admin() repositories.AdminRepository         { return adminRepo{s} }
func (s *Store) Session() repositories.SessionRepository     { return sessionRepo{s} }
func (s *Store) Video() repositories.VideoRepository         { return videoRepo{s} }
func (s *Store) FreeVideo() repositories.FreeVideoRepository { return freeVideoRepo{s} }
func (s *Store) Exam() repositories.ExamRepository           { return examRepo{s} }
func (s *Store) Question() repositories.QuestionRepository   { return questionRepo{s} }
func (s *Store) Result() repositories.ResultRepository       { return resultRepo{s} }

func (s *Store) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	if s.inTx {
		return fn(s)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(&Store{tables: s.tables, inTx: true}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close() error                   { return nil }

// lock takes the write lock. Outside a transaction it first waits for any
// running one, so a rollback never discards a write it did not make.
func (s *Store) lock() {
	if !s.inTx {
		s.txMu.Lock()
	}
	s.mu.Lock()
}

func (s *Store) unlock() {
	s.mu.Unlock()
	if !s.inTx {
		s.txMu.Unlock()
	}
}

func (s *Store) id(table string) uint {
	s.nextID[table]++
	return s.nextID[table]
}

func (s *Store) now() time.Time {
	return s.NowFunc().UTC()
}

type snapshot struct {
	nextID     map[string]uint
	students   map[uint]models.Student
	admins     map[uint]models.Admin
	sessions   map[uint]models.StudentSession
	videos     map[uint]models.Video
	freeVideos map[uint]models.FreeVideo
	exams      map[uint]models.Exam
	questions  map[uint]models.Question
	results    map[uint]models.Result
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		nextID:     cloneMap(s.nextID),
		students:   cloneMap(s.students),
		admins:     cloneMap(s.admins),
		sessions:   cloneMap(s.sessions),
		videos:     cloneMap(s.videos),
		freeVideos: cloneMap(s.freeVideos),
		exams:      cloneMap(s.exams),
		questions:  cloneMap(s.questions),
		results:    cloneMap(s.results),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.students = snap.students
	s.admins = snap.admins
	s.sessions = snap.sessions
	s.videos = snap.videos
	s.freeVideos = snap.freeVideos
	s.exams = snap.exams
	s.questions = snap.questions
	s.results = snap.results
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// newestFirst orders by creation time descending, then id descending.
func newestFirst(aAt, bAt time.Time, aID, bID uint) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return aID > bID
}

func sortNewestFirst[T any](items []*T, key func(*T) (time.Time, uint)) {
	sort.Slice(items, func(i, j int) bool {
		at, aid := key(items[i])
		bt, bid := key(items[j])
		return newestFirst(at, bt, aid, bid)
	})
}
