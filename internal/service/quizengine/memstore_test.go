package quizengine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/learnhub-api/internal/domain/entity"
	"github.com/yourusername/learnhub-api/internal/domain/repository"
	apperrors "github.com/yourusername/learnhub-api/internal/pkg/errors"
)

// memStore - in-memory реализация repository.TxManager для тестов движка.
// Транзакции выполняются последовательно и откатываются при ошибке.
// Как и partial unique index, Activate не допускает вторую active викторину владельца.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	d    *memData

	// activateErr, если задана, возвращается из Activate
	activateErr error
}

type memData struct {
	users         map[uuid.UUID]entity.User
	exercises     map[uuid.UUID]entity.Exercise
	exerciseOrder []uuid.UUID
	quizzes       map[uuid.UUID]entity.Quiz
	links         map[uuid.UUID]map[uuid.UUID]entity.QuizExercise
	seq           int
	writes        int
}

func newMemStore() *memStore {
	return &memStore{d: &memData{
		users:     map[uuid.UUID]entity.User{},
		exercises: map[uuid.UUID]entity.Exercise{},
		quizzes:   map[uuid.UUID]entity.Quiz{},
		links:     map[uuid.UUID]map[uuid.UUID]entity.QuizExercise{},
	}}
}

func (d *memData) clone() *memData {
	c := &memData{
		users:         make(map[uuid.UUID]entity.User, len(d.users)),
		exercises:     make(map[uuid.UUID]entity.Exercise, len(d.exercises)),
		exerciseOrder: append([]uuid.UUID(nil), d.exerciseOrder...),
		quizzes:       make(map[uuid.UUID]entity.Quiz, len(d.quizzes)),
		links:         make(map[uuid.UUID]map[uuid.UUID]entity.QuizExercise, len(d.links)),
		seq:           d.seq,
		writes:        d.writes,
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.exercises {
		c.exercises[k] = v
	}
	for k, v := range d.quizzes {
		c.quizzes[k] = v
	}
	for q, m := range d.links {
		cm := make(map[uuid.UUID]entity.QuizExercise, len(m))
		for k, v := range m {
			cm[k] = v
		}
		c.links[q] = cm
	}
	return c
}

func (s *memStore) Exercises() repository.ExerciseRepository { return &memExercises{s} }
func (s *memStore) Quizzes() repository.QuizRepository       { return &memQuizzes{s} }
func (s *memStore) Links() repository.QuizExerciseRepository { return &memLinks{s} }
func (s *memStore) Users() repository.UserRepository         { return &memUsers{s} }

func (s *memStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.d.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.d = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// --- helpers for arranging and asserting state ---

func (s *memStore) addUser(superuser bool) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.d.users[id] = entity.User{ID: id, Email: id.String() + "@example.com", IsSuperuser: superuser, IsActive: true}
	return id
}

func (s *memStore) addExercise(solution string, tags ...string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.d.exercises[id] = entity.Exercise{
		ID:         id,
		SourceName: "test",
		SourceID:   fmt.Sprintf("ex-%d", len(s.d.exerciseOrder)),
		Text:       "prompt " + id.String(),
		Solution:   solution,
		Tags:       entity.StringArray(tags),
	}
	s.d.exerciseOrder = append(s.d.exerciseOrder, id)
	return id
}

func (s *memStore) addQuiz(ownerID uuid.UUID, status string, exerciseIDs ...uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.d.seq++
	s.d.quizzes[id] = entity.Quiz{ID: id, OwnerID: ownerID, Status: status, CreatedAt: time.Unix(int64(s.d.seq), 0)}
	m := map[uuid.UUID]entity.QuizExercise{}
	for i, exID := range exerciseIDs {
		m[exID] = entity.QuizExercise{QuizID: id, ExerciseID: exID, Position: i}
	}
	s.d.links[id] = m
	return id
}

func (s *memStore) quiz(id uuid.UUID) entity.Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.quizzes[id]
}

func (s *memStore) quizCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.d.quizzes)
}

func (s *memStore) link(quizID, exerciseID uuid.UUID) (entity.QuizExercise, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.d.links[quizID][exerciseID]
	return l, ok
}

func (s *memStore) linkCount(quizID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.d.links[quizID])
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.writes
}

func (s *memStore) activeCount(ownerID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, q := range s.d.quizzes {
		if q.OwnerID == ownerID && q.Status == entity.QuizStatusActive {
			n++
		}
	}
	return n
}

// --- exercises ---

type memExercises struct{ s *memStore }

func (r *memExercises) Create(ctx context.Context, ex *entity.Exercise) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if ex.ID == uuid.Nil {
		ex.ID = uuid.New()
	}
	r.s.d.exercises[ex.ID] = *ex
	r.s.d.exerciseOrder = append(r.s.d.exerciseOrder, ex.ID)
	r.s.d.writes++
	return nil
}

func (r *memExercises) GetByID(ctx context.Context, id uuid.UUID) (*entity.Exercise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ex, ok := r.s.d.exercises[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &ex, nil
}

func (r *memExercises) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Exercise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []entity.Exercise{}
	for _, id := range ids {
		if ex, ok := r.s.d.exercises[id]; ok {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (r *memExercises) Update(ctx context.Context, ex *entity.Exercise) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.d.exercises[ex.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.s.d.exercises[ex.ID] = *ex
	r.s.d.writes++
	return nil
}

func (r *memExercises) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.d.exercises[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.s.d.exercises, id)
	for _, m := range r.s.d.links {
		delete(m, id)
	}
	r.s.d.writes++
	return nil
}

func (r *memExercises) List(ctx context.Context, filters repository.ExerciseFilters, limit, offset int) ([]entity.Exercise, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []entity.Exercise
	for _, id := range r.s.d.exerciseOrder {
		ex, ok := r.s.d.exercises[id]
		if !ok {
			continue
		}
		if len(filters.Tags) > 0 && !ex.HasAnyTag(filters.Tags) {
			continue
		}
		all = append(all, ex)
	}
	total := int64(len(all))
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *memExercises) SampleByTags(ctx context.Context, tags []string, limit int) ([]entity.Exercise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []entity.Exercise{}
	for _, id := range r.s.d.exerciseOrder {
		if len(out) == limit {
			break
		}
		if ex, ok := r.s.d.exercises[id]; ok && ex.HasAnyTag(tags) {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (r *memExercises) SampleRandom(ctx context.Context, limit int) ([]entity.Exercise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []entity.Exercise{}
	for _, id := range r.s.d.exerciseOrder {
		if len(out) == limit {
			break
		}
		if ex, ok := r.s.d.exercises[id]; ok {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (r *memExercises) DistinctTags(ctx context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[string]struct{}{}
	for _, ex := range r.s.d.exercises {
		for _, t := range ex.Tags {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// --- quizzes ---

type memQuizzes struct{ s *memStore }

func (r *memQuizzes) Create(ctx context.Context, quiz *entity.Quiz) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if quiz.ID == uuid.Nil {
		quiz.ID = uuid.New()
	}
	if quiz.Status == entity.QuizStatusActive && r.hasOtherActive(quiz.OwnerID, quiz.ID) {
		return repository.ErrAnotherQuizActive
	}
	r.s.d.seq++
	quiz.CreatedAt = time.Unix(int64(r.s.d.seq), 0)
	r.s.d.quizzes[quiz.ID] = *quiz
	r.s.d.links[quiz.ID] = map[uuid.UUID]entity.QuizExercise{}
	r.s.d.writes++
	return nil
}

func (r *memQuizzes) hasOtherActive(ownerID, quizID uuid.UUID) bool {
	for _, q := range r.s.d.quizzes {
		if q.OwnerID == ownerID && q.ID != quizID && q.Status == entity.QuizStatusActive {
			return true
		}
	}
	return false
}

func (r *memQuizzes) GetByID(ctx context.Context, id uuid.UUID) (*entity.Quiz, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.d.quizzes[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &q, nil
}

func (r *memQuizzes) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Quiz, error) {
	return r.GetByID(ctx, id)
}

func (r *memQuizzes) GetActiveByOwner(ctx context.Context, ownerID uuid.UUID) (*entity.Quiz, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var best *entity.Quiz
	for _, q := range r.s.d.quizzes {
		if q.OwnerID != ownerID || q.Status != entity.QuizStatusActive {
			continue
		}
		if best == nil || q.CreatedAt.After(best.CreatedAt) {
			q := q
			best = &q
		}
	}
	if best == nil {
		return nil, apperrors.ErrNotFound
	}
	return best, nil
}

func (r *memQuizzes) ListByOwner(ctx context.Context, ownerID uuid.UUID, filters repository.QuizFilters, limit, offset int) ([]entity.Quiz, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []entity.Quiz
	for _, q := range r.s.d.quizzes {
		if q.OwnerID == ownerID && (filters.Status == "" || q.Status == filters.Status) {
			all = append(all, q)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *memQuizzes) UpdateTitle(ctx context.Context, quizID uuid.UUID, title *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.d.quizzes[quizID]
	if !ok {
		return apperrors.ErrNotFound
	}
	q.Title = title
	r.s.d.quizzes[quizID] = q
	r.s.d.writes++
	return nil
}

func (r *memQuizzes) UpdateStatus(ctx context.Context, quizID uuid.UUID, status string) error {
	if status == entity.QuizStatusActive {
		return r.Activate(ctx, quizID)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.d.quizzes[quizID]
	if !ok {
		return apperrors.ErrNotFound
	}
	q.Status = status
	r.s.d.quizzes[quizID] = q
	r.s.d.writes++
	return nil
}

func (r *memQuizzes) Activate(ctx context.Context, quizID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.activateErr != nil {
		return r.s.activateErr
	}
	q, ok := r.s.d.quizzes[quizID]
	if !ok || !q.CanActivate() {
		return repository.ErrQuizNotActivatable
	}
	if r.hasOtherActive(q.OwnerID, quizID) {
		return repository.ErrAnotherQuizActive
	}
	q.Status = entity.QuizStatusActive
	r.s.d.quizzes[quizID] = q
	r.s.d.writes++
	return nil
}

func (r *memQuizzes) DeactivateByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, q := range r.s.d.quizzes {
		if q.OwnerID == ownerID && q.Status == entity.QuizStatusActive {
			q.Status = entity.QuizStatusInProgress
			r.s.d.quizzes[id] = q
			n++
		}
	}
	if n > 0 {
		r.s.d.writes++
	}
	return n, nil
}

func (r *memQuizzes) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.d.quizzes[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.s.d.quizzes, id)
	delete(r.s.d.links, id)
	r.s.d.writes++
	return nil
}

// --- links ---

type memLinks struct{ s *memStore }

func (r *memLinks) CreateBatch(ctx context.Context, links []entity.QuizExercise) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range links {
		if _, ok := r.s.d.exercises[l.ExerciseID]; !ok {
			return fmt.Errorf("foreign key violation: exercise %s", l.ExerciseID)
		}
		m, ok := r.s.d.links[l.QuizID]
		if !ok {
			return fmt.Errorf("foreign key violation: quiz %s", l.QuizID)
		}
		if _, dup := m[l.ExerciseID]; dup {
			return fmt.Errorf("primary key violation: %s/%s", l.QuizID, l.ExerciseID)
		}
		l.Exercise = nil
		m[l.ExerciseID] = l
	}
	if len(links) > 0 {
		r.s.d.writes++
	}
	return nil
}

func (r *memLinks) ListDetailed(ctx context.Context, quizID uuid.UUID) ([]entity.QuizExercise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []entity.QuizExercise{}
	for _, l := range r.s.d.links[quizID] {
		ex := r.s.d.exercises[l.ExerciseID]
		l.Exercise = &ex
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ExerciseID.String() < out[j].ExerciseID.String()
	})
	return out, nil
}

func (r *memLinks) UpdateCorrectness(ctx context.Context, quizID, exerciseID uuid.UUID, isCorrect bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.d.links[quizID][exerciseID]
	if !ok {
		return apperrors.ErrNotFound
	}
	v := isCorrect
	l.IsCorrect = &v
	r.s.d.links[quizID][exerciseID] = l
	r.s.d.writes++
	return nil
}

func (r *memLinks) DeleteByQuiz(ctx context.Context, quizID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := int64(len(r.s.d.links[quizID]))
	r.s.d.links[quizID] = map[uuid.UUID]entity.QuizExercise{}
	r.s.d.writes++
	return n, nil
}

// --- users ---

type memUsers struct{ s *memStore }

func (r *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.d.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (r *memUsers) LockForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.GetByID(ctx, id)
}
