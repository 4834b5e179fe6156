package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/kosterror/time-flow-api/internal/dto"
	"github.com/kosterror/time-flow-api/internal/models"
	"github.com/kosterror/time-flow-api/pkg/config"
	appErrors "github.com/kosterror/time-flow-api/pkg/errors"
)

const (
	groupG1    = "6f1c2a3e-0000-4000-8000-000000000001"
	groupG2    = "6f1c2a3e-0000-4000-8000-000000000002"
	subjectS1  = "6f1c2a3e-0000-4000-8000-000000000011"
	subjectS2  = "6f1c2a3e-0000-4000-8000-000000000012"
	teacherT1  = "6f1c2a3e-0000-4000-8000-000000000021"
	teacherT2  = "6f1c2a3e-0000-4000-8000-000000000022"
	roomR1     = "6f1c2a3e-0000-4000-8000-000000000031"
	roomR2     = "6f1c2a3e-0000-4000-8000-000000000032"
	slotMorn   = "6f1c2a3e-0000-4000-8000-000000000041"
	slotNoon   = "6f1c2a3e-0000-4000-8000-000000000042"
	missingRef = "6f1c2a3e-0000-4000-8000-0000000000ff"
)

// missingRowError mimics Postgres: a key that is not a uuid fails to cast
// before any row is looked at.
func missingRowError(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &pq.Error{Code: "22P02", Message: fmt.Sprintf("invalid input syntax for type uuid: %q", id)}
	}
	return sql.ErrNoRows
}

type directoryStub[T any] struct {
	order []string
	items map[string]T
	err   error
}

func newDirectoryStub[T any]() *directoryStub[T] {
	return &directoryStub[T]{items: make(map[string]T)}
}

func (d *directoryStub[T]) add(id string, item T) {
	d.order = append(d.order, id)
	d.items[id] = item
}

func (d *directoryStub[T]) FindByID(ctx context.Context, id string) (*T, error) {
	if d.err != nil {
		return nil, d.err
	}
	item, ok := d.items[id]
	if !ok {
		return nil, missingRowError(id)
	}
	return &item, nil
}

func (d *directoryStub[T]) List(ctx context.Context) ([]T, error) {
	if d.err != nil {
		return nil, d.err
	}
	out := make([]T, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.items[id])
	}
	return out, nil
}

type directoryFixture struct {
	groups     *directoryStub[models.StudentGroup]
	subjects   *directoryStub[models.Subject]
	teachers   *directoryStub[models.Teacher]
	classrooms *directoryStub[models.Classroom]
	timeslots  *directoryStub[models.Timeslot]
}

func newDirectoryFixture() *directoryFixture {
	d := &directoryFixture{
		groups:     newDirectoryStub[models.StudentGroup](),
		subjects:   newDirectoryStub[models.Subject](),
		teachers:   newDirectoryStub[models.Teacher](),
		classrooms: newDirectoryStub[models.Classroom](),
		timeslots:  newDirectoryStub[models.Timeslot](),
	}
	d.groups.add(groupG1, models.StudentGroup{ID: groupG1, Number: 972101})
	d.groups.add(groupG2, models.StudentGroup{ID: groupG2, Number: 972102})
	d.subjects.add(subjectS1, models.Subject{ID: subjectS1, Name: "Algebra"})
	d.subjects.add(subjectS2, models.Subject{ID: subjectS2, Name: "Physics"})
	d.teachers.add(teacherT1, models.Teacher{ID: teacherT1, FullName: "Anna Ivanova"})
	d.teachers.add(teacherT2, models.Teacher{ID: teacherT2, FullName: "Boris Petrov"})
	d.classrooms.add(roomR1, models.Classroom{ID: roomR1, Number: 215})
	d.classrooms.add(roomR2, models.Classroom{ID: roomR2, Number: 301})
	d.timeslots.add(slotMorn, models.Timeslot{ID: slotMorn, SequenceNumber: 1, BeginTime: "09:00:00", EndTime: "10:30:00"})
	d.timeslots.add(slotNoon, models.Timeslot{ID: slotNoon, SequenceNumber: 2, BeginTime: "10:45:00", EndTime: "12:15:00"})
	return d
}

func (d *directoryFixture) service() *DirectoryService {
	return NewDirectoryService(d.groups, d.subjects, d.teachers, d.classrooms, d.timeslots, nil)
}

// lessonStoreStub keeps lessons in memory and records which executor each write used.
// Writes made through an executor stay pending until the transaction commits.
type lessonStoreStub struct {
	mu        sync.Mutex
	dir       *directoryFixture
	lessons   map[string]models.Lesson
	pending   map[sqlx.ExtContext]map[string]*models.Lesson
	seq       int
	locks     []string
	execs     []sqlx.ExtContext
	deleted   []string
	createErr error
}

func newLessonStoreStub(dir *directoryFixture) *lessonStoreStub {
	return &lessonStoreStub{
		dir:     dir,
		lessons: make(map[string]models.Lesson),
		pending: make(map[sqlx.ExtContext]map[string]*models.Lesson),
	}
}

func (s *lessonStoreStub) seed(lesson models.Lesson) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lessons[lesson.ID] = lesson
}

// view returns the rows visible to exec. Caller holds s.mu.
func (s *lessonStoreStub) view(exec sqlx.ExtContext) map[string]models.Lesson {
	staged := s.pending[exec]
	if exec == nil || len(staged) == 0 {
		return s.lessons
	}
	out := make(map[string]models.Lesson, len(s.lessons)+len(staged))
	for id, lesson := range s.lessons {
		out[id] = lesson
	}
	for id, lesson := range staged {
		if lesson == nil {
			delete(out, id)
			continue
		}
		out[id] = *lesson
	}
	return out
}

// write applies a row change, or stages it when it runs inside a transaction.
// A nil lesson marks a delete. Caller holds s.mu.
func (s *lessonStoreStub) write(exec sqlx.ExtContext, id string, lesson *models.Lesson) {
	if exec == nil {
		if lesson == nil {
			delete(s.lessons, id)
		} else {
			s.lessons[id] = *lesson
		}
		return
	}
	staged, ok := s.pending[exec]
	if !ok {
		staged = make(map[string]*models.Lesson)
		s.pending[exec] = staged
	}
	if lesson != nil {
		copied := *lesson
		lesson = &copied
	}
	staged[id] = lesson
}

func (s *lessonStoreStub) commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for exec, staged := range s.pending {
		for id, lesson := range staged {
			if lesson == nil {
				delete(s.lessons, id)
				continue
			}
			s.lessons[id] = *lesson
		}
		delete(s.pending, exec)
	}
}

func (s *lessonStoreStub) rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make(map[sqlx.ExtContext]map[string]*models.Lesson)
}

func (s *lessonStoreStub) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lesson, ok := s.lessons[id]
	if !ok {
		return nil, missingRowError(id)
	}
	return &lesson, nil
}

func (s *lessonStoreStub) FindDetailByID(ctx context.Context, id string) (*models.LessonDetail, error) {
	lesson, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := s.detail(*lesson)
	return &detail, nil
}

func (s *lessonStoreStub) FindBySlot(ctx context.Context, exec sqlx.ExtContext, date time.Time, timeslotID string) ([]models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Lesson
	for _, lesson := range s.view(exec) {
		if lesson.Date.Equal(date) && lesson.TimeslotID == timeslotID {
			out = append(out, lesson)
		}
	}
	return out, nil
}

func (s *lessonStoreStub) ListByDate(ctx context.Context, date time.Time) ([]models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Lesson
	for _, lesson := range s.lessons {
		if lesson.Date.Equal(date) {
			out = append(out, lesson)
		}
	}
	return out, nil
}

func (s *lessonStoreStub) ListDetailsByOwner(ctx context.Context, owner models.LessonOwner, ownerID string, start, end time.Time) ([]models.LessonDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LessonDetail
	for _, lesson := range s.lessons {
		var match string
		switch owner {
		case models.LessonOwnerStudentGroup:
			match = lesson.StudentGroupID
		case models.LessonOwnerTeacher:
			match = lesson.TeacherID
		case models.LessonOwnerClassroom:
			match = lesson.ClassroomID
		}
		if match != ownerID || lesson.Date.Before(start) || lesson.Date.After(end) {
			continue
		}
		out = append(out, s.detail(lesson))
	}
	return out, nil
}

func (s *lessonStoreStub) LockSlot(ctx context.Context, exec sqlx.ExtContext, date time.Time, timeslotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks = append(s.locks, date.Format(config.DateLayout)+"/"+timeslotID)
	return nil
}

func (s *lessonStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, lesson *models.Lesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.seq++
	lesson.ID = fmt.Sprintf("lesson-%d", s.seq)
	s.write(exec, lesson.ID, lesson)
	s.execs = append(s.execs, exec)
	return nil
}

func (s *lessonStoreStub) Update(ctx context.Context, exec sqlx.ExtContext, lesson *models.Lesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(exec, lesson.ID, lesson)
	s.execs = append(s.execs, exec)
	return nil
}

func (s *lessonStoreStub) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(nil, id, nil)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *lessonStoreStub) DeleteByDateRange(ctx context.Context, exec sqlx.ExtContext, start, end time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, lesson := range s.view(exec) {
		if !lesson.Date.Before(start) && !lesson.Date.After(end) {
			s.write(exec, id, nil)
			s.deleted = append(s.deleted, id)
			n++
		}
	}
	s.execs = append(s.execs, exec)
	return n, nil
}

func (s *lessonStoreStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lessons)
}

func (s *lessonStoreStub) detail(lesson models.Lesson) models.LessonDetail {
	group := s.dir.groups.items[lesson.StudentGroupID]
	subject := s.dir.subjects.items[lesson.SubjectID]
	teacher := s.dir.teachers.items[lesson.TeacherID]
	classroom := s.dir.classrooms.items[lesson.ClassroomID]
	timeslot := s.dir.timeslots.items[lesson.TimeslotID]
	return models.LessonDetail{
		Lesson:                 lesson,
		StudentGroupNumber:     group.Number,
		SubjectName:            subject.Name,
		TeacherFullName:        teacher.FullName,
		ClassroomNumber:        classroom.Number,
		TimeslotSequenceNumber: timeslot.SequenceNumber,
		TimeslotBeginTime:      timeslot.BeginTime,
		TimeslotEndTime:        timeslot.EndTime,
	}
}

type txProviderMock struct {
	db *sqlx.DB
}

var mockDSNSeq atomic.Int64

// newTxProviderMock opens a sqlmock database whose transactions settle the
// store's pending writes: commit applies them, rollback drops them.
func newTxProviderMock(t *testing.T, store *lessonStoreStub) (txProvider, sqlmock.Sqlmock) {
	dsn := fmt.Sprintf("lesson_tx_%d", mockDSNSeq.Add(1))
	raw, mock, err := sqlmock.NewWithDSN(dsn, sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	db := sql.OpenDB(&settlingConnector{dsn: dsn, drv: raw.Driver(), store: store})
	t.Cleanup(func() {
		db.Close()
		raw.Close()
	})
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type settlingConnector struct {
	dsn   string
	drv   driver.Driver
	store *lessonStoreStub
}

func (c *settlingConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.drv.Open(c.dsn)
	if err != nil {
		return nil, err
	}
	return &settlingConn{Conn: conn, store: c.store}, nil
}

func (c *settlingConnector) Driver() driver.Driver {
	return c.drv
}

type settlingConn struct {
	driver.Conn
	store *lessonStoreStub
}

func (c *settlingConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	tx, err := c.Conn.(driver.ConnBeginTx).BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &settlingTx{Tx: tx, store: c.store}, nil
}

type settlingTx struct {
	driver.Tx
	store *lessonStoreStub
}

func (t *settlingTx) Commit() error {
	if err := t.Tx.Commit(); err != nil {
		t.store.rollback()
		return err
	}
	t.store.commit()
	return nil
}

func (t *settlingTx) Rollback() error {
	t.store.rollback()
	return t.Tx.Rollback()
}

type cacheRepoStub struct {
	mu       sync.Mutex
	entries  map[string][]byte
	counters map[string]int64
	patterns []string
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{entries: make(map[string][]byte), counters: make(map[string]int64)}
}

func (c *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.counters[key]; ok {
		return json.Unmarshal([]byte(fmt.Sprint(n)), dest)
	}
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheRepoStub) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key], nil
}

func (c *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = payload
	return nil
}

func (c *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patterns = append(c.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

func (c *cacheRepoStub) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

type lessonFixture struct {
	dir       *directoryFixture
	store     *lessonStoreStub
	tx        txProvider
	mock      sqlmock.Sqlmock
	metrics   *MetricsService
	lessons   *LessonService
	timetable *TimetableService
}

func newLessonFixture(t *testing.T) *lessonFixture {
	t.Helper()
	dir := newDirectoryFixture()
	store := newLessonStoreStub(dir)
	tx, mock := newTxProviderMock(t, store)
	metrics := NewMetricsService()
	directory := dir.service()
	checker := NewAvailabilityChecker(store, metrics, nil)
	validate := dto.NewValidator()

	lessons := NewLessonService(store, NewReferenceValidator(directory), checker, tx, nil, metrics, validate, nil, LessonServiceConfig{MaxWeeks: 8})
	timetable := NewTimetableService(store, directory, nil, validate, nil, TimetableConfig{
		SemesterStart: time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC),
	})
	return &lessonFixture{dir: dir, store: store, tx: tx, mock: mock, metrics: metrics, lessons: lessons, timetable: timetable}
}

func lessonRequest(group, subject, teacher, room, slot, date string, lessonType models.LessonType) dto.CreateLessonRequest {
	return dto.CreateLessonRequest{
		StudentGroupID: group,
		SubjectID:      subject,
		TeacherID:      teacher,
		ClassroomID:    room,
		TimeslotID:     slot,
		Date:           date,
		LessonType:     string(lessonType),
	}
}

func day(raw string) time.Time {
	d, err := time.Parse(config.DateLayout, raw)
	if err != nil {
		panic(err)
	}
	return d
}

func candidateFor(group, subject, teacher, room, slot string) models.Lesson {
	return models.Lesson{
		StudentGroupID: group,
		SubjectID:      subject,
		TeacherID:      teacher,
		ClassroomID:    room,
		TimeslotID:     slot,
		Date:           day("2024-03-04"),
		LessonType:     models.LessonTypeLecture,
	}
}
