package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
)

func TestSessionCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := New().Session()

	sess := func(fp string) *models.StudentSession {
		return &models.StudentSession{StudentID: 1, Fingerprint: fp, IssuedAt: time.Now()}
	}

	steps := []struct {
		name     string
		expected string
		next     string
		want     bool
		stored   string
	}{
		{name: "first login inserts", expected: "", next: "a", want: true, stored: "a"},
		{name: "insert when row exists fails", expected: "", next: "b", want: false, stored: "a"},
		{name: "stale expected fails", expected: "zzz", next: "b", want: false, stored: "a"},
		{name: "matching expected swaps", expected: "a", next: "b", want: true, stored: "b"},
	}
	for _, st := range steps {
		t.Run(st.name, func(t *testing.T) {
			ok, err := repo.CompareAndSwap(ctx, st.expected, sess(st.next))
			if err != nil {
				t.Fatalf("CompareAndSwap() error = %v", err)
			}
			if ok != st.want {
				t.Errorf("CompareAndSwap() = %v, want %v", ok, st.want)
			}
			got, err := repo.Get(ctx, 1)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Fingerprint != st.stored {
				t.Errorf("stored fingerprint = %q, want %q", got.Fingerprint, st.stored)
			}
		})
	}

	if ok, _ := repo.Revoke(ctx, 1, "a"); ok {
		t.Error("Revoke() with stale fingerprint succeeded")
	}
	if ok, _ := repo.Revoke(ctx, 1, "b"); !ok {
		t.Error("Revoke() with current fingerprint failed")
	}
	if _, err := repo.Get(ctx, 1); !repositories.IsNotFoundError(err) {
		t.Errorf("Get() after revoke error = %v, want not found", err)
	}
}

func TestSessionCompareAndSwapConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := New().Session()

	const writers = 50
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := repo.CompareAndSwap(ctx, "", &models.StudentSession{StudentID: 9, Fingerprint: string(rune('a' + i%26))})
			if err != nil {
				t.Error(err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("%d concurrent inserts won, want exactly 1", wins)
	}
}

func TestExamDeleteRemovesQuestions(t *testing.T) {
	ctx := context.Background()
	store := New()

	exam := &models.Exam{Title: "Algebra", Grade: models.GradeFirst, Duration: 30}
	other := &models.Exam{Title: "Physics", Grade: models.GradeFirst, Duration: 30}
	for _, e := range []*models.Exam{exam, other} {
		if err := store.Exam().Create(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 3; i++ {
		store.Question().Create(ctx, &models.Question{ExamID: exam.ID, Text: "q", CorrectAnswer: "0", Points: 1})
	}
	store.Question().Create(ctx, &models.Question{ExamID: other.ID, Text: "q", CorrectAnswer: "0", Points: 1})

	if err := store.Exam().Delete(ctx, exam.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Exam().GetByID(ctx, exam.ID); !repositories.IsNotFoundError(err) {
		t.Errorf("GetByID() after delete error = %v", err)
	}
	if n, _ := store.Question().CountByExam(ctx, exam.ID); n != 0 {
		t.Errorf("questions left for deleted exam = %d", n)
	}
	if n, _ := store.Question().CountByExam(ctx, other.ID); n != 1 {
		t.Errorf("questions of other exam = %d, want 1", n)
	}
	if err := store.Exam().Delete(ctx, exam.ID); !repositories.IsNotFoundError(err) {
		t.Errorf("second Delete() error = %v, want not found", err)
	}
}

func TestWithTransactionRollback(t *testing.T) {
	ctx := context.Background()
	store := New()
	boom := errors.New("boom")

	err := store.WithTransaction(ctx, func(repo repositories.Repository) error {
		if err := repo.Video().Create(ctx, &models.Video{Title: "v", Grade: models.GradeFirst}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTransaction() error = %v, want boom", err)
	}
	if n, _ := store.Video().Count(ctx); n != 0 {
		t.Errorf("video count after rollback = %d", n)
	}

	err = store.WithTransaction(ctx, func(repo repositories.Repository) error {
		return repo.Video().Create(ctx, &models.Video{Title: "v", Grade: models.GradeFirst})
	})
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := store.Video().Count(ctx); n != 1 {
		t.Errorf("video count after commit = %d", n)
	}
}

func TestRollbackKeepsConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	store := New()
	boom := errors.New("boom")

	var wg sync.WaitGroup
	err := store.WithTransaction(ctx, func(repo repositories.Repository) error {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Session().CompareAndSwap(ctx, "", &models.StudentSession{StudentID: 7, Fingerprint: "fp-new", IssuedAt: time.Now()})
		}()
		go func() {
			defer wg.Done()
			store.Video().Create(ctx, &models.Video{Title: "outside", Grade: models.GradeSecond})
		}()
		time.Sleep(20 * time.Millisecond)

		if err := repo.Video().Create(ctx, &models.Video{Title: "inside", Grade: models.GradeFirst}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTransaction() error = %v, want boom", err)
	}
	wg.Wait()

	session, err := store.Session().Get(ctx, 7)
	if err != nil {
		t.Fatalf("session written outside the transaction was lost: %v", err)
	}
	if session.Fingerprint != "fp-new" {
		t.Errorf("fingerprint = %q, want fp-new", session.Fingerprint)
	}

	videos, _ := store.Video().List(ctx, nil)
	if len(videos) != 1 || videos[0].Title != "outside" {
		t.Errorf("videos after rollback = %+v, want only the outside write", videos)
	}
}

func TestNestedTransactionJoinsOuter(t *testing.T) {
	ctx := context.Background()
	store := New()
	boom := errors.New("boom")

	err := store.WithTransaction(ctx, func(repo repositories.Repository) error {
		err := repo.WithTransaction(ctx, func(inner repositories.Repository) error {
			return inner.Video().Create(ctx, &models.Video{Title: "v", Grade: models.GradeFirst})
		})
		if err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTransaction() error = %v, want boom", err)
	}
	if n, _ := store.Video().Count(ctx); n != 0 {
		t.Errorf("video count after outer rollback = %d", n)
	}
}

func TestOrdering(t *testing.T) {
	ctx := context.Background()
	store := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.NowFunc = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for i := 0; i < 3; i++ {
		store.Video().Create(ctx, &models.Video{Title: string(rune('a' + i)), Grade: models.GradeSecond})
	}
	store.Video().Create(ctx, &models.Video{Title: "other", Grade: models.GradeThird})

	grade := models.GradeSecond
	videos, _ := store.Video().List(ctx, &grade)
	if len(videos) != 3 {
		t.Fatalf("List() returned %d videos, want 3", len(videos))
	}
	if videos[0].Title != "c" || videos[2].Title != "a" {
		t.Errorf("List() order = %s,%s,%s; want newest first", videos[0].Title, videos[1].Title, videos[2].Title)
	}

	exam := &models.Exam{Title: "e", Grade: grade, Duration: 10}
	store.Exam().Create(ctx, exam)
	for _, text := range []string{"first", "second", "third"} {
		store.Question().Create(ctx, &models.Question{ExamID: exam.ID, Text: text, CorrectAnswer: "0"})
	}
	questions, _ := store.Question().ListByExam(ctx, exam.ID)
	if questions[0].Text != "first" || questions[2].Text != "third" {
		t.Errorf("ListByExam() not in creation order")
	}

	for i := 0; i < 12; i++ {
		store.FreeVideo().Create(ctx, &models.FreeVideo{Title: "f"})
	}
	free, _ := store.FreeVideo().List(ctx, 10)
	if len(free) != 10 {
		t.Errorf("FreeVideo().List(10) returned %d", len(free))
	}
}

func TestStudentCodeUnique(t *testing.T) {
	ctx := context.Background()
	repo := New().Student()

	a := &models.Student{Name: "A", Code: "ABC123", Grade: models.GradeFirst, IsActive: true}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, &models.Student{Name: "B", Code: "ABC123", Grade: models.GradeFirst}); !repositories.IsDuplicateError(err) {
		t.Errorf("Create() duplicate error = %v", err)
	}

	b := &models.Student{Name: "B", Code: "FFF000", Grade: models.GradeFirst}
	repo.Create(ctx, b)
	b.Code = "ABC123"
	if err := repo.Update(ctx, b); !repositories.IsDuplicateError(err) {
		t.Errorf("Update() to taken code error = %v", err)
	}

	got, err := repo.GetByCode(ctx, "ABC123")
	if err != nil || got.ID != a.ID {
		t.Errorf("GetByCode() = %v, %v", got, err)
	}
}

func TestResultSummariesJoin(t *testing.T) {
	ctx := context.Background()
	store := New()

	st := &models.Student{Name: "Mona", Code: "AAAAAA", Grade: models.GradeThird}
	store.Student().Create(ctx, st)
	exam := &models.Exam{Title: "Chemistry", Grade: models.GradeThird, Duration: 20}
	store.Exam().Create(ctx, exam)

	store.Result().Create(ctx, &models.Result{StudentID: st.ID, ExamID: exam.ID, Score: 1, TotalPoints: 2, CompletedAt: time.Now()})
	store.Result().Create(ctx, &models.Result{StudentID: 999, ExamID: exam.ID, CompletedAt: time.Now().Add(time.Second)})

	sums, _ := store.Result().ListSummaries(ctx)
	if len(sums) != 2 {
		t.Fatalf("ListSummaries() returned %d", len(sums))
	}
	if sums[0].StudentName != "" || sums[1].StudentName != "Mona" {
		t.Errorf("join names = %q,%q", sums[0].StudentName, sums[1].StudentName)
	}
	if sums[1].ExamTitle != "Chemistry" || sums[1].ExamGrade != models.GradeThird {
		t.Errorf("join exam = %q/%d", sums[1].ExamTitle, sums[1].ExamGrade)
	}
	if n, _ := store.Result().CountByStudentAndExam(ctx, st.ID, exam.ID); n != 1 {
		t.Errorf("CountByStudentAndExam() = %d", n)
	}
}
