package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
	"github.com/mohammedtarek206/elamid/pkg"
)

// newTestRepository connects to TEST_DATABASE_URL and resets the schema. The
// tests are skipped when it is not set.
func newTestRepository(t *testing.T) (repositories.Repository, *miniredis.Miniredis) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping postgres integration test in short mode")
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.Migrator().DropTable(
		&models.Result{}, &models.Question{}, &models.Exam{}, &models.FreeVideo{},
		&models.Video{}, &models.StudentSession{}, &models.Student{}, &models.Admin{},
	); err != nil {
		t.Fatalf("drop tables: %v", err)
	}
	if err := pkg.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	manager := NewRepositoryManager(RepositoryConfig{DB: db, RedisClient: client})
	if err := manager.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { manager.Shutdown(context.Background()) })
	return manager.GetRepository(), mr
}

func TestSessionCompareAndSwapPostgres(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	student := &models.Student{Name: "Ali", Code: "ABC123", Grade: models.GradeFirst, IsActive: true}
	if err := repo.Student().Create(ctx, student); err != nil {
		t.Fatal(err)
	}

	const logins = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < logins; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := repo.Session().CompareAndSwap(ctx, "", &models.StudentSession{
				StudentID:   student.ID,
				Fingerprint: string(rune('a' + i)),
				IssuedAt:    time.Now(),
			})
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
		t.Fatalf("%d concurrent first logins won, want 1", wins)
	}

	current, err := repo.Session().Get(ctx, student.ID)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := repo.Session().CompareAndSwap(ctx, current.Fingerprint, &models.StudentSession{StudentID: student.ID, Fingerprint: "next", IssuedAt: time.Now()})
	if err != nil || !ok {
		t.Fatalf("CompareAndSwap(current) = %v, %v", ok, err)
	}
	ok, _ = repo.Session().CompareAndSwap(ctx, current.Fingerprint, &models.StudentSession{StudentID: student.ID, Fingerprint: "stale", IssuedAt: time.Now()})
	if ok {
		t.Error("CompareAndSwap(stale) succeeded")
	}
}

func TestExamDeleteCascadesPostgres(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	exam := &models.Exam{Title: "Algebra", Grade: models.GradeSecond, Duration: 30, IsActive: true}
	if err := repo.Exam().Create(ctx, exam); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		q := &models.Question{ExamID: exam.ID, Text: "q", Type: models.MultipleChoice, Options: []string{"a", "b"}, CorrectAnswer: "1", Points: 1}
		if err := repo.Question().Create(ctx, q); err != nil {
			t.Fatal(err)
		}
	}

	if err := repo.Exam().Delete(ctx, exam.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if n, _ := repo.Question().CountByExam(ctx, exam.ID); n != 0 {
		t.Errorf("questions left = %d", n)
	}
	if _, err := repo.Exam().GetByID(ctx, exam.ID); !repositories.IsNotFoundError(err) {
		t.Errorf("GetByID() error = %v, want not found", err)
	}
}

func TestExamListCachePostgres(t *testing.T) {
	repo, mr := newTestRepository(t)
	ctx := context.Background()
	grade := models.GradeThird

	repo.Exam().Create(ctx, &models.Exam{Title: "one", Grade: grade, Duration: 10, IsActive: true})
	exams, err := repo.Exam().List(ctx, repositories.ExamFilters{Grade: &grade, ActiveOnly: true})
	if err != nil || len(exams) != 1 {
		t.Fatalf("List() = %d, %v", len(exams), err)
	}
	if !mr.Exists("exam:grade:3:active") {
		t.Fatal("exam list was not cached")
	}

	repo.Exam().Create(ctx, &models.Exam{Title: "two", Grade: grade, Duration: 10, IsActive: true})
	if mr.Exists("exam:grade:3:active") {
		t.Fatal("exam list cache survived create")
	}
	exams, _ = repo.Exam().List(ctx, repositories.ExamFilters{Grade: &grade, ActiveOnly: true})
	if len(exams) != 2 || exams[0].Title != "two" {
		t.Errorf("List() after create = %d exams", len(exams))
	}
}

func TestStudentDuplicateCodePostgres(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	repo.Student().Create(ctx, &models.Student{Name: "a", Code: "AAAAAA", Grade: 1, IsActive: true})
	err := repo.Student().Create(ctx, &models.Student{Name: "b", Code: "AAAAAA", Grade: 1, IsActive: true})
	if !repositories.IsDuplicateError(err) {
		t.Errorf("Create() duplicate error = %v", err)
	}
}
