package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/tutor-portal/internal/config"
	"github.com/stemsi/tutor-portal/internal/database"
	"github.com/stemsi/tutor-portal/internal/docstore"
	"github.com/stemsi/tutor-portal/internal/logger"
	"github.com/stemsi/tutor-portal/internal/model"
	"github.com/stemsi/tutor-portal/internal/repository"
	"github.com/stemsi/tutor-portal/internal/service"
)

// seed-students provisions a demo owner: one course, teacher and group,
// students enrolled in it, plus an exam, a task and an evaluation.
func main() {
	var (
		count    int
		password string
		domain   string
	)
	flag.IntVar(&count, "n", 10, "Number of students to create")
	flag.StringVar(&password, "password", "tutor123", "Password for every seeded student")
	flag.StringVar(&domain, "domain", "demo.uz", "Email domain for seeded students")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	docs := docstore.New(pool, rdb, log)
	accountRepo := repository.NewAccountRepository(pool)
	authService := service.NewAuthService(cfg, rdb, accountRepo, log)
	studentService := service.NewStudentService(docs, repository.NewStudentRepository(docs), accountRepo, authService)

	owner := uuid.New().String()
	users := func(parts ...string) string {
		return docstore.Collection(append([]string{"users", owner}, parts...)...)
	}
	set := func(path string, v interface{}) {
		if err := docs.Set(ctx, path, v); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to write document")
		}
	}

	fmt.Printf("=== Seeding owner %s ===\n", owner)

	set(docstore.Doc(users("courses"), "math"), model.Course{CourseTitle: "Matematika"})
	set(docstore.Doc(users("teachers"), "t1"), model.Teacher{FullName: "Dilshod Karimov"})

	names := []string{
		"Aziz Rahimov", "Malika Tursunova", "Jasur Aliyev", "Nodira Karimova", "Sardor Yusupov",
		"Dilnoza Ergasheva", "Bekzod Nazarov", "Gulnora Saidova", "Otabek Mirzayev", "Shahlo Qodirova",
		"Ulug'bek Xolmatov", "Zarina Abdullayeva", "Farrux Sobirov", "Madina Hasanova", "Temur Ismoilov",
	}

	var memberIDs []string
	for i := 0; i < count; i++ {
		name := names[i%len(names)]
		if i >= len(names) {
			name = fmt.Sprintf("%s %d", name, i/len(names)+1)
		}
		created, err := studentService.Create(ctx, service.NewStudent{
			Profile: model.StudentProfile{
				FullName:          name,
				Email:             fmt.Sprintf("student%02d@%s", i+1, domain),
				PhoneNumber:       fmt.Sprintf("+99890%07d", i+1),
				ParentPhoneNumber: fmt.Sprintf("+99891%07d", i+1),
				PassportID:        fmt.Sprintf("AA%07d", i+1),
				AdminID:           owner,
			},
			Password: password,
		})
		if err != nil {
			fmt.Printf("Error creating student %s: %v\n", name, err)
			continue
		}
		memberIDs = append(memberIDs, created.ID)
	}

	const groupID = "g1"
	set(docstore.Doc(users("groups"), groupID), model.Group{
		CourseID:    "math",
		TeacherID:   "t1",
		GroupNumber: "1",
		Students:    memberIDs,
	})

	now := time.Now().In(cfg.Location())
	set(docstore.Doc(users("groups", groupID, "exams"), "e1"), model.Exam{
		Title:  "Kasrlar",
		Start:  now.Format("2006-01-02T15:04"),
		End:    now.Add(7 * 24 * time.Hour).Format("2006-01-02T15:04"),
		Type:   "online",
		Status: "active",
		IsShow: true,
	})
	questions := []model.Question{
		{Title: "1/2 + 1/4 = ?", Answers: []string{"3/4", "2/6", "1/8", "1"}},
		{Title: "3/5 * 5/3 = ?", Answers: []string{"0", "1", "15/15", "9/25"}},
		{Title: "0.25 kasr ko'rinishida", Answers: []string{"1/5", "1/4", "2/5", "1/2"}},
	}
	for i, q := range questions {
		q.CreatedAt = model.NewTimestamp(now.Add(time.Duration(i) * time.Second))
		set(docstore.Doc(users("groups", groupID, "exams", "e1", "questions"), fmt.Sprintf("q%d", i+1)), q)
	}

	set(docstore.Doc(users("groups", groupID, "tasks"), "task1"), model.Task{
		Title:       "Uy vazifasi",
		Description: "Darslikdagi 12-25 misollar",
		Due:         model.NewTimestamp(now.Add(3 * 24 * time.Hour)),
		Images:      []string{},
	})

	scores := make([]model.EvaluationScore, 0, len(memberIDs))
	for i, id := range memberIDs {
		scores = append(scores, model.EvaluationScore{ID: id, Score: model.Text(fmt.Sprint(3 + i%3))})
	}
	set(docstore.Doc(users("groups", groupID, "evaluations"), "ev1"), model.Evaluation{
		Timestamp: model.NewTimestamp(now),
		Students:  scores,
	})

	fmt.Printf("\nSeed completed! Added %d/%d students to group %s of owner %s.\n", len(memberIDs), count, groupID, owner)
}
