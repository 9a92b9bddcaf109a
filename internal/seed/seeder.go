package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/askhub-io/backend/internal/logger"
	"github.com/askhub-io/backend/internal/models"
	"github.com/askhub-io/backend/internal/voting"
)

// Seeder handles database seeding operations
type Seeder struct {
	db     *gorm.DB
	voting *voting.Service
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db, voting: voting.NewService(db)}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating users...")
	users, err := s.seedUsers(100)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating communities...")
	communities, err := s.seedCommunities(users)
	if err != nil {
		return fmt.Errorf("failed to seed communities: %w", err)
	}

	log("Creating questions...")
	questions, err := s.seedQuestions(users, communities, 300)
	if err != nil {
		return fmt.Errorf("failed to seed questions: %w", err)
	}

	log("Creating answers...")
	answers, err := s.seedAnswers(users, questions, 600)
	if err != nil {
		return fmt.Errorf("failed to seed answers: %w", err)
	}

	log("Creating comments...")
	if err := s.seedComments(users, questions, answers, 400); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	log("Creating votes...")
	if err := s.seedVotes(users, questions, answers, 2000); err != nil {
		return fmt.Errorf("failed to seed votes: %w", err)
	}

	log("Accepting answers...")
	if err := s.seedAcceptedAnswers(questions); err != nil {
		return fmt.Errorf("failed to accept answers: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with a minimal, deterministic fixture set
func (s *Seeder) SeedTest() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating test users...")
	testUserSpecs := []struct {
		username    string
		email       string
		displayName string
		isAdmin     bool
	}{
		{"alice", "alice@example.com", "Alice Smith", true},
		{"bob", "bob@example.com", "Bob Johnson", false},
		{"charlie", "charlie@example.com", "Charlie Brown", false},
		{"diana", "diana@example.com", "Diana Prince", false},
	}

	var users []models.User
	for _, spec := range testUserSpecs {
		var user models.User
		err := s.db.Where("username = ? OR email = ?", spec.username, spec.email).First(&user).Error
		if err == nil {
			users = append(users, user)
			continue
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		hashedPasswordStr := string(hashedPassword)

		user = models.User{
			Email:        spec.email,
			Username:     spec.username,
			DisplayName:  spec.displayName,
			PasswordHash: &hashedPasswordStr,
			IsAdmin:      spec.isAdmin,
			AvatarURL:    fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", spec.username),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.username, err)
		}
		users = append(users, user)
	}

	log("Creating test questions...")
	questions, err := s.seedQuestions(users, nil, 5)
	if err != nil {
		return fmt.Errorf("failed to seed questions: %w", err)
	}

	log("Creating test answers...")
	if _, err := s.seedAnswers(users, questions, 10); err != nil {
		return fmt.Errorf("failed to seed answers: %w", err)
	}

	return nil
}

// Clean removes all seed data (use with caution!)
func (s *Seeder) Clean() error {
	// Delete in reverse order of dependencies
	tables := []string{
		"notifications",
		"reports",
		"votes",
		"comments",
		"answers",
		"questions",
		"community_members",
		"communities",
		"users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

// seedUsers creates users with realistic data
func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	var users []models.User

	// Check if we already have seed users (users with @example.com email)
	var seedUserCount int64
	s.db.Model(&models.User{}).Where("email LIKE '%@example.com'").Count(&seedUserCount)
	if seedUserCount >= int64(count) {
		if err := s.db.Find(&users).Error; err != nil {
			return nil, err
		}
		logger.Log.Info("Found existing users, skipping creation",
			zap.Int("total_users", len(users)),
			zap.Int64("seed_users", seedUserCount))
		return users, nil
	}

	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		email := fmt.Sprintf("%s_%d@example.com", gofakeit.Username(), i)

		// Ensure unique username
		var existingUser models.User
		for {
			if err := s.db.Where("username = ?", username).First(&existingUser).Error; err == gorm.ErrRecordNotFound {
				break
			}
			username = gofakeit.Username()
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hashedPasswordStr := string(hashedPassword)

		lastActive := gofakeit.DateRange(time.Now().AddDate(0, -3, 0), time.Now())
		user := models.User{
			Email:        email,
			Username:     username,
			DisplayName:  gofakeit.Name(),
			Bio:          gofakeit.HipsterSentence(),
			PasswordHash: &hashedPasswordStr,
			AvatarURL:    fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
			LastActiveAt: &lastActive,
		}

		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}

	logger.Log.Info("Seeded users", zap.Int("count", len(users)))
	return users, nil
}

// seedCommunities creates a handful of topic communities with members
func (s *Seeder) seedCommunities(users []models.User) ([]models.Community, error) {
	specs := []struct {
		name        string
		description string
	}{
		{"golang", "Questions about the Go programming language and its ecosystem"},
		{"databases", "Schema design, query tuning, and operational questions"},
		{"devops", "CI/CD, containers, orchestration, and infrastructure"},
		{"web", "Frontend and backend web development"},
		{"career", "Career advice for software engineers"},
	}

	var communities []models.Community
	for _, spec := range specs {
		var existing models.Community
		if err := s.db.Where("name = ?", spec.name).First(&existing).Error; err == nil {
			communities = append(communities, existing)
			continue
		}

		creator := users[rand.Intn(len(users))]
		community := models.Community{
			Name:        spec.name,
			Description: spec.description,
			CreatedByID: creator.ID,
		}
		if err := s.db.Create(&community).Error; err != nil {
			return nil, fmt.Errorf("failed to create community %s: %w", spec.name, err)
		}

		// Creator joins as moderator, plus a random slice of members
		members := []models.CommunityMember{{
			CommunityID: community.ID,
			UserID:      creator.ID,
			Role:        models.CommunityRoleModerator,
		}}
		memberCount := rand.Intn(len(users)/2) + 5
		seen := map[string]bool{creator.ID: true}
		for len(members) < memberCount {
			user := users[rand.Intn(len(users))]
			if seen[user.ID] {
				continue
			}
			seen[user.ID] = true
			members = append(members, models.CommunityMember{
				CommunityID: community.ID,
				UserID:      user.ID,
				Role:        models.CommunityRoleMember,
			})
		}
		if err := s.db.Create(&members).Error; err != nil {
			return nil, fmt.Errorf("failed to create members for %s: %w", spec.name, err)
		}
		if err := s.db.Model(&community).Update("member_count", len(members)).Error; err != nil {
			return nil, err
		}

		communities = append(communities, community)
	}

	logger.Log.Info("Seeded communities", zap.Int("count", len(communities)))
	return communities, nil
}

var questionTags = []string{
	"go", "postgres", "docker", "kubernetes", "redis", "testing",
	"performance", "concurrency", "http", "grpc", "linux", "git",
}

// seedQuestions creates questions, most in a community, some standalone
func (s *Seeder) seedQuestions(users []models.User, communities []models.Community, count int) ([]models.Question, error) {
	var questions []models.Question

	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]

		tagCount := rand.Intn(3) + 1
		tags := make(models.StringArray, 0, tagCount)
		tagSet := map[string]bool{}
		for len(tags) < tagCount {
			tag := questionTags[rand.Intn(len(questionTags))]
			if !tagSet[tag] {
				tagSet[tag] = true
				tags = append(tags, tag)
			}
		}

		question := models.Question{
			AuthorID:  author.ID,
			Title:     fmt.Sprintf("How do I %s?", gofakeit.HackerPhrase()),
			Body:      gofakeit.Paragraph(2, 4, 12, " "),
			Tags:      tags,
			ViewCount: rand.Intn(500),
			CreatedAt: gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now()),
		}

		// Roughly 60% of questions land in a community
		if len(communities) > 0 && rand.Float32() < 0.6 {
			community := communities[rand.Intn(len(communities))]
			question.CommunityID = &community.ID
		}

		if err := s.db.Create(&question).Error; err != nil {
			return nil, fmt.Errorf("failed to create question: %w", err)
		}
		questions = append(questions, question)

		if err := s.db.Model(&models.User{}).Where("id = ?", author.ID).
			UpdateColumn("question_count", gorm.Expr("question_count + 1")).Error; err != nil {
			return nil, err
		}
		if question.CommunityID != nil {
			if err := s.db.Model(&models.Community{}).Where("id = ?", *question.CommunityID).
				UpdateColumn("question_count", gorm.Expr("question_count + 1")).Error; err != nil {
				return nil, err
			}
		}
	}

	logger.Log.Info("Seeded questions", zap.Int("count", len(questions)))
	return questions, nil
}

// seedAnswers creates answers skewed so some questions stay unanswered
func (s *Seeder) seedAnswers(users []models.User, questions []models.Question, count int) ([]models.Answer, error) {
	var answers []models.Answer

	for i := 0; i < count; i++ {
		// Skew toward the first two thirds of questions so the rest stay
		// unanswered for the unanswered listing filter
		question := questions[rand.Intn(len(questions)*2/3+1)]
		author := users[rand.Intn(len(users))]

		answer := models.Answer{
			QuestionID: question.ID,
			AuthorID:   author.ID,
			Body:       gofakeit.Paragraph(1, 3, 15, " "),
			CreatedAt:  gofakeit.DateRange(question.CreatedAt, time.Now()),
		}
		if err := s.db.Create(&answer).Error; err != nil {
			return nil, fmt.Errorf("failed to create answer: %w", err)
		}
		answers = append(answers, answer)

		if err := s.db.Model(&models.Question{}).Where("id = ?", question.ID).
			UpdateColumn("answer_count", gorm.Expr("answer_count + 1")).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.User{}).Where("id = ?", author.ID).
			UpdateColumn("answer_count", gorm.Expr("answer_count + 1")).Error; err != nil {
			return nil, err
		}
	}

	logger.Log.Info("Seeded answers", zap.Int("count", len(answers)))
	return answers, nil
}

// seedComments attaches comments to random questions and answers
func (s *Seeder) seedComments(users []models.User, questions []models.Question, answers []models.Answer, count int) error {
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]

		comment := models.Comment{
			AuthorID: author.ID,
			Body:     gofakeit.HipsterSentence(),
		}
		if len(answers) > 0 && rand.Float32() < 0.5 {
			comment.TargetType = models.CommentTargetAnswer
			comment.TargetID = answers[rand.Intn(len(answers))].ID
		} else {
			comment.TargetType = models.CommentTargetQuestion
			comment.TargetID = questions[rand.Intn(len(questions))].ID
		}

		if err := s.db.Create(&comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
	}

	logger.Log.Info("Seeded comments", zap.Int("count", count))
	return nil
}

// seedVotes applies votes through the voting service so the denormalized
// counters stay consistent with the vote rows
func (s *Seeder) seedVotes(users []models.User, questions []models.Question, answers []models.Answer, count int) error {
	ctx := context.Background()
	applied := 0

	for i := 0; i < count; i++ {
		voter := users[rand.Intn(len(users))]

		var targetType models.VoteTargetType
		var targetID string
		if len(answers) > 0 && rand.Float32() < 0.5 {
			targetType = models.VoteTargetAnswer
			targetID = answers[rand.Intn(len(answers))].ID
		} else {
			targetType = models.VoteTargetQuestion
			targetID = questions[rand.Intn(len(questions))].ID
		}

		// Mostly upvotes, like real traffic
		voteType := models.VoteTypeUpvote
		if rand.Float32() < 0.2 {
			voteType = models.VoteTypeDownvote
		}

		result, err := s.voting.Toggle(ctx, voter.ID, targetType, targetID, voteType)
		if err != nil {
			return fmt.Errorf("failed to seed vote: %w", err)
		}
		// A repeat pick toggles the vote off again; that is fine, it
		// just thins the distribution a little
		if result.Action == voting.ActionCreated {
			applied++
		}
	}

	logger.Log.Info("Seeded votes", zap.Int("applied", applied))
	return nil
}

// seedAcceptedAnswers marks the top answer accepted on about half of the
// answered questions, going through the voting service so exclusivity and
// authorship rules hold
func (s *Seeder) seedAcceptedAnswers(questions []models.Question) error {
	ctx := context.Background()
	accepted := 0

	for _, question := range questions {
		if rand.Float32() >= 0.5 {
			continue
		}

		var best models.Answer
		err := s.db.Where("question_id = ? AND is_deleted = false", question.ID).
			Order("upvotes_count - downvotes_count DESC, created_at ASC").
			First(&best).Error
		if err != nil {
			continue // unanswered
		}

		if _, err := s.voting.AcceptAnswer(ctx, question.AuthorID, best.ID); err != nil {
			return fmt.Errorf("failed to accept answer for question %s: %w", question.ID, err)
		}
		accepted++
	}

	logger.Log.Info("Accepted answers", zap.Int("count", accepted))
	return nil
}
