package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/scalpelprep/scalpelprep-backend/internal/logger"
	"github.com/scalpelprep/scalpelprep-backend/internal/types"
	"github.com/scalpelprep/scalpelprep-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "scalpelprep", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.Section{},
		&types.Subsection{},
		&types.Question{},
		&types.QuestionResponse{},
		&types.ReviewState{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		sql  string
	}{
		{
			name: "fk_review_state_user_id",
			sql: `ALTER TABLE "review_state"
				ADD CONSTRAINT "fk_review_state_user_id"
				FOREIGN KEY ("user_id") REFERENCES "user"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_review_state_question_id",
			sql: `ALTER TABLE "review_state"
				ADD CONSTRAINT "fk_review_state_question_id"
				FOREIGN KEY ("question_id") REFERENCES "question"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_question_response_user_id",
			sql: `ALTER TABLE "question_response"
				ADD CONSTRAINT "fk_question_response_user_id"
				FOREIGN KEY ("user_id") REFERENCES "user"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_question_response_question_id",
			sql: `ALTER TABLE "question_response"
				ADD CONSTRAINT "fk_question_response_question_id"
				FOREIGN KEY ("question_id") REFERENCES "question"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_subsection_section_id",
			sql: `ALTER TABLE "subsection"
				ADD CONSTRAINT "fk_subsection_section_id"
				FOREIGN KEY ("section_id") REFERENCES "section"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_question_section_id",
			sql: `ALTER TABLE "question"
				ADD CONSTRAINT "fk_question_section_id"
				FOREIGN KEY ("section_id") REFERENCES "section"("id")
				ON DELETE CASCADE`,
		},
	}
	for _, c := range constraints {
		var exists bool
		if err := s.db.Raw(
			`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`, c.name,
		).Scan(&exists).Error; err != nil {
			return fmt.Errorf("failed to check constraint %s: %w", c.name, err)
		}
		if exists {
			continue
		}
		if err := s.db.Exec(c.sql).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
