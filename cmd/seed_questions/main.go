package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"mindmetric/internal/config"
	"mindmetric/internal/database"
	"mindmetric/internal/domain"
	"mindmetric/internal/logger"
	"mindmetric/internal/repository"

	"go.uber.org/zap"
)

// seedFile is the on-disk shape of a seed data set.
type seedFile struct {
	Questions  []seedQuestion  `json:"questions"`
	NormGroups []seedNormGroup `json:"norm_groups"`
}

type seedQuestion struct {
	Type           string                 `json:"type"`
	Category       string                 `json:"category"`
	Difficulty     float64                `json:"difficulty"`
	Discrimination float64                `json:"discrimination"`
	Guessing       float64                `json:"guessing"`
	Content        map[string]interface{} `json:"content"`
	CorrectAnswer  string                 `json:"correct_answer"`
}

type seedNormGroup struct {
	Name    string  `json:"name"`
	AgeMin  int     `json:"age_min"`
	AgeMax  int     `json:"age_max"`
	Country string  `json:"country"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
}

func main() {
	path := flag.String("file", "database/seed/questions.json", "seed data file")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Fatal("failed to read seed file", zap.String("path", *path), zap.Error(err))
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		log.Fatal("failed to parse seed file", zap.Error(err))
	}

	db, err := database.NewSQLXPostgresDB(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	questionRepo := repository.NewQuestionDatabaseAdapter(db)
	normRepo := repository.NewNormGroupDatabaseAdapter(db)
	ctx := context.Background()

	seeded := 0
	for i, sq := range seed.Questions {
		q := &domain.Question{
			Type:           domain.QuestionType(sq.Type),
			Category:       sq.Category,
			Difficulty:     sq.Difficulty,
			Discrimination: sq.Discrimination,
			Guessing:       sq.Guessing,
			Content:        sq.Content,
			CorrectAnswer:  sq.CorrectAnswer,
			Active:         true,
		}
		if err := q.Validate(); err != nil {
			log.Fatal("invalid seed question", zap.Int("index", i), zap.Error(err))
		}
		if err := questionRepo.SaveQuestion(ctx, q); err != nil {
			log.Fatal("failed to save question", zap.Int("index", i), zap.Error(err))
		}
		seeded++
	}
	log.Info("questions seeded", zap.Int("count", seeded))

	seeded = 0
	for i, sg := range seed.NormGroups {
		g := &domain.NormGroup{
			Name:    sg.Name,
			AgeMin:  sg.AgeMin,
			AgeMax:  sg.AgeMax,
			Country: sg.Country,
			Mean:    sg.Mean,
			StdDev:  sg.StdDev,
		}
		if err := normRepo.SaveNormGroup(ctx, g); err != nil {
			log.Fatal("failed to save norm group", zap.Int("index", i), zap.Error(err))
		}
		seeded++
	}
	log.Info("norm groups seeded", zap.Int("count", seeded))
}
