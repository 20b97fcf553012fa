package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/loopcart/ranking-service/internal/app/bootstrap"
	"github.com/loopcart/ranking-service/internal/domain"
)

func main() {
	_ = godotenv.Load()

	targetDateFlag := flag.String("target-date", "", "aggregation date as yyyyMMdd, defaults to yesterday")
	rankingTypeFlag := flag.String("ranking-type", string(domain.RankingWeekly), "WEEKLY or MONTHLY")
	flag.Parse()

	targetDate := time.Now().UTC().AddDate(0, 0, -1)
	if *targetDateFlag != "" {
		parsed, err := domain.ParseDate(*targetDateFlag)
		if err != nil {
			log.Fatalf("parse target-date: %v", err)
		}
		targetDate = parsed
	}
	rankingType, err := domain.ParseRankingType(*rankingTypeFlag)
	if err != nil {
		log.Fatalf("parse ranking-type: %v", err)
	}

	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, "configs/default.yaml")
	if err != nil {
		log.Fatalf("bootstrap batch runtime: %v", err)
	}
	if err := runtime.RunBatch(ctx, targetDate, rankingType); err != nil {
		log.Fatalf("run batch: %v", err)
	}
}
