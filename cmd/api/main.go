package main

import (
	"context"
	"log"

	"github.com/KwakOri/lucent-sub001/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("lucent api: %v", err)
	}
}
