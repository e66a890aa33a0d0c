package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/Sternrassler/animals-etl-client/pkg/logging"
	"github.com/Sternrassler/animals-etl-client/pkg/probe"
)

func main() {
	url := flag.String("url", getEnv("WAIT_URL", "http://localhost:3123/"), "URL to probe")
	timeout := flag.Int("timeout", getEnvInt("WAIT_TIMEOUT", 180), "Overall deadline in seconds")
	interval := flag.Int("interval", 1, "Pause between probes in seconds")
	flag.Parse()

	logging.Setup(logging.Config{Level: logging.LevelDebug, Pretty: true})

	err := probe.WaitForReady(context.Background(), *url, probe.Options{
		Timeout:  time.Duration(*timeout) * time.Second,
		Interval: time.Duration(*interval) * time.Second,
	})
	if err != nil {
		log.Fatalf("API not ready in time: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid %s value %q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
