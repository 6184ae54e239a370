package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"
)

const dayLayout = "02-01-2006"

type snapshot struct {
	Date                    string         `json:"date"`
	Shift                   int            `json:"shift"`
	CPUUsage                map[string]any `json:"cpu_usage"`
	MemoryUsage             map[string]any `json:"memory_usage"`
	ApplicationAvailability map[string]any `json:"application_availability"`
}

var components = []string{"blc-be", "blc-fe", "gco-be", "gco-fe", "sbp-be", "sbp-fe", "argocd", "ingress-nginx"}

func main() {
	target := flag.String("target", "http://localhost:5000", "Base URL of the shift report HTTP API")
	from := flag.String("from", time.Now().AddDate(0, 0, -30).Format(dayLayout), "First date to seed (dd-mm-yyyy)")
	days := flag.Int("days", 30, "Number of consecutive days to seed")
	shifts := flag.Int("shifts", 3, "Shift snapshots per day")
	downRate := flag.Float64("down-rate", 0.05, "Probability that the critical component reports down in a shift")
	flag.Parse()

	start, err := time.Parse(dayLayout, *from)
	if err != nil {
		log.Fatalf("invalid -from date: %v", err)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	rng := rand.New(rand.NewSource(start.Unix()))

	for d := 0; d < *days; d++ {
		date := start.AddDate(0, 0, d).Format(dayLayout)
		for shift := 1; shift <= *shifts; shift++ {
			if err := post(client, *target+"/add", generate(rng, date, shift, *downRate)); err != nil {
				log.Fatalf("seed %s shift %d: %v", date, shift, err)
			}
		}
		log.Printf("seeded %s", date)
	}
}

func generate(rng *rand.Rand, date string, shift int, downRate float64) snapshot {
	s := snapshot{
		Date:                    date,
		Shift:                   shift,
		CPUUsage:                map[string]any{},
		MemoryUsage:             map[string]any{},
		ApplicationAvailability: map[string]any{},
	}
	for _, c := range components {
		s.CPUUsage[c] = float64(rng.Intn(900)+50) / 1000
		s.MemoryUsage[c] = rng.Intn(1800) + 128
		s.ApplicationAvailability[c] = "100%"
	}
	if rng.Float64() < downRate {
		s.CPUUsage["sbp-be"] = "down"
		s.MemoryUsage["sbp-be"] = "down"
		s.ApplicationAvailability["sbp-be"] = "0%"
	}
	return s
}

func post(client *http.Client, url string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
