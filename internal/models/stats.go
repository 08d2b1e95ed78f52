package models

import (
	"math"
	"time"
)

type PriorityStats struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

type Stats struct {
	Total          int           `json:"total"`
	Completed      int           `json:"completed"`
	Pending        int           `json:"pending"`
	Overdue        int           `json:"overdue"`
	CompletionRate float64       `json:"completion_rate"`
	PriorityStats  PriorityStats `json:"priority_stats"`
}

// ComputeStats menghitung statistik dari seluruh todo milik satu user.
// Todo dianggap overdue jika belum selesai dan due date-nya sebelum now.
func ComputeStats(todos []Todo, now time.Time) Stats {
	var s Stats
	s.Total = len(todos)
	for _, t := range todos {
		if t.Completed {
			s.Completed++
			continue
		}
		s.Pending++
		if t.DueDate != nil && t.DueDate.Before(now) {
			s.Overdue++
		}
		switch t.Priority {
		case PriorityHigh:
			s.PriorityStats.High++
		case PriorityMedium:
			s.PriorityStats.Medium++
		case PriorityLow:
			s.PriorityStats.Low++
		}
	}
	if s.Total > 0 {
		s.CompletionRate = math.Round(float64(s.Completed)/float64(s.Total)*1000) / 10
	}
	return s
}
