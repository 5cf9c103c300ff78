package models

import (
	"fmt"
	"strings"
)

// UserStatistics is the reporting view of a single participant
type UserStatistics struct {
	Handle     string `json:"handle"`
	Name       string `json:"name"`
	Registered bool   `json:"registered"`
}

// Statistics is the admin report over every known participant, in insertion order
type Statistics struct {
	Users []UserStatistics `json:"users"`
}

// RegisteredCount returns how many participants completed registration
func (s *Statistics) RegisteredCount() int {
	count := 0
	for _, u := range s.Users {
		if u.Registered {
			count++
		}
	}
	return count
}

// Total returns the number of known participants
func (s *Statistics) Total() int {
	return len(s.Users)
}

// String renders the admin statistics report
func (s *Statistics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Registered users: %d of %d\n", s.RegisteredCount(), s.Total())
	for _, u := range s.Users {
		status := "❌"
		if u.Registered {
			status = "✅"
		}
		fmt.Fprintf(&b, "%s %s (%s)\n", status, u.Handle, u.Name)
	}
	return b.String()
}
