package models

import (
	"fmt"
	"strings"
	"time"
)

// DayHours is an opening window in "HH:MM" wall time. An empty Open means closed.
type DayHours struct {
	Open  string `mapstructure:"open" json:"open,omitempty"`
	Close string `mapstructure:"close" json:"close,omitempty"`
}

// BusinessHours maps lowercase weekday names ("monday") to opening windows.
type BusinessHours map[string]DayHours

// For returns the opening window of a weekday in minutes from midnight.
func (h BusinessHours) For(day time.Weekday) (open, close int, ok bool) {
	dh, found := h[strings.ToLower(day.String())]
	if !found || dh.Open == "" || dh.Close == "" {
		return 0, 0, false
	}
	open, err := ParseClock(dh.Open)
	if err != nil {
		return 0, 0, false
	}
	close, err = ParseClock(dh.Close)
	if err != nil || close <= open {
		return 0, 0, false
	}
	return open, close, true
}

// ParseClock converts "HH:MM" into minutes from midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid wall time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Service is one entry in the shop's catalog.
type Service struct {
	ID              string   `mapstructure:"id" json:"id"`
	Name            string   `mapstructure:"name" json:"name"`
	DurationMinutes int      `mapstructure:"duration_minutes" json:"duration_minutes"`
	Price           string   `mapstructure:"price" json:"price"`
	Aliases         []string `mapstructure:"aliases" json:"aliases,omitempty"`
}

// ShopConfig is the shop description consumed by the conversation core.
type ShopConfig struct {
	Name                   string
	Location               string
	Phone                  string
	Timezone               *time.Location
	Languages              []string
	Hours                  BusinessHours
	HoursSummary           string
	Greeting               string
	Services               []Service
	DefaultDurationMinutes int
}

// Duration returns the booking length of a service, falling back to the default.
func (c ShopConfig) Duration(service string) time.Duration {
	if svc, ok := c.LookupService(service); ok && svc.DurationMinutes > 0 {
		return time.Duration(svc.DurationMinutes) * time.Minute
	}
	if c.DefaultDurationMinutes > 0 {
		return time.Duration(c.DefaultDurationMinutes) * time.Minute
	}
	return 30 * time.Minute
}

// LookupService matches free text against service ids, names and aliases.
func (c ShopConfig) LookupService(text string) (Service, bool) {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return Service{}, false
	}
	for _, svc := range c.Services {
		if needle == strings.ToLower(svc.ID) || needle == strings.ToLower(svc.Name) {
			return svc, true
		}
	}
	for _, svc := range c.Services {
		for _, alias := range svc.Aliases {
			if needle == strings.ToLower(alias) {
				return svc, true
			}
		}
	}
	return Service{}, false
}

// FindServiceIn returns the first catalog service mentioned anywhere in text.
// Longer names win so "full service" beats "haircut" inside the same sentence.
func (c ShopConfig) FindServiceIn(text string) (Service, bool) {
	lower := strings.ToLower(text)
	best, bestLen := Service{}, 0
	for _, svc := range c.Services {
		for _, term := range append([]string{svc.Name, svc.ID}, svc.Aliases...) {
			term = strings.ToLower(strings.TrimSpace(term))
			if term != "" && strings.Contains(lower, term) && len(term) > bestLen {
				best, bestLen = svc, len(term)
			}
		}
	}
	return best, bestLen > 0
}

// ServiceNames lists display names, e.g. for "we offer ..." prompts.
func (c ShopConfig) ServiceNames() []string {
	names := make([]string, 0, len(c.Services))
	for _, svc := range c.Services {
		names = append(names, strings.ToLower(svc.Name))
	}
	return names
}

// PriceList renders "Haircut - $15" entries.
func (c ShopConfig) PriceList() []string {
	list := make([]string, 0, len(c.Services))
	for _, svc := range c.Services {
		if svc.Price == "" {
			list = append(list, svc.Name)
			continue
		}
		list = append(list, fmt.Sprintf("%s - %s", svc.Name, svc.Price))
	}
	return list
}

// Loc returns the shop time zone, defaulting to UTC.
func (c ShopConfig) Loc() *time.Location {
	if c.Timezone == nil {
		return time.UTC
	}
	return c.Timezone
}

// Welcome returns the call-opening line.
func (c ShopConfig) Welcome() string {
	if c.Greeting != "" {
		return c.Greeting
	}
	return fmt.Sprintf("Welcome to %s barber shop. How can I help you today?", c.Name)
}
