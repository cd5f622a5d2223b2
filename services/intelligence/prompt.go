package ai

import (
	"fmt"
	"strings"
	"time"

	"receptionist/models"
)

// messageMarker precedes the caller's utterance on the last prompt line.
const messageMarker = "Customer message: "

const historyInPrompt = 6

// BuildIntentPrompt renders the fixed classification instructions for one utterance.
func BuildIntentPrompt(shop models.ShopConfig, today time.Time, utterance string, history []models.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an AI assistant for %s barber shop", shop.Name)
	if shop.Location != "" {
		fmt.Fprintf(&b, " in %s", shop.Location)
	}
	b.WriteString(".\nAnalyze the customer's message and determine their intent.\n\n")
	b.WriteString(`Available intents:
- book_appointment: Customer wants to book an appointment
- check_availability: Customer asking about available times
- ask_hours: Customer asking about opening hours
- ask_services: Customer asking about services offered
- ask_prices: Customer asking about prices
- ask_location: Customer asking about location/address
- cancel_appointment: Customer wants to cancel existing appointment
- other: General inquiry or unclear intent

`)
	fmt.Fprintf(&b, "Today is %s (%s).\n", today.Format("2006-01-02"), today.Weekday())
	if names := shop.ServiceNames(); len(names) > 0 {
		fmt.Fprintf(&b, "Services offered: %s.\n", strings.Join(names, ", "))
	}
	b.WriteString(`Extract information like dates (today, tomorrow, Monday, etc.), times, services, and names.
Leave a field empty when it was not mentioned.

Respond with JSON only:
{
  "intent": "intent_name",
  "confidence": 0.95,
  "extracted_info": {
    "preferred_date": "YYYY-MM-DD",
    "preferred_time": "HH:MM (24h)",
    "service_type": "exact service name",
    "customer_name": "first name"
  }
}
`)

	if len(history) > 0 {
		start := 0
		if len(history) > historyInPrompt {
			start = len(history) - historyInPrompt
		}
		b.WriteString("\nRecent conversation:\n")
		for _, turn := range history[start:] {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Text)
		}
	}

	b.WriteString("\n")
	b.WriteString(messageMarker)
	b.WriteString(utterance)
	return b.String()
}

// utteranceFromPrompt recovers the caller's words from a rendered prompt.
func utteranceFromPrompt(prompt string) string {
	if i := strings.LastIndex(prompt, messageMarker); i >= 0 {
		return prompt[i+len(messageMarker):]
	}
	return prompt
}
