package conversation

import (
	"fmt"
	"strings"

	"receptionist/models"
)

// infoReply answers shop questions from configuration only.
func infoReply(intent models.Intent, shop models.ShopConfig) string {
	switch intent {
	case models.IntentAskHours:
		return fmt.Sprintf("We're open %s. Would you like to book an appointment?", shop.HoursSummary)
	case models.IntentAskServices:
		return fmt.Sprintf("We offer: %s. What service interests you?", strings.Join(shop.ServiceNames(), ", "))
	case models.IntentAskPrices:
		return fmt.Sprintf("Our prices are: %s. Which service would you like?", strings.Join(shop.PriceList(), ", "))
	case models.IntentAskLocation:
		return fmt.Sprintf("We're located in %s. Would you like directions or to book an appointment?", shop.Location)
	}
	return "How can I help you today?"
}
