package service

import (
	"time"

	"feastly/membership-service/internal/errors"
)

// validateSubscribeRequest rejects malformed card input before anything
// reaches the gateway.
func validateSubscribeRequest(req *SubscribeRequest) error {
	if !req.TermsAccepted {
		return errors.InvalidArgument("you must accept the terms and conditions to start a subscription")
	}
	if n := len(req.CardNumber); n < 13 || n > 19 || !allDigits(req.CardNumber) {
		return errors.InvalidArgument("card number must be 13-19 digits")
	}
	if req.ExpMonth < 1 || req.ExpMonth > 12 {
		return errors.InvalidArgument("expiration month must be between 1 and 12")
	}
	if req.ExpYear < time.Now().UTC().Year() {
		return errors.InvalidArgument("card is expired")
	}
	if n := len(req.CVC); n < 3 || n > 4 || !allDigits(req.CVC) {
		return errors.InvalidArgument("cvv must be 3 or 4 digits")
	}
	if req.NameOnCard == "" || len(req.NameOnCard) > 100 {
		return errors.InvalidArgument("name on card is required")
	}
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
