package utils

import (
	"fmt"
	"regexp"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+(?:\.[a-zA-Z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+)*@(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?\.)+[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

func ValidateEmail(email string) (bool, error) {
	if !emailRegex.MatchString(email) {
		return false, fmt.Errorf("error: email format incorrect")
	}
	return true, nil
}

// ValidatePhone accepts E.164-style numbers with an optional leading plus.
func ValidatePhone(phone string) (bool, error) {
	if !phoneRegex.MatchString(phone) {
		return false, fmt.Errorf("phone format incorrect")
	}
	return true, nil
}
