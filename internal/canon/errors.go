package canon

import "fmt"

func errInvalidURL(rawURL string) error {
	return fmt.Errorf("canon: invalid url format: %s", rawURL)
}

func errUnsafeURL(rawURL string) error {
	return fmt.Errorf("canon: unsafe url (ssrf risk): %s", rawURL)
}

func errDomainNotAllowed(rawURL string) error {
	return fmt.Errorf("canon: domain not allowed: %s", rawURL)
}
