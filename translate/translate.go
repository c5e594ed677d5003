// Package translate formats user facing messages in the host's language.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("ls8: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}

// Logf translates a message and prints it to logger, or to the standard
// logger when logger is nil.
func Logf(logger *log.Logger, key message.Reference, args ...any) {
	if logger == nil {
		logger = log.Default()
	}
	logger.Print(printer.Sprintf(key, args...))
}
