package validation

import (
	"strings"

	"mindmetric/internal/domain"

	"github.com/oklog/ulid/v2"
)

// ValidateTestType checks that the requested test type names a known preset.
func ValidateTestType(testType string) error {
	if strings.TrimSpace(testType) == "" {
		return domain.NewMissingFieldError("test_type")
	}
	if _, ok := domain.PresetFor(domain.TestType(testType)); !ok {
		return domain.NewInvalidFormatError("test_type", testType)
	}
	return nil
}

// ValidateTimeLimit checks a custom time limit against the configured bounds.
// Zero means "use the preset default" and is always accepted.
func ValidateTimeLimit(timeLimitSec, minSec, maxSec int) error {
	if timeLimitSec == 0 {
		return nil
	}
	if timeLimitSec < minSec || timeLimitSec > maxSec {
		return domain.NewOutOfRangeError("time_limit", timeLimitSec, minSec, maxSec)
	}
	return nil
}

// ValidateULID checks that id parses as a ULID.
func ValidateULID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewMissingFieldError(field)
	}
	if _, err := ulid.ParseStrict(id); err != nil {
		return domain.NewInvalidFormatError(field, id)
	}
	return nil
}

// ValidateResponseTime checks the client-reported response duration.
func ValidateResponseTime(responseTimeMs int64) error {
	if responseTimeMs < 0 {
		return domain.NewOutOfRangeError("response_time", responseTimeMs, 0, "any positive value")
	}
	return nil
}
