package rewards

import (
	"fmt"
	"strconv"
)

// AnswerCode computes the checksum the quiz page stores as its correct
// answer marker: the sum of the option text's code points plus the last two
// hex digits of the page's session key, rendered as a decimal string.
func AnswerCode(key, answer string) (string, error) {
	if len(key) < 2 {
		return "", fmt.Errorf("session key %q too short", key)
	}
	offset, err := strconv.ParseInt(key[len(key)-2:], 16, 64)
	if err != nil {
		return "", fmt.Errorf("session key %q has a non-hex suffix: %w", key, err)
	}

	var sum int64
	for _, r := range answer {
		sum += int64(r)
	}
	return strconv.FormatInt(sum+offset, 10), nil
}
