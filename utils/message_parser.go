package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var mentionRegex = regexp.MustCompile(`^<(?:@&|@!?|#)(\d+)>$`)

// ParseSnowflake accepts a raw numeric ID or a role/user/channel mention and
// returns the ID it carries.
func ParseSnowflake(input string) (string, error) {
	input = strings.TrimSpace(input)
	if match := mentionRegex.FindStringSubmatch(input); match != nil {
		input = match[1]
	}
	id, err := strconv.ParseUint(input, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%q is not a valid ID", input)
	}
	return strconv.FormatUint(id, 10), nil
}
