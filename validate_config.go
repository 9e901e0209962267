package main

import (
	"errors"
	"fmt"
	"strconv"
)

var errInvalidPort = errors.New("invalid port")

const recommendedRange = "Recommend port in range 49152 -> 65535"

// checkPort rejects ports that cannot be listened on and warns about ports
// outside the dynamic range.
func checkPort(port int) (string, error) {
	switch {
	case port == 0:
		return "", fmt.Errorf("%w: no port defined", errInvalidPort)
	case port > 0 && port <= 1023:
		return fmt.Sprintf("Specified port (%d) is within 'Well known port' range. %s", port, recommendedRange), nil
	case port >= 1024 && port <= 49151:
		return fmt.Sprintf("Specified port (%d) is within 'Registered port' range. %s", port, recommendedRange), nil
	case port >= 49152 && port <= 65535:
		return "", nil
	case port > 65535:
		return "", fmt.Errorf("%w: port %d too large. %s", errInvalidPort, port, recommendedRange)
	}
	return "", fmt.Errorf("%w: unable to validate port %d", errInvalidPort, port)
}

func checkPortString(port string) (string, error) {
	portInt, err := strconv.Atoi(port)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a valid integer", errInvalidPort, port)
	}
	return checkPort(portInt)
}
