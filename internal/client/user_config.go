package client

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const maxNameLength = 32

// SetupClientConfig loads the client settings from filePath, asking for them
// on in when the file is missing or empty, or when manualSet is true.
func SetupClientConfig(filePath string, manualSet bool, in io.Reader, out io.Writer) (*ClientConfig, error) {
	var cfg ClientConfig

	existing, err := os.ReadFile(filePath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("could not read client config: %w", err)
	}

	if manualSet || len(existing) == 0 {
		scanner := bufio.NewScanner(in)
		cfg.Name, err = AskUserDetailsCLI(scanner, out)
		if err != nil {
			return nil, err
		}
		jsonOut, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(filePath, jsonOut, 0o644); err != nil {
			return nil, fmt.Errorf("could not save client config: %w", err)
		}
		return &cfg, nil
	}

	if err := json.Unmarshal(existing, &cfg); err != nil {
		return nil, fmt.Errorf("could not parse client config %s: %w", filePath, err)
	}
	return &cfg, nil
}

func AskUserDetailsCLI(scanner *bufio.Scanner, out io.Writer) (string, error) {
	next := func() (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	fmt.Fprintln(out, "Configure client details...")
	fmt.Fprintf(out, "Please enter a name (Max %d char): ", maxNameLength)
	name, err := next()
	if err != nil {
		return "", err
	}
	for {
		if name == "" || len(name) > maxNameLength {
			fmt.Fprintf(out, "Name must be 1 to %d characters, please try again: ", maxNameLength)
			if name, err = next(); err != nil {
				return "", err
			}
			continue
		}

		fmt.Fprintf(out, "Are you happy with this name (%v)? Y/N\n", name)
		confirm, err := next()
		if err != nil {
			return "", err
		}
		switch strings.ToLower(confirm) {
		case "y":
			return name, nil
		case "n":
			fmt.Fprintf(out, "Please enter a name (Max %d char): ", maxNameLength)
			if name, err = next(); err != nil {
				return "", err
			}
		default:
			fmt.Fprintln(out, "Invalid response, please use Y or N")
		}
	}
}
