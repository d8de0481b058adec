// Package accounts loads and validates the credential file the run operates
// on.
package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"regexp"

	"go.uber.org/zap"

	"github.com/xkilldash9x/rewards-cli/api/schemas"
)

// ErrNoAccounts means the credential file did not exist; a template has been
// written for the operator to fill in.
var ErrNoAccounts = errors.New("no accounts file")

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

var template = []schemas.Account{
	{Username: "Your Email", Password: "Your Password"},
}

// Load reads the accounts file, drops entries with invalid usernames, and
// shuffles the rest so accounts are not always visited in file order. When
// the file is missing a template is written and ErrNoAccounts returned.
func Load(logger *zap.Logger, path string) ([]schemas.Account, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if werr := writeTemplate(path); werr != nil {
			return nil, fmt.Errorf("writing accounts template %s: %w", path, werr)
		}
		logger.Warn("Accounts file not found, template created; fill it in and rerun",
			zap.String("path", path))
		return nil, ErrNoAccounts
	}
	if err != nil {
		return nil, fmt.Errorf("reading accounts file %s: %w", path, err)
	}

	var raw []schemas.Account
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding accounts file %s: %w", path, err)
	}

	loaded := make([]schemas.Account, 0, len(raw))
	for _, a := range raw {
		if !emailPattern.MatchString(a.Username) {
			logger.Warn("Skipping account with invalid email", zap.String("username", a.Username))
			continue
		}
		loaded = append(loaded, a)
	}

	rand.Shuffle(len(loaded), func(i, j int) {
		loaded[i], loaded[j] = loaded[j], loaded[i]
	})
	return loaded, nil
}

func writeTemplate(path string) error {
	data, err := json.MarshalIndent(template, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
