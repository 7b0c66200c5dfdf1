package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/filex"
)

var ErrNotLoggedIn = errors.New("not logged in, run `authctl login` first")

func saveToken(path, token string) error {
	if err := filex.WriteSecret(path, []byte(token+"\n")); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func loadToken(path string) (string, error) {
	data, err := filex.ReadSecret(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}
