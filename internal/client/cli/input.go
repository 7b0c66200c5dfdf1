package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var (
	ErrEmptyPassword    = errors.New("password is empty")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// readLine reads a single line from r with the trailing newline removed.
// EOF after some input returns the partial line.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptPassword prints prompt to w and reads a password from the terminal
// without echo. A newline is printed after the read to keep the UI tidy.
func promptPassword(w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// password obtains the password for a command. With fromStdin set the
// first line of in is used; otherwise the user is prompted, twice when
// confirm is set.
func password(in io.Reader, w io.Writer, fromStdin, confirm bool) (string, error) {
	var (
		pw  string
		err error
	)
	if fromStdin {
		pw, err = readLine(in)
	} else {
		pw, err = promptPassword(w, "Password: ")
	}
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if pw == "" {
		return "", ErrEmptyPassword
	}
	if fromStdin || !confirm {
		return pw, nil
	}

	again, err := promptPassword(w, "Repeat password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if again != pw {
		return "", ErrPasswordMismatch
	}
	return pw, nil
}
