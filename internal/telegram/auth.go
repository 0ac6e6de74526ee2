package telegram

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// ErrSignUpUnsupported is returned when the phone number has no account.
var ErrSignUpUnsupported = errors.New("sign up is not supported, register with an official client first")

// PromptAuth is an interactive auth.UserAuthenticator. The phone comes from
// configuration; the code and the 2FA password are read line by line.
type PromptAuth struct {
	phone string
	in    *bufio.Reader
	out   io.Writer
}

var _ auth.UserAuthenticator = (*PromptAuth)(nil)

// NewPromptAuth creates a PromptAuth. An empty phone is prompted for too.
func NewPromptAuth(phone string, in io.Reader, out io.Writer) *PromptAuth {
	return &PromptAuth{phone: phone, in: bufio.NewReader(in), out: out}
}

func (a *PromptAuth) ask(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (a *PromptAuth) Phone(_ context.Context) (string, error) {
	if a.phone != "" {
		return a.phone, nil
	}
	return a.ask("Phone number: ")
}

func (a *PromptAuth) Password(_ context.Context) (string, error) {
	return a.ask("2FA password: ")
}

func (a *PromptAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return a.ask("Login code: ")
}

func (a *PromptAuth) AcceptTermsOfService(_ context.Context, tos tg.HelpTermsOfService) error {
	return &auth.SignUpRequired{TermsOfService: tos}
}

func (a *PromptAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, ErrSignUpUnsupported
}
