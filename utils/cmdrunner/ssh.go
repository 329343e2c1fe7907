package cmdrunner

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

const (
	defaultSSHPort    = 22
	defaultSSHTimeout = 10 * time.Second
)

// Credential represents either a password or a private key path for SSH
// authentication.
type Credential struct {
	Password string
	KeyPath  string
}

// SSH runs commands on a remote host over an established SSH client. It
// satisfies Runner so the install pipeline can prepare remote analysis
// hosts the same way it prepares the local one.
type SSH struct {
	client *ssh.Client
}

// NewSSH wraps an existing SSH client.
func NewSSH(client *ssh.Client) *SSH {
	return &SSH{client: client}
}

// ConnectSSH dials host:port and returns a remote runner.
func ConnectSSH(host string, port int, username string, cred Credential) (*SSH, error) {
	host = strings.TrimSpace(host)
	username = strings.TrimSpace(username)
	if host == "" {
		return nil, CredentialError{Reason: "host is required"}
	}
	if username == "" {
		return nil, CredentialError{Reason: "username is required"}
	}

	authMethod, err := cred.authMethod()
	if err != nil {
		return nil, err
	}

	if port <= 0 {
		port = defaultSSHPort
	}

	config := &ssh.ClientConfig{
		User:            username,
		Auth:            []ssh.AuthMethod{authMethod},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // callers should replace when host key management is available
		Timeout:         defaultSSHTimeout,
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, DialError{Addr: addr, Err: err}
	}
	return &SSH{client: client}, nil
}

// Run executes argv on the remote host. The argv elements are quoted
// individually before transport, preserving the no-interpolation contract.
func (s *SSH) Run(ctx context.Context, argv []string) (string, string, error) {
	if len(argv) == 0 {
		return "", "", EmptyCommandError{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	session, err := s.client.NewSession()
	if err != nil {
		return "", "", StartError{Command: argv[0], Err: err}
	}
	defer func() {
		_ = session.Close()
	}()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(quoteArgv(argv))
	}()

	select {
	case <-ctx.Done():
		_ = session.Close()
		<-done
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return stdout.String(), stderr.String(), TimeoutError{Command: argv[0], Err: ctx.Err()}
		}
		return stdout.String(), stderr.String(), StartError{Command: argv[0], Err: ctx.Err()}
	case err = <-done:
	}

	if err == nil {
		return stdout.String(), stderr.String(), nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return stdout.String(), stderr.String(), ExitError{
			Command: argv[0],
			Code:    exitErr.ExitStatus(),
			Stderr:  stderr.String(),
			Err:     err,
		}
	}
	return stdout.String(), stderr.String(), StartError{Command: argv[0], Err: err}
}

// Close tears down the underlying SSH connection.
func (s *SSH) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (c Credential) authMethod() (ssh.AuthMethod, error) {
	hasPassword := strings.TrimSpace(c.Password) != ""
	hasKey := strings.TrimSpace(c.KeyPath) != ""

	switch {
	case hasPassword && hasKey:
		return nil, CredentialError{Reason: "provide either password or key path, not both"}
	case !hasPassword && !hasKey:
		return nil, CredentialError{Reason: "password or key path required"}
	case hasPassword:
		return ssh.Password(c.Password), nil
	}

	keyBytes, err := os.ReadFile(c.KeyPath)
	if err != nil {
		return nil, CredentialError{Reason: "unable to read key: " + err.Error()}
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, CredentialError{Reason: "unable to parse key: " + err.Error()}
	}
	return ssh.PublicKeys(signer), nil
}
