// internal/dispatch/gateway.go
package dispatch

import (
    "context"
    "fmt"
    "os/exec"
    "strings"
    "time"
)

// Gateway delivers a message to a normalized address over the text channel.
// The engine treats delivery as a boolean contract: a non-nil error means
// "unknown / not sent" and must not advance any state.
type Gateway interface {
    Send(address, message string) error
}

// IMessageGateway shells an osascript send to the Messages app on a remote
// Mac over SSH. Delivery is fire-and-forget from the transport's point of
// view; a failed or timed-out command counts as not sent.
type IMessageGateway struct {
    SSHUser string
    SSHHost string
    Timeout time.Duration
}

func NewIMessageGateway(user, host string, timeout time.Duration) *IMessageGateway {
    if timeout <= 0 {
        timeout = 30 * time.Second
    }
    return &IMessageGateway{SSHUser: user, SSHHost: host, Timeout: timeout}
}

func (g *IMessageGateway) Send(address, message string) error {
    phone := NormalizePhone(address)
    if phone == "" {
        return fmt.Errorf("empty address after normalization")
    }

    script := fmt.Sprintf(`tell application "Messages"
        set targetService to (service 1 whose service type = iMessage)
        set targetBuddy to participant "%s" of targetService
        send "%s" to targetBuddy
    end tell`, phone, escapeQuotes(message))

    ctx, cancel := context.WithTimeout(context.Background(), g.Timeout)
    defer cancel()

    target := fmt.Sprintf("%s@%s", g.SSHUser, g.SSHHost)
    cmd := exec.CommandContext(ctx, "ssh", target, "osascript", "-e", script)
    if out, err := cmd.CombinedOutput(); err != nil {
        if ctx.Err() == context.DeadlineExceeded {
            return fmt.Errorf("send timed out after %s", g.Timeout)
        }
        return fmt.Errorf("ssh send failed: %v: %s", err, strings.TrimSpace(string(out)))
    }
    return nil
}

// NormalizePhone strips everything but digits.
func NormalizePhone(phone string) string {
    var b strings.Builder
    for _, r := range phone {
        if r >= '0' && r <= '9' {
            b.WriteRune(r)
        }
    }
    return b.String()
}

func escapeQuotes(s string) string {
    return strings.ReplaceAll(s, `"`, `\"`)
}

// FuncGateway adapts a function to the Gateway interface, used in tests and
// for the log-only dry-run mode.
type FuncGateway func(address, message string) error

func (f FuncGateway) Send(address, message string) error {
    return f(address, message)
}
