package email

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestFormatAddress(t *testing.T) {
	if got := FormatAddress("Yuvak Mandal", "mandal@example.com"); got != `"Yuvak Mandal" <mandal@example.com>` {
		t.Errorf("FormatAddress = %q", got)
	}
	if got := FormatAddress("", "mandal@example.com"); got != "mandal@example.com" {
		t.Errorf("FormatAddress without name = %q", got)
	}
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := s.Send(context.Background(), Message{To: "alice@example.com", Subject: "Hello"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(buf.String(), "alice@example.com") {
		t.Errorf("log output %q does not mention recipient", buf.String())
	}
}

func TestSMTPCompose(t *testing.T) {
	c := NewSMTPClient("smtp.example.com", 587, "user", "pass", "Yuvak Mandal <mandal@example.com>")

	var buf bytes.Buffer
	if _, err := c.compose(Message{To: "alice@example.com", Subject: "Sabha moved", Text: "Starts at 6pm"}).WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}

	raw := buf.String()
	for _, want := range []string{"To: alice@example.com", "Subject: Sabha moved", "Starts at 6pm", "mandal@example.com"} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q:\n%s", want, raw)
		}
	}
}

func TestSMTPSendCanceled(t *testing.T) {
	c := NewSMTPClient("127.0.0.1", 1, "", "", "noreply@example.com")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Send(ctx, Message{To: "alice@example.com"}); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestSMTPSendStalledRelay(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	// Accept connections and never send the SMTP greeting.
	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})

	port := ln.Addr().(*net.TCPAddr).Port
	c := NewSMTPClient("127.0.0.1", port, "", "", "noreply@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = c.Send(ctx, Message{To: "alice@example.com", Subject: "Hello", Text: "hi"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Send returned after %v, want close to the 200ms deadline", elapsed)
	}
}
