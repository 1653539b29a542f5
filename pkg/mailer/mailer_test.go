package mailer

import (
	"context"
	"testing"

	"user-management/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRenderWelcome(t *testing.T) {
	t.Run("includes name and address", func(t *testing.T) {
		body, err := RenderWelcome("john@example.com", "John")

		require.NoError(t, err)
		assert.Contains(t, body, "Hi John,")
		assert.Contains(t, body, "john@example.com")
	})

	t.Run("escapes html", func(t *testing.T) {
		body, err := RenderWelcome("a@b.com", "<script>x</script>")

		require.NoError(t, err)
		assert.NotContains(t, body, "<script>")
		assert.Contains(t, body, "&lt;script&gt;")
	})
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("noreply@app.test", "john@example.com", "Hello", "<p>hi</p>"))

	assert.Contains(t, msg, "From: noreply@app.test\r\n")
	assert.Contains(t, msg, "To: john@example.com\r\n")
	assert.Contains(t, msg, "Subject: Hello\r\n")
	assert.Contains(t, msg, "Content-Type: text/html")
	assert.True(t, len(msg) > 0 && msg[len(msg)-len("<p>hi</p>"):] == "<p>hi</p>")
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	err := n.SendWelcome(context.Background(), "john@example.com", "John")

	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "john@example.com", fields["email"])
	assert.Equal(t, "John", fields["display_name"])
}

func TestNew_SelectsByConfig(t *testing.T) {
	log := zap.NewNop()

	assert.IsType(t, &LogNotifier{}, New(utils.EmailConfig{}, log))

	smtpNotifier := New(utils.EmailConfig{Host: "smtp.example.com", Port: 587, User: "bot@example.com"}, log)
	require.IsType(t, &SMTPNotifier{}, smtpNotifier)
	assert.Equal(t, "bot@example.com", smtpNotifier.(*SMTPNotifier).cfg.From)
}

func TestSMTPNotifier_DialFailure(t *testing.T) {
	n := NewSMTPNotifier(utils.EmailConfig{Host: "127.0.0.1", Port: 1}, zap.NewNop())

	err := n.SendWelcome(context.Background(), "john@example.com", "John")

	assert.Error(t, err)
}
