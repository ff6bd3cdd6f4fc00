package core

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Render(t *testing.T) {
	data := struct {
		Name, Email, Role, UID, Token string
	}{Name: "Ada", Email: "ada@test.cd", Role: "student", UID: "dWlk", Token: "tok-en"}

	tests := []struct {
		name     string
		msg      EmailMessage
		wantErr  bool
		wantText []string
		wantHTML []string
	}{
		{
			name:     "plain body",
			msg:      EmailMessage{BodyStr: "hello"},
			wantText: []string{"hello"},
		},
		{
			name:     "welcome",
			msg:      EmailMessage{TemplateName: "welcome", TemplateData: data, FrontendBaseURL: "http://front.test"},
			wantText: []string{"Hi Ada,", "Your student account (ada@test.cd) is ready.", "http://front.test"},
			wantHTML: []string{"<strong>ada@test.cd</strong>", "<!DOCTYPE html>"},
		},
		{
			name:     "password reset",
			msg:      EmailMessage{TemplateName: "password_reset", TemplateData: data, FrontendBaseURL: "http://front.test"},
			wantText: []string{"http://front.test/password-reset/dWlk/tok-en"},
			wantHTML: []string{`href="http://front.test/password-reset/dWlk/tok-en"`},
		},
		{name: "unknown template", msg: EmailMessage{TemplateName: "lol"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.msg
			err := msg.Render()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, msg.HasContent())
			for _, s := range tt.wantText {
				assert.Contains(t, msg.TextContent, s)
			}
			for _, s := range tt.wantHTML {
				assert.Contains(t, msg.HTMLContent, s)
			}
		})
	}
}

func TestEmailMessage_Attach(t *testing.T) {
	msg := EmailMessage{To: []mail.Address{{Address: "ada@test.cd"}}}
	require.NoError(t, msg.Attach(strings.NewReader("hello world"), "hello.txt"))
	require.NoError(t, msg.Attach(strings.NewReader("{}"), "data.json", "application/json"))

	assert.True(t, msg.HasRecipients())
	assert.True(t, msg.HasAttachments())
	assert.Len(t, msg.Attachments, 2)
	assert.Equal(t, "aGVsbG8gd29ybGQ=", msg.Attachments[0].Content.String())
	assert.Equal(t, "text/plain; charset=utf-8", msg.Attachments[0].ContentType)
	assert.Equal(t, "application/json", msg.Attachments[1].ContentType)
}
