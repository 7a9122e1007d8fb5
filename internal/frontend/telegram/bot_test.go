package telegram

import (
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vadimtrunov/MediaWatch/internal/core"
)

func TestMapPublishError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want core.PublishKind
	}{
		{
			name: "rate limited api error",
			err: &tgbotapi.Error{
				Code:               429,
				Message:            "Too Many Requests: retry after 7",
				ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 7},
			},
			want: core.PublishRateLimited,
		},
		{
			name: "forbidden api error",
			err:  &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was kicked"},
			want: core.PublishForbidden,
		},
		{
			name: "edit target gone",
			err:  &tgbotapi.Error{Code: 400, Message: "Bad Request: message to edit not found"},
			want: core.PublishNotFound,
		},
		{
			name: "plain rate limit string",
			err:  errors.New("Too Many Requests: retry later"),
			want: core.PublishRateLimited,
		},
		{
			name: "plain not found string",
			err:  errors.New("Bad Request: message to edit not found"),
			want: core.PublishNotFound,
		},
		{
			name: "plain forbidden string",
			err:  errors.New("Forbidden: bot is not a member"),
			want: core.PublishForbidden,
		},
		{
			name: "anything else",
			err:  errors.New("Bad Request: chat not found"),
			want: core.PublishOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapPublishError(tt.err)
			if !core.IsPublishKind(got, tt.want) {
				t.Errorf("mapPublishError(%v) kind = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestMapPublishErrorRetryAfter(t *testing.T) {
	err := mapPublishError(&tgbotapi.Error{
		Code:               429,
		Message:            "Too Many Requests: retry after 12",
		ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 12},
	})

	var pubErr *core.PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("expected *core.PublishError, got %T", err)
	}
	if pubErr.RetryAfter != 12*time.Second {
		t.Errorf("RetryAfter = %v, want 12s", pubErr.RetryAfter)
	}
}

func TestIsAdmin(t *testing.T) {
	b := &Bot{admins: map[int64]bool{42: true, 7: true}}

	if !b.isAdmin(42) {
		t.Error("expected 42 to be an admin")
	}
	if b.isAdmin(99) {
		t.Error("expected 99 to be rejected")
	}

	// An empty admin list locks everyone out.
	locked := &Bot{admins: map[int64]bool{}}
	if locked.isAdmin(42) {
		t.Error("empty admin list must reject everyone")
	}
}
