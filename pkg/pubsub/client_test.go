package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/sweettreats-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		project, name, want string
	}{
		{"sweet", "orders", "projects/sweet/topics/orders"},
		{"sweet", " orders ", "projects/sweet/topics/orders"},
		{"sweet", "projects/other/topics/orders", "projects/other/topics/orders"},
		{"", "orders", ""},
		{"sweet", "", ""},
	}
	for _, tc := range cases {
		if got := topicResourceName(tc.project, tc.name); got != tc.want {
			t.Fatalf("topicResourceName(%q, %q) = %q, want %q", tc.project, tc.name, got, tc.want)
		}
	}
}

func TestNewClientRequiresProjectAndTopic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if _, err := NewClient(ctx, config.GCPConfig{}, config.PubSubConfig{OrdersTopic: "orders"}, nil); err != errProjectIDRequired {
		t.Fatalf("expected errProjectIDRequired, got %v", err)
	}
	if _, err := NewClient(ctx, config.GCPConfig{ProjectID: "sweet"}, config.PubSubConfig{}, nil); err != errNoTopic {
		t.Fatalf("expected errNoTopic, got %v", err)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	t.Parallel()

	var c *Client
	if c.Publisher("orders") != nil {
		t.Fatal("expected nil publisher")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error on nil client")
	}
}
