package redisq

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/tweetsched/internal/queue"
)

func TestReceiptRoundTrip(t *testing.T) {
	receipt := formatReceipt("msg-1", "tok-1")

	id, token, err := parseReceipt(receipt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "msg-1" || token != "tok-1" {
		t.Errorf("expected msg-1/tok-1, got %s/%s", id, token)
	}
}

func TestParseReceipt_Invalid(t *testing.T) {
	for _, bad := range []string{"", "no-separator", ":tok", "id:"} {
		if _, _, err := parseReceipt(bad); !errors.Is(err, queue.ErrReceiptNotFound) {
			t.Errorf("parseReceipt(%q): expected ErrReceiptNotFound, got %v", bad, err)
		}
	}
}

func TestKeys_HashTag(t *testing.T) {
	k := newKeys("tweet-processor")

	all := append(k.script(), k.exists)
	for _, key := range all {
		if !strings.HasPrefix(key, "tweetsched:{tweet-processor}:") {
			t.Errorf("key %s should share the queue hash tag", key)
		}
	}

	if len(k.script()) != 6 {
		t.Errorf("scripts expect 6 keys, got %d", len(k.script()))
	}
	if k.script()[0] != k.visible || k.script()[5] != k.dead {
		t.Error("script keys out of order")
	}
}

func TestParseReceived(t *testing.T) {
	reply := []any{"msg-1", `{"tweet":"a"}`, int64(3), "1700000000000"}

	msg, err := parseReceived(reply, "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.ID != "msg-1" {
		t.Errorf("expected id msg-1, got %s", msg.ID)
	}
	if msg.Receipt != "msg-1:tok" {
		t.Errorf("expected receipt msg-1:tok, got %s", msg.Receipt)
	}
	if string(msg.Body) != `{"tweet":"a"}` {
		t.Errorf("unexpected body %s", msg.Body)
	}
	if msg.ReceiveCount != 3 {
		t.Errorf("expected receive count 3, got %d", msg.ReceiveCount)
	}
	if !msg.SentAt.Equal(time.UnixMilli(1_700_000_000_000)) {
		t.Errorf("unexpected sent at %v", msg.SentAt)
	}
}

func TestParseReceived_Unexpected(t *testing.T) {
	if _, err := parseReceived("OK", "tok"); err == nil {
		t.Error("expected error for non-array reply")
	}
	if _, err := parseReceived([]any{"a"}, "tok"); err == nil {
		t.Error("expected error for short reply")
	}
}
