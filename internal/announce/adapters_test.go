package announce

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

func TestDiscordAdapterPayload(t *testing.T) {
	var got map[string]any
	client := newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return emptyResponse(http.StatusNoContent), nil
	})

	err := NewDiscordAdapter(client).Send(context.Background(), "https://discord.example/webhook", "", Message{
		Title:       "Victory",
		Content:     "alice defeated bob",
		Description: "desc",
		Color:       colorWin,
		Timestamp:   "2026-01-01T00:00:00Z",
		Footer:      "footer-text",
		Fields:      []Field{{Name: "Turns", Value: "7", Inline: true}},
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if got["content"] != "alice defeated bob" {
		t.Fatalf("unexpected content: %v", got["content"])
	}
	embeds, ok := got["embeds"].([]any)
	if !ok || len(embeds) != 1 {
		t.Fatalf("unexpected embeds: %#v", got["embeds"])
	}
	embed := embeds[0].(map[string]any)
	if embed["color"] != float64(colorWin) || embed["timestamp"] != "2026-01-01T00:00:00Z" {
		t.Fatalf("unexpected embed: %#v", embed)
	}
	footer, ok := embed["footer"].(map[string]any)
	if !ok || footer["text"] != "footer-text" {
		t.Fatalf("unexpected footer: %#v", embed["footer"])
	}
	fields := embed["fields"].([]any)
	if len(fields) != 1 || fields[0].(map[string]any)["name"] != "Turns" {
		t.Fatalf("unexpected fields: %#v", fields)
	}
}

func TestFeishuAdapterSignatureAndCard(t *testing.T) {
	var sig string
	var got map[string]any
	client := newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		defer r.Body.Close()
		sig = r.Header.Get("X-Lark-Signature")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return emptyResponse(http.StatusOK), nil
	})

	err := NewFeishuAdapter(client).Send(context.Background(), "https://open.feishu.example/hook", " sig-1 ", Message{
		Title:   "Draw",
		Content: "alice and bob drew",
		Fields:  []Field{{Name: "Reason", Value: "KO"}},
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if sig != "sig-1" {
		t.Fatalf("signature = %q, want sig-1", sig)
	}
	if got["msg_type"] != "interactive" {
		t.Fatalf("msg_type = %v", got["msg_type"])
	}
	card := got["card"].(map[string]any)
	elements := card["elements"].([]any)
	if len(elements) != 2 {
		t.Fatalf("elements = %d, want 2", len(elements))
	}
	if text := elements[0].(map[string]any)["text"]; text != "alice and bob drew" {
		t.Fatalf("fallback text = %v", text)
	}
	if text := elements[1].(map[string]any)["text"]; text != "**Reason**: KO" {
		t.Fatalf("field text = %v", text)
	}
}

func TestHTTPClientNon2xxFails(t *testing.T) {
	client := newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		return emptyResponse(http.StatusTooManyRequests), nil
	})
	if err := client.PostJSON(context.Background(), "https://x.example", nil, map[string]string{}); err == nil {
		t.Fatal("expected error for 429")
	}
}
